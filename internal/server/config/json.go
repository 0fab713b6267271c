package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from the zero value.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	AccessSecret                 *string         `json:"access_secret"`
	RefreshSecret                *string         `json:"refresh_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RefreshTokenTransport        *string         `json:"refresh_token_transport"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	BcryptCost                   *int            `json:"bcrypt_cost"`
	SMTPHost                     *string         `json:"smtp_host"`
	SMTPPort                     *int            `json:"smtp_port"`
	SMTPUser                     *string         `json:"smtp_user"`
	SMTPPassword                 *string         `json:"smtp_password"`
	MailFrom                     *string         `json:"mail_from"`
	MailTimeout                  *timex.Duration `json:"mail_timeout"`
	LogBackend                   *string         `json:"log_backend"`
	LogLevel                     *string         `json:"log_level"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded. An unreadable file
// or invalid JSON panics; keys missing from the file keep their current value.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.AccessSecret, c.AccessSecret)
	setIf(&config.RefreshSecret, c.RefreshSecret)
	setDurationIf(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDurationIf(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setIf(&config.RefreshTokenTransport, c.RefreshTokenTransport)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.SMTPHost, c.SMTPHost)
	setIf(&config.SMTPPort, c.SMTPPort)
	setIf(&config.SMTPUser, c.SMTPUser)
	setIf(&config.SMTPPassword, c.SMTPPassword)
	setIf(&config.MailFrom, c.MailFrom)
	setDurationIf(&config.MailTimeout, c.MailTimeout)
	setIf(&config.LogBackend, c.LogBackend)
	setIf(&config.LogLevel, c.LogLevel)
	setDurationIf(&config.ShutdownTimeout, c.ShutdownTimeout)
}
