package config

import "time"

// DataDirName is the working-directory subfolder holding the default session
// database.
const DataDirName = ".gophauth"

// Config holds runtime settings for the gophauth CLI.
type Config struct {
	// ServerURL is the base URL of the auth server.
	ServerURL string
	// SessionDB is the sqlite file holding the local session. Empty means
	// session.db inside DataDirName.
	SessionDB string
	// RequestTimeout bounds every HTTP call.
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionDB = ""
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig applies defaults, then the JSON file, then flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
