// Package config loads runtime configuration for the gophauth CLI.
//
// Sources, lowest precedence first: built-in defaults, an optional JSON file
// given with -c or -config, then the -a, -s and -t flags.
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_db": "/home/me/.gophauth/session.db",
//	  "request_timeout": "10s"
//	}
package config
