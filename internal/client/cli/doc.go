// Package cli is the interactive gophauth client. It wires configuration,
// the local session database and the HTTP API into a small REPL.
package cli
