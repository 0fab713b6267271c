package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/storage"
	"github.com/dmitrijs2005/gophauth/internal/filex"
)

// Session is what the commands need from services.SessionService.
type Session interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
	Login(ctx context.Context, login, password string) error
	CurrentLogin(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
	ListUsers(ctx context.Context) ([]api.User, error)
	Logout(ctx context.Context) (bool, error)
}

type App struct {
	config  *config.Config
	session Session
	db      *sql.DB
	reader  *bufio.Reader
	out     io.Writer
}

// sessionDBPath resolves the session file, creating the default data dir
// when no explicit path is configured.
func sessionDBPath(c *config.Config) (string, error) {
	if c.SessionDB != "" {
		return c.SessionDB, nil
	}
	dir, err := filex.EnsureSubdDir(config.DataDirName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.db"), nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	client, err := api.NewClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	path, err := sessionDBPath(c)
	if err != nil {
		return nil, err
	}

	db, err := storage.InitDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	return &App{
		config:  c,
		session: services.NewSessionService(client, db),
		db:      db,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	login, err := a.session.CurrentLogin(ctx)
	return err == nil && login != ""
}

func (a *App) status(ctx context.Context) string {
	login, err := a.session.CurrentLogin(ctx)
	if err != nil || login == "" {
		return ""
	}
	return "(" + login + ") "
}

// Run starts the REPL and blocks until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	printlnFn("Welcome to gophauth CLI (type 'help' for commands)")
	if err := a.session.Ping(ctx); err != nil {
		printlnFn("Warning: server", a.config.ServerURL, "is not reachable:", err)
	}

	runREPL(ctx, a, func() string { return a.status(ctx) }, a.reader)
}
