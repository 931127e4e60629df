package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/client/client"
	"github.com/dmitrijs2005/gophdrop/internal/client/config"
	"github.com/dmitrijs2005/gophdrop/internal/client/models"
	"github.com/dmitrijs2005/gophdrop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdrop/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophdrop/internal/client/services"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
)

type authService interface {
	Login(ctx context.Context, username string, password []byte) error
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

type uploader interface {
	Upload(ctx context.Context, path, destination string) (services.UploadResult, error)
}

type sessionLister interface {
	List(ctx context.Context) ([]models.Session, error)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	auth     authService
	uploader uploader
	admin    client.AdminAPI
	sessions sessionLister
	userName string
	reader   *bufio.Reader
	out      io.Writer
	closers  []func() error
}

// NewApp opens the local database, builds both transports and restores a
// saved login, if any.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	l := logging.NewJSONLogger(os.Stderr, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	httpClient := client.NewHTTPClient(c.ServerHTTPAddr, c.RequestTimeout)

	admin, err := client.NewAdminClient(c.AdminGRPCAddr, httpClient.AccessToken)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := newApp(c, l, db, httpClient, admin, os.Stdin, os.Stdout)

	if app.userName, err = app.auth.Restore(ctx); err != nil {
		l.Warn(ctx, "cannot restore login", "error", err)
	}

	return app, nil
}

func newApp(c *config.Config, l logging.Logger, db *sql.DB, api client.UploadAPI, admin client.AdminAPI, in io.Reader, out io.Writer) *App {
	repo := sessions.NewSQLiteRepository(db)

	up := services.NewUploader(api, repo, c.ChunkSize, l)
	up.OnProgress = func(done, total int) {
		fmt.Fprintf(out, "\r  chunk %d/%d", done, total)
		if done == total {
			fmt.Fprintln(out)
		}
	}

	return &App{
		config:   c,
		logger:   l,
		auth:     services.NewAuthService(api, metadata.NewSQLiteRepository(db)),
		uploader: up,
		admin:    admin,
		sessions: repo,
		reader:   bufio.NewReader(in),
		out:      out,
		closers:  []func() error{admin.Close, db.Close},
	}
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(anonymous)"
	}
	return "(" + a.userName + ")"
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "gophdrop CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close", "error", err)
		}
	}
	a.closers = nil
}

// withTimeout bounds a single command by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).Format(time.DateTime)
}
