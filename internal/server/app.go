// Package server wires the drop-box components together: identity, chunk
// staging, final storage, the notification queue and the HTTP and gRPC
// front ends. It also owns process lifecycle and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophdrop/internal/filex"
	"github.com/dmitrijs2005/gophdrop/internal/logging"
	"github.com/dmitrijs2005/gophdrop/internal/server/chunkstore"
	"github.com/dmitrijs2005/gophdrop/internal/server/config"
	"github.com/dmitrijs2005/gophdrop/internal/server/httpapi"
	"github.com/dmitrijs2005/gophdrop/internal/server/notify"
	"github.com/dmitrijs2005/gophdrop/internal/server/queue"
	"github.com/dmitrijs2005/gophdrop/internal/server/recipients"
	"github.com/dmitrijs2005/gophdrop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrop/internal/server/services"
	"github.com/dmitrijs2005/gophdrop/internal/server/storage"
	"github.com/dmitrijs2005/gophdrop/internal/server/sweeper"
	"github.com/dmitrijs2005/gophdrop/internal/server/upload"

	gs "github.com/dmitrijs2005/gophdrop/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	chunks    chunkstore.ChunkStore
	users     *services.UserService
	queue     *queue.Queue
	notifier  *notify.Notifier
	sweeper   *sweeper.Sweeper
	assembler *upload.Assembler
	closers   []func() error
}

// seams for tests
var (
	openPostgres = repomanager.OpenPostgres
	newS3Storage = func(ctx context.Context, c storage.S3Config) (storage.Storage, error) {
		return storage.NewS3Storage(ctx, c)
	}
)

func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {

	app := &App{config: c, logger: l}

	if err := app.initUsers(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	if err := app.initPipeline(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

func (app *App) initUsers(ctx context.Context) error {

	var m repomanager.RepositoryManager

	if app.config.DatabaseDSN != "" {
		db, err := openPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.closers = append(app.closers, db.Close)

		m = repomanager.NewPostgresRepositoryManager()
		if err := m.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	} else {
		app.logger.Warn(ctx, "no database configured, users are kept in memory")
		m = repomanager.NewMemoryRepositoryManager()
	}

	app.users = services.NewUserService(app.db, m, app.config, app.logger)

	if app.config.UsersFile != "" {
		n, err := app.users.ImportFile(ctx, app.config.UsersFile)
		if err != nil {
			return fmt.Errorf("import users: %w", err)
		}
		app.logger.Info(ctx, "users imported", "count", n, "file", app.config.UsersFile)
	}

	return nil
}

func (app *App) openChunkStore() (chunkstore.ChunkStore, error) {
	switch app.config.ChunkStoreBackend {
	case config.BackendFS, "":
		return chunkstore.NewFSStore(app.config.ChunkStoreDir)
	case config.BackendBadger:
		bs, err := chunkstore.OpenBadger(app.config.ChunkStoreDir)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, bs.Close)
		return bs, nil
	}
	return nil, fmt.Errorf("unknown chunk store backend %q", app.config.ChunkStoreBackend)
}

func (app *App) openStorage(ctx context.Context) (storage.Storage, error) {
	c := app.config
	switch c.StorageBackend {
	case config.BackendLocal, "":
		return storage.NewLocalStorage(c.StorageDir)
	case config.BackendS3:
		return newS3Storage(ctx, storage.S3Config{
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			KeyPrefix: c.S3KeyPrefix,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
}

func (app *App) openQueue() (*queue.Queue, error) {
	if _, err := filex.EnsureDir(filepath.Dir(app.config.QueueFile)); err != nil {
		return nil, err
	}

	var locker queue.Locker

	switch app.config.QueueLockMode {
	case config.LockProcess:
		locker = queue.NewProcessLocker()
	case config.LockFile, "":
		fl, err := queue.NewFileLocker(app.config.QueueFile + ".lock")
		if err != nil {
			return nil, err
		}
		locker = fl
	default:
		return nil, fmt.Errorf("unknown queue lock mode %q", app.config.QueueLockMode)
	}

	return queue.New(app.config.QueueFile, locker, app.logger), nil
}

func (app *App) openSender() (notify.Sender, error) {
	s := app.config.SMTP
	if !s.Enabled {
		app.logger.Warn(context.Background(), "smtp disabled, notifications are dropped")
		return notify.NullSender{}, nil
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:       s.Host,
		Port:       s.Port,
		Username:   s.Username,
		Password:   s.Password,
		Encryption: s.Encryption,
		FromEmail:  s.FromEmail,
		FromName:   s.FromName,
	}, app.logger)
}

func (app *App) initPipeline(ctx context.Context) error {

	cs, err := app.openChunkStore()
	if err != nil {
		return fmt.Errorf("chunk store: %w", err)
	}
	app.chunks = cs

	st, err := app.openStorage(ctx)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	q, err := app.openQueue()
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	app.queue = q

	sender, err := app.openSender()
	if err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	resolver := recipients.NewResolver(app.users, app.logger)
	app.notifier = notify.NewNotifier(resolver, q, notify.NewDispatcher(sender, app.logger), app.logger)
	app.sweeper = sweeper.New(cs, app.logger)
	app.assembler = upload.NewAssembler(cs, st, q, app.logger, app.config.UploadMaxSize, app.config.OverwriteOnUpload)

	return nil
}

// Close releases the database and chunk store handles.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (app *App) httpServer() *httpapi.HTTPServer {
	return httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.assembler, app.notifier, app.queue, app.users, app.config.UploadMaxSize)
}

func (app *App) grpcServer() *gs.GRPCServer {
	return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.notifier, app.queue, app.sweeper, app.users)
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	run := func(name string, f func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}

	run("http", app.httpServer().Run)
	run("grpc", app.grpcServer().Run)

	if app.config.ChunkTTL > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweeper.Run(ctx, app.config.ChunkTTL, orDefault(app.config.SweepInterval, time.Hour))
		}()
	}

	if app.config.BatchWindow > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.notifier.Run(ctx, app.config.BatchWindow, orDefault(app.config.BatchInterval, time.Minute))
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "shutdown", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}
