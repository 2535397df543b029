// Package server wires the wellkeeper components together and runs them.
// All resources (database, migrations, blob store) are initialised once in
// NewApp and handed to the components that need them.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/wellkeeper/internal/server/config"
	"github.com/dmitrijs2005/wellkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/wellkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/wellkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wellkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/wellkeeper/internal/server/grpc"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.IsDevelopment())

	if c.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	am := attachments.NewManager(store, c.MaxUploadSize, logger)
	us := services.NewUserService(db, rm, c, logger)
	rs := services.NewRecordService(db, rm, am, logger)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: httpapi.NewServer(c, us, rs, am, metrics.New(), logger),
		grpcServer: gs.NewGRPCServer(c.GRPCAddr, logger, db),
	}, nil
}

// newBlobStore selects the attachment backend named in the config.
func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendFS, "":
		return blobstore.NewFSStore(c.UploadDir)
	case config.BlobBackendS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Options{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until a signal arrives or either server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})
	g.Go(func() error {
		return app.grpcServer.Run(ctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(context.Background(), "db close error", "error", cerr)
	}

	app.logger.Info(context.Background(), "App stopped")
	return err
}
