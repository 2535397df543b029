package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/config"
	"github.com/dmitrijs2005/wellkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front of the record API.
type Server struct {
	address      string
	secret       []byte
	corsOrigins  []string
	logger       logging.Logger
	handlers     *handlers
	loginLimiter *rateLimiter
	engine       *gin.Engine
}

func NewServer(cfg *config.Config, us UserService, rs RecordService, as AttachmentStore, m *metrics.Metrics, l logging.Logger) *Server {
	logger := l.With("module", "http_server")

	s := &Server{
		address:     cfg.HTTPAddr,
		secret:      []byte(cfg.SecretKey),
		corsOrigins: cfg.CORSAllowOrigins,
		logger:      logger,
		handlers: &handlers{
			users:       us,
			records:     rs,
			attachments: as,
			metrics:     m,
			logger:      logger,
			development: cfg.IsDevelopment(),
		},
		loginLimiter: newRateLimiter(cfg.LoginRatePerSecond, cfg.LoginBurst, logger),
	}
	s.engine = s.newRouter()

	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
