package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	router  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, h *Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	logger := l.With("module", "http_server")
	return &Server{address: address, router: NewRouter(h, logger), logger: logger}
}

// NewRouter wires the middleware chain and the /api routes.
func NewRouter(h *Handler, l logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(l), Recovery(l), RoleFromRequest())
	h.RegisterRoutes(r.Group("/api"))
	return r
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
