// Package api exposes the gallery, mint flow and notifications over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"epic-nft-gallery/internal/domain"
	"epic-nft-gallery/internal/logging"
	"epic-nft-gallery/internal/observability"
)

// Gallery is the watcher surface the API reads and drives.
type Gallery interface {
	Snapshot() *domain.Snapshot
	Account() string
	SetAccount(account string)
	Supply() (uint64, bool)
	Refresh(trigger domain.Trigger)
}

// Minter submits mints and reports collection progress.
type Minter interface {
	Mint(ctx context.Context, account string) (*domain.MintResult, error)
	Progress(ctx context.Context) (domain.MintProgress, error)
	InProgress() bool
}

// Notifications lists user-visible notifications newer than an id.
type Notifications interface {
	List(afterID uint64) []domain.Notification
}

// Server serves the HTTP API.
type Server struct {
	gallery       Gallery
	minter        Minter
	notifications Notifications
	allowOrigins  []string
	now           func() time.Time
	startedAt     time.Time
	log           *logrus.Entry

	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithAllowOrigins restricts CORS origins. Default allows all.
func WithAllowOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowOrigins = origins
	}
}

// WithClock sets the time source used for uptime.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer builds the gin engine and registers all routes.
func NewServer(gallery Gallery, minter Minter, notifications Notifications, opts ...Option) *Server {
	s := &Server{
		gallery:       gallery,
		minter:        minter,
		notifications: notifications,
		allowOrigins:  []string{"*"},
		now:           time.Now,
		log:           logging.Module("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	config := cors.Config{
		AllowOrigins: s.allowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	config.OptionsResponseStatusCode = http.StatusOK
	r.Use(cors.New(config))

	s.initRouter(r)
	s.engine = r
	return s
}

func (s *Server) initRouter(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/status", s.status)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	r.GET("/gallery", s.getGallery)
	r.GET("/gallery/tokens/:id", s.getToken)
	r.GET("/gallery/tokens/:id/image", s.getTokenImage)

	r.GET("/mint/progress", s.getMintProgress)
	r.POST("/mint", s.postMint)

	r.PUT("/account", s.putAccount)
	r.POST("/refresh", s.postRefresh)

	r.GET("/notifications", s.getNotifications)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Round(time.Microsecond),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}
