package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cardvault/catalog/app/assets"
	"github.com/cardvault/catalog/app/config"
	"github.com/cardvault/catalog/app/database"
	"github.com/cardvault/catalog/app/session"
	"github.com/cardvault/catalog/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and the resources behind it.
type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	router  *gin.Engine
	closers []func() error
}

// New opens the store, session backend and asset storage named by cfg.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, log: log, db: db}
	s.closers = append(s.closers, func() error { return database.Close(db) })

	store, err := s.sessionStore()
	if err != nil {
		s.Close()
		return nil, err
	}

	manager, err := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secret:     []byte(cfg.Session.Secret),
		Secure:     cfg.Session.Secure,
	}, log.Named("session"))
	if err != nil {
		s.Close()
		return nil, err
	}
	if cfg.Session.Secret == "" {
		log.Warn("SESSION_SECRET not set, sessions end when the process restarts")
	}

	storage, err := s.assetStorage()
	if err != nil {
		s.Close()
		return nil, err
	}

	s.router, err = SetupRouter(Deps{DB: db, Sessions: manager, Storage: storage, Log: log})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) sessionStore() (session.Store, error) {
	switch s.cfg.Session.Store {
	case "redis":
		rs, err := session.NewRedisStore(s.cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		s.log.Info("session store ready", zap.String("backend", "redis"))
		return rs, nil
	case "memory":
		s.log.Info("session store ready", zap.String("backend", "memory"))
		return session.NewMemoryStore(), nil
	case "database", "":
		s.log.Info("session store ready", zap.String("backend", "database"))
		return models.NewSessionsRepository(s.db), nil
	default:
		return nil, fmt.Errorf("unsupported session store %q", s.cfg.Session.Store)
	}
}

func (s *Server) assetStorage() (assets.Storage, error) {
	var (
		storage assets.Storage
		err     error
	)
	switch s.cfg.Storage.Type {
	case "s3":
		c := s.cfg.Storage.S3
		storage, err = assets.NewS3Storage(assets.S3Config{
			Endpoint:  c.Endpoint,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Bucket:    c.Bucket,
			UseSSL:    c.UseSSL,
			Region:    c.Region,
			PublicURL: c.PublicURL,
		})
	case "local", "":
		storage, err = assets.NewLocalStorage(s.cfg.Storage.UploadDir, "/static")
	default:
		err = fmt.Errorf("unsupported storage type %q", s.cfg.Storage.Type)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("asset storage ready", zap.String("backend", storage.Name()))
	return storage, nil
}

// Router returns the HTTP handler Run serves.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.App.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
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

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases everything New opened, last opened first.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
