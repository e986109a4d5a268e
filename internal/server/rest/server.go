// Package rest exposes the inspection services over HTTP/JSON with gin.
package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/vistoria/internal/logging"
	"github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

// CatalogService lists card templates.
type CatalogService interface {
	ListCards(ctx context.Context) ([]models.CardTemplate, error)
}

// InspectionService manages the inspection aggregate.
type InspectionService interface {
	Create(ctx context.Context, in models.NewInspection) (*models.Inspection, error)
	Get(ctx context.Context, id string) (*models.Inspection, error)
	List(ctx context.Context, corretorID string) ([]*models.Inspection, error)
	Update(ctx context.Context, p models.InspectionPatch) (*models.Inspection, error)
	Ping(ctx context.Context) error
}

// PhotoService stores uploaded photos.
type PhotoService interface {
	Upload(ctx context.Context, up models.PhotoUpload, content io.Reader) (*models.Photo, error)
}

type Server struct {
	address         string
	engine          *gin.Engine
	catalog         CatalogService
	inspections     InspectionService
	photos          PhotoService
	logger          logging.Logger
	jwtSecret       []byte
	authEnabled     bool
	maxUploadSize   int64
	shutdownTimeout time.Duration
}

func NewServer(c *config.Config, l logging.Logger, cs CatalogService, is InspectionService, ps PhotoService) *Server {
	s := &Server{
		address:         c.HTTPAddr,
		catalog:         cs,
		inspections:     is,
		photos:          ps,
		logger:          l.With("module", "rest_server"),
		jwtSecret:       []byte(c.SecretKey),
		authEnabled:     c.AuthEnabled,
		maxUploadSize:   c.MaxUploadSize,
		shutdownTimeout: c.ShutdownTimeout,
	}
	s.engine = s.newEngine(c)
	return s
}

func (s *Server) newEngine(c *config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = 8 << 20

	r.Use(s.recovery(), s.accessLog())
	if len(c.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(c.CORSOrigins)))
	}

	r.GET("/healthz", s.health)
	if c.StorageBackend == storage.BackendLocal && strings.HasPrefix(c.PhotoBaseURL, "/") {
		r.Static(c.PhotoBaseURL, c.UploadDir)
	}

	api := r.Group("/")
	if s.authEnabled {
		api.Use(s.bearerAuth())
	}
	api.GET("/cards", s.listCards)
	api.GET("/inspections", s.listInspections)
	api.GET("/inspections/:id", s.getInspection)
	api.POST("/inspections", s.createInspection)
	api.POST("/inspections/update", s.updateInspection)
	api.POST("/inspections/upload-photo", s.uploadPhoto)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
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

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
