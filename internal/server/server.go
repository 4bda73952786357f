// Package server exposes roadmaps, their editor data and the learner
// progress view over HTTP.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/roadmap/internal/config"
	"github.com/zulandar/roadmap/internal/logger"
	"github.com/zulandar/roadmap/internal/palette"
	"gorm.io/gorm"
)

//go:embed templates/*.html
var templatesFS embed.FS

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *logger.Logger
	Out    io.Writer
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("server: db is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Config.Location == nil {
		opts.Config.Location = time.UTC
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	router := gin.New()
	router.Use(recovery(opts.Log))
	router.Use(requestID())
	router.Use(requestLogger(opts.Log))
	router.Use(corsMiddleware(opts.Config.Server.CORSOrigins))

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, &api{
		db:       opts.DB,
		cfg:      opts.Config,
		log:      opts.Log,
		palettes: palette.New(opts.Config.ColorSets),
	})
	return router, nil
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	port := 8080
	if opts.Config != nil && opts.Config.Server.Port > 0 {
		port = opts.Config.Server.Port
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Roadmap server running at http://localhost:%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}
