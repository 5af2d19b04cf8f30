package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/pipeline"
)

const (
	defaultServeAddr  = ":8321"
	serveReadTimeout  = 10 * time.Second
	serveWriteTimeout = 60 * time.Second
)

// serveCommand creates the serve command for the HTTP diagram server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the directory diagram over HTTP",
		Long: `Serve starts an HTTP server that recomputes the diagram for the
given root on each request. There is no background state: every
request scans (through the cache), lays out, and renders.

Endpoints:
  GET /healthz       liveness probe
  GET /diagram.json  diagram geometry as JSON
  GET /diagram.svg   rendered SVG

Query parameters: focus (path to highlight), refresh (bypass the
scan cache), debug (mark overlapping nodes).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.pipelineOptions(args[0])
			mergeScanDefaults(&opts, defaults)
			return c.runServe(cmd.Context(), opts, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().BoolVar(&opts.IncludeFiles, "files", false, "include regular files as leaf nodes")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "include hidden entries")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "limit scan depth (0 = config default)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runServe starts the HTTP server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := &diagramServer{runner: runner, opts: opts, cli: c}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(serveWriteTimeout))
	r.Get("/healthz", srv.handleHealth)
	r.Get("/diagram.json", srv.handleDiagram(pipeline.FormatJSON, "application/json"))
	r.Get("/diagram.svg", srv.handleDiagram(pipeline.FormatSVG, "image/svg+xml"))

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  serveReadTimeout,
		WriteTimeout: serveWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("serving diagram", "addr", addr, "root", opts.Root)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// diagramServer holds the per-process server state. The pipeline runner
// is safe for concurrent use; each request gets its own options copy.
type diagramServer struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	cli    *CLI
}

// handleHealth implements the liveness probe.
func (s *diagramServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleDiagram renders the diagram in one format per request.
func (s *diagramServer) handleDiagram(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := s.opts
		opts.Formats = []string{format}
		opts.Focus = r.URL.Query().Get("focus")
		opts.Refresh = r.URL.Query().Has("refresh")
		opts.Debug = r.URL.Query().Has("debug")

		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.cli.Logger.Error("diagram request failed", "format", format, "err", err)
			writeHTTPError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(res.Artifacts[format])
	}
}

// writeHTTPError maps pipeline failures to a JSON error body.
func writeHTTPError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
