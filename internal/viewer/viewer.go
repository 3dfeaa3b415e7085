// Package viewer serves an interactive rendering of one lineage graph.
// The page embeds the graph's Mermaid source and renders it client-side, so
// the binary ships no frontend assets.
package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/lineage/pkg/graph"
)

// Config holds configuration for the viewer server.
type Config struct {
	Graph  *graph.Graph
	Title  string
	Port   int
	Logger *slog.Logger
}

// Server renders one lineage graph over HTTP.
type Server struct {
	port    int
	logger  *slog.Logger
	page    []byte
	payload []byte
	mermaid string
}

// NewServer prepares the viewer for the given graph. The page is rendered
// once up front; the graph does not change while the server runs.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Column and table graphs read best as ER diagrams; everything else
	// renders as a flowchart.
	format := graph.FormatMermaidFlowchart
	switch cfg.Graph.Mode {
	case graph.ModeERColumns, graph.ModeTablesOnly:
		format = graph.FormatMermaidER
	}
	mermaid, err := graph.Export(cfg.Graph, format)
	if err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}

	payload, err := json.MarshalIndent(cfg.Graph, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	title := cfg.Title
	if title == "" {
		title = fmt.Sprintf("Lineage (%s, %s)", cfg.Graph.Dialect, cfg.Graph.Mode)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Title: title, Mermaid: mermaid}); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	return &Server{
		port:    cfg.Port,
		logger:  logger,
		page:    buf.Bytes(),
		payload: payload,
		mermaid: mermaid,
	}, nil
}

// Handler returns the HTTP handler serving the viewer routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(s.page)
	})
	r.Get("/graph.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.payload)
	})
	r.Get("/graph.mmd", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(s.mermaid))
	})

	return r
}

// Serve starts the viewer server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting viewer", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down viewer...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

type pageData struct {
	Title   string
	Mermaid string
}

// The Mermaid source goes through normal template escaping; the library
// reads the element's text content, where entities are already decoded.
var pageTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; color: #1f2328; }
  header { display: flex; align-items: baseline; gap: 1rem; padding: 0.75rem 1.25rem; border-bottom: 1px solid #d1d9e0; }
  header h1 { font-size: 1rem; margin: 0; }
  header nav a { margin-right: 0.75rem; font-size: 0.85rem; color: #0969da; text-decoration: none; }
  main { padding: 1.25rem; overflow: auto; }
  pre.mermaid { background: transparent; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <nav>
    <a href="/graph.json">JSON</a>
    <a href="/graph.mmd">Mermaid source</a>
  </nav>
</header>
<main>
<pre class="mermaid">{{.Mermaid}}</pre>
</main>
<script type="module">
  import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
  mermaid.initialize({ startOnLoad: true, securityLevel: "loose", maxTextSize: 900000 });
</script>
</body>
</html>
`))
