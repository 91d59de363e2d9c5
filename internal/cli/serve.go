package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/commitreel/pkg/ancestry"
	"github.com/matzehuels/commitreel/pkg/branchtree"
	"github.com/matzehuels/commitreel/pkg/cache"
	"github.com/matzehuels/commitreel/pkg/inventory"
	"github.com/matzehuels/commitreel/pkg/layout"
	"github.com/matzehuels/commitreel/pkg/pipeline"
	"github.com/matzehuels/commitreel/pkg/render/charts"
	"github.com/matzehuels/commitreel/pkg/render/treeviz"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string // listen address
	redisAddr string // redis backend; empty uses the file cache
	refresh   bool   // bypass cached document normalization at startup
}

const defaultServeAddr = ":8080"

// serveCommand creates the serve command: the analysis side of the pipeline
// exposed over HTTP for one ancestry document.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:      c.Config.Serve.Addr,
		redisAddr: c.Config.Serve.RedisAddr,
	}
	if opts.addr == "" {
		opts.addr = defaultServeAddr
	}

	cmd := &cobra.Command{
		Use:   "serve [history.json]",
		Short: "Serve history analysis over HTTP",
		Long: `Serve loads one ancestry document and exposes its analysis over HTTP:
document summary, frame stats, the computed layout at any resolution, the
chart dashboard, and the branch tree diagram.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", opts.redisAddr, "redis address for a shared cache (default: file cache)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts at startup")

	return cmd
}

// server holds the loaded document and its derived artifacts. Everything is
// immutable after newServer, so handlers share it without locking.
type server struct {
	doc     *ancestry.Document
	docHash string
	tree    *branchtree.Tree
	table   *inventory.Table

	store  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

func (c *CLI) runServe(ctx context.Context, input string, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	store, keyer, err := c.serveCache(ctx, opts.redisAddr)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	runner := pipeline.NewRunner(store, keyer, logger)
	defer runner.Close()

	p := newProgress(logger)
	doc, docHash, err := runner.Load(ctx, input, opts.refresh)
	if err != nil {
		return err
	}
	tree := branchtree.Build(doc)
	table := inventory.Precompute(doc, tree)
	p.done(fmt.Sprintf("Loaded %d commits on %d branches", len(doc.Commits), tree.Len()))

	srv := &server{
		doc:     doc,
		docHash: docHash,
		tree:    tree,
		table:   table,
		store:   store,
		keyer:   keyer,
		logger:  logger,
	}

	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	printInfo("Serving %s on %s", StyleValue.Render(input), StyleValue.Render(opts.addr))
	err = httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// serveCache picks the cache backend: Redis when an address is given, the
// file cache otherwise. Serve-mode keys are scoped by repository so several
// instances can share one Redis.
func (c *CLI) serveCache(ctx context.Context, redisAddr string) (cache.Cache, cache.Keyer, error) {
	if redisAddr == "" {
		store, err := c.newCache(false)
		return store, nil, err
	}
	store, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: redisAddr})
	if err != nil {
		return nil, nil, err
	}
	return store, cache.NewScopedKeyer(nil, appName+":"), nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/info", s.handleInfo)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/layout", s.handleLayout)
	r.Get("/api/charts", s.handleCharts)
	r.Get("/api/tree.svg", s.handleTreeSVG)

	return r
}

// logRequests emits one structured line per request.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	final := s.table.Row(len(s.doc.Commits))
	writeJSON(w, http.StatusOK, map[string]any{
		"repo":           s.doc.Metadata.Repo,
		"doc_hash":       s.docHash,
		"commits":        len(s.doc.Commits),
		"branches":       s.tree.Len(),
		"merges":         len(s.doc.Merges),
		"default_branch": s.doc.DefaultBranch(),
		"final":          final,
	})
}

// handleStats returns the full stats table, or one row with ?frame=k.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("frame"); q != "" {
		k, err := strconv.Atoi(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frame must be an integer"})
			return
		}
		writeJSON(w, http.StatusOK, s.table.Row(k))
		return
	}
	writeJSON(w, http.StatusOK, s.table.Rows())
}

// handleLayout computes the layout at the requested resolution, cached by
// document hash and resolution.
func (s *server) handleLayout(w http.ResponseWriter, r *http.Request) {
	width := queryInt(r, "width", pipeline.DefaultWidth)
	height := queryInt(r, "height", pipeline.DefaultHeight)

	key := s.keyerOrDefault().LayoutKey(s.docHash, cache.LayoutKeyOpts{Width: width, Height: height})
	if data, hit, err := s.store.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	lay := layout.Compute(s.doc, s.tree, width, height)
	data, err := json.Marshal(lay)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	_ = s.store.Set(r.Context(), key, data, cache.LayoutTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) handleCharts(w http.ResponseWriter, r *http.Request) {
	key := s.keyerOrDefault().ChartKey(s.docHash)
	if data, hit, err := s.store.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
		return
	}

	var buf bytes.Buffer
	if err := charts.WritePage(&buf, s.doc); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	_ = s.store.Set(r.Context(), key, buf.Bytes(), cache.ChartTTL)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleTreeSVG(w http.ResponseWriter, r *http.Request) {
	dot := treeviz.ToDOT(s.tree, treeviz.Options{Detailed: r.URL.Query().Get("detailed") == "true"})
	svg, err := treeviz.RenderSVG(r.Context(), dot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *server) keyerOrDefault() cache.Keyer {
	if s.keyer != nil {
		return s.keyer
	}
	return cache.NewDefaultKeyer()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	if q := r.URL.Query().Get(name); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
