package cli

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-formula/internal/controller"
	"github.com/alnah/go-formula/internal/formula"
	"github.com/alnah/go-formula/internal/interpret"
	"github.com/alnah/go-formula/internal/model"
)

// Server limits.
const (
	defaultAddr       = "127.0.0.1:8080"
	maxRequestBytes   = 16 << 10
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var (
		flags generationFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the formula generator over HTTP",
		Long: `Serve a small web page and a JSON API for formula generation.

Routes:
  GET  /              Web page
  POST /api/formula   {"description": "..."} -> {"formula", "explanation", "steps"}
  GET  /healthz       Liveness probe

Each request is independent. The server stops gracefully on Ctrl-C.`,
		Example: `  formula serve
  formula serve --addr :9000 --dialect excel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env, flags, addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "Listen address")

	return cmd
}

// runServe listens on addr and serves until the command context ends.
func runServe(cmd *cobra.Command, env *Env, flags generationFlags, addr string) error {
	ctx := cmd.Context()

	s, err := newSetup(ctx, env, flags)
	if err != nil {
		return err
	}
	if s.unavailable != nil {
		fmt.Fprintf(env.Stderr, "Warning: %s\n", controller.Reason(s.unavailable))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w", addr, err)
	}
	fmt.Fprintf(env.Stderr, "Serving %s formulas on http://%s\n", s.dialect.Product(), ln.Addr())

	return serve(ctx, ln, newServeHandler(s, env.Logger), env.Logger)
}

// serve runs the HTTP server on ln until ctx is done, then shuts down.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// formulaHandler serves the page and the JSON API.
type formulaHandler struct {
	generator *formula.Generator
	product   string
	logger    *zap.Logger
}

// newServeHandler wires routes and the access log.
func newServeHandler(s *setup, logger *zap.Logger) http.Handler {
	h := &formulaHandler{
		generator: s.generator,
		product:   s.dialect.Product(),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /api/formula", h.handleFormula)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return accessLog(logger, mux)
}

func (h *formulaHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Product           string
		CopiedResetMillis int64
	}{h.product, controller.CopiedResetDelay.Milliseconds()}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("render index", zap.Error(err))
	}
}

func (h *formulaHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type formulaRequest struct {
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *formulaHandler) handleFormula(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req formulaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{"Description is too long"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{"Invalid request format"})
		return
	}

	result, err := h.generator.Generate(r.Context(), req.Description)
	if err != nil {
		status := statusFor(err)
		h.logger.Warn("formula request failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, errorResponse{reasonFor(err)})
		return
	}

	writeJSON(w, http.StatusOK, newResultJSON(result))
}

// statusFor maps generation errors to HTTP status codes.
func statusFor(err error) int {
	var provErr *model.ProviderError
	switch {
	case errors.Is(err, formula.ErrEmptyDescription):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.As(err, &provErr), errors.Is(err, interpret.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// reasonFor returns the user-facing message for err.
func reasonFor(err error) string {
	if errors.Is(err, formula.ErrEmptyDescription) {
		return "Please describe the formula you need"
	}
	return controller.Reason(err)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// accessLog logs one entry per request.
func accessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
