// Package server exposes the catalog over an HTTP JSON API.
//
// Parameters are read from the query string, where a literal '+' means a
// space. Clients send a plus sign or a '+' digit as %2B, for example
// /v1/decode?system=hex_lower&text=%2Bff.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vdparikh/radix"
	"github.com/vdparikh/radix/internal/catalog"
	"github.com/vdparikh/radix/internal/ctxlog"
	"github.com/vdparikh/radix/internal/metrics"
	"github.com/vdparikh/radix/tinkradix"
)

const shutdownTimeout = 5 * time.Second

// Error kinds reported in error responses.
const (
	KindInvalidAlphabet = "invalid_alphabet"
	KindInvalidDigit    = "invalid_digit"
	KindEmptyInput      = "empty_input"
	KindOutOfRange      = "out_of_range"
	KindInvalidToken    = "invalid_token"
	KindNotFound        = "not_found"
	KindInternal        = "internal"
)

// decimal parses the value query parameter.
var decimal = radix.MustNew(radix.Decimal)

// Server serves encode, decode, seal and open requests.
type Server struct {
	addr    string
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a server listening on addr. A nil logger means slog.Default.
func New(addr string, cat *catalog.Catalog, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:    addr,
		catalog: cat,
		metrics: m,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	m.SystemsLoaded.Set(float64(len(cat.SystemNames())))
	m.TokensLoaded.Set(float64(len(cat.TokenNames())))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", m.Handler())
	s.mux.HandleFunc("GET /v1/systems", s.handleSystems)
	s.mux.Handle("GET /v1/encode", s.instrument("encode", s.handleEncode))
	s.mux.Handle("GET /v1/decode", s.instrument("decode", s.handleDecode))
	s.mux.Handle("GET /v1/tokens/{name}/seal", s.instrument("seal", s.handleSeal))
	s.mux.Handle("GET /v1/tokens/{name}/open", s.instrument("open", s.handleOpen))
	return s
}

// Handler returns the root handler with request logging attached.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("method", r.Method, "path", r.URL.Path)
		logger.Debug("Request received.", "remote_addr", r.RemoteAddr)
		s.mux.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting.", "address", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Debug("Server shut down gracefully.")
	return nil
}

type systemInfo struct {
	Name   string `json:"name"`
	Base   int    `json:"base"`
	Digits string `json:"digits"`
}

type systemsResponse struct {
	Systems []systemInfo `json:"systems"`
	Tokens  []string     `json:"tokens"`
}

type conversionResponse struct {
	System string `json:"system,omitempty"`
	Token  string `json:"token,omitempty"`
	Value  int64  `json:"value"`
	Text   string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSystems(w http.ResponseWriter, _ *http.Request) {
	resp := systemsResponse{Tokens: s.catalog.TokenNames()}
	for _, name := range s.catalog.SystemNames() {
		conv, err := s.catalog.System(name)
		if err != nil {
			continue
		}
		resp.Systems = append(resp.Systems, systemInfo{Name: name, Base: conv.Base(), Digits: conv.String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEncode(r *http.Request) (any, error) {
	q := r.URL.Query()
	conv, label, err := s.catalog.Resolve(q.Get("system"), q.Get("digits"))
	if err != nil {
		return nil, err
	}
	value, err := parseValue(q.Get("value"))
	if err != nil {
		return nil, err
	}
	text, err := conv.Encode(value)
	if err != nil {
		return nil, err
	}
	return conversionResponse{System: label, Value: value, Text: text}, nil
}

func (s *Server) handleDecode(r *http.Request) (any, error) {
	q := r.URL.Query()
	conv, label, err := s.catalog.Resolve(q.Get("system"), q.Get("digits"))
	if err != nil {
		return nil, err
	}
	text := q.Get("text")
	value, err := conv.Decode(text)
	if err != nil {
		return nil, err
	}
	return conversionResponse{System: label, Value: value, Text: text}, nil
}

func (s *Server) handleSeal(r *http.Request) (any, error) {
	name := r.PathValue("name")
	codec, err := s.catalog.Token(name)
	if err != nil {
		return nil, err
	}
	value, err := parseValue(r.URL.Query().Get("value"))
	if err != nil {
		return nil, err
	}
	text, err := codec.Encode(value)
	if err != nil {
		return nil, err
	}
	return conversionResponse{Token: name, Value: value, Text: text}, nil
}

func (s *Server) handleOpen(r *http.Request) (any, error) {
	name := r.PathValue("name")
	codec, err := s.catalog.Token(name)
	if err != nil {
		return nil, err
	}
	text := r.URL.Query().Get("token")
	value, err := codec.Decode(text)
	if err != nil {
		return nil, err
	}
	return conversionResponse{Token: name, Value: value, Text: text}, nil
}

// instrument adapts an operation handler: it writes the JSON result or a
// classified error, and records metrics for op.
func (s *Server) instrument(op string, fn func(*http.Request) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp, err := fn(r)
		if err == nil {
			writeJSON(w, http.StatusOK, resp)
			s.metrics.Observe(op, metrics.OutcomeOK, time.Since(start))
			return
		}

		status, kind := classify(err)
		outcome := metrics.OutcomeClientError
		if status >= http.StatusInternalServerError {
			outcome = metrics.OutcomeServerError
		}
		ctxlog.FromContext(r.Context()).Warn("Request failed.", "op", op, "kind", kind, "error", err)
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		s.metrics.Observe(op, outcome, time.Since(start))
	})
}

// classify maps an error to an HTTP status and an error kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, radix.ErrInvalidAlphabet):
		return http.StatusBadRequest, KindInvalidAlphabet
	case errors.Is(err, tinkradix.ErrTokenLength):
		return http.StatusBadRequest, KindInvalidToken
	case errors.Is(err, radix.ErrInvalidDigit):
		return http.StatusBadRequest, KindInvalidDigit
	case errors.Is(err, radix.ErrEmptyInput):
		return http.StatusBadRequest, KindEmptyInput
	case errors.Is(err, radix.ErrOutOfRange):
		return http.StatusBadRequest, KindOutOfRange
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// parseValue reads a signed decimal integer in the safe range.
func parseValue(s string) (int64, error) {
	v, err := decimal.Decode(s)
	if err != nil {
		return 0, fmt.Errorf("value: %w", err)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
