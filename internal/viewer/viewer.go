// Package viewer serves a computed plan over HTTP and recomputes it when a
// new project document is posted.
package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/joshharrison/critpath/internal/gantt"
	"github.com/joshharrison/critpath/internal/network"
	"github.com/joshharrison/critpath/internal/planner"
	"github.com/joshharrison/critpath/internal/project"
	"github.com/joshharrison/critpath/internal/render"
)

const maxBody = 4 << 20

// Options configures a Server.
type Options struct {
	Planner  planner.Config
	Gantt    gantt.Options
	Gatherer prometheus.Gatherer // served on /metrics; nil means the default registry
	Logger   zerolog.Logger
}

// Server holds the current plan.
type Server struct {
	mu   sync.RWMutex
	plan *planner.Plan

	opts Options
	log  zerolog.Logger
}

// New creates a server showing plan, which may be nil until a document is
// posted.
func New(plan *planner.Plan, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{plan: plan, opts: opts, log: opts.Logger}
}

// Plan returns the current plan.
func (s *Server) Plan() *planner.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handlePostPlan(w, r)
		case http.MethodGet:
			s.handleGetPlan(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/graph", s.get(s.handleGraph))
	mux.HandleFunc("/gantt", s.get(s.handleGantt))
	mux.HandleFunc("/dot", s.get(s.handleDOT))
	mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "ok\n")
	})
	mux.HandleFunc("/", s.handleIndex)
	return s.logRequests(mux)
}

func (s *Server) get(h func(http.ResponseWriter, *http.Request, *planner.Plan)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		plan := s.Plan()
		if plan == nil {
			http.Error(w, "no plan loaded", http.StatusNotFound)
			return
		}
		h(w, r, plan)
	}
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan := s.Plan()
	if plan == nil {
		http.Error(w, "no plan loaded", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handlePostPlan decodes a project document (JSON, or YAML when the content
// type says so), recomputes and swaps in the new plan.
func (s *Server) handlePostPlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	format := project.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = project.FormatYAML
	}
	doc, err := project.Parse(body, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plan, err := planner.Generate(doc, s.opts.Planner)
	if err != nil {
		status := http.StatusInternalServerError
		if network.IsStructural(err) {
			status = http.StatusUnprocessableEntity
		}
		s.log.Warn().Err(err).Msg("recompute failed")
		writeError(w, status, err)
		return
	}

	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()

	s.log.Info().Str("plan", plan.ID).Int("activities", plan.TotalActivities).Float64("duration", plan.ProjectDuration).Msg("plan replaced")
	writeJSON(w, http.StatusCreated, plan)
}

// queryModel returns the model query parameter, which must be empty, aon or
// aoa.
func queryModel(r *http.Request) (string, error) {
	switch model := r.URL.Query().Get("model"); model {
	case "", "aon", "aoa":
		return model, nil
	default:
		return "", fmt.Errorf("unknown model %q", model)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request, plan *planner.Plan) {
	model, err := queryModel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, toGraph(plan, model))
}

func (s *Server) handleGantt(w http.ResponseWriter, r *http.Request, plan *planner.Plan) {
	o := s.opts.Gantt
	if o.Title == "" {
		o.Title = plan.Name
	}
	o.Unit = plan.Unit

	var buf bytes.Buffer
	if err := gantt.RenderHTML(&buf, gantt.Tasks(plan), o); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request, plan *planner.Plan) {
	model, err := queryModel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var buf bytes.Buffer
	if model == "aoa" || plan.AON == nil {
		err = render.AOADot(&buf, plan.AOA)
	} else {
		err = render.AONDot(&buf, plan.AON)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, `<!DOCTYPE html>
<html><head><title>critpath</title></head><body>
<h1>critpath</h1>
<ul>
<li><a href="/gantt">Gantt chart</a></li>
<li><a href="/plan">Plan (JSON)</a></li>
<li><a href="/graph">Graph (JSON)</a></li>
<li><a href="/dot">DOT, activity on node</a> | <a href="/dot?model=aoa">activity on arrow</a></li>
<li><a href="/metrics">Metrics</a></li>
</ul>
</body></html>
`)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Start listens on addr and serves until ctx is cancelled. It returns the
// base URL (e.g. "http://127.0.0.1:7272") once the listener is open, and a
// channel that receives the serve error when the server stops.
func (s *Server) Start(ctx context.Context, addr string) (string, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	done := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return "http://" + ln.Addr().String(), done, nil
}

// PostDocument sends a project document to a running viewer and returns the
// recomputed plan.
func PostDocument(ctx context.Context, baseURL string, doc *project.Document) (*planner.Plan, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/plan", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /plan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("POST /plan returned %d: %s", resp.StatusCode, e.Error)
	}
	var plan planner.Plan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
