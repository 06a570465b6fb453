package viewer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/planner"
	"github.com/joshharrison/critpath/internal/project"
)

const diamondJSON = `{"name":"Diamond","activities":[
	{"id":"A","duration":3},
	{"id":"B","duration":4,"predecessors":["A"]},
	{"id":"C","duration":2,"predecessors":"A"},
	{"id":"D","duration":5,"predecessors":"B,C"}
]}`

func newTestServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPromRecorder(reg)
	require.NoError(t, err)
	return New(nil, Options{Planner: planner.Config{Recorder: rec}, Gatherer: reg}), reg
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetBeforePost(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	for _, path := range []string{"/plan", "/graph", "/gantt", "/dot"} {
		w := do(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestPostPlan(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/plan", "application/json", diamondJSON)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var plan planner.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.InDelta(t, 12, plan.ProjectDuration, 1e-9)
	assert.Equal(t, []string{"A", "B", "D"}, plan.CriticalPath)
	require.NotNil(t, srv.Plan())
	assert.Equal(t, plan.ID, srv.Plan().ID)

	w = do(t, h, http.MethodGet, "/plan", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), plan.ID)
}

func TestPostPlan_YAML(t *testing.T) {
	srv, _ := newTestServer(t)
	body := "kind: aoa\nactivities:\n  - {name: A, from: \"1\", to: \"2\", duration: 4}\n"
	w := do(t, srv.Handler(), http.MethodPost, "/plan", "application/yaml", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, project.KindAOA, srv.Plan().Kind)
}

func TestPostPlan_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/plan", "application/json", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/plan", "application/json", `{"activities":[{"id":"A","duration":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/plan", "application/json", `{"activities":[
		{"id":"A","duration":1,"predecessors":["B"]},
		{"id":"B","duration":1,"predecessors":["A"]}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var e map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Contains(t, e["error"], "cycle")
	assert.Nil(t, srv.Plan(), "failed recompute keeps the old plan")

	w = do(t, h, http.MethodDelete, "/plan", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGraph(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/plan", "application/json", diamondJSON).Code)

	var g Graph
	w := do(t, h, http.MethodGet, "/graph", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "aon", g.Metadata.Model)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 4)
	assert.Equal(t, 3, g.Metadata.TotalWaves)

	w = do(t, h, http.MethodGet, "/graph?model=aoa", "", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, "aoa", g.Metadata.Model)
	assert.Len(t, g.Nodes, 5)
	assert.Len(t, g.Edges, 5)
}

func TestGanttAndDOT(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/plan", "application/json", diamondJSON).Code)

	w := do(t, h, http.MethodGet, "/gantt", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Diamond")

	w = do(t, h, http.MethodGet, "/dot", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A -> B [")

	w = do(t, h, http.MethodGet, "/dot?model=aoa", "", "")
	assert.Contains(t, w.Body.String(), "shape=circle")

	w = do(t, h, http.MethodGet, "/dot?model=pert", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownModel_ArrowPlan(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	arrows := `{"kind":"aoa","activities":[{"name":"A","from":"1","to":"2","duration":3}]}`
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/plan", "application/json", arrows).Code)

	for _, path := range []string{"/dot?model=bogus", "/graph?model=bogus"} {
		w := do(t, h, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	w := do(t, h, http.MethodGet, "/dot", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shape=circle")
}

func TestGraph_SlackEdgeNotCritical(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	doc := `{"activities":[
		{"id":"A","duration":3},
		{"id":"B","duration":4,"predecessors":["A"]},
		{"id":"D","duration":5,"predecessors":["A","B"]}
	]}`
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/plan", "application/json", doc).Code)

	var g Graph
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/graph", "", "").Body.Bytes(), &g))
	critical := map[string]bool{}
	for _, e := range g.Edges {
		critical[e.From+"->"+e.To] = e.IsCritical
	}
	assert.Equal(t, map[string]bool{"A->B": true, "A->D": false, "B->D": true}, critical)
}

func TestMetricsAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/plan", "application/json", diamondJSON).Code)

	w := do(t, h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `critpath_engine_runs_total{engine="aon",outcome="ok"} 1`)

	w = do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "ok\n", w.Body.String())

	w = do(t, h, http.MethodGet, "/", "", "")
	assert.Contains(t, w.Body.String(), "/gantt")
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "", "").Code)
}

func TestStartAndPostDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url, done, err := srv.Start(ctx, "127.0.0.1:0")
	require.NoError(t, err)
	assert.True(t, IsPortOpen(strings.TrimPrefix(url, "http://")))

	doc, err := project.Parse([]byte(diamondJSON), project.FormatJSON)
	require.NoError(t, err)
	plan, err := PostDocument(ctx, url, doc)
	require.NoError(t, err)
	assert.InDelta(t, 12, plan.ProjectDuration, 1e-9)

	resp, err := http.Get(url + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	cancel()
	assert.NoError(t, <-done)
}
