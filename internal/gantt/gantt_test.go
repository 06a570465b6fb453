package gantt

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/critpath/internal/pert"
	"github.com/joshharrison/critpath/internal/planner"
	"github.com/joshharrison/critpath/internal/project"
)

func init() {
	color.NoColor = true
}

func diamondPlan(t *testing.T) *planner.Plan {
	t.Helper()
	plan, err := planner.Generate(&project.Document{
		Name: "Diamond",
		Activities: []project.Activity{
			{ID: "A", Name: "Kickoff", Duration: 3, Progress: 100, Risk: "low"},
			{ID: "B", Duration: 4, Predecessors: project.Predecessors{"A"}, Progress: 50},
			{ID: "C", Duration: 2, Predecessors: project.Predecessors{"A"}, Risk: "high"},
			{ID: "D", Duration: 5, Predecessors: project.Predecessors{"B", "C"}},
		},
	}, planner.Config{})
	require.NoError(t, err)
	return plan
}

func TestTasks(t *testing.T) {
	tasks := Tasks(diamondPlan(t))
	require.Len(t, tasks, 4)

	a := tasks[0]
	assert.Equal(t, "Kickoff", a.Name)
	assert.Equal(t, pert.RiskLow, a.Risk)
	assert.InDelta(t, 100, a.Progress, 1e-9)
	assert.Empty(t, a.Dependencies)

	b := tasks[1]
	assert.Equal(t, "B", b.Name, "name falls back to id")
	assert.Equal(t, pert.RiskMedium, b.Risk, "missing risk defaults to medium")

	c := tasks[2]
	assert.InDelta(t, 3, c.Start, 1e-9)
	assert.InDelta(t, 5, c.End, 1e-9)
	assert.InDelta(t, 7, c.LateEnd, 1e-9)
	assert.False(t, c.IsCritical)

	assert.Equal(t, []string{"B", "C"}, tasks[3].Dependencies)
}

func TestTasks_PERT(t *testing.T) {
	plan, err := planner.Generate(&project.Document{Kind: project.KindPERT, Activities: []project.Activity{
		{ID: "A", Optimistic: project.Ptr(5.0), MostLikely: project.Ptr(7.0), Pessimistic: project.Ptr(9.0), Progress: 30, Risk: "medium"},
		{ID: "B", Optimistic: project.Ptr(10.0), MostLikely: project.Ptr(14.0), Pessimistic: project.Ptr(18.0), Predecessors: project.Predecessors{"A"}, Progress: 150},
	}}, planner.Config{})
	require.NoError(t, err)

	tasks := Tasks(plan)
	require.Len(t, tasks, 2)
	assert.InDelta(t, 7, tasks[1].Start, 1e-9)
	assert.InDelta(t, 21, tasks[1].End, 1e-9)
	assert.InDelta(t, 100, tasks[1].Progress, 1e-9, "progress is clamped")
	assert.Equal(t, []string{"A"}, tasks[1].Dependencies)
}

func TestRiskColor(t *testing.T) {
	assert.Equal(t, "#fecaca", RiskColor(pert.RiskHigh, false))
	assert.Equal(t, "#ef4444", RiskColor(pert.RiskHigh, true))
	assert.Equal(t, "#bbf7d0", RiskColor(pert.RiskLow, false))
	assert.Equal(t, "#10b981", RiskColor(pert.RiskLow, true))
	assert.Equal(t, "#fef08a", RiskColor(pert.RiskMedium, false))
	assert.Equal(t, "#f59e0b", RiskColor("", true))
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, Tasks(diamondPlan(t)), Options{Title: "Diamond", Width: 12}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Diamond (12 days)", lines[0])

	bars := map[string]string{}
	for _, line := range lines[1:5] {
		open := strings.IndexByte(line, '|')
		end := strings.LastIndexByte(line, '|')
		bars[strings.Fields(line)[0]] = line[open+1 : end]
	}
	assert.Equal(t, "███         ", bars["A"])
	assert.Equal(t, "   ██▓▓     ", bars["B"])
	assert.Equal(t, "   ░░··     ", bars["C"])
	assert.Equal(t, "       ▓▓▓▓▓", bars["D"])
	assert.True(t, strings.HasSuffix(lines[1], " 0-3"))
	assert.True(t, strings.HasSuffix(lines[5], "12"))
}

func TestRenderText_ShortActivityStillVisible(t *testing.T) {
	tasks := []Task{
		{ID: "long", Start: 0, End: 100, LateEnd: 100, IsCritical: true},
		{ID: "tiny", Start: 100, End: 100.1, LateEnd: 100.1},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, tasks, Options{Width: 10}))
	assert.Contains(t, buf.String(), "|         ░|")
}

func TestRenderText_ClipsNamesByRune(t *testing.T) {
	tasks := []Task{
		{ID: "A", Name: "Überprüfung der Schnittstellen", Start: 0, End: 2, LateEnd: 2},
		{ID: "B", Name: "データベース移行とスキーマ設計の見直し作業", Start: 2, End: 4, LateEnd: 4},
		{ID: "C", Name: "Short", Start: 4, End: 5, LateEnd: 5},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, tasks, Options{Width: 10}))
	out := buf.String()

	require.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "Überprüfung der S...")
	assert.Contains(t, out, "データベース移行とスキーマ設計の見...")
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n")[:3] {
		head := line[:strings.IndexByte(line, '|')]
		assert.Equal(t, 30, utf8.RuneCountInString(head), "row %q", line)
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, Tasks(diamondPlan(t)), Options{Title: "Diamond launch"}))

	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Diamond launch")
	assert.Contains(t, html, "#10b981", "low risk progress colour")
	assert.Contains(t, html, "#fecaca", "high risk bar colour")
	assert.Contains(t, html, "A *")
}
