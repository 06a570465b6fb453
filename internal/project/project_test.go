package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aonYAML = `
name: Website launch
activities:
  - id: A
    duration: 3
  - id: B
    duration: 4
    predecessors: [A]
  - id: C
    duration: 2
    predecessors: "A"
  - id: D
    duration: 5
    predecessors: "B, C"
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(aonYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Website launch", doc.Name)
	assert.Equal(t, KindAON, doc.ResolveKind())
	require.Len(t, doc.Activities, 4)
	assert.Equal(t, Predecessors{"A"}, doc.Activities[1].Predecessors)
	assert.Equal(t, Predecessors{"A"}, doc.Activities[2].Predecessors)
	assert.Equal(t, Predecessors{"B", "C"}, doc.Activities[3].Predecessors)

	acts := doc.AON()
	assert.Equal(t, []string{"B", "C"}, acts[3].Predecessors)
	assert.Nil(t, acts[0].Estimate)
}

func TestParse_JSON(t *testing.T) {
	data := `{"kind":"pert","activities":[
		{"id":"A","optimistic":1,"most_likely":2,"pessimistic":3,"risk":"high","progress":50},
		{"id":"B","optimistic":2,"most_likely":2,"pessimistic":2,"predecessors":"A"}
	]}`
	doc, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)

	acts := doc.PERT()
	require.Len(t, acts, 2)
	assert.EqualValues(t, "high", acts[0].RiskLevel)
	assert.InDelta(t, 50, acts[0].Progress, 1e-9)
	assert.Equal(t, []string{"A"}, acts[1].Predecessors)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("activities:\n  - id: A\n    duratoin: 3\n"), FormatYAML)
	require.Error(t, err)

	_, err = Parse([]byte(`{"activities":[{"id":"A","duratoin":3}]}`), FormatJSON)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"no activities", Document{}, "at least one activity"},
		{"negative duration", Document{Activities: []Activity{{ID: "A", Duration: -1}}}, "activities[0].duration: must be at least 0"},
		{"bad risk", Document{Activities: []Activity{{ID: "A", Risk: "extreme"}}}, "activities[0].risk: must be one of"},
		{"progress over 100", Document{Activities: []Activity{{ID: "A", Progress: 120}}}, "activities[0].progress: must be at most 100"},
		{"bad kind", Document{Kind: "gantt", Activities: []Activity{{ID: "A"}}}, "kind: must be one of"},
		{"missing id", Document{Activities: []Activity{{Duration: 1}}}, "activities[0]: id is required"},
		{"arrow without head", Document{Activities: []Activity{{From: "1", Duration: 1}}}, "activities[0]: from and to are required"},
		{"pert without estimate", Document{Kind: KindPERT, Activities: []Activity{{ID: "A"}}}, "optimistic, most_likely and pessimistic are required"},
		{"pert with partial estimate", Document{Kind: KindPERT, Activities: []Activity{{ID: "A", MostLikely: Ptr(3.0)}}}, "optimistic, most_likely and pessimistic are required"},
		{"negative estimate", Document{Activities: []Activity{{ID: "A", Optimistic: Ptr(-1.0), MostLikely: Ptr(1.0), Pessimistic: Ptr(2.0)}}}, "activities[0].optimistic: must be at least 0"},
		{"dummy with duration", Document{Kind: KindAOA, Activities: []Activity{{From: "1", To: "2", Duration: 1, Dummy: true}}}, "dummy arrows must have zero duration"},
		{"dummy on a node", Document{Activities: []Activity{{ID: "A", Dummy: true}}}, "dummy is only valid for aoa arrows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveKind(t *testing.T) {
	assert.Equal(t, KindAOA, (&Document{Activities: []Activity{{From: "1", To: "2"}}}).ResolveKind())
	assert.Equal(t, KindPERT, (&Document{Activities: []Activity{{ID: "A", MostLikely: Ptr(2.0)}}}).ResolveKind())
	assert.Equal(t, KindAON, (&Document{Activities: []Activity{{ID: "A", Duration: 2}}}).ResolveKind())
	assert.Equal(t, KindAON, (&Document{Kind: KindAON, Activities: []Activity{{ID: "A", MostLikely: Ptr(2.0)}}}).ResolveKind())
}

func TestAON_EstimateRows(t *testing.T) {
	doc := &Document{Kind: KindAON, Activities: []Activity{{ID: "A", Optimistic: Ptr(1.0), MostLikely: Ptr(4.0), Pessimistic: Ptr(7.0)}}}
	acts := doc.AON()
	require.NotNil(t, acts[0].Estimate)
	assert.InDelta(t, 4, acts[0].Estimate.Expected(), 1e-9)
}

func TestAOA_Events(t *testing.T) {
	doc, err := Parse([]byte(`
kind: aoa
events: ["1", "2"]
activities:
  - {name: A, from: "1", to: "2", duration: 3}
`), FormatYAML)
	require.NoError(t, err)
	arrows, cfg := doc.AOA()
	assert.Equal(t, []string{"1", "2"}, cfg.Events)
	assert.Equal(t, "A", arrows[0].Name)
	assert.Equal(t, "2", arrows[0].To)
}

func TestAOA_DummyArrows(t *testing.T) {
	doc, err := Parse([]byte(`
kind: aoa
activities:
  - {name: A, from: "1", to: "2", duration: 3}
  - {id: dummy-1, from: "2", to: "3", dummy: true}
`), FormatYAML)
	require.NoError(t, err)
	arrows, _ := doc.AOA()
	assert.False(t, arrows[0].Dummy)
	assert.True(t, arrows[1].Dummy)
}

func TestParse_PERTMilestone(t *testing.T) {
	doc, err := Parse([]byte(`
kind: pert
activities:
  - {id: A, optimistic: 2, most_likely: 3, pessimistic: 4}
  - {id: M, optimistic: 0, most_likely: 0, pessimistic: 0, predecessors: [A]}
`), FormatYAML)
	require.NoError(t, err)
	require.True(t, doc.Activities[1].HasEstimate())
	acts := doc.PERT()
	assert.Zero(t, acts[1].MostLikely)

	data, err := Marshal(doc, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "most_likely: 0")
}

func TestSelect(t *testing.T) {
	data := []byte(`{"projects":{"launch":{"activities":[{"id":"A","duration":1}]}},"list":[1]}`)

	raw, err := Select(data, "projects.launch")
	require.NoError(t, err)
	doc, err := Parse(raw, FormatJSON)
	require.NoError(t, err)
	assert.Len(t, doc.Activities, 1)

	_, err = Select(data, "projects.missing")
	assert.ErrorContains(t, err, "no match")

	_, err = Select(data, "list")
	assert.ErrorContains(t, err, "want an object")

	_, err = Select([]byte("activities: []"), "x")
	assert.ErrorContains(t, err, "requires a JSON document")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(aonYAML), 0o644))
	doc, err := Load(yamlPath, "")
	require.NoError(t, err)
	assert.Len(t, doc.Activities, 4)

	jsonPath := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"plan":{"activities":[{"id":"A","duration":2}]}}`), 0o644))
	doc, err = Load(jsonPath, "plan")
	require.NoError(t, err)
	assert.Equal(t, "A", doc.Activities[0].ID)

	_, err = Load(filepath.Join(dir, "missing.yaml"), "")
	assert.ErrorContains(t, err, "read project")
}

func TestMarshal_RoundTrip(t *testing.T) {
	doc, err := Parse([]byte(aonYAML), FormatYAML)
	require.NoError(t, err)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		data, err := Marshal(doc, format)
		require.NoError(t, err)
		again, err := Parse(data, format)
		require.NoError(t, err)
		assert.Equal(t, doc, again, "format %s", format)
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("x/plan.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("plan.yml"))
	assert.Equal(t, FormatYAML, FormatFor("plan"))
}
