package viewer

import (
	"time"

	"github.com/joshharrison/critpath/internal/planner"
)

type GraphNode struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	IsCritical bool    `json:"is_critical"`
	WaveIndex  int     `json:"wave_index"`
	Start      float64 `json:"start"` // ES for activities, EET for events
	Finish     float64 `json:"finish"`
	Float      float64 `json:"float"`
}

type GraphEdge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Label      string  `json:"label,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Dummy      bool    `json:"dummy,omitempty"`
	IsCritical bool    `json:"is_critical"`
}

type GraphMetadata struct {
	ID              string  `json:"id"`
	Model           string  `json:"model"`
	CreatedAt       string  `json:"created_at"`
	TotalActivities int     `json:"total_activities"`
	TotalWaves      int     `json:"total_waves"`
	ProjectDuration float64 `json:"project_duration"`
}

type Graph struct {
	Nodes        []GraphNode   `json:"nodes"`
	Edges        []GraphEdge   `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     GraphMetadata `json:"metadata"`
}

// toGraph converts a plan into the node/edge form the viewer serves. model
// "aoa" (or a plan without node results) yields events as nodes and
// activities as edges; anything else yields activities as nodes.
func toGraph(plan *planner.Plan, model string) *Graph {
	g := &Graph{
		Nodes:        []GraphNode{},
		Edges:        []GraphEdge{},
		CriticalPath: plan.CriticalPath,
		Metadata: GraphMetadata{
			ID:              plan.ID,
			CreatedAt:       plan.CreatedAt.Format(time.RFC3339),
			TotalActivities: plan.TotalActivities,
			TotalWaves:      len(plan.Waves),
			ProjectDuration: plan.ProjectDuration,
		},
	}

	if model == "aoa" || plan.AON == nil {
		g.Metadata.Model = "aoa"
		if plan.AOA == nil {
			return g
		}
		for _, ev := range plan.AOA.Events {
			g.Nodes = append(g.Nodes, GraphNode{
				ID: ev.ID, Title: ev.ID, IsCritical: ev.IsCritical,
				Start: ev.EET, Finish: ev.LET, Float: ev.LET - ev.EET,
			})
		}
		for _, a := range plan.AOA.Activities {
			g.Edges = append(g.Edges, GraphEdge{
				From: a.From, To: a.To, Label: a.ID, Duration: a.Duration,
				Dummy: a.Dummy, IsCritical: a.IsCritical,
			})
		}
		return g
	}

	g.Metadata.Model = "aon"
	wave := map[string]int{}
	for _, w := range plan.Waves {
		for _, id := range w.ActivityIDs {
			wave[id] = w.Index
		}
	}
	for _, a := range plan.AON.Activities {
		title := a.Name
		if title == "" {
			title = a.ID
		}
		g.Nodes = append(g.Nodes, GraphNode{
			ID: a.ID, Title: title, IsCritical: a.IsCritical, WaveIndex: wave[a.ID],
			Start: a.ES, Finish: a.EF, Float: a.Float,
		})
	}
	for _, a := range plan.AON.Activities {
		for _, s := range a.Successors {
			g.Edges = append(g.Edges, GraphEdge{From: a.ID, To: s, IsCritical: plan.AON.CriticalLink(a.ID, s, 0)})
		}
	}
	return g
}
