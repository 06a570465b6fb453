package planner

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/joshharrison/critpath/internal/aoa"
	"github.com/joshharrison/critpath/internal/convert"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/pert"
	"github.com/joshharrison/critpath/internal/project"
)

// Plan is every engine result computed for one project document.
type Plan struct {
	ID              string       `json:"id"`
	Name            string       `json:"name,omitempty"`
	Kind            project.Kind `json:"kind"`
	Unit            string       `json:"unit"`
	CreatedAt       time.Time    `json:"created_at"`
	TotalActivities int          `json:"total_activities"`
	ProjectDuration float64      `json:"project_duration"`
	CriticalPath    []string     `json:"critical_path"`
	Waves           []cpm.Wave   `json:"waves,omitempty"`

	AON  *cpm.Result  `json:"aon,omitempty"`  // aon and pert documents
	PERT *pert.Result `json:"pert,omitempty"` // pert documents
	AOA  *aoa.Result  `json:"aoa,omitempty"`  // every document; converted for aon and pert
	// Network is the canonical arrow form of a node document.
	Network *convert.Network `json:"network,omitempty"`

	Document *project.Document `json:"document"`
}

// Activity is a flattened schedule row shared by every kind.
type Activity struct {
	ID         string
	Name       string
	Duration   float64
	ES, EF     float64
	LS, LF     float64
	Float      float64
	StdDev     float64
	Progress   float64
	Risk       pert.RiskLevel
	IsCritical bool
}

// Config holds planner settings. The zero value is ready to use.
type Config struct {
	Tolerance float64
	Logger    *zerolog.Logger
	Recorder  metrics.Recorder
	Now       func() time.Time
}
