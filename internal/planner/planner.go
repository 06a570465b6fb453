// Package planner runs the scheduling engines a project document needs and
// bundles their results into a Plan.
package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joshharrison/critpath/internal/aoa"
	"github.com/joshharrison/critpath/internal/convert"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/metrics"
	"github.com/joshharrison/critpath/internal/pert"
	"github.com/joshharrison/critpath/internal/project"
)

// Generate schedules doc with the engine matching its kind. Node documents
// (aon, pert) are also converted to arrow form and scheduled again, so every
// Plan carries an AOA result.
func Generate(doc *project.Document, config Config) (*Plan, error) {
	if config.Recorder == nil {
		config.Recorder = metrics.Nop{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	kind := doc.ResolveKind()
	unit := doc.Unit
	if unit == "" {
		unit = "days"
	}
	plan := &Plan{
		ID:              uuid.NewString(),
		Name:            doc.Name,
		Kind:            kind,
		Unit:            unit,
		CreatedAt:       config.Now(),
		TotalActivities: len(doc.Activities),
		Document:        doc,
	}
	log = log.With().Str("plan", plan.ID).Str("kind", string(kind)).Logger()

	switch kind {
	case project.KindAOA:
		arrows, aoaCfg := doc.AOA()
		aoaCfg.Tolerance = config.Tolerance
		res, err := run(config, "aoa", len(arrows), func() (*aoa.Result, error) { return aoa.Compute(arrows, aoaCfg) })
		if err != nil {
			return nil, fmt.Errorf("schedule arrows: %w", err)
		}
		plan.AOA = res
		plan.ProjectDuration = res.ProjectDuration
		plan.CriticalPath = res.CriticalPath

	case project.KindPERT:
		acts := doc.PERT()
		res, err := run(config, "pert", len(acts), func() (*pert.Result, error) {
			return pert.Compute(acts, pert.Config{Tolerance: config.Tolerance})
		})
		if err != nil {
			return nil, fmt.Errorf("schedule estimates: %w", err)
		}
		plan.PERT = res
		plan.ProjectDuration = res.TotalDuration
		plan.CriticalPath = res.CriticalPath
		if err := plan.nodes(config, doc.AON()); err != nil {
			return nil, err
		}

	default:
		if err := plan.nodes(config, doc.AON()); err != nil {
			return nil, err
		}
		plan.ProjectDuration = plan.AON.ProjectDuration
		plan.CriticalPath = plan.AON.CriticalPath
	}

	log.Debug().
		Int("activities", plan.TotalActivities).
		Float64("duration", plan.ProjectDuration).
		Strs("critical_path", plan.CriticalPath).
		Msg("plan generated")
	return plan, nil
}

// nodes runs the AON pass, then the conversion and the AOA pass over the
// converted network.
func (p *Plan) nodes(config Config, acts []cpm.Activity) error {
	res, err := run(config, "aon", len(acts), func() (*cpm.Result, error) {
		return cpm.Analyze(acts, cpm.Config{Tolerance: config.Tolerance})
	})
	if err != nil {
		return fmt.Errorf("schedule activities: %w", err)
	}
	p.AON = res
	p.Waves = res.Waves

	net, err := convert.ToAOA(acts)
	if err != nil {
		return fmt.Errorf("convert to arrows: %w", err)
	}
	p.Network = net
	converted, err := run(config, "aoa", len(net.Activities), func() (*aoa.Result, error) {
		return aoa.Compute(net.Activities, aoa.Config{Tolerance: config.Tolerance, Events: net.Events})
	})
	if err != nil {
		return fmt.Errorf("schedule converted arrows: %w", err)
	}
	p.AOA = converted
	return nil
}

func run[R any](config Config, engine string, n int, fn func() (R, error)) (R, error) {
	start := time.Now()
	res, err := fn()
	config.Recorder.ObserveRun(engine, n, time.Since(start), err)
	return res, err
}

// Activities flattens the plan's primary schedule into rows in document
// order. AOA plans list real arrows only, scheduled from their tail event.
func (p *Plan) Activities() []Activity {
	var rows []Activity
	switch {
	case p.PERT != nil:
		for _, a := range p.PERT.Activities {
			rows = append(rows, Activity{
				ID: a.ID, Name: a.Name, Duration: a.Expected,
				ES: a.EarlyStart, EF: a.EarlyFinish, LS: a.LateStart, LF: a.LateFinish,
				Float: a.Slack, StdDev: a.StdDev, Progress: a.Progress, Risk: a.RiskLevel,
				IsCritical: a.IsCritical,
			})
		}
	case p.AON != nil:
		for _, a := range p.AON.Activities {
			row := Activity{
				ID: a.ID, Name: a.Name, Duration: a.Duration,
				ES: a.ES, EF: a.EF, LS: a.LS, LF: a.LF, Float: a.Float,
				IsCritical: a.IsCritical,
			}
			if a.Estimate != nil {
				row.StdDev = a.Estimate.StdDev()
			}
			rows = append(rows, row)
		}
		p.decorate(rows)
	case p.AOA != nil:
		for _, a := range p.AOA.Activities {
			if a.Dummy {
				continue
			}
			from, to := p.AOA.Event(a.From), p.AOA.Event(a.To)
			rows = append(rows, Activity{
				ID: a.ID, Name: a.Name, Duration: a.Duration,
				ES: from.EET, EF: from.EET + a.Duration,
				LS: to.LET - a.Duration, LF: to.LET,
				Float: a.TotalFloat, IsCritical: a.IsCritical,
			})
		}
		p.decorate(rows)
	}
	return rows
}

// decorate copies display-only fields from the document rows.
func (p *Plan) decorate(rows []Activity) {
	if p.Document == nil {
		return
	}
	byID := make(map[string]project.Activity, len(p.Document.Activities))
	for _, a := range p.Document.Activities {
		if a.ID != "" {
			byID[a.ID] = a
		} else if a.Name != "" {
			byID[a.Name] = a
		}
	}
	for i := range rows {
		if src, ok := byID[rows[i].ID]; ok {
			rows[i].Progress = src.Progress
			rows[i].Risk = pert.RiskLevel(src.Risk)
		}
	}
}
