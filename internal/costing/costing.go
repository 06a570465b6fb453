// Package costing prices the tooling a project needs for as long as its
// schedule runs. Phase templates are scheduled with the critical path
// engine, so parallel phases do not add to the bill.
package costing

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/critpath/internal/cpm"
)

const (
	// WeeksPerMonth converts schedule weeks to billed months.
	WeeksPerMonth = 4.345

	overheadRate     = 0.10
	overheadMinTools = 4
	highMonthlyCost  = 300.0
	longWeeks        = 12
	expensiveTool    = 50.0
	fastTemplate     = "small-mvp"
)

//go:embed catalog.yaml
var catalogYAML []byte

var validate = validator.New()

// Tool is one subscription in the catalogue.
type Tool struct {
	ID          string  `json:"id" yaml:"id" validate:"required"`
	Name        string  `json:"name" yaml:"name" validate:"required"`
	Category    string  `json:"category" yaml:"category" validate:"required"`
	MonthlyUSD  float64 `json:"monthly_usd" yaml:"monthly_usd" validate:"gte=0"`
	HasFreePlan bool    `json:"free_plan" yaml:"free_plan"`
}

// Phase is a template step, in days.
type Phase struct {
	ID        string   `json:"id" yaml:"id" validate:"required"`
	Name      string   `json:"name" yaml:"name"`
	Duration  float64  `json:"duration" yaml:"duration" validate:"gte=0"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Template is a ready-made phase plan.
type Template struct {
	ID             string  `json:"id" yaml:"id" validate:"required"`
	Name           string  `json:"name" yaml:"name" validate:"required"`
	Description    string  `json:"description" yaml:"description"`
	EstimatedWeeks int     `json:"estimated_weeks" yaml:"estimated_weeks" validate:"gte=0"`
	Phases         []Phase `json:"phases" yaml:"phases" validate:"required,dive"`
}

// Activities returns the phases as activity-on-node input.
func (t *Template) Activities() []cpm.Activity {
	out := make([]cpm.Activity, len(t.Phases))
	for i, p := range t.Phases {
		out[i] = cpm.Activity{ID: p.ID, Name: p.Name, Duration: p.Duration, Predecessors: append([]string(nil), p.DependsOn...)}
	}
	return out
}

// Catalog is the set of known tools and phase templates.
type Catalog struct {
	Tools     []Tool     `json:"tools" yaml:"tools" validate:"required,dive"`
	Templates []Template `json:"templates" yaml:"templates" validate:"dive"`
}

// Default returns the built-in catalogue.
func Default() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes and validates a catalogue. Tool and template ids must be
// unique.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	seen := map[string]bool{}
	for _, t := range c.Tools {
		if seen[t.ID] {
			return nil, fmt.Errorf("invalid catalog: duplicate tool %q", t.ID)
		}
		seen[t.ID] = true
	}
	seen = map[string]bool{}
	for _, t := range c.Templates {
		if seen[t.ID] {
			return nil, fmt.Errorf("invalid catalog: duplicate template %q", t.ID)
		}
		seen[t.ID] = true
	}
	return &c, nil
}

// Select looks up tools by id, in the order given.
func (c *Catalog) Select(ids []string) ([]Tool, error) {
	byID := make(map[string]Tool, len(c.Tools))
	for _, t := range c.Tools {
		byID[t.ID] = t
	}
	out := make([]Tool, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		t, ok := byID[strings.TrimSpace(id)]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, t)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown tools: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (*Template, error) {
	var names []string
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i], nil
		}
		names = append(names, c.Templates[i].ID)
	}
	return nil, fmt.Errorf("unknown phase template %q (have %s)", id, strings.Join(names, ", "))
}

// Categories returns the tool categories in sorted order.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range c.Tools {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Suggestion is a hint for bringing the estimate down.
type Suggestion struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // cost, duration or tool
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Estimate is the priced schedule. Money is in USD rounded to cents.
type Estimate struct {
	Template     string       `json:"template,omitempty"`
	Tools        []Tool       `json:"tools"`
	BaseMonthly  float64      `json:"base_monthly"`
	Overhead     float64      `json:"overhead"`
	Monthly      float64      `json:"monthly"`
	Days         float64      `json:"days"`
	Weeks        int          `json:"weeks"`
	Months       float64      `json:"months"`
	Total        float64      `json:"total"`
	CriticalPath []string     `json:"critical_path,omitempty"`
	Suggestions  []Suggestion `json:"suggestions"`
}

// Price bills tools for a project that runs the given number of days. Four
// or more tools add a 10% overhead. Days are billed in whole weeks.
func Price(tools []Tool, days float64) (*Estimate, error) {
	if days < 0 || math.IsNaN(days) || math.IsInf(days, 0) {
		return nil, errors.New("days must be a finite number >= 0")
	}
	base := 0.0
	for _, t := range tools {
		base += t.MonthlyUSD
	}
	overhead := 0.0
	if len(tools) >= overheadMinTools {
		overhead = base * overheadRate
	}
	monthly := round2(base + overhead)
	weeks := int(math.Ceil(days / 7))

	e := &Estimate{
		Tools:       append([]Tool{}, tools...),
		BaseMonthly: round2(base),
		Overhead:    round2(overhead),
		Monthly:     monthly,
		Days:        days,
		Weeks:       weeks,
		Months:      math.Round(float64(weeks)/WeeksPerMonth*10) / 10,
		Total:       round2(monthly * float64(weeks) / WeeksPerMonth),
	}
	e.Suggestions = suggest(e)
	return e, nil
}

// ForTemplate schedules a template's phases and prices tools over the
// resulting project duration.
func ForTemplate(t *Template, tools []Tool, cfg cpm.Config) (*Estimate, error) {
	res, err := cpm.Analyze(t.Activities(), cfg)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", t.ID, err)
	}
	e, err := Price(tools, res.ProjectDuration)
	if err != nil {
		return nil, err
	}
	e.Template = t.ID
	e.CriticalPath = res.CriticalPath
	e.Suggestions = suggest(e)
	return e, nil
}

func suggest(e *Estimate) []Suggestion {
	out := []Suggestion{}
	if e.Monthly > highMonthlyCost {
		out = append(out, Suggestion{
			ID: "high-cost", Kind: "cost", Title: "High monthly cost",
			Description: fmt.Sprintf("Tooling runs $%.2f a month. Consider cheaper alternatives.", e.Monthly),
		})
	}
	if e.Weeks > longWeeks && e.Template != fastTemplate {
		out = append(out, Suggestion{
			ID: "long-duration", Kind: "duration", Title: "Long project duration",
			Description: fmt.Sprintf("The schedule runs %d weeks. The %s template delivers sooner.", e.Weeks, fastTemplate),
		})
	}
	free := 0
	for _, t := range e.Tools {
		if t.MonthlyUSD > expensiveTool {
			out = append(out, Suggestion{
				ID: "expensive-tool-" + t.ID, Kind: "tool", Title: "Consider " + t.Name + " alternatives",
				Description: fmt.Sprintf("%s costs $%.2f a month.", t.Name, t.MonthlyUSD),
			})
		}
		if t.HasFreePlan {
			free++
		}
	}
	if free > 0 {
		out = append(out, Suggestion{
			ID: "free-tier", Kind: "tool", Title: "Free plans available",
			Description: fmt.Sprintf("%d of the selected tools offer a free tier.", free),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
