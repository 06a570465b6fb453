// Package reporter prints computed plans as colour terminal tables and JSON.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/critpath/internal/planner"
	"github.com/joshharrison/critpath/internal/ui"
)

// Reporter renders one plan.
type Reporter struct {
	Plan *planner.Plan
}

// New creates a new Reporter.
func New(plan *planner.Plan) *Reporter {
	return &Reporter{Plan: plan}
}

// PrintSchedule writes the header and one row per activity.
func (r *Reporter) PrintSchedule(w io.Writer) {
	p := r.Plan
	title := p.Name
	if title == "" {
		title = "Project schedule"
	}
	fmt.Fprintf(w, "%s %s\n", ui.BoldCyan(title), ui.Dim("("+string(p.Kind)+")"))
	fmt.Fprintf(w, "Duration:  %s %s\n", ui.Bold(num(p.ProjectDuration)), p.Unit)
	fmt.Fprintf(w, "Critical:  %s\n\n", ui.BoldRed(strings.Join(p.CriticalPath, " → ")))

	rows := p.Activities()
	withStdDev := p.PERT != nil
	header := fmt.Sprintf("  %-2s %-8s %-24s %8s %8s %8s %8s %8s %8s", "", "ID", "NAME", "DUR", "ES", "EF", "LS", "LF", "FLOAT")
	if withStdDev {
		header += fmt.Sprintf(" %8s %-6s", "SD", "RISK")
	}
	fmt.Fprintln(w, ui.Dim(header))

	tight := p.ProjectDuration / 10
	for _, a := range rows {
		name := a.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(w, "  %s  %-8s %-24s %8s %8s %8s %8s %8s %s",
			ui.CriticalMark(a.IsCritical), a.ID, name,
			num(a.Duration), num(a.ES), num(a.EF), num(a.LS), num(a.LF),
			ui.Float(a.Float, tight, fmt.Sprintf("%8s", num(a.Float))))
		if withStdDev {
			fmt.Fprintf(w, " %8s %s", num(a.StdDev), ui.Risk(a.Risk))
		}
		fmt.Fprintln(w)
	}
}

// PrintEvents writes the event table of the plan's arrow network.
func (r *Reporter) PrintEvents(w io.Writer) {
	res := r.Plan.AOA
	if res == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n", ui.BoldCyan("Events"))
	fmt.Fprintln(w, ui.Dim(fmt.Sprintf("  %-2s %-8s %8s %8s %8s", "", "EVENT", "EET", "LET", "SLACK")))
	for _, ev := range res.Events {
		fmt.Fprintf(w, "  %s  %-8s %8s %8s %8s\n", ui.CriticalMark(ev.IsCritical), ev.ID, num(ev.EET), num(ev.LET), num(ev.LET-ev.EET))
	}

	fmt.Fprintf(w, "\n%s\n", ui.BoldCyan("Arrows"))
	fmt.Fprintln(w, ui.Dim(fmt.Sprintf("  %-2s %-10s %-6s %-6s %8s %8s %8s", "", "ARROW", "FROM", "TO", "DUR", "TOTAL", "FREE")))
	for _, a := range res.Activities {
		id := a.ID
		if a.Dummy {
			id = ui.Dim(fmt.Sprintf("%-10s", id))
		} else {
			id = fmt.Sprintf("%-10s", id)
		}
		fmt.Fprintf(w, "  %s  %s %-6s %-6s %8s %8s %8s\n", ui.CriticalMark(a.IsCritical), id, a.From, a.To, num(a.Duration), num(a.TotalFloat), num(a.FreeFloat))
	}
}

// PrintWaves writes the groups of activities that can start together.
func (r *Reporter) PrintWaves(w io.Writer) {
	for _, wave := range r.Plan.Waves {
		fmt.Fprintf(w, "  %s  %s %s\n", ui.WaveLabel(wave.Index, wave.IsCritical), ui.Dim("@"+num(wave.Start)), strings.Join(wave.ActivityIDs, ", "))
	}
}

// JSON returns the machine-readable plan.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Plan, "", "  ")
}

// Summary returns a one-paragraph plain summary.
func (r *Reporter) Summary() string {
	p := r.Plan
	var b strings.Builder
	fmt.Fprintf(&b, "%d activities, duration %s %s", p.TotalActivities, num(p.ProjectDuration), p.Unit)
	if len(p.Waves) > 0 {
		fmt.Fprintf(&b, ", %d waves", len(p.Waves))
	}
	fmt.Fprintf(&b, ", critical path %s", strings.Join(p.CriticalPath, " → "))
	if p.Network != nil {
		fmt.Fprintf(&b, " (arrow form: %d events, %d dummies)", len(p.Network.Events), p.Network.Dummies())
	}
	return b.String()
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	if s == "-0" {
		return "0"
	}
	return s
}
