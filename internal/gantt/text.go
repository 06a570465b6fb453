package gantt

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/joshharrison/critpath/internal/pert"
)

const (
	doneRune     = '█'
	criticalRune = '▓'
	normalRune   = '░'
	floatRune    = '·'
)

var riskColors = map[pert.RiskLevel]*color.Color{
	pert.RiskHigh:   color.New(color.FgRed),
	pert.RiskMedium: color.New(color.FgYellow),
	pert.RiskLow:    color.New(color.FgGreen),
}

// RenderText writes a fixed-width chart: completed work, remaining work
// (darker on the critical path) and float up to the latest finish.
func RenderText(w io.Writer, tasks []Task, o Options) error {
	cols := o.Width
	if cols <= 0 {
		cols = 60
	}
	total := span(tasks)
	unit := o.Unit
	if unit == "" {
		unit = "days"
	}

	if o.Title != "" {
		if _, err := fmt.Fprintf(w, "%s (%s %s)\n", color.New(color.Bold).Sprint(o.Title), num(total), unit); err != nil {
			return err
		}
	}
	for _, t := range tasks {
		if _, err := fmt.Fprintf(w, "%-8s %-20s |%s| %s-%s\n", t.ID, clip(t.Name, 20), bar(t, cols, total), num(t.Start), num(t.End)); err != nil {
			return err
		}
	}

	end := num(total)
	pad := cols + 1 - len(end)
	if pad < 1 {
		pad = 1
	}
	_, err := fmt.Fprintf(w, "%s0%s%s\n", strings.Repeat(" ", 31), strings.Repeat(" ", pad), end)
	return err
}

// clip shortens s to at most n runes, marking the cut with "...". fmt pads
// %-20s by runes, so the result lines up with ASCII names.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func bar(t Task, cols int, total float64) string {
	if total <= 0 {
		return strings.Repeat(" ", cols)
	}
	scale := float64(cols) / total
	col := func(x float64) int {
		c := int(math.Round(x * scale))
		if c < 0 {
			return 0
		}
		if c > cols {
			return cols
		}
		return c
	}

	s, e, l := col(t.Start), col(t.End), col(t.LateEnd)
	if e == s && t.Duration() > 0 {
		if e < cols {
			e++
		} else {
			s--
		}
	}
	if l < e {
		l = e
	}
	done := s + int(math.Round(float64(e-s)*t.Progress/100))

	remaining := normalRune
	if t.IsCritical {
		remaining = criticalRune
	}
	fill := riskColors[t.Risk]
	if fill == nil {
		fill = riskColors[pert.RiskMedium]
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", s))
	b.WriteString(fill.Sprint(strings.Repeat(string(doneRune), done-s)))
	b.WriteString(fill.Sprint(strings.Repeat(string(remaining), e-done)))
	b.WriteString(strings.Repeat(string(floatRune), l-e))
	b.WriteString(strings.Repeat(" ", cols-l))
	return b.String()
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	return strings.TrimSuffix(s, ".00")
}
