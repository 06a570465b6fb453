package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/joshharrison/critpath/internal/pert"
)

// Sprint color functions for building styled strings.
var (
	Bold     = color.New(color.Bold).SprintFunc()
	Dim      = color.New(color.Faint).SprintFunc()
	Cyan     = color.New(color.FgCyan).SprintFunc()
	Green    = color.New(color.FgGreen).SprintFunc()
	Red      = color.New(color.FgRed).SprintFunc()
	Yellow   = color.New(color.FgYellow).SprintFunc()
	BoldCyan = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldRed  = color.New(color.Bold, color.FgRed).SprintFunc()
)

// PrintLogo renders the colored critpath logo to w.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	track := color.New(color.FgCyan, color.Faint)
	crit := color.New(color.FgRed)
	brand := color.New(color.Bold, color.FgRed)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +------------------------------+")
	track.Fprintln(w, "   |  o---o---o        o---o      |")
	crit.Fprintln(w, "   |  o===o===o===o===o===o===o   |")
	brand.Fprintln(w, "   |   C  R  I  T  P  A  T  H     |")
	frame.Fprintln(w, "   +------------------------------+")
	tag.Fprintln(w, "   Critical path and PERT scheduling")
	fmt.Fprintln(w)
}

// CriticalMark returns the marker shown next to critical activities.
func CriticalMark(critical bool) string {
	if critical {
		return BoldRed("★")
	}
	return " "
}

// Float colors a float value: red at zero, yellow when tight, green otherwise.
func Float(v, tight float64, s string) string {
	switch {
	case v <= 0:
		return Red(s)
	case v <= tight:
		return Yellow(s)
	default:
		return Green(s)
	}
}

// Risk returns a colored risk label.
func Risk(level pert.RiskLevel) string {
	switch level {
	case pert.RiskHigh:
		return Red("high")
	case pert.RiskLow:
		return Green("low")
	case pert.RiskMedium:
		return Yellow("medium")
	default:
		return Dim("-")
	}
}

// WaveLabel returns a colored wave heading.
func WaveLabel(index int, critical bool) string {
	label := fmt.Sprintf("Wave %d", index)
	if critical {
		return BoldRed(label)
	}
	return BoldCyan(label)
}
