// Package render draws scheduled networks as Graphviz DOT and as plain
// terminal listings.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/joshharrison/critpath/internal/aoa"
	"github.com/joshharrison/critpath/internal/cpm"
	"github.com/joshharrison/critpath/internal/ui"
)

// AONDot writes an activity-on-node network as DOT. Critical nodes and the
// critical dependencies between them are drawn red.
func AONDot(w io.Writer, res *cpm.Result) error {
	g := aonGraph{simple.NewDirectedGraph()}
	nodes := make(map[string]dotNode, len(res.Activities))
	for i, a := range res.Activities {
		label := a.ID
		if a.Name != "" && a.Name != a.ID {
			label += "\n" + a.Name
		}
		label += fmt.Sprintf("\nES %s  EF %s\nLS %s  LF %s\nfloat %s", num(a.ES), num(a.EF), num(a.LS), num(a.LF), num(a.Float))
		n := dotNode{id: int64(i), dotID: a.ID, attrs: attrs{{Key: "label", Value: label}}}
		if a.IsCritical {
			n.attrs = append(n.attrs, encoding.Attribute{Key: "style", Value: "rounded,bold"}, encoding.Attribute{Key: "color", Value: "red"})
		}
		nodes[a.ID] = n
		g.AddNode(n)
	}
	for _, a := range res.Activities {
		for _, s := range a.Successors {
			e := dotEdge{from: nodes[a.ID], to: nodes[s]}
			if res.CriticalLink(a.ID, s, 0) {
				e.attrs = attrs{{Key: "color", Value: "red"}, {Key: "penwidth", Value: "2"}}
			}
			g.SetEdge(e)
		}
	}
	return writeDOT(w)(dot.Marshal(g, graphName, "", "  "))
}

// AOADot writes an activity-on-arrow network as DOT. Events are circles
// labelled with their earliest and latest times; dummy arrows are dashed.
func AOADot(w io.Writer, res *aoa.Result) error {
	g := aoaGraph{multi.NewDirectedGraph()}
	nodes := make(map[string]dotNode, len(res.Events))
	for i, ev := range res.Events {
		n := dotNode{id: int64(i), dotID: ev.ID, attrs: attrs{{Key: "label", Value: fmt.Sprintf("%s\n%s | %s", ev.ID, num(ev.EET), num(ev.LET))}}}
		if ev.IsCritical {
			n.attrs = append(n.attrs, encoding.Attribute{Key: "color", Value: "red"}, encoding.Attribute{Key: "penwidth", Value: "2"})
		}
		nodes[ev.ID] = n
		g.AddNode(n)
	}
	for i, a := range res.Activities {
		l := dotLine{dotEdge: dotEdge{from: nodes[a.From], to: nodes[a.To]}, uid: int64(i)}
		if a.Dummy {
			l.attrs = attrs{{Key: "style", Value: "dashed"}, {Key: "label", Value: ""}}
		} else {
			l.attrs = attrs{{Key: "label", Value: fmt.Sprintf("%s (%s)", a.ID, num(a.Duration))}}
		}
		if a.IsCritical {
			l.attrs = append(l.attrs, encoding.Attribute{Key: "color", Value: "red"}, encoding.Attribute{Key: "penwidth", Value: "2"})
		}
		g.SetLine(l)
	}
	return writeDOT(w)(dot.MarshalMulti(g, graphName, "", "  "))
}

// ASCIIWaves lists an AON schedule wave by wave with each activity's
// successors underneath.
func ASCIIWaves(w io.Writer, res *cpm.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ui.BoldCyan("Activity network"))
	fmt.Fprintln(&b, ui.Cyan("════════════════"))
	fmt.Fprintln(&b)

	for _, wave := range res.Waves {
		fmt.Fprintf(&b, "%s Wave %d @ %s %s\n", ui.Cyan("──"), wave.Index+1, num(wave.Start), ui.Cyan("──────────────────────────"))
		for _, id := range wave.ActivityIDs {
			a := res.Get(id)
			fmt.Fprintf(&b, "  %s [%s] %s %s\n", ui.CriticalMark(a.IsCritical), ui.Bold(a.ID), a.Name, ui.Dim(fmt.Sprintf("(%s, float %s)", num(a.Duration), num(a.Float))))
			for _, s := range a.Successors {
				fmt.Fprintf(&b, "      %s %s\n", ui.Dim("└──→"), s)
			}
		}
		fmt.Fprintln(&b)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ASCIIArrows lists an AOA network event by event, earliest first, with the
// arrows leaving each event.
func ASCIIArrows(w io.Writer, res *aoa.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ui.BoldCyan("Arrow network"))
	fmt.Fprintln(&b, ui.Cyan("═════════════"))
	fmt.Fprintln(&b)

	events := append([]aoa.Event(nil), res.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].EET < events[j].EET })

	for _, ev := range events {
		fmt.Fprintf(&b, "  %s (%s) %s\n", ui.CriticalMark(ev.IsCritical), ui.Bold(ev.ID), ui.Dim(fmt.Sprintf("EET %s  LET %s", num(ev.EET), num(ev.LET))))
		for _, a := range res.Activities {
			if a.From != ev.ID {
				continue
			}
			label := fmt.Sprintf("%s %s", a.ID, ui.Dim("("+num(a.Duration)+")"))
			if a.Dummy {
				label = ui.Dim("dummy")
			}
			arrow := "└──→"
			if a.IsCritical {
				arrow = ui.Red("└══→")
			} else {
				arrow = ui.Dim(arrow)
			}
			fmt.Fprintf(&b, "      %s %s  %s\n", arrow, a.To, label)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	if s == "-0" {
		return "0"
	}
	return s
}
