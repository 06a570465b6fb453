package render

import (
	"io"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/simple"
)

const graphName = "critpath"

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

// dotNode is an activity (AON) or an event (AOA). IDs follow input order.
type dotNode struct {
	id    int64
	dotID string
	attrs attrs
}

func (n dotNode) ID() int64                        { return n.id }
func (n dotNode) DOTID() string                    { return n.dotID }
func (n dotNode) Attributes() []encoding.Attribute { return n.attrs }

type dotEdge struct {
	from, to dotNode
	attrs    attrs
}

func (e dotEdge) From() graph.Node                 { return e.from }
func (e dotEdge) To() graph.Node                   { return e.to }
func (e dotEdge) ReversedEdge() graph.Edge         { return dotEdge{from: e.to, to: e.from, attrs: e.attrs} }
func (e dotEdge) Attributes() []encoding.Attribute { return e.attrs }

// dotLine is one arrow. Arrow networks may join the same two events more
// than once, so they are drawn from a multigraph.
type dotLine struct {
	dotEdge
	uid int64
}

func (l dotLine) ID() int64 { return l.uid }

func (l dotLine) ReversedLine() graph.Line {
	return dotLine{dotEdge: dotEdge{from: l.to, to: l.from, attrs: l.attrs}, uid: l.uid}
}

type aonGraph struct{ *simple.DirectedGraph }

func (aonGraph) DOTAttributers() (g, n, e encoding.Attributer) {
	return attrs{{Key: "rankdir", Value: "LR"}}, attrs{{Key: "shape", Value: "box"}, {Key: "style", Value: "rounded"}}, nil
}

type aoaGraph struct{ *multi.DirectedGraph }

func (aoaGraph) DOTAttributers() (g, n, e encoding.Attributer) {
	return attrs{{Key: "rankdir", Value: "LR"}}, attrs{{Key: "shape", Value: "circle"}}, nil
}

// writeDOT adapts a marshal result to w. The encoder leaves off the final
// newline.
func writeDOT(w io.Writer) func([]byte, error) error {
	return func(data []byte, err error) error {
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}
}
