package layer

import (
	"fmt"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// Route concatenates the outputs of earlier layers along the channel axis.
// With groups > 1 only the group_id-th slice of the concatenation is kept.
type Route struct {
	Base
	Layers  []int
	Groups  int
	GroupID int
}

// NewRoute builds a route layer. Every referenced layer must share the
// spatial size of the first one.
func NewRoute(r *config.Reader, p Params) (*Route, error) {
	l := &Route{Base: newBase(layertype.Route, r, p)}
	l.Groups = r.IntQuiet("groups", 1)
	l.GroupID = r.IntQuiet("group_id", 0)
	if err := r.Err(); err != nil {
		return nil, err
	}
	refs, err := resolveRefs(r, p, "layers")
	if err != nil {
		return nil, err
	}
	if l.Groups < 1 {
		return nil, fail(r, diag.KindInvalidOption, "groups", "groups must be at least 1, got %d", l.Groups)
	}
	if l.GroupID < 0 || l.GroupID >= l.Groups {
		return nil, fail(r, diag.KindInvalidOption, "group_id", "group_id=%d is outside [0, %d)", l.GroupID, l.Groups)
	}

	first, _ := p.Layer(refs[0])
	out := Shape{W: first.OutputShape().W, H: first.OutputShape().H}
	for _, i := range refs {
		n, _ := p.Layer(i)
		s := n.OutputShape()
		if s.W != out.W || s.H != out.H {
			return nil, fail(r, diag.KindShapeMismatch, "layers",
				"layer %d output %s does not match layer %d spatial size %d x %d", i, s, refs[0], out.W, out.H)
		}
		out.C += s.C
	}
	if out.C%l.Groups != 0 {
		return nil, fail(r, diag.KindInvalidOption, "groups", "groups=%d does not divide %d routed channels", l.Groups, out.C)
	}
	out.C /= l.Groups

	l.Layers = refs
	l.inputs = refs
	l.out = out
	return l, nil
}

func (l *Route) Detail() string {
	s := joinInts(l.Layers)
	if l.Groups > 1 {
		s += fmt.Sprintf(" %d/%d", l.GroupID, l.Groups)
	}
	return s
}
