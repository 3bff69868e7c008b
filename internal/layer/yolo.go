package layer

import (
	"fmt"

	"github.com/specialistvlad/darkcfg/internal/config"
	"github.com/specialistvlad/darkcfg/internal/diag"
	"github.com/specialistvlad/darkcfg/internal/layertype"
)

// YOLO is a detection head. Its loss and box decoding belong to the
// execution engine; the compiler only checks that the anchors, mask and
// class count agree with the channels it receives.
type YOLO struct {
	Base
	Classes      int
	Total        int
	Mask         []int
	Anchors      []float64
	IgnoreThresh float64
	TruthThresh  float64
	ScaleXY      float64
	NewCoords    bool
}

// yoloExecutionOptions only configure the loss or the post-processing.
var yoloExecutionOptions = []string{
	"max", "counters_per_class", "label_smooth_eps", "jitter", "resize",
	"focal_loss", "iou_thresh", "random", "track_history_size", "sim_thresh",
	"dets_for_track", "dets_for_show", "track_ciou_norm", "embedding_layer",
	"iou_normalizer", "obj_normalizer", "cls_normalizer", "delta_normalizer",
	"iou_loss", "iou_thresh_kind", "beta_nms", "nms_kind", "objectness_smooth",
	"map", "max_delta",
}

// NewYOLO builds a yolo layer. The mask defaults to every anchor; the input
// must carry len(mask)*(classes+5) channels.
func NewYOLO(r *config.Reader, p Params) (*YOLO, error) {
	l := &YOLO{Base: newBase(layertype.YOLO, r, p)}
	l.Classes = r.Int("classes", 20)
	l.Total = r.Int("num", 1)
	l.IgnoreThresh = r.Float("ignore_thresh", 0.5)
	l.TruthThresh = r.Float("truth_thresh", 1)
	l.ScaleXY = r.FloatQuiet("scale_x_y", 1)
	l.NewCoords = r.Bool("new_coords", false)
	mask, hasMask := r.IntList("mask")
	anchors, hasAnchors := r.FloatList("anchors")
	r.Accept(yoloExecutionOptions...)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := requireImage(r, p, "yolo"); err != nil {
		return nil, err
	}
	if l.Classes < 1 || l.Total < 1 {
		return nil, fail(r, diag.KindInvalidOption, "classes", "classes and num must be at least 1, got classes=%d num=%d", l.Classes, l.Total)
	}

	if !hasMask {
		mask = make([]int, l.Total)
		for i := range mask {
			mask[i] = i
		}
	}
	if len(mask) == 0 {
		return nil, fail(r, diag.KindInvalidOption, "mask", "mask must list at least one anchor")
	}
	for _, m := range mask {
		if m < 0 || m >= l.Total {
			return nil, fail(r, diag.KindInvalidOption, "mask", "mask entry %d is outside [0, %d)", m, l.Total)
		}
	}
	if hasAnchors && len(anchors) != 2*l.Total {
		return nil, fail(r, diag.KindInvalidOption, "anchors", "expected %d anchor values for num=%d, got %d", 2*l.Total, l.Total, len(anchors))
	}

	want := len(mask) * (l.Classes + 5)
	if p.Input.C != want {
		return nil, fail(r, diag.KindShapeMismatch, "classes",
			"input has %d channels but %d masks with %d classes need filters=%d in the previous convolutional layer",
			p.Input.C, len(mask), l.Classes, want)
	}

	l.Mask = mask
	l.Anchors = anchors
	return l, nil
}

func (l *YOLO) Detail() string {
	return fmt.Sprintf("%d classes, %d/%d anchors", l.Classes, len(l.Mask), l.Total)
}
