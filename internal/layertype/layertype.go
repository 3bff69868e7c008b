// Package layertype is the registry of layer kinds a network configuration
// may declare. It maps each LayerType to its canonical section name and back.
package layertype

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/diag"
)

// LayerType is the closed set of section kinds. Max is a sentinel upper
// bound and never names a real section.
type LayerType int

const (
	Convolutional LayerType = iota
	Deconvolutional
	Connected
	MaxPool
	LocalAvgPool
	Softmax
	Detection
	Dropout
	Crop
	Route
	Cost
	Normalization
	AvgPool
	Local
	Shortcut
	ScaleChannels
	SAM
	Active
	RNN
	GRU
	LSTM
	ConvLSTM
	History
	CRNN
	BatchNorm
	Network
	XNOR
	Region
	YOLO
	GaussianYOLO
	ISEG
	Reorg
	ReorgOld
	Upsample
	LogXEnt
	L2Norm
	Empty
	Black
	Contrastive
	Implicit
	Max
)

// names is the single source of truth for canonical section names. Both
// lookup directions read it.
var names = [Max]string{
	Convolutional:   "convolutional",
	Deconvolutional: "deconvolutional",
	Connected:       "connected",
	MaxPool:         "maxpool",
	LocalAvgPool:    "local_avgpool",
	Softmax:         "softmax",
	Detection:       "detection",
	Dropout:         "dropout",
	Crop:            "crop",
	Route:           "route",
	Cost:            "cost",
	Normalization:   "normalization",
	AvgPool:         "avgpool",
	Local:           "local",
	Shortcut:        "shortcut",
	ScaleChannels:   "scale_channels",
	SAM:             "sam",
	Active:          "active",
	RNN:             "rnn",
	GRU:             "gru",
	LSTM:            "lstm",
	ConvLSTM:        "conv_lstm",
	History:         "history",
	CRNN:            "crnn",
	BatchNorm:       "batchnorm",
	Network:         "network",
	XNOR:            "xnor",
	Region:          "region",
	YOLO:            "yolo",
	GaussianYOLO:    "gaussian_yolo",
	ISEG:            "iseg",
	Reorg:           "reorg",
	ReorgOld:        "reorg_old",
	Upsample:        "upsample",
	LogXEnt:         "logxent",
	L2Norm:          "l2norm",
	Empty:           "empty",
	Black:           "black",
	Contrastive:     "contrastive",
	Implicit:        "implicit",
}

// aliases maps the short or historical section names found in real
// configuration files to canonical names.
var aliases = map[string]string{
	"net":          "network",
	"conv":         "convolutional",
	"deconv":       "deconvolutional",
	"conn":         "connected",
	"max":          "maxpool",
	"local_avg":    "local_avgpool",
	"avg":          "avgpool",
	"soft":         "softmax",
	"lrn":          "normalization",
	"activation":   "active",
	"logistic":     "logxent",
	"reorg3d":      "reorg",
	"implicit_add": "implicit",
	"implicit_mul": "implicit",
}

var byName map[string]LayerType

func init() {
	byName = make(map[string]LayerType, len(names))
	for i, name := range names {
		byName[name] = LayerType(i)
	}
}

// Normalize lowercases a section name, strips surrounding whitespace and
// brackets and resolves aliases to the canonical name.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(strings.TrimPrefix(n, "["), "]")
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// FromString resolves a section name to its LayerType. Matching is
// case-insensitive and accepts aliases.
func FromString(name string) (LayerType, error) {
	if t, ok := byName[Normalize(name)]; ok {
		return t, nil
	}
	return Max, diag.New(diag.KindUnknownLayerType, "unknown layer type %q", name)
}

// ToString renders t as its canonical name. Only the Max sentinel, or a value
// outside the enum, fails.
func ToString(t LayerType) (string, error) {
	if !t.Valid() {
		return "", diag.New(diag.KindInvalidEnum, "invalid layer type: %d", int(t))
	}
	return names[t], nil
}

// Valid reports whether t names a real layer type.
func (t LayerType) Valid() bool {
	return t >= 0 && t < Max
}

// String implements fmt.Stringer.
func (t LayerType) String() string {
	if s, err := ToString(t); err == nil {
		return s
	}
	return fmt.Sprintf("LayerType(%d)", int(t))
}

// All returns every valid layer type in enum order.
func All() []LayerType {
	out := make([]LayerType, 0, Max)
	for t := LayerType(0); t < Max; t++ {
		out = append(out, t)
	}
	return out
}
