package layer

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/diag"
)

// Activation is the closed set of activation functions a layer may apply.
type Activation int

const (
	Logistic Activation = iota
	ReLU
	ReLU6
	RELIE
	Linear
	Ramp
	Tanh
	PLSE
	Revleaky
	Leaky
	ELU
	Loggy
	Stair
	Hardtan
	LHTan
	SELU
	GELU
	Swish
	Mish
	HardMish
	NormChan
	NormChanSoftmax
	NormChanSoftmaxMaxval
)

var activationNames = map[Activation]string{
	Logistic:              "logistic",
	ReLU:                  "relu",
	ReLU6:                 "relu6",
	RELIE:                 "relie",
	Linear:                "linear",
	Ramp:                  "ramp",
	Tanh:                  "tanh",
	PLSE:                  "plse",
	Revleaky:              "revleaky",
	Leaky:                 "leaky",
	ELU:                   "elu",
	Loggy:                 "loggy",
	Stair:                 "stair",
	Hardtan:               "hardtan",
	LHTan:                 "lhtan",
	SELU:                  "selu",
	GELU:                  "gelu",
	Swish:                 "swish",
	Mish:                  "mish",
	HardMish:              "hard_mish",
	NormChan:              "normalize_channels",
	NormChanSoftmax:       "normalize_channels_softmax",
	NormChanSoftmaxMaxval: "normalize_channels_softmax_maxval",
}

// ParseActivation resolves a case-insensitive activation name.
func ParseActivation(name string) (Activation, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for a, s := range activationNames {
		if s == n {
			return a, nil
		}
	}
	return 0, diag.New(diag.KindInvalidOption, "unknown activation %q", name)
}

func (a Activation) String() string {
	if s, ok := activationNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Activation(%d)", int(a))
}

// MarshalYAML renders the activation by name.
func (a Activation) MarshalYAML() (any, error) {
	return a.String(), nil
}
