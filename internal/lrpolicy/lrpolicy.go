// Package lrpolicy is the registry of learning-rate schedule policies that a
// [net] section may select.
package lrpolicy

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/darkcfg/internal/diag"
)

// Policy is the learning-rate schedule tag. Max is the sentinel upper bound.
type Policy int

const (
	Constant Policy = iota
	Step
	Exp
	Poly
	Steps
	Sigmoid
	Random
	SGDR
	Max
)

// ToString renders p. Every tag below Max has a case; Max and anything out of
// range fall through to the error.
func ToString(p Policy) (string, error) {
	switch p {
	case Constant:
		return "constant", nil
	case Step:
		return "step", nil
	case Exp:
		return "exp", nil
	case Poly:
		return "poly", nil
	case Steps:
		return "steps", nil
	case Sigmoid:
		return "sigmoid", nil
	case Random:
		return "random", nil
	case SGDR:
		return "sgdr", nil
	case Max:
	}
	return "", diag.New(diag.KindInvalidEnum, "invalid learning rate policy: %d", int(p))
}

// FromString resolves a policy name, case-insensitively, by scanning every
// tag's rendering so both directions share one table.
func FromString(name string) (Policy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for p := Policy(0); p < Max; p++ {
		if s, _ := ToString(p); s == n {
			return p, nil
		}
	}
	return Max, diag.New(diag.KindInvalidOption, "invalid learning rate policy: %q", n)
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if s, err := ToString(p); err == nil {
		return s
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// MarshalYAML renders the policy by name.
func (p Policy) MarshalYAML() (any, error) {
	return p.String(), nil
}
