package hcl

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// render converts an evaluated attribute into the option text the section
// reader parses. Collections are flattened one level into a comma separated
// list.
func render(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}

	ty := v.Type()
	switch {
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		parts := make([]string, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			if elem.Type().IsCollectionType() || elem.Type().IsTupleType() || elem.Type().IsObjectType() {
				return "", fmt.Errorf("nested collections are not supported")
			}
			s, err := renderScalar(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return renderScalar(v)
	}
}

func renderScalar(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value must be known and not null")
	}

	switch ty := v.Type(); ty {
	case cty.String:
		return v.AsString(), nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return "", fmt.Errorf("could not convert cty.Bool to bool: %w", err)
		}
		if b {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
