package unitconv

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityError reports a rejected entry for a single unit
type QuantityError struct {
	Unit   string
	Reason string
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("unit %q: %s", e.Unit, e.Reason)
}

// ParseQuantities normalises raw request values into decimals. Numbers and
// numeric strings are accepted, nil and blank strings are dropped, anything
// else (or a negative amount) is a *QuantityError. Unit names that differ
// only in case are rejected; keys are checked in sorted order.
func ParseQuantities(raw map[string]interface{}) (map[string]decimal.Decimal, error) {
	keys := make([]string, 0, len(raw))
	for unit := range raw {
		keys = append(keys, unit)
	}
	sort.Strings(keys)

	out := make(map[string]decimal.Decimal, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, unit := range keys {
		v := raw[unit]
		name := strings.TrimSpace(unit)
		if name == "" {
			return nil, &QuantityError{Unit: unit, Reason: "unit name is required"}
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, &QuantityError{Unit: name, Reason: "unit given more than once"}
		}
		seen[key] = true

		var qty decimal.Decimal
		switch val := v.(type) {
		case nil:
			continue
		case float64:
			qty = decimal.NewFromFloat(val)
		case int:
			qty = decimal.NewFromInt(int64(val))
		case int64:
			qty = decimal.NewFromInt(val)
		case json.Number:
			d, err := decimal.NewFromString(val.String())
			if err != nil {
				return nil, &QuantityError{Unit: name, Reason: "must be a number"}
			}
			qty = d
		case string:
			s := strings.TrimSpace(val)
			if s == "" {
				continue
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, &QuantityError{Unit: name, Reason: "must be a number"}
			}
			qty = d
		default:
			return nil, &QuantityError{Unit: name, Reason: "must be a number"}
		}

		if qty.IsNegative() {
			return nil, &QuantityError{Unit: name, Reason: "must not be negative"}
		}
		out[name] = qty
	}
	return out, nil
}
