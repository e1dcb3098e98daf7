// Package unitconv turns per-unit quantity entries (Dus, Pack, Pcs...) into a
// single integer quantity expressed in the product's base unit.
package unitconv

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveConversion = errors.New("unit conversion factor must be positive")
	ErrNoUnits               = errors.New("product must have at least one unit")
	ErrNoBaseUnit            = errors.New("product has no base unit (conversion factor 1)")
	ErrMultipleBaseUnits     = errors.New("product has more than one base unit (conversion factor 1)")
	ErrDuplicateUnitName     = errors.New("unit names must be unique per product")
	ErrEmptyUnitName         = errors.New("unit name is required")
	ErrQuantityTooLarge      = errors.New("quantity exceeds the maximum stock value")
)

// MaxTotal is the largest base-unit quantity a count may hold
const MaxTotal = math.MaxInt32

var maxTotal = decimal.NewFromInt(MaxTotal)

// Unit is the part of a product unit definition the calculator needs
type Unit struct {
	Name             string
	ConversionToBase decimal.Decimal
	SortOrder        int
}

// Total returns round(sum(entered[u] * u.ConversionToBase)) over the given units.
// Entries for unknown unit names are ignored and missing entries count as zero.
// Halves round up. A unit with a non-positive factor fails the whole call and
// a total above MaxTotal is ErrQuantityTooLarge.
func Total(units []Unit, entered map[string]decimal.Decimal) (int, error) {
	sum := decimal.Zero
	for _, u := range units {
		if !u.ConversionToBase.IsPositive() {
			return 0, fmt.Errorf("%w: %q", ErrNonPositiveConversion, u.Name)
		}
		qty, ok := entered[u.Name]
		if !ok {
			continue
		}
		sum = sum.Add(qty.Mul(u.ConversionToBase))
	}
	total := sum.Round(0)
	if total.GreaterThan(maxTotal) {
		return 0, ErrQuantityTooLarge
	}
	return int(total.IntPart()), nil
}

// BaseUnit returns the name of the unit whose factor is exactly 1
func BaseUnit(units []Unit) (string, error) {
	if len(units) == 0 {
		return "", ErrNoUnits
	}
	base := ""
	for _, u := range units {
		if u.ConversionToBase.Equal(decimal.NewFromInt(1)) {
			if base != "" {
				return "", ErrMultipleBaseUnits
			}
			base = u.Name
		}
	}
	if base == "" {
		return "", ErrNoBaseUnit
	}
	return base, nil
}

// ValidateUnits checks the unit set of one product: names present and unique,
// every factor positive, exactly one base unit.
func ValidateUnits(units []Unit) error {
	if len(units) == 0 {
		return ErrNoUnits
	}
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return ErrEmptyUnitName
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateUnitName, name)
		}
		seen[key] = true
		if !u.ConversionToBase.IsPositive() {
			return fmt.Errorf("%w: %q", ErrNonPositiveConversion, name)
		}
	}
	_, err := BaseUnit(units)
	return err
}

// Sorted returns a copy of units ordered by SortOrder, name as tiebreaker
func Sorted(units []Unit) []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out
}
