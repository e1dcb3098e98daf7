package unitconv

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dusPcs() []Unit {
	return []Unit{
		{Name: "Dus", ConversionToBase: d("12"), SortOrder: 0},
		{Name: "Pcs", ConversionToBase: d("1"), SortOrder: 1},
	}
}

func TestTotal(t *testing.T) {
	cases := []struct {
		name    string
		units   []Unit
		entered map[string]decimal.Decimal
		want    int
	}{
		{"single box", dusPcs(), map[string]decimal.Decimal{"Dus": d("3")}, 36},
		{"boxes and pieces", dusPcs(), map[string]decimal.Decimal{"Dus": d("2"), "Pcs": d("5")}, 29},
		{"half a box", dusPcs(), map[string]decimal.Decimal{"Dus": d("0.5")}, 6},
		{"unknown unit ignored", dusPcs(), map[string]decimal.Decimal{"Pack": d("4"), "Pcs": d("1")}, 1},
		{"empty entry", dusPcs(), map[string]decimal.Decimal{}, 0},
		{"nil entry", dusPcs(), nil, 0},
		{
			"tie rounds half up",
			[]Unit{{Name: "Pack", ConversionToBase: d("2.5")}, {Name: "Pcs", ConversionToBase: d("1")}},
			map[string]decimal.Decimal{"Pack": d("1")},
			3,
		},
		{
			"below half rounds down",
			[]Unit{{Name: "Kg", ConversionToBase: d("1")}},
			map[string]decimal.Decimal{"Kg": d("4.49")},
			4,
		},
		{
			"fractional factors sum exactly",
			[]Unit{{Name: "A", ConversionToBase: d("0.1")}, {Name: "Pcs", ConversionToBase: d("1")}},
			map[string]decimal.Decimal{"A": d("5")},
			1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Total(tc.units, tc.entered)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestTotalFailsClosedOnNonPositiveFactor(t *testing.T) {
	units := []Unit{
		{Name: "Dus", ConversionToBase: d("0")},
		{Name: "Pcs", ConversionToBase: d("1")},
	}
	_, err := Total(units, map[string]decimal.Decimal{"Pcs": d("3")})
	if !errors.Is(err, ErrNonPositiveConversion) {
		t.Fatalf("expected ErrNonPositiveConversion, got %v", err)
	}

	units[0].ConversionToBase = d("-12")
	if _, err := Total(units, nil); !errors.Is(err, ErrNonPositiveConversion) {
		t.Fatalf("expected ErrNonPositiveConversion for negative factor, got %v", err)
	}
}

func TestBaseUnit(t *testing.T) {
	name, err := BaseUnit(dusPcs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Pcs" {
		t.Fatalf("expected Pcs, got %s", name)
	}

	// base unit is identified by factor, not position
	reversed := []Unit{dusPcs()[1], dusPcs()[0]}
	reversed[0].SortOrder, reversed[1].SortOrder = 5, 0
	if name, _ := BaseUnit(reversed); name != "Pcs" {
		t.Fatalf("expected Pcs regardless of order, got %s", name)
	}

	if _, err := BaseUnit(nil); !errors.Is(err, ErrNoUnits) {
		t.Fatalf("expected ErrNoUnits, got %v", err)
	}
	if _, err := BaseUnit([]Unit{{Name: "Dus", ConversionToBase: d("12")}}); !errors.Is(err, ErrNoBaseUnit) {
		t.Fatalf("expected ErrNoBaseUnit, got %v", err)
	}
	two := []Unit{{Name: "Pcs", ConversionToBase: d("1")}, {Name: "Biji", ConversionToBase: d("1.0")}}
	if _, err := BaseUnit(two); !errors.Is(err, ErrMultipleBaseUnits) {
		t.Fatalf("expected ErrMultipleBaseUnits, got %v", err)
	}
}

func TestValidateUnits(t *testing.T) {
	if err := ValidateUnits(dusPcs()); err != nil {
		t.Fatalf("expected valid units, got %v", err)
	}

	dup := []Unit{{Name: "Pcs", ConversionToBase: d("1")}, {Name: "pcs", ConversionToBase: d("6")}}
	if err := ValidateUnits(dup); !errors.Is(err, ErrDuplicateUnitName) {
		t.Fatalf("expected ErrDuplicateUnitName, got %v", err)
	}

	blank := []Unit{{Name: " ", ConversionToBase: d("1")}}
	if err := ValidateUnits(blank); !errors.Is(err, ErrEmptyUnitName) {
		t.Fatalf("expected ErrEmptyUnitName, got %v", err)
	}

	zero := []Unit{{Name: "Pcs", ConversionToBase: d("1")}, {Name: "Dus", ConversionToBase: d("0")}}
	if err := ValidateUnits(zero); !errors.Is(err, ErrNonPositiveConversion) {
		t.Fatalf("expected ErrNonPositiveConversion, got %v", err)
	}
}

func TestSorted(t *testing.T) {
	units := []Unit{
		{Name: "Pcs", SortOrder: 2},
		{Name: "Dus", SortOrder: 0},
		{Name: "Pack", SortOrder: 1},
	}
	got := Sorted(units)
	if got[0].Name != "Dus" || got[1].Name != "Pack" || got[2].Name != "Pcs" {
		t.Fatalf("unexpected order: %v", got)
	}
	if units[0].Name != "Pcs" {
		t.Fatalf("Sorted must not reorder its input")
	}
}

func TestParseQuantities(t *testing.T) {
	got, err := ParseQuantities(map[string]interface{}{
		"Dus":  float64(2),
		"Pack": "1.5",
		"Pcs":  "",
		"Kg":   nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected blank and nil entries dropped, got %v", got)
	}
	if !got["Dus"].Equal(d("2")) || !got["Pack"].Equal(d("1.5")) {
		t.Fatalf("unexpected values: %v", got)
	}
}

func TestParseQuantitiesRejectsBadInput(t *testing.T) {
	cases := map[string]interface{}{
		"not a number": "abc",
		"negative":     float64(-1),
		"wrong type":   true,
	}
	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuantities(map[string]interface{}{"Dus": v})
			var qe *QuantityError
			if !errors.As(err, &qe) {
				t.Fatalf("expected *QuantityError, got %v", err)
			}
			if qe.Unit != "Dus" {
				t.Fatalf("expected unit Dus in error, got %q", qe.Unit)
			}
		})
	}
}

func TestTotalRejectsOverflow(t *testing.T) {
	if _, err := Total(dusPcs(), map[string]decimal.Decimal{"Dus": d("1000000000000000000")}); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("expected ErrQuantityTooLarge, got %v", err)
	}

	got, err := Total(dusPcs(), map[string]decimal.Decimal{"Pcs": decimal.NewFromInt(MaxTotal)})
	if err != nil || got != MaxTotal {
		t.Fatalf("expected %d at the limit, got %d (%v)", MaxTotal, got, err)
	}
	if _, err := Total(dusPcs(), map[string]decimal.Decimal{"Pcs": decimal.NewFromInt(MaxTotal), "Dus": d("1")}); !errors.Is(err, ErrQuantityTooLarge) {
		t.Fatalf("expected ErrQuantityTooLarge just above the limit, got %v", err)
	}
}

func TestParseQuantitiesRejectsCaseCollisions(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := ParseQuantities(map[string]interface{}{"Dus": float64(1), "dus": float64(2), "Pcs": float64(3)})
		var qe *QuantityError
		if !errors.As(err, &qe) {
			t.Fatalf("expected *QuantityError, got %v", err)
		}
		if qe.Unit != "dus" {
			t.Fatalf("expected the later key to be reported, got %q", qe.Unit)
		}
	}
}
