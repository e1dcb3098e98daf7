package validator

import "testing"

type sample struct {
	Title    string   `json:"title" validate:"required"`
	Location string   `json:"location_type" validate:"required,location_type"`
	Staff    []string `validate:"required,min=1,no_blank,no_comma"`
}

func TestValidateStructAcceptsValidInput(t *testing.T) {
	errs := ValidateStruct(&sample{Title: "Mei", Location: "gudang", Staff: []string{"Ani"}})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %d", len(errs))
	}
}

func TestValidateStructReportsFields(t *testing.T) {
	errs := ValidateStruct(&sample{Title: "Mei", Location: "kantor", Staff: []string{"Ani", " "}})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].FieldName() != "location_type" || errs[0].Tag != "location_type" {
		t.Fatalf("unexpected first error: %+v", errs[0])
	}
	if errs[1].FieldName() != "Staff" || errs[1].Tag != "no_blank" {
		t.Fatalf("unexpected second error: %+v", errs[1])
	}
}

func TestFieldNameFallsBackToNamespace(t *testing.T) {
	e := &ErrorResponse{FailedField: "CreateOpnameRequest.Title"}
	if got := e.FieldName(); got != "Title" {
		t.Fatalf("expected Title, got %q", got)
	}
}

func TestValidateStructRejectsCommaInList(t *testing.T) {
	errs := ValidateStruct(&sample{Title: "Mei", Location: "toko", Staff: []string{"Budi, S.Kom", "Ani"}})
	if len(errs) != 1 || errs[0].Tag != "no_comma" {
		t.Fatalf("expected a no_comma error, got %+v", errs)
	}
}
