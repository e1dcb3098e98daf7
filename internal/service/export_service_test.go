package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestExportSessionWorkbook(t *testing.T) {
	f := newOpnameFixture(t)
	mie := testutil.SeedProduct(t, f.db, f.team.ID, "MIE", model.LocationToko, 30,
		testutil.Unit("Dus", "12", 0), testutil.Unit("Pcs", "1", 1))
	testutil.SeedProduct(t, f.db, f.team.ID, "ZZZ", model.LocationToko, 5)
	session := f.startSession(t, model.LocationToko)

	if _, err := f.svc.UpsertRecord(session.ID, mie.ID, &UpsertRecordRequest{
		UnitValues: map[string]interface{}{"Dus": 2, "Pcs": 4},
		Notes:      strPtr("rak atas"),
	}, f.actor); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	export := NewExportService(repository.NewOpnameRepo(f.db))
	file, err := export.ExportSession(f.team.ID, session.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasSuffix(file.Filename, ".xlsx") {
		t.Fatalf("unexpected filename %q", file.Filename)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(sheetRecords)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	first := rows[1]
	if first[0] != "MIE" || first[3] != "30" || first[4] != "28" || first[5] != "-2" || first[6] != "2 Dus, 4 Pcs" || first[8] != "rak atas" {
		t.Fatalf("unexpected counted row %v", first)
	}
	if rows[2][0] != "ZZZ" || (len(rows[2]) > 4 && rows[2][4] != "") {
		t.Fatalf("uncounted row must leave counted stock blank: %v", rows[2])
	}

	total, err := wb.GetCellValue(sheetSummary, "B8")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if total != "2" {
		t.Fatalf("expected 2 products in summary, got %q", total)
	}
}

func TestExportSessionNotFound(t *testing.T) {
	f := newOpnameFixture(t)
	export := NewExportService(repository.NewOpnameRepo(f.db))
	if _, err := export.ExportSession(f.team.ID, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUnitBreakdownFollowsSortOrder(t *testing.T) {
	values, err := model.EncodeUnitValues(map[string]decimal.Decimal{
		"Pcs":  decimal.NewFromInt(4),
		"Dus":  decimal.NewFromInt(2),
		"Pack": decimal.Zero,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec := &model.OpnameRecord{
		UnitValues: values,
		Product: &model.Product{Units: []model.ProductUnit{
			testutil.Unit("Pcs", "1", 2),
			testutil.Unit("Pack", "6", 1),
			testutil.Unit("Dus", "12", 0),
		}},
	}
	if got := unitBreakdown(rec); got != "2 Dus, 4 Pcs" {
		t.Fatalf("expected units in sort order, got %q", got)
	}
}
