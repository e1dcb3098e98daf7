package service

import (
	"fmt"
	"strings"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/pkg/unitconv"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	sheetRecords = "Hasil Opname"
	sheetSummary = "Ringkasan"
)

// ExportFile is a rendered workbook ready to be sent
type ExportFile struct {
	Filename string
	Content  []byte
}

type ExportService interface {
	ExportSession(teamID, sessionID uuid.UUID) (*ExportFile, error)
}

type exportService struct {
	opnameRepo repository.OpnameRepository
}

func NewExportService(oRepo repository.OpnameRepository) ExportService {
	return &exportService{opnameRepo: oRepo}
}

func (s *exportService) ExportSession(teamID, sessionID uuid.UUID) (*ExportFile, error) {
	session, err := s.opnameRepo.FindByID(teamID, sessionID)
	if err != nil {
		return nil, notFoundAs(err, ErrSessionNotFound)
	}
	summary, err := s.opnameRepo.Summary(sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	writeRow := func(sheet string, row int, values []interface{}) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	headers := []interface{}{
		"SKU",
		"Nama Produk",
		"Kategori",
		"Stok Sistem",
		"Stok Fisik",
		"Selisih",
		"Rincian Satuan",
		"Retur",
		"Catatan",
		"Dihitung Oleh",
		"Waktu Hitung",
		"Foto",
	}

	if err := f.SetSheetName("Sheet1", sheetRecords); err != nil {
		return nil, err
	}
	if err := writeRow(sheetRecords, 1, headers); err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheetRecords, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i := range session.Records {
		rec := &session.Records[i]
		row := []interface{}{"", "", "", rec.SystemStock, "", "", unitBreakdown(rec), rec.ReturnedQuantity, rec.Notes, rec.CountedBy, "", len(rec.Photos)}
		if p := rec.Product; p != nil {
			row[0], row[1], row[2] = p.SKU, p.Name, p.Category
		}
		if rec.ActualStock != nil {
			row[4] = *rec.ActualStock
			row[5] = *rec.StockDifference()
		}
		if rec.CountedAt != nil {
			row[10] = rec.CountedAt.Format("2006-01-02 15:04")
		}
		if err := writeRow(sheetRecords, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := f.AutoFilter(sheetRecords, "A1:"+lastHeader, []excelize.AutoFilterOptions{}); err != nil {
		return nil, err
	}
	if err := f.SetPanes(sheetRecords, &excelize.Panes{Freeze: true, Split: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(sheetRecords, "B", "B", 32)
	_ = f.SetColWidth(sheetRecords, "G", "G", 24)

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}
	completedAt := "-"
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.Format("2006-01-02 15:04")
	}
	lines := [][]interface{}{
		{"Judul", session.Title},
		{"Lokasi", string(session.LocationType)},
		{"Status", string(session.Status)},
		{"Petugas", strings.Join(session.AssignedStaff(), ", ")},
		{"Mulai", session.StartedAt.Format("2006-01-02 15:04")},
		{"Selesai", completedAt},
		{"Selesai Oleh", session.CompletedBy},
		{"Total Produk", summary.TotalRecords},
		{"Sudah Dihitung", summary.CountedRecords},
		{"Belum Dihitung", summary.UncountedRecords},
		{"Progres (%)", fmt.Sprintf("%.1f", summary.Progress)},
		{"Total Retur", summary.TotalReturned},
		{"Total Selisih", summary.TotalDifference},
	}
	for i, line := range lines {
		if err := writeRow(sheetSummary, i+1, line); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(lines)), headerStyle)
	_ = f.SetColWidth(sheetSummary, "A", "A", 18)
	_ = f.SetColWidth(sheetSummary, "B", "B", 40)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return &ExportFile{
		Filename: fmt.Sprintf("opname_%s_%s.xlsx", session.StartedAt.Format("20060102"), session.ID.String()[:8]),
		Content:  buf.Bytes(),
	}, nil
}

// unitBreakdown renders stored unit entries in unit order, e.g. "2 Dus, 3 Pcs"
func unitBreakdown(rec *model.OpnameRecord) string {
	values, err := rec.DecodeUnitValues()
	if err != nil || len(values) == 0 {
		return ""
	}
	var parts []string
	for _, u := range unitconv.Sorted(productUnits(rec.Product)) {
		if qty, ok := values[u.Name]; ok && !qty.IsZero() {
			parts = append(parts, fmt.Sprintf("%s %s", qty.String(), u.Name))
		}
	}
	return strings.Join(parts, ", ")
}
