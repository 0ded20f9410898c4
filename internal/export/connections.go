package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/utilityops/records-service/internal/domain"
)

// SheetName is the worksheet holding exported connections.
const SheetName = "Connections"

// ConnectionHeader is the first row of the export.
var ConnectionHeader = []string{
	"Account Number",
	"Owner Name",
	"Address",
	"Owner NIC",
	"Owner Phone",
	"Area",
	"Grama Niladhari Division",
	"Divisional Secretariat",
	"Purpose",
	"Created At",
}

var columnWidths = []float64{18, 28, 40, 16, 16, 16, 24, 24, 18, 20}

// WriteConnections renders conns as an .xlsx workbook to w.
func WriteConnections(w io.Writer, conns []domain.Connection) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, 1, toCells(ConnectionHeader)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(ConnectionHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, c := range conns {
		row := []any{
			c.AccountNumber,
			c.OwnerName,
			c.Address,
			c.OwnerNIC,
			c.OwnerPhone,
			c.Area,
			c.GramaNiladhariDivision,
			c.DivisionalSecretariat,
			c.Purpose,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toCells(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
