package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"panen/internal/core"
	"panen/internal/export"
	"panen/internal/tally"
)

// Writer encodes export documents as xlsx files under Dir. The returned
// reference is the file path.
type Writer struct {
	Dir string
}

var _ export.Writer = (*Writer)(nil)

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

func (w *Writer) Write(_ context.Context, doc core.Document) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(w.Dir, tally.ExportFileName(doc.Period))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// Encode renders the document as an xlsx workbook: one worksheet per
// document sheet, a bold header row and a bold trailing total row.
func Encode(doc core.Document) ([]byte, error) {
	xlsx := excelize.NewFile()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "panen",
		DocSecurity: 2,
	})

	for i, sheet := range doc.Sheets {
		name := sheet.Name
		if i == 0 {
			// excelize starts with one default sheet; rename it.
			def := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
			if err := xlsx.SetSheetName(def, name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else {
			if _, err := xlsx.NewSheet(name); err != nil {
				return nil, fmt.Errorf("add sheet %q: %w", name, err)
			}
		}
		if err := writeSheet(xlsx, name, sheet); err != nil {
			return nil, err
		}
	}

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(xlsx *excelize.File, name string, sheet core.Sheet) error {
	bold, err := xlsx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(max(len(sheet.Columns), 1))
	_ = xlsx.SetColWidth(name, "A", lastCol, 22)

	header := make([]any, len(sheet.Columns))
	for i, c := range sheet.Columns {
		header[i] = c
	}
	if err := xlsx.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("sheet %q header: %w", name, err)
	}
	_ = xlsx.SetCellStyle(name, "A1", fmt.Sprintf("%s1", lastCol), bold)

	for r, row := range sheet.Rows {
		cell := fmt.Sprintf("A%d", r+2)
		vals := append([]any(nil), row...)
		if err := xlsx.SetSheetRow(name, cell, &vals); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", name, r, err)
		}
	}

	// The trailing row of every sheet is a synthetic total.
	if n := len(sheet.Rows); n > 0 {
		row := n + 1
		_ = xlsx.SetCellStyle(name, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), bold)
	}
	return nil
}
