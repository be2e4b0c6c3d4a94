package source

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

// readXLSX reads the first sheet of a workbook.
func readXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("%w: xlsx: %w", domain.ErrSourceDecode, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%w: workbook has no sheets", domain.ErrSourceDecode)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: sheet %s: %w", domain.ErrSourceDecode, sheets[0], err)
	}
	return toTable(rows)
}
