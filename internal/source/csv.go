package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV decodes UTF-8 first and falls back to CP949 once.
func readCSV(data []byte) (Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return Table{}, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: csv: %w", domain.ErrSourceDecode, err)
	}
	return toTable(records)
}

func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: neither utf-8 nor cp949: %w", domain.ErrSourceDecode, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return nil, fmt.Errorf("%w: neither utf-8 nor cp949", domain.ErrSourceDecode)
	}
	return decoded, nil
}

func toTable(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: header row is required", domain.ErrSourceDecode)
	}
	t := Table{Header: records[0]}
	for _, row := range records[1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
