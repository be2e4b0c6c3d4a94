// Package source reads the project and service tables that feed ingestion.
// Tables are CSV (UTF-8, CP949 fallback) or XLSX (first sheet); the first row
// is the header and columns are matched by name.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/mfgchat/internal/domain"
	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/service"
)

// Column names of the service table.
const (
	ColumnMainService = "main_service"
	ColumnSubService  = "sub_service"
	ColumnDescription = "description"
)

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// RowError describes a data row that could not become a record.
// Row is 1-based and counts the header, matching spreadsheet numbering.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// Unwrap returns the underlying error.
func (e RowError) Unwrap() error { return e.Err }

// Projects is the decoded project table.
type Projects struct {
	Records []project.Record
	Skipped []RowError
}

// Read loads a table, picking the reader by file extension.
// A missing file yields domain.ErrSourceNotFound.
func Read(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	default:
		return readCSV(data)
	}
}

// LoadProjects reads the project table. Rows without a description or main
// service are skipped and reported; missing cells are empty strings.
func LoadProjects(path string) (Projects, error) {
	t, err := Read(path)
	if err != nil {
		return Projects{}, err
	}
	cols, err := t.columns(project.FieldDescription, project.FieldMainService, project.FieldSubService, project.FieldMaterial)
	if err != nil {
		return Projects{}, fmt.Errorf("%s: %w", path, err)
	}

	out := Projects{Records: make([]project.Record, 0, len(t.Rows))}
	for i, row := range t.Rows {
		rec, err := project.New(cell(row, cols[0]), cell(row, cols[1]), cell(row, cols[2]), cell(row, cols[3]))
		if err != nil {
			out.Skipped = append(out.Skipped, RowError{Row: i + 2, Err: err})
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// LoadServices reads the service table. Every row becomes a definition;
// missing cells are empty strings.
func LoadServices(path string) ([]service.Definition, error) {
	t, err := Read(path)
	if err != nil {
		return nil, err
	}
	cols, err := t.columns(ColumnMainService, ColumnSubService, ColumnDescription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	defs := make([]service.Definition, 0, len(t.Rows))
	for _, row := range t.Rows {
		defs = append(defs, service.Definition{
			MainService: cell(row, cols[0]),
			SubService:  cell(row, cols[1]),
			Description: cell(row, cols[2]),
		})
	}
	return defs, nil
}

// columns resolves header positions for the named columns.
func (t Table) columns(names ...string) ([]int, error) {
	pos := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		pos[strings.TrimSpace(h)] = i
	}
	out := make([]int, len(names))
	for i, n := range names {
		p, ok := pos[n]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrSourceDecode, n)
		}
		out[i] = p
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
