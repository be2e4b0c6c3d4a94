package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

const projectCSV = `project_description,main_service,sub_service,material
광학 렌즈 금형 제작,사출 성형,정밀 사출,PC
스마트폰 케이스,CNC 가공,N/A,알루미늄
,CNC 가공,,SUS
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadProjects_UTF8(t *testing.T) {
	path := writeFile(t, "projects.csv", []byte(projectCSV))

	got, err := LoadProjects(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got.Records))
	}
	if got.Records[0].Description != "광학 렌즈 금형 제작" || got.Records[0].Material != "PC" {
		t.Errorf("unexpected first record: %+v", got.Records[0])
	}
	if got.Records[1].SubService != "N/A" {
		t.Errorf("N/A must be kept verbatim, got %q", got.Records[1].SubService)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Row != 4 {
		t.Fatalf("expected row 4 skipped, got %+v", got.Skipped)
	}
	if !errors.Is(got.Skipped[0], domain.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", got.Skipped[0].Err)
	}
}

func TestLoadProjects_BOMAndColumnOrder(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("material,main_service,project_description,sub_service\nABS,사출 성형,커버,\n")...)
	path := writeFile(t, "projects.csv", data)

	got, err := LoadProjects(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got.Records))
	}
	r := got.Records[0]
	if r.Description != "커버" || r.MainService != "사출 성형" || r.SubService != "" || r.Material != "ABS" {
		t.Errorf("columns not matched by name: %+v", r)
	}
}

func TestLoadProjects_CP949Fallback(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String(projectCSV)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := writeFile(t, "projects.csv", []byte(encoded))

	got, err := LoadProjects(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Records) != 2 || got.Records[0].Description != "광학 렌즈 금형 제작" {
		t.Errorf("unexpected records: %+v", got.Records)
	}
}

func TestRead_UndecodableBytes(t *testing.T) {
	path := writeFile(t, "broken.csv", []byte{'a', ',', 'b', '\n', 0xFF, 0xFF, 0xFF, '\n'})

	_, err := Read(path)
	if !errors.Is(err, domain.ErrSourceDecode) {
		t.Fatalf("expected ErrSourceDecode, got %v", err)
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	_, err := Read(path)
	if !errors.Is(err, domain.ErrSourceDecode) {
		t.Fatalf("expected ErrSourceDecode, got %v", err)
	}
}

func TestLoadProjects_MissingColumn(t *testing.T) {
	path := writeFile(t, "projects.csv", []byte("project_description,main_service\na,b\n"))

	_, err := LoadProjects(path)
	if !errors.Is(err, domain.ErrSourceDecode) {
		t.Fatalf("expected ErrSourceDecode, got %v", err)
	}
}

func TestLoadServices_ShortRowsAndBlankLines(t *testing.T) {
	data := "main_service,sub_service,description\n" +
		"CNC 가공,,절삭 공구로 소재를 깎아내는 가공\n" +
		"\n" +
		"CNC 가공,5축 가공,다축 동시 가공\n" +
		"사출 성형\n"
	path := writeFile(t, "services.csv", []byte(data))

	defs, err := LoadServices(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	if defs[0].IsSub() || !defs[1].IsSub() {
		t.Errorf("unexpected sub flags: %+v", defs)
	}
	if defs[2].MainService != "사출 성형" || defs[2].Description != "" {
		t.Errorf("missing cells must be empty strings: %+v", defs[2])
	}
}

func TestLoadServices_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"main_service", "sub_service", "description"},
		{"판금", "레이저 커팅", "레이저로 판재를 절단"},
		{"도장", "", "표면 도장"},
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "services.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	defs, err := LoadServices(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].SubService != "레이저 커팅" || defs[1].SubService != "" || defs[1].Description != "표면 도장" {
		t.Errorf("unexpected definitions: %+v", defs)
	}
}

func TestRead_CorruptXLSX(t *testing.T) {
	path := writeFile(t, "broken.xlsx", []byte("not a zip"))

	_, err := Read(path)
	if !errors.Is(err, domain.ErrSourceDecode) {
		t.Fatalf("expected ErrSourceDecode, got %v", err)
	}
}
