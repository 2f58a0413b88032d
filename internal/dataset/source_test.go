// ABOUTME: Tests for reading CSV and XLSX source tables
// ABOUTME: Verifies BOM handling, XLSX reading and column resolution
package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV_StripsBOMAndHeaderSpace(t *testing.T) {
	src := "\ufeff予算事業ID, 事業名 \n1,テスト\n2\n"

	table, err := ReadCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if table.Header[0] != "予算事業ID" || table.Header[1] != "事業名" {
		t.Errorf("Header = %q", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}

	cols, _ := resolveColumns(table.Header)
	if got := cols.value(table.Rows[1], FieldProjectName); got != "" {
		t.Errorf("short row value = %q, want empty", got)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("ReadCSV(empty) should fail")
	}
}

func TestReadTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.xlsx")

	f := excelize.NewFile()
	header := make([]interface{}, len(japaneseHeader))
	for i, h := range japaneseHeader {
		header[i] = h
	}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("SetSheetRow() header: %v", err)
	}
	data := row("10", longText, "2000", longText, "0.6", embeddingCell(150, 0.1))
	values := make([]interface{}, len(data))
	for i, v := range data {
		values[i] = v
	}
	if err := f.SetSheetRow("Sheet1", "A2", &values); err != nil {
		t.Fatalf("SetSheetRow() data: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error: %v", err)
	}
	f.Close()

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}

	cols, missing := resolveColumns(table.Header)
	if len(missing) != 0 {
		t.Errorf("missing columns: %v", missing)
	}
	if got := cols.value(table.Rows[0], FieldID); got != "10" {
		t.Errorf("id = %q, want 10", got)
	}
}

func TestReadTable_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_2024.csv")
	content := strings.Join(japaneseHeader, ",") + "\n1,総務省,局,概要,100,100,名,課題,小規模,0.1,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	if len(table.Header) != len(japaneseHeader) || len(table.Rows) != 1 {
		t.Errorf("table = %d cols, %d rows", len(table.Header), len(table.Rows))
	}
}

func TestReadTable_UnsupportedFormat(t *testing.T) {
	_, err := ReadTable("projects.parquet")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestResolveColumns_EnglishHeaders(t *testing.T) {
	header := append([]string{}, RequiredFields...)
	cols, missing := resolveColumns(header)
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	if _, ok := cols[FieldEmbedding]; ok {
		t.Error("embedding column should be optional")
	}
}
