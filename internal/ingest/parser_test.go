package ingest

import (
	"strings"
	"testing"
)

const csvSample = `NATIONAL_ID,NAME,AGE,GENDER,ADDRESS,PHONE,DEPARTMENT
123456789012,Anna Svensson,34,F,12 Elm Street,0701234567,Cardiology
234567890123,Bjorn Larsson,51,M,8 Oak Road,0707654321,Neurology
`

func TestParseCSV_Success(t *testing.T) {
	result, err := ParseCSV(strings.NewReader(csvSample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.TotalLines != 2 {
		t.Errorf("Expected 2 data lines, got %d", result.TotalLines)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}

	row := result.Rows[0]
	if row.NationalID != "123456789012" || row.Name != "Anna Svensson" || row.Department != "Cardiology" {
		t.Errorf("Unexpected first row: %+v", row)
	}
	if row.Age == nil || *row.Age != 34 {
		t.Errorf("Expected age 34, got %v", row.Age)
	}
}

func TestParseCSV_DepartmentVisitedAlias(t *testing.T) {
	sample := "NATIONAL_ID,NAME,DEPARTMENT_VISITED\n123456789012,Anna Svensson,Cardiology\n"

	result, err := ParseCSV(strings.NewReader(sample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Department != "Cardiology" {
		t.Errorf("Expected alias column to map to department, got %+v", result.Rows)
	}
}

func TestParseCSV_PartialSuccess(t *testing.T) {
	sample := `NATIONAL_ID,NAME,AGE,GENDER,ADDRESS,PHONE,DEPARTMENT
123456789012,Anna Svensson,34,F,,,Cardiology
badid,No Id,34,F,,,Cardiology
234567890123,Bad Age,old,F,,,Neurology
`

	result, err := ParseCSV(strings.NewReader(sample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Errorf("Expected 1 valid row, got %d", len(result.Rows))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 line errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if result.Errors[0].Line != 3 {
		t.Errorf("Expected first error on line 3, got %d", result.Errors[0].Line)
	}
	if result.Errors[1].Line != 4 {
		t.Errorf("Expected second error on line 4, got %d", result.Errors[1].Line)
	}
}

func TestParseCSV_MissingNationalIDColumn(t *testing.T) {
	sample := "NAME,DEPARTMENT\nAnna,Cardiology\n"

	if _, err := ParseCSV(strings.NewReader(sample)); err == nil {
		t.Error("Expected error for missing NATIONAL_ID column")
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("Expected error for empty file")
	}
}

func TestParseText_Success(t *testing.T) {
	sample := "NATIONAL_ID\tNAME\tAGE\tGENDER\tADDRESS\tPHONE\tDEPARTMENT\n" +
		"123456789012\tAnna Svensson\t34\tF\t12 Elm Street\t0701234567\tCardiology\n" +
		"234567890123\tBjorn Larsson\t51\tM\t8 Oak Road\t0707654321\tNeurology\n"

	result, err := ParseText(strings.NewReader(sample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d (errors: %v)", len(result.Rows), result.Errors)
	}
	if result.Rows[0].Address != "12 Elm Street" {
		t.Errorf("Expected address with single spaces preserved, got %q", result.Rows[0].Address)
	}
}

func TestParseText_SpaceDelimited(t *testing.T) {
	sample := "NATIONAL_ID  NAME  AGE  GENDER  ADDRESS  PHONE  DEPARTMENT\n" +
		"123456789012  Anna Svensson  34  F  12 Elm Street  0701234567  Cardiology\n"

	result, err := ParseText(strings.NewReader(sample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d (errors: %v)", len(result.Rows), result.Errors)
	}
	if result.Rows[0].Name != "Anna Svensson" {
		t.Errorf("Expected name with internal space preserved, got %q", result.Rows[0].Name)
	}
}

func TestParseText_ShortLine(t *testing.T) {
	sample := "NATIONAL_ID\tNAME\tAGE\tGENDER\tADDRESS\tPHONE\tDEPARTMENT\n" +
		"123456789012\tAnna Svensson\n"

	result, err := ParseText(strings.NewReader(sample))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 line error, got %d", len(result.Errors))
	}
	if result.Errors[0].Line != 2 {
		t.Errorf("Expected error on line 2, got %d", result.Errors[0].Line)
	}
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	if _, err := Parse("visits.csv", strings.NewReader(csvSample)); err != nil {
		t.Errorf("Expected .csv to parse, got: %v", err)
	}
	if _, err := Parse("visits.xlsx", strings.NewReader("")); err == nil {
		t.Error("Expected unsupported extension to be rejected")
	}
}
