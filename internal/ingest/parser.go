// Package ingest parses uploaded patient visit files (CSV or delimited text)
// into validated visit rows. Invalid rows are collected into a per-line error
// report; a bad row never aborts the batch.
package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
	"github.com/MediTrack-HMS/visit-queue-service/internal/patient"
)

// LineError reports why a single file line was rejected.
type LineError struct {
	Line       int      `json:"line"`
	NationalID string   `json:"national_id,omitempty"`
	Errors     []string `json:"errors"`
}

// Result is the outcome of parsing one file.
type Result struct {
	Rows       []patient.VisitRequest `json:"-"`
	Errors     []LineError            `json:"errors"`
	TotalLines int                    `json:"total_lines"`
}

// ValidRecords is the number of rows that passed structural validation.
func (r *Result) ValidRecords() int { return len(r.Rows) }

// Parse dispatches on the uploaded filename's extension.
func Parse(filename string, r io.Reader) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".txt", ".text":
		return ParseText(r)
	default:
		return nil, apperror.Validationf("unsupported file type %q, expected .csv or .txt", filepath.Ext(filename))
	}
}

// Column order for headerless matching and text files.
var columns = []string{"NATIONAL_ID", "NAME", "AGE", "GENDER", "ADDRESS", "PHONE", "DEPARTMENT"}

// ParseCSV reads a CSV file with a header line. Header names are matched
// after trimming and uppercasing; DEPARTMENT_VISITED is accepted as an alias
// for DEPARTMENT for compatibility with older exports.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperror.Validation("file is empty")
	}
	if err != nil {
		return nil, apperror.Validationf("failed to read CSV header: %v", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if name == "DEPARTMENT_VISITED" {
			name = "DEPARTMENT"
		}
		index[name] = i
	}
	if _, ok := index["NATIONAL_ID"]; !ok {
		return nil, apperror.Validation("CSV header must contain a NATIONAL_ID column")
	}

	result := &Result{}
	line := 1 // header was line 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, LineError{
				Line:   line,
				Errors: []string{fmt.Sprintf("malformed CSV record: %v", err)},
			})
			continue
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		appendRow(result, line, field("NATIONAL_ID"), field("NAME"), field("AGE"),
			field("GENDER"), field("ADDRESS"), field("PHONE"), field("DEPARTMENT"))
	}

	result.TotalLines = line - 1
	return result, nil
}

// textFieldSplit splits on tabs or runs of two-plus spaces, so addresses with
// single internal spaces survive.
var textFieldSplit = regexp.MustCompile(`\t+| {2,}`)

// ParseText reads a tab- or space-delimited file whose first line is a
// header. Each data line must carry all seven columns.
func ParseText(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	result := &Result{}
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if line == 1 || text == "" {
			continue // header or blank
		}

		fields := textFieldSplit.Split(text, -1)
		if len(fields) < len(columns) {
			result.Errors = append(result.Errors, LineError{
				Line:   line,
				Errors: []string{fmt.Sprintf("expected %d fields, got %d", len(columns), len(fields))},
			})
			continue
		}

		appendRow(result, line, fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6])
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Store("failed to read text file", err)
	}

	result.TotalLines = line - 1
	if result.TotalLines < 0 {
		result.TotalLines = 0
	}
	return result, nil
}

func appendRow(result *Result, line int, nationalID, name, ageStr, gender, address, phone, department string) {
	req := patient.VisitRequest{
		NationalID: nationalID,
		Name:       name,
		Gender:     gender,
		Address:    address,
		Phone:      phone,
		Department: department,
	}

	var rowErrs []string
	if ageStr = strings.TrimSpace(ageStr); ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			rowErrs = append(rowErrs, "age must be a number")
		} else {
			req.Age = &age
		}
	}

	req.Normalize()
	rowErrs = append(rowErrs, req.ValidationErrors()...)

	if len(rowErrs) > 0 {
		result.Errors = append(result.Errors, LineError{
			Line:       line,
			NationalID: req.NationalID,
			Errors:     rowErrs,
		})
		return
	}
	result.Rows = append(result.Rows, req)
}
