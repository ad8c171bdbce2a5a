package patient

import (
	"strings"
	"time"
)

// Patient is one row per unique person, deduplicated by national ID.
type Patient struct {
	PatientID         int       `json:"patient_id"`
	NationalID        string    `json:"national_id"`
	Name              string    `json:"name"`
	Age               *int      `json:"age,omitempty"`
	Gender            string    `json:"gender,omitempty"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	DepartmentHistory []string  `json:"department_history"`
	VisitCount        int       `json:"visit_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// VisitRequest is a single incoming visit: manual entry, bulk JSON, or one
// parsed file row.
type VisitRequest struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Age        *int   `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department"`
}

// VisitOutcome describes what a RecordVisit call actually did.
type VisitOutcome struct {
	Created       bool // a new patient row was inserted
	NewDepartment bool // the department was appended to history
}

// OrderBy selects the ordering for patient listings.
type OrderBy string

const (
	OrderByNationalID OrderBy = "national_id"
	OrderByVisitCount OrderBy = "visit_count"
)

// historySeparator is how department history is stored at the database
// boundary. In memory history is always []string.
const historySeparator = ", "

// SplitHistory parses the stored comma-joined department list.
func SplitHistory(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	history := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			history = append(history, trimmed)
		}
	}
	return history
}

// JoinHistory serializes history for storage.
func JoinHistory(history []string) string {
	return strings.Join(history, historySeparator)
}

// HistoryContains reports whether department is already present in history.
// Comparison is trimmed and case-sensitive: "Cardiology " matches
// "Cardiology", "cardiology" does not.
func HistoryContains(history []string, department string) bool {
	target := strings.TrimSpace(department)
	for _, d := range history {
		if strings.TrimSpace(d) == target {
			return true
		}
	}
	return false
}

// MergeVisit returns the history after a visit to department and whether the
// department was newly appended. A repeat department leaves history untouched.
func MergeVisit(history []string, department string) ([]string, bool) {
	if HistoryContains(history, department) {
		return history, false
	}
	return append(history, strings.TrimSpace(department)), true
}
