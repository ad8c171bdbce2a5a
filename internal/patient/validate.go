package patient

import (
	"regexp"
	"strings"

	"github.com/MediTrack-HMS/visit-queue-service/internal/apperror"
)

var (
	nationalIDPattern = regexp.MustCompile(`^\d{12}$`)
	phonePattern      = regexp.MustCompile(`^\d{10,15}$`)
)

// NormalizeNationalID strips all whitespace and truncates to 12 characters.
// Spreadsheet exports routinely pad IDs with spaces or tack on trailing junk.
func NormalizeNationalID(id string) string {
	cleaned := strings.Join(strings.Fields(id), "")
	if len(cleaned) > 12 {
		cleaned = cleaned[:12]
	}
	return cleaned
}

// IsValidNationalID reports whether id normalizes to exactly 12 decimal digits.
func IsValidNationalID(id string) bool {
	return nationalIDPattern.MatchString(NormalizeNationalID(id))
}

// Normalize cleans a visit request in place: ID normalization, trimming, and
// gender reduced to its first letter uppercased (file rows carry "male"/"f").
func (r *VisitRequest) Normalize() {
	r.NationalID = NormalizeNationalID(r.NationalID)
	r.Name = strings.TrimSpace(r.Name)
	r.Department = strings.TrimSpace(r.Department)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.Join(strings.Fields(r.Phone), "")

	g := strings.ToUpper(strings.TrimSpace(r.Gender))
	if g != "" {
		r.Gender = g[:1]
	} else {
		r.Gender = ""
	}
}

// ValidationErrors returns every structural problem with the (normalized)
// request. Bulk ingestion reports them per line; single-visit calls join them
// into one ValidationError.
func (r VisitRequest) ValidationErrors() []string {
	var errs []string

	if r.NationalID == "" {
		errs = append(errs, "national ID is required")
	} else if !nationalIDPattern.MatchString(r.NationalID) {
		errs = append(errs, "national ID must be exactly 12 digits")
	}

	if r.Name == "" {
		errs = append(errs, "name is required")
	}

	if r.Department == "" {
		errs = append(errs, "department is required")
	}

	if r.Age != nil && (*r.Age < 0 || *r.Age > 150) {
		errs = append(errs, "age must be between 0 and 150")
	}

	if r.Gender != "" && r.Gender != "M" && r.Gender != "F" && r.Gender != "O" {
		errs = append(errs, "gender must be M, F, or O")
	}

	if r.Phone != "" && !phonePattern.MatchString(r.Phone) {
		errs = append(errs, "phone number must be 10-15 digits")
	}

	return errs
}

// Validate returns a ValidationError covering all structural problems, or nil.
func (r VisitRequest) Validate() error {
	if errs := r.ValidationErrors(); len(errs) > 0 {
		return apperror.Validation(strings.Join(errs, "; "))
	}
	return nil
}
