package services

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pocketbase/pocketbase/core"
)

var agencyReferencePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// ValidateAgency checks the agency name and the reference used in invoice
// numbers.
func ValidateAgency(a AgencyInfo) error {
	return firstFieldError(validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&a.Reference, validation.Required,
			validation.Match(agencyReferencePattern).Error("must be 2-10 uppercase letters or digits")),
	))
}

// ValidateWorker checks worker attributes before they are stored.
// The first failing field is reported.
func ValidateWorker(w WorkerInfo) error {
	err := validation.ValidateStruct(&w,
		validation.Field(&w.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&w.Email, is.EmailFormat),
		validation.Field(&w.Age, validation.Min(0), validation.Max(150)),
		validation.Field(&w.WorkedHours, validation.Min(0.0)),
		validation.Field(&w.OverdueHours, validation.Min(0.0)),
		validation.Field(&w.HourlyRate, validation.Min(0.0)),
	)
	return firstFieldError(err)
}

// firstFieldError turns ozzo field errors into a ValidationError for the
// alphabetically first failing field.
func firstFieldError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		keys := make([]string, 0, len(fieldErrs))
		for k := range fieldErrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return &ValidationError{Field: keys[0], Message: fieldErrs[keys[0]].Error()}
	}
	return &ValidationError{Message: err.Error()}
}

// ApplyWorker copies w onto a workers record.
func ApplyWorker(r *core.Record, w WorkerInfo) {
	r.Set("name", strings.TrimSpace(w.Name))
	r.Set("email", strings.TrimSpace(w.Email))
	r.Set("phone", strings.TrimSpace(w.Phone))
	r.Set("address", strings.TrimSpace(w.Address))
	r.Set("role", strings.TrimSpace(w.Role))
	r.Set("age", w.Age)
	r.Set("worked_hours", w.WorkedHours)
	r.Set("overdue_hours", w.OverdueHours)
	r.Set("hourly_rate", w.HourlyRate)
}
