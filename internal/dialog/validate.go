package dialog

import (
	"fmt"
	"strings"
)

// FieldError is a single rejected draft field.
type FieldError struct {
	Field string
	Msg   string
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }

// ValidationError lists every problem found in a draft.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid event: " + strings.Join(parts, "; ")
}

// validate checks the draft before it is submitted.
func (d *Dialog) validate(dr Draft) error {
	var errs []FieldError

	if strings.TrimSpace(dr.Title) == "" {
		errs = append(errs, FieldError{"title", "required"})
	}
	if dr.Start.IsZero() {
		errs = append(errs, FieldError{"start", "required"})
	}
	if dr.End.IsZero() {
		errs = append(errs, FieldError{"end", "required"})
	}
	if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		errs = append(errs, FieldError{"end", "must not be before start"})
	}
	if !dr.Type.Known() {
		errs = append(errs, FieldError{"type", fmt.Sprintf("unknown event type %q", dr.Type)})
	}
	for _, id := range dr.AttendeeIDs() {
		if _, ok := d.resolver.Option(id); !ok {
			errs = append(errs, FieldError{"attendees", fmt.Sprintf("unknown user %q", id)})
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
