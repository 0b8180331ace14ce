package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	dErrors "ktp/pkg/domain-errors"
)

// Status tracks where an application sits in the verification workflow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRevision Status = "revision"
)

// ParseStatus validates a stored or user supplied status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.TrimSpace(raw)); s {
	case StatusPending, StatusVerified, StatusRevision:
		return s, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "invalid status: "+raw)
	}
}

// IsTerminal reports whether the record may no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusVerified
}

// ApplicantRecord is one KTP application.
type ApplicantRecord struct {
	ID             string
	Name           string
	Address        string
	Region         string
	Status         Status
	SubmissionTime time.Time
}

// Snapshot is a value copy of a record taken before an edit.
type Snapshot struct {
	record ApplicantRecord
}

// Snapshot copies the record's current fields. Later changes to r do not
// affect the returned value.
func (r *ApplicantRecord) Snapshot() Snapshot {
	return Snapshot{record: *r}
}

// Record returns the captured fields.
func (s Snapshot) Record() ApplicantRecord {
	return s.record
}

// Restore overwrites every field of r with the snapshot, status included.
func (r *ApplicantRecord) Restore(s Snapshot) {
	*r = s.record
}

// Fields is a partial update. Nil members keep the current value.
type Fields struct {
	Name    *string
	Address *string
	Region  *string
}

// IsEmpty reports whether applying f would change nothing.
func (f Fields) IsEmpty() bool {
	return f.Name == nil && f.Address == nil && f.Region == nil
}

// Apply overlays the non-nil fields onto r.
func (r *ApplicantRecord) Apply(f Fields) {
	if f.Name != nil {
		r.Name = *f.Name
	}
	if f.Address != nil {
		r.Address = *f.Address
	}
	if f.Region != nil {
		r.Region = *f.Region
	}
}

// Column limits of the applicants table. An id is the region, a dash and
// 13 millisecond digits, so the region leaves room for those 14 characters.
const (
	MaxNameLength   = 100
	MaxRegionLength = 50 - 14
)

type field struct {
	name  string
	value *string
	limit int
}

// checkField rejects a blank or over-long value. A limit of 0 means unbounded.
func checkField(f field) error {
	if strings.TrimSpace(*f.value) == "" {
		return dErrors.New(dErrors.CodeValidation, f.name+" is required")
	}
	if f.limit > 0 && utf8.RuneCountInString(*f.value) > f.limit {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", f.name, f.limit))
	}
	return nil
}

// Validate rejects an update that changes nothing, blanks a field, or does
// not fit the stored columns.
func (f Fields) Validate() error {
	if f.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "at least one of name, address or region is required")
	}
	for _, fl := range []field{
		{name: "name", value: f.Name, limit: MaxNameLength},
		{name: "address", value: f.Address},
		{name: "region", value: f.Region, limit: MaxRegionLength},
	} {
		if fl.value == nil {
			continue
		}
		if err := checkField(fl); err != nil {
			return err
		}
	}
	return nil
}

// SubmitInput carries the citizen supplied fields of a new application.
type SubmitInput struct {
	Name    string
	Address string
	Region  string
}

// Validate performs presence and length checks.
func (in SubmitInput) Validate() error {
	for _, fl := range []field{
		{name: "name", value: &in.Name, limit: MaxNameLength},
		{name: "address", value: &in.Address},
		{name: "region", value: &in.Region, limit: MaxRegionLength},
	} {
		if err := checkField(fl); err != nil {
			return err
		}
	}
	return nil
}
