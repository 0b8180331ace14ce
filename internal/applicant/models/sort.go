package models

import (
	"strings"

	dErrors "ktp/pkg/domain-errors"
)

// SortKey selects the ordering of an applicant listing.
type SortKey string

const (
	SortBySubmissionTime SortKey = "submission_time"
	SortByRegion         SortKey = "region"
)

// ParseSortKey accepts "submission_time" (or its short form "time") and
// "region". An empty key means submission time.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "time", string(SortBySubmissionTime):
		return SortBySubmissionTime, nil
	case string(SortByRegion):
		return SortByRegion, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "sort must be one of: time, submission_time, region")
	}
}

// Compare returns the comparator for the key.
func (k SortKey) Compare() func(a, b ApplicantRecord) int {
	if k == SortByRegion {
		return CompareRegion
	}
	return CompareSubmissionTime
}

// CompareRegion orders records lexicographically by region.
func CompareRegion(a, b ApplicantRecord) int {
	return strings.Compare(a.Region, b.Region)
}

// CompareSubmissionTime orders records chronologically, oldest first.
func CompareSubmissionTime(a, b ApplicantRecord) int {
	return a.SubmissionTime.Compare(b.SubmissionTime)
}
