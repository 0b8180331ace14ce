package handler

import (
	"time"

	"ktp/internal/applicant/models"
)

// ApplicantResponse is the JSON shape of one application.
type ApplicantResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Region         string    `json:"region"`
	Status         string    `json:"status"`
	SubmissionTime time.Time `json:"submission_time"`
}

type ListResponse struct {
	Applicants []ApplicantResponse `json:"applicants"`
	Count      int                 `json:"count"`
}

func toResponse(r models.ApplicantRecord) ApplicantResponse {
	return ApplicantResponse{
		ID:             r.ID,
		Name:           r.Name,
		Address:        r.Address,
		Region:         r.Region,
		Status:         string(r.Status),
		SubmissionTime: r.SubmissionTime.UTC(),
	}
}

func toListResponse(records []models.ApplicantRecord) ListResponse {
	out := make([]ApplicantResponse, len(records))
	for i, r := range records {
		out[i] = toResponse(r)
	}
	return ListResponse{Applicants: out, Count: len(out)}
}
