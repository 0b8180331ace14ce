package handler

import (
	"ktp/internal/applicant/models"
)

// SubmitRequest is the body of POST /applications.
type SubmitRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Region  string `json:"region"`
}

func (r *SubmitRequest) Validate() error {
	return r.toInput().Validate()
}

func (r *SubmitRequest) toInput() models.SubmitInput {
	return models.SubmitInput{Name: r.Name, Address: r.Address, Region: r.Region}
}

// EditRequest is the body of PUT /applications/{id}. Omitted fields are kept.
type EditRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Region  *string `json:"region,omitempty"`
}

func (r *EditRequest) Validate() error {
	return r.toFields().Validate()
}

func (r *EditRequest) toFields() models.Fields {
	return models.Fields{Name: r.Name, Address: r.Address, Region: r.Region}
}
