package dto

import "encoding/json"

// Location holds raw coordinates so non-numeric values can be rejected
// with a specific message instead of a decode error.
type Location struct {
	Lat json.RawMessage `json:"lat"`
	Lng json.RawMessage `json:"lng"`
}

// FindClinicsRequest is the body of POST /find-clinics.
type FindClinicsRequest struct {
	Location Location `json:"location"`
}

// Clinic is a clinic annotated with its distance in kilometres.
type Clinic struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Phone    string  `json:"phone"`
	Distance float64 `json:"distance"`
}

// FindClinicsResponse lists clinics nearest first.
type FindClinicsResponse struct {
	Clinics []Clinic `json:"clinics"`
}
