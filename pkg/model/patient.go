package model

import "strings"

// Patient is one person entry returned by the remote collection endpoint.
// The JSON tags follow the upstream schema, which this system does not own.
type Patient struct {
	// ID is the upstream identifier, used as the row key.
	ID int `json:"id"`

	// FirstName is the given name.
	FirstName string `json:"firstName"`

	// LastName is the family name.
	LastName string `json:"lastName"`

	// Email is free-form and never validated.
	Email string `json:"email"`

	// Phone is free-form and never validated.
	Phone string `json:"phone"`

	// Age is nil when upstream omits it.
	Age *int `json:"age,omitempty"`

	// Image is the avatar URI. Reachability is not checked.
	Image string `json:"image"`

	// Address is nil when upstream omits it.
	Address *Address `json:"address,omitempty"`
}

// Address is the nested location object of a Patient. Only the city is used.
type Address struct {
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// FullName joins the given and family names, skipping empty parts.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// City returns the city of the patient's address, or "" when absent.
func (p Patient) City() string {
	if p.Address == nil {
		return ""
	}
	return p.Address.City
}

// SearchFields returns the values a text query is matched against, in
// display order. Absent values are returned as empty strings.
func (p Patient) SearchFields() [5]string {
	return [5]string{p.FirstName, p.LastName, p.Email, p.Phone, p.City()}
}

// PatientList is the payload of the patient list API endpoint.
type PatientList struct {
	Query    string    `json:"query"`
	Total    int       `json:"total"`   // size of the raw collection
	Matched  int       `json:"matched"` // size of the filtered collection
	Patients []Patient `json:"patients"`
}
