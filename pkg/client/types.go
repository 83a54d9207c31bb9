package client

import (
	"encoding/json"

	"bloodcare/internal/lifecycle"
)

type (
	Status    = lifecycle.Status
	Role      = lifecycle.Role
	Action    = lifecycle.Action
	ActionSet = lifecycle.ActionSet
	Viewer    = lifecycle.Viewer
)

const (
	StatusPending    = lifecycle.StatusPending
	StatusInProgress = lifecycle.StatusInProgress
	StatusDone       = lifecycle.StatusDone
	StatusCanceled   = lifecycle.StatusCanceled
)

// Donor is the person who committed to a request
type Donor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Request is a donation request as the API returns it
type Request struct {
	ID                string   `json:"id"`
	RequesterName     string   `json:"requesterName"`
	RequesterEmail    string   `json:"requesterEmail"`
	RecipientName     string   `json:"recipientName"`
	RecipientDistrict string   `json:"recipientDistrict"`
	RecipientUpazila  string   `json:"recipientUpazila"`
	HospitalName      string   `json:"hospitalName"`
	FullAddress       string   `json:"fullAddress"`
	BloodGroup        string   `json:"bloodGroup"`
	DonationDate      string   `json:"donationDate"`
	DonationTime      string   `json:"donationTime"`
	RequestMessage    string   `json:"requestMessage"`
	Status            Status   `json:"status"`
	Donor             *Donor   `json:"donor,omitempty"`
	PermittedActions  []Action `json:"permittedActions,omitempty"`
	CreatedAt         string   `json:"createdAt,omitempty"`
	UpdatedAt         string   `json:"updatedAt,omitempty"`
}

// UnmarshalJSON normalizes the id, which may arrive as "id" or "_id" and as a string or {"$oid": ...}
func (r *Request) UnmarshalJSON(b []byte) error {
	type plain Request
	var aux struct {
		plain
		ID  json.RawMessage `json:"id"`
		OID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	raw := aux.ID
	if len(raw) == 0 {
		raw = aux.OID
	}
	id, err := NormalizeID(raw)
	if err != nil {
		return err
	}
	*r = Request(aux.plain)
	r.ID = id
	return nil
}

// Lifecycle projects the fields the transition rules look at
func (r *Request) Lifecycle() lifecycle.Request {
	out := lifecycle.Request{Status: r.Status, RequesterEmail: r.RequesterEmail}
	if r.Donor != nil {
		out.DonorEmail = r.Donor.Email
	}
	return out
}

// CreatePayload is the body of a new donation request
type CreatePayload struct {
	RecipientName     string `json:"recipientName"`
	RecipientDistrict string `json:"recipientDistrict"`
	RecipientUpazila  string `json:"recipientUpazila"`
	HospitalName      string `json:"hospitalName"`
	FullAddress       string `json:"fullAddress"`
	BloodGroup        string `json:"bloodGroup"`
	DonationDate      string `json:"donationDate"`
	DonationTime      string `json:"donationTime"`
	RequestMessage    string `json:"requestMessage,omitempty"`
}

// missing names the first empty required field
func (p CreatePayload) missing() string {
	required := []struct{ name, value string }{
		{"recipientName", p.RecipientName},
		{"recipientDistrict", p.RecipientDistrict},
		{"recipientUpazila", p.RecipientUpazila},
		{"hospitalName", p.HospitalName},
		{"fullAddress", p.FullAddress},
		{"bloodGroup", p.BloodGroup},
		{"donationDate", p.DonationDate},
		{"donationTime", p.DonationTime},
	}
	for _, f := range required {
		if f.value == "" {
			return f.name
		}
	}
	return ""
}

// FieldPatch changes descriptive fields. Nil fields are left alone.
type FieldPatch struct {
	RecipientName     *string `json:"recipientName,omitempty"`
	RecipientDistrict *string `json:"recipientDistrict,omitempty"`
	RecipientUpazila  *string `json:"recipientUpazila,omitempty"`
	HospitalName      *string `json:"hospitalName,omitempty"`
	FullAddress       *string `json:"fullAddress,omitempty"`
	BloodGroup        *string `json:"bloodGroup,omitempty"`
	DonationDate      *string `json:"donationDate,omitempty"`
	DonationTime      *string `json:"donationTime,omitempty"`
	RequestMessage    *string `json:"requestMessage,omitempty"`
}

// ListFilter narrows a list call. Empty fields match everything.
type ListFilter struct {
	Status     string
	OwnerEmail string
}

// Page is one page of a list call. Pages are 1-based; a page past the end has no items.
type Page struct {
	Items      []Request `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
