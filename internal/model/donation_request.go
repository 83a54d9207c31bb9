package model

import (
	"time"

	"bloodcare/internal/lifecycle"

	"github.com/google/uuid"
)

// DonationRequest is one request for a blood donation.
// Donor columns stay empty while the request is pending and are never cleared once set.
type DonationRequest struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterName     string           `gorm:"type:varchar(255);not null" json:"requesterName"`
	RequesterEmail    string           `gorm:"type:varchar(255);not null;index" json:"requesterEmail"`
	RecipientName     string           `gorm:"type:varchar(255);not null" json:"recipientName"`
	RecipientDistrict string           `gorm:"type:varchar(100);not null;index" json:"recipientDistrict"`
	RecipientUpazila  string           `gorm:"type:varchar(100);not null" json:"recipientUpazila"`
	HospitalName      string           `gorm:"type:varchar(255);not null" json:"hospitalName"`
	FullAddress       string           `gorm:"type:text;not null" json:"fullAddress"`
	BloodGroup        string           `gorm:"type:varchar(3);not null;index" json:"bloodGroup"`
	DonationDate      string           `gorm:"type:varchar(10);not null" json:"donationDate"` // YYYY-MM-DD
	DonationTime      string           `gorm:"type:varchar(5);not null" json:"donationTime"`  // HH:MM
	RequestMessage    string           `gorm:"type:text" json:"requestMessage"`
	Status            lifecycle.Status `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DonorName         string           `gorm:"type:varchar(255)" json:"-"`
	DonorEmail        string           `gorm:"type:varchar(255);index" json:"-"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Lifecycle projects the record onto the fields transition rules look at
func (r *DonationRequest) Lifecycle() lifecycle.Request {
	return lifecycle.Request{
		Status:         r.Status,
		RequesterEmail: r.RequesterEmail,
		DonorEmail:     r.DonorEmail,
	}
}

// Donor returns the committed donor, or nil while nobody has confirmed
func (r *DonationRequest) Donor() *DonorInfo {
	if r.DonorEmail == "" {
		return nil
	}
	return &DonorInfo{Name: r.DonorName, Email: r.DonorEmail}
}

// DonorInfo is the donor sub-record of a request
type DonorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
