package domain

import "strings"

// Business is one discovered lead, scoped to the job that found it.
type Business struct {
	ID              int64   `json:"id,omitempty"` // store rowid, set on insert
	JobID           string  `json:"jobId,omitempty"`
	SourceKey       string  `json:"sourceKey,omitempty"` // provider-assigned or synthetic
	Name            string  `json:"name"`
	Website         string  `json:"website,omitempty"`
	Phone           string  `json:"phone,omitempty"`
	Address         string  `json:"address,omitempty"`
	Rating          float64 `json:"rating,omitempty"`
	ReviewCount     int     `json:"reviewCount,omitempty"`
	EmployeeCount   int     `json:"employeeCount,omitempty"`
	IndustryCode    string  `json:"industryCode,omitempty"`
	IsB2B           bool    `json:"isB2b,omitempty"`
	Source          string  `json:"source"` // which provider/scraper found it
	Email           string  `json:"email,omitempty"`
	EmailSource     string  `json:"emailSource,omitempty"`
	EmailConfidence float64 `json:"emailConfidence,omitempty"` // 0.0..1.0
	YearsInBusiness int     `json:"yearsInBusiness,omitempty"`
	SocialHandle    string  `json:"socialHandle,omitempty"`
}

// NameKey is the canonical dedup identity within a job.
// Known trade-off: two distinct businesses with the same name at different
// addresses collapse to one record.
func (b Business) NameKey() string {
	return strings.ToLower(strings.Join(strings.Fields(b.Name), " "))
}

// HasEmail reports whether an email was discovered for this business.
func (b Business) HasEmail() bool { return strings.TrimSpace(b.Email) != "" }
