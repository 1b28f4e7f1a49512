package course

import "time"

// Enrollment mode slugs.
const (
	ModeHonor                  = "honor"
	ModeAudit                  = "audit"
	ModeVerified               = "verified"
	ModeProfessional           = "professional"
	ModeNoIDProfessional       = "no-id-professional"
	ModeCredit                 = "credit"
	ModeMasters                = "masters"
	ModeExecutiveEducation     = "executive-education"
	ModePaidExecutiveEducation = "paid-executive-education"
	ModePaidBootcamp           = "paid-bootcamp"
)

// UpsellToVerifiedModes are the modes a learner can upgrade out of.
var UpsellToVerifiedModes = []string{ModeHonor, ModeAudit}

type (
	// Mode is one way a course can be taken, with its price point.
	Mode struct {
		CourseID    string     `json:"course_id"`
		Slug        string     `json:"slug"`
		DisplayName string     `json:"display_name"`
		MinPrice    int        `json:"min_price"`
		Currency    string     `json:"currency"`
		Expiration  *time.Time `json:"expiration"` // UTC; nil = never expires
		SKU         string     `json:"sku"`
	}

	// Enrollment ties a user to a course under a mode. UpgradeDeadline is nil
	// when the enrollment can no longer be upgraded.
	Enrollment struct {
		ID              string     `json:"id"`
		UserID          string     `json:"user_id"`
		CourseID        string     `json:"course_id"`
		Mode            string     `json:"mode"`
		IsActive        bool       `json:"is_active"`
		UpgradeDeadline *time.Time `json:"upgrade_deadline"` // UTC
		CreatedAt       time.Time  `json:"created_at"`       // UTC
	}
)

// IsExpired reports whether the mode can no longer be purchased at t.
func (m Mode) IsExpired(t time.Time) bool {
	return m.Expiration != nil && t.After(*m.Expiration)
}

func isUpsellMode(mode string) bool {
	for _, m := range UpsellToVerifiedModes {
		if m == mode {
			return true
		}
	}
	return false
}
