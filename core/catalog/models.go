package catalog

import "github.com/google/uuid"

// Program statuses as reported by the discovery service.
const (
	ProgramStatusActive  = "active"
	ProgramStatusRetired = "retired"
)

type (
	// Program is a discovery-service program, cached as-is.
	Program struct {
		UUID          uuid.UUID `json:"uuid"`
		Title         string    `json:"title"`
		Type          string    `json:"type"`
		Status        string    `json:"status"`
		MarketingSlug string    `json:"marketing_slug"`
	}

	// Pathway is a credit pathway a learner can send program records to.
	Pathway struct {
		ID      int64     `json:"id"`
		UUID    uuid.UUID `json:"uuid"`
		Name    string    `json:"name"`
		OrgName string    `json:"org_name"`
		Email   string    `json:"email"`
	}
)
