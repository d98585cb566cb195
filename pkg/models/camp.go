package models

import "time"

// CampStatus represents the leasing state of a camp.
type CampStatus string

const (
	// CampAvailable indicates the camp can be leased.
	CampAvailable CampStatus = "available"
	// CampLeased indicates at least one conscript holds the camp.
	CampLeased CampStatus = "leased"
	// CampExpired indicates the camp no longer exists upstream. Expired
	// camps stay visible for audit until explicitly removed.
	CampExpired CampStatus = "expired"
	// CampError indicates the camp is unusable.
	CampError CampStatus = "error"
)

// Valid returns true if the status is a known value.
func (s CampStatus) Valid() bool {
	switch s {
	case CampAvailable, CampLeased, CampExpired, CampError:
		return true
	default:
		return false
	}
}

// Camp represents a leasable execution environment. A camp may be shared by
// several conscripts up to a capacity limit, or held exclusively by one.
type Camp struct {
	// Alias is the unique name of the camp.
	Alias string `json:"alias"`
	// Status is the current leasing state.
	Status CampStatus `json:"status"`
	// Assignees lists the conscript IDs currently holding the camp.
	// Its length never exceeds the configured per-camp capacity.
	Assignees []string `json:"assignees,omitempty"`
	// ExpiresAt is when the camp's lease runs out upstream, if known.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Occupancy returns the number of conscripts currently holding the camp.
func (c *Camp) Occupancy() int {
	return len(c.Assignees)
}

// HasAssignee returns true if the given conscript holds this camp.
func (c *Camp) HasAssignee(conscriptID string) bool {
	for _, id := range c.Assignees {
		if id == conscriptID {
			return true
		}
	}
	return false
}
