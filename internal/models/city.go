// Package models holds the persisted domain types for the ingestion and
// processing pipeline: cities, meetings, agenda items, matters and their
// appearances, committees, council members, votes, and queue jobs.
package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CityStatus describes whether a tenant is actively ingested.
type CityStatus string

const (
	CityStatusActive   CityStatus = "active"
	CityStatusInactive CityStatus = "inactive"
	CityStatusPaused   CityStatus = "paused"
)

// City is the tenant: a municipality identified by its banana (a short
// city+state slug, e.g. "paloaltoCA"). Cities are created by operators,
// never by the ingestion pipeline itself.
type City struct {
	bun.BaseModel `bun:"table:cities"`

	Banana      string     `bun:",pk" json:"banana"`
	VendorName  string     `json:"vendor_name"`
	DisplayName string     `json:"display_name"`
	State       string     `json:"state"`
	Status      CityStatus `json:"status"`
	CreatedAt   time.Time  `bun:",nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:",nullzero,default:current_timestamp" json:"updated_at"`
}
