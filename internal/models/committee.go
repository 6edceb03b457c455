package models

import "github.com/uptrace/bun"

// Committee is a standing body within a city (e.g. "Planning Commission").
// Meetings are optionally linked to a committee by title lookup during
// ingestion (spec §4.4 phase 4).
type Committee struct {
	bun.BaseModel `bun:"table:committees"`

	ID             string `bun:",pk" json:"id"`
	Banana         string `json:"banana"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
}

// CouncilMember is an elected or appointed official who may sponsor
// matters or cast votes. Upserted by normalized name during ingestion.
type CouncilMember struct {
	bun.BaseModel `bun:"table:council_members"`

	ID             string `bun:",pk" json:"id"`
	Banana         string `json:"banana"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
}

// Sponsorship links a CouncilMember to a Matter they sponsored. The
// pair (MatterID, MemberID) is unique; upserts are idempotent.
type Sponsorship struct {
	bun.BaseModel `bun:"table:sponsorships"`

	MatterID string `bun:",pk" json:"matter_id"`
	MemberID string `bun:",pk" json:"member_id"`
}
