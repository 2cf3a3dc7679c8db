package api

import (
	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/models"
)

// TitlesRequest is the JSON request body for POST /api/titles.
type TitlesRequest struct {
	CIDs []string `json:"cids" example:"962,222" validate:"required"`
}

// Identity is a resolved identity chain (aliased from the domain layer).
type Identity = models.Identity

// TitlesResponse maps identifiers to titles (aliased from the service layer).
type TitlesResponse = lookup.TitleResult

// CIDResponse carries a single identifier.
type CIDResponse struct {
	CID string `json:"cid" example:"962" validate:"required"`
}

// ParentResponse carries the parent of an identifier.
type ParentResponse struct {
	CID    string `json:"cid" example:"91435" validate:"required"`
	Parent string `json:"parent" example:"612" validate:"required"`
}

// TitleResponse carries the title of an identifier.
type TitleResponse struct {
	CID   string `json:"cid" example:"962" validate:"required"`
	Title string `json:"title" example:"Water" validate:"required"`
}

// DescriptionsResponse wraps description records.
type DescriptionsResponse struct {
	Descriptions []models.Description `json:"descriptions" validate:"required"`
}
