package pubchem

import "github.com/starford/chemid/internal/models"

// informationResponse is the {"InformationList": {"Information": [...]}}
// envelope used by the synonyms and description operations.
type informationResponse[T any] struct {
	InformationList *struct {
		Information []T `json:"Information"`
	} `json:"InformationList"`
}

func (r informationResponse[T]) information() []T {
	if r.InformationList == nil {
		return nil
	}
	return r.InformationList.Information
}

// identifierResponse is the {"IdentifierList": {"CID": [...]}} envelope.
type identifierResponse struct {
	IdentifierList *struct {
		CID []models.CID `json:"CID"`
	} `json:"IdentifierList"`
}
