package dto

import (
	"github.com/feral-file/ff-sbt/internal/domain"
)

// ItemResponse represents an item in API responses
type ItemResponse struct {
	Address    string  `json:"address"`
	Index      uint64  `json:"index"`
	Collection string  `json:"collection"`
	State      string  `json:"state"`
	Owner      *string `json:"owner"`
	Authority  *string `json:"authority"`
	Content    string  `json:"content,omitempty"`
	RevokedAt  uint64  `json:"revoked_at"`
}

// ItemListResponse represents a page of items
type ItemListResponse struct {
	Items  []ItemResponse `json:"items"`
	Total  uint64         `json:"total"`
	Offset int            `json:"offset"`
}

// ItemContentResponse carries the resolved content of an item
type ItemContentResponse struct {
	Address string `json:"address"`
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// MapItemToDTO maps a domain item to its API representation
func MapItemToDTO(item *domain.Item) (*ItemResponse, error) {
	content, err := EncodeCell(item.Content)
	if err != nil {
		return nil, err
	}

	resp := &ItemResponse{
		Address:    item.Address.String(),
		Index:      item.Index,
		Collection: item.Collection.String(),
		State:      item.State.Name(),
		Content:    content,
		RevokedAt:  item.RevokedAt,
	}
	resp.Owner = optionalAddress(item.Owner().String())
	resp.Authority = optionalAddress(item.Authority().String())
	return resp, nil
}

func optionalAddress(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
