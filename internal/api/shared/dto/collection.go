package dto

// CollectionResponse represents the hosted collection
type CollectionResponse struct {
	Address       string `json:"address"`
	Owner         string `json:"owner"`
	NextItemIndex uint64 `json:"next_item_index"`
	ContentURI    string `json:"content_uri,omitempty"`
	Content       string `json:"content"`
}
