package domain

import (
	"time"

	"github.com/feral-file/ff-sbt/internal/cell"
)

// Collection is the persistent state of a minimal SBT collection
type Collection struct {
	Address       cell.Address
	Owner         cell.Address
	NextItemIndex uint64
	// Content is the off-chain envelope of the collection metadata URI
	Content *cell.Cell
	// CommonContent is the URI prefix joined with every item's content
	CommonContent *cell.Cell
}

// Clone returns a copy safe to mutate
func (c *Collection) Clone() *Collection {
	cp := *c
	return &cp
}

// SubjectType identifies what kind of entity changed
type SubjectType string

const (
	// SubjectTypeItem indicates a change to an item's state
	SubjectTypeItem SubjectType = "item"
	// SubjectTypeCollection indicates a change to a collection
	SubjectTypeCollection SubjectType = "collection"
)

// ChangeMeta describes what caused a change
type ChangeMeta struct {
	Op     string `json:"op"`
	State  string `json:"state,omitempty"`
	Sender string `json:"sender,omitempty"`
}

// Change is one entry of the changes journal
type Change struct {
	Cursor      uint64
	SubjectType SubjectType
	Subject     cell.Address
	ChangedAt   time.Time
	Meta        ChangeMeta
}
