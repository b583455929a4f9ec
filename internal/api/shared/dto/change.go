package dto

import (
	"time"

	"github.com/feral-file/ff-sbt/internal/domain"
)

// ChangeResponse represents one changes journal entry
type ChangeResponse struct {
	Cursor      uint64            `json:"cursor"`
	SubjectType string            `json:"subject_type"`
	Subject     string            `json:"subject"`
	ChangedAt   time.Time         `json:"changed_at"`
	Meta        domain.ChangeMeta `json:"meta"`
}

// ChangeListResponse is a page of the journal
type ChangeListResponse struct {
	Changes    []ChangeResponse `json:"changes"`
	NextCursor uint64           `json:"next_cursor"`
}

// MapChangesToDTO maps journal entries; NextCursor stays at since when the page is empty
func MapChangesToDTO(changes []domain.Change, since uint64) *ChangeListResponse {
	resp := &ChangeListResponse{
		Changes:    make([]ChangeResponse, 0, len(changes)),
		NextCursor: since,
	}
	for _, ch := range changes {
		resp.Changes = append(resp.Changes, ChangeResponse{
			Cursor:      ch.Cursor,
			SubjectType: string(ch.SubjectType),
			Subject:     ch.Subject.String(),
			ChangedAt:   ch.ChangedAt,
			Meta:        ch.Meta,
		})
		resp.NextCursor = ch.Cursor
	}
	return resp
}
