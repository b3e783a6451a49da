package httpapi

import (
	"time"

	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

type CreateRequest struct {
	Label string `json:"label"`
}

type AddMessageRequest struct {
	Body string `json:"body"`
}

type RecordResponse struct {
	ID         string     `json:"id"`
	Collection string     `json:"collection"`
	Label      string     `json:"label"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	RemoteRef  string     `json:"remote_ref,omitempty"`
}

type TrashedRecordResponse struct {
	RecordResponse
	DaysRemaining int `json:"days_remaining"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type RecordDetailResponse struct {
	Record   RecordResponse    `json:"record"`
	Messages []MessageResponse `json:"messages,omitempty"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type CreateResponse struct {
	Record RecordResponse  `json:"record"`
	Upload *UploadResponse `json:"upload,omitempty"`
}

type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
}

type TrashListResponse struct {
	Records []TrashedRecordResponse `json:"records"`
	Total   int                     `json:"total"`
}

type PurgeResponse struct {
	ID     string `json:"id"`
	Purged bool   `json:"purged"`
}

type PurgeAllResponse struct {
	Purged int `json:"purged"`
}

func toRecordResponse(r models.Record) RecordResponse {
	return RecordResponse{
		ID:         r.ID,
		Collection: r.Collection,
		Label:      r.Label,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		DeletedAt:  r.DeletedAt,
		RemoteRef:  r.RemoteRef,
	}
}

func toMessageResponses(children []models.Child) []MessageResponse {
	out := make([]MessageResponse, 0, len(children))
	for _, c := range children {
		out = append(out, MessageResponse{ID: c.ID, Body: c.Body, CreatedAt: c.CreatedAt})
	}
	return out
}
