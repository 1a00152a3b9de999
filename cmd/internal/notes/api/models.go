package notesapi

import (
	"time"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes"
)

type createRequest struct {
	MobileID   string   `json:"noteIdMobile" validate:"required,max=128"`
	Title      string   `json:"title" validate:"required,max=512"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags" validate:"max=64"`
	Categories []string `json:"categories" validate:"max=64"`
}

// updateRequest fields left out of the JSON body stay unchanged.
type updateRequest struct {
	MobileID   string    `json:"noteIdMobile" validate:"required,max=128"`
	Title      *string   `json:"title" validate:"omitempty,max=512"`
	Body       *string   `json:"body"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=64"`
	Categories *[]string `json:"categories" validate:"omitempty,max=64"`
}

func (r updateRequest) patch() notes.Patch {
	return notes.Patch{
		Title:      r.Title,
		Body:       r.Body,
		Tags:       r.Tags,
		Categories: r.Categories,
	}
}

type noteResponse struct {
	ID         string    `json:"id"`
	MobileID   string    `json:"noteIdMobile"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags"`
	Categories []string  `json:"categories"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toNoteResponse(n notes.Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		MobileID:   n.MobileID,
		Title:      n.Title,
		Body:       n.Body,
		Tags:       n.Tags,
		Categories: n.Categories,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

type noteEnvelope struct {
	Success bool         `json:"success"`
	Note    noteResponse `json:"note"`
}

type listEnvelope struct {
	Success bool           `json:"success"`
	Notes   []noteResponse `json:"notes"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
