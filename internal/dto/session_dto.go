package dto

import (
	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/usecase"
	"github.com/google/uuid"
)

type SessionDTO struct {
	ID           uuid.UUID                  `json:"id"`
	Config       model.GenerationConfig     `json:"config"`
	Running      bool                       `json:"running"`
	SheetName    string                     `json:"sheet_name,omitempty"`
	Headers      []string                   `json:"headers"`
	TotalRecords int                        `json:"total_records"`
	StatusCounts map[model.RecordStatus]int `json:"status_counts"`
}

func NewSessionDTO(s *repository.Session) SessionDTO {
	headers := s.Headers()
	if headers == nil {
		headers = []string{}
	}
	return SessionDTO{
		ID:           s.ID,
		Config:       s.Config(),
		Running:      s.RunState() == repository.RunRunning,
		SheetName:    s.SheetName(),
		Headers:      headers,
		TotalRecords: s.Len(),
		StatusCounts: s.StatusCounts(),
	}
}

// ConfigRequest is a partial update; omitted fields keep their current value.
type ConfigRequest struct {
	Grade           *model.Grade           `json:"grade"`
	Term            *model.Term            `json:"term"`
	Subject         *string                `json:"subject"`
	EvaluationBasis *model.EvaluationBasis `json:"evaluation_basis"`
	Tone            *model.Tone            `json:"tone"`
	IncludeWeakness *bool                  `json:"include_weakness"`
}

func (r ConfigRequest) ToUpdate() usecase.ConfigUpdate {
	return usecase.ConfigUpdate{
		Grade:           r.Grade,
		Term:            r.Term,
		Subject:         r.Subject,
		EvaluationBasis: r.EvaluationBasis,
		Tone:            r.Tone,
		IncludeWeakness: r.IncludeWeakness,
	}
}

type RecordDTO struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Subject      string             `json:"subject"`
	Score        string             `json:"score"`
	Level        string             `json:"level"`
	LevelCode    string             `json:"level_code"`
	Comment      *string            `json:"comment"`
	Status       model.RecordStatus `json:"status"`
	OriginalData model.RowData      `json:"original_data"`
}

func NewRecordDTO(r model.StudentRecord) RecordDTO {
	return RecordDTO{
		ID:           r.ID,
		Name:         r.Name,
		Subject:      r.Subject,
		Score:        r.Score,
		Level:        string(r.Level),
		LevelCode:    r.Level.Code(),
		Comment:      r.Comment,
		Status:       r.Status,
		OriginalData: r.OriginalData,
	}
}

func NewRecordDTOs(records []model.StudentRecord) []RecordDTO {
	out := make([]RecordDTO, len(records))
	for i, r := range records {
		out[i] = NewRecordDTO(r)
	}
	return out
}

type EditCommentRequest struct {
	Comment *string `json:"comment"`
}

type GenerateDTO struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
	Batches int    `json:"batches"`
}
