package usecase

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/response"
	"github.com/fadilmartias/comment-assistant/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionUsecase struct {
	sessions *repository.SessionRepository
	catalog  *model.Catalog
	log      *zap.Logger
}

func NewSessionUsecase(sessions *repository.SessionRepository, catalog *model.Catalog, log *zap.Logger) *SessionUsecase {
	return &SessionUsecase{sessions: sessions, catalog: catalog, log: log.Named("session")}
}

func (uc *SessionUsecase) Catalog() *model.Catalog {
	return uc.catalog
}

func (uc *SessionUsecase) Create() *repository.Session {
	s := uc.sessions.Create(model.DefaultGenerationConfig())
	uc.log.Info("session created", zap.String("session_id", s.ID.String()))
	return s
}

func (uc *SessionUsecase) Get(id string) (*repository.Session, error) {
	s, ok := uc.sessions.FindByID(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ConfigUpdate carries the fields being changed; nil fields are left alone.
type ConfigUpdate struct {
	Grade           *model.Grade
	Term            *model.Term
	Subject         *string
	EvaluationBasis *model.EvaluationBasis
	Tone            *model.Tone
	IncludeWeakness *bool
}

// UpdateConfig applies u on top of the session's current config. A grade change
// is applied first so that an explicit subject in the same update can override
// the reset it causes.
func (uc *SessionUsecase) UpdateConfig(id string, u ConfigUpdate) (model.GenerationConfig, error) {
	s, err := uc.Get(id)
	if err != nil {
		return model.GenerationConfig{}, err
	}
	cfg := s.Config()
	if u.Grade != nil {
		if !u.Grade.Valid() {
			return cfg, fmt.Errorf("%w: unknown grade %q", model.ErrInvalidConfig, *u.Grade)
		}
		cfg = cfg.WithGrade(*u.Grade, uc.catalog)
	}
	if u.Term != nil {
		cfg.Term = *u.Term
	}
	if u.Subject != nil {
		cfg.Subject = strings.TrimSpace(*u.Subject)
	}
	if u.EvaluationBasis != nil {
		cfg.EvaluationBasis = *u.EvaluationBasis
	}
	if u.Tone != nil {
		cfg.Tone = *u.Tone
	}
	if u.IncludeWeakness != nil {
		cfg.IncludeWeakness = *u.IncludeWeakness
	}
	if err := cfg.Validate(uc.catalog); err != nil {
		return s.Config(), err
	}
	s.SetConfig(cfg)
	return cfg, nil
}

type ImportResult struct {
	SheetName   string `json:"sheet_name"`
	TotalRows   int    `json:"total_rows"`
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
	NameColumn  string `json:"name_column"`
	ScoreColumn string `json:"score_column,omitempty"`
	LevelColumn string `json:"level_column,omitempty"`
}

// Import parses an uploaded workbook and replaces the session's records with it.
func (uc *SessionUsecase) Import(id string, r io.Reader, filename string) (*ImportResult, error) {
	s, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	if s.RunState() == repository.RunRunning {
		return nil, ErrRunInProgress
	}

	sheet, err := util.ExtractSheet(r, filename)
	if err != nil {
		uc.log.Warn("spreadsheet parse failed", zap.String("file", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSpreadsheetParse, err)
	}

	records, result, err := BuildRecords(sheet, s.Config().Subject)
	if err != nil {
		return nil, err
	}
	if !s.Replace(sheet.Name, sheet.Headers, records) {
		return nil, ErrRunInProgress
	}

	uc.log.Info("spreadsheet imported",
		zap.String("session_id", id),
		zap.String("file", filename),
		zap.Int("rows", result.TotalRows),
		zap.Int("imported", result.Imported),
	)
	return result, nil
}

// BuildRecords maps sheet rows to student records. Rows without a name are dropped.
func BuildRecords(sheet *util.Sheet, subject string) ([]model.StudentRecord, *ImportResult, error) {
	if len(sheet.Rows) == 0 {
		return nil, nil, ErrEmptySpreadsheet
	}

	names := NewColumnMatcher(NameAliases)
	scores := NewColumnMatcher(ScoreAliases)
	levels := NewColumnMatcher(LevelAliases)

	result := &ImportResult{SheetName: sheet.Name, TotalRows: len(sheet.Rows)}
	result.NameColumn, _ = names.Resolve(sheet.Headers)
	result.ScoreColumn, _ = scores.Resolve(sheet.Headers)
	result.LevelColumn, _ = levels.Resolve(sheet.Headers)

	token := strings.SplitN(uuid.NewString(), "-", 2)[0]
	records := make([]model.StudentRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name, ok := names.Lookup(sheet.Headers, row)
		if !ok {
			continue
		}
		score, ok := scores.Lookup(sheet.Headers, row)
		if !ok {
			score = "0"
		}
		levelRaw, _ := levels.Lookup(sheet.Headers, row)

		records = append(records, model.StudentRecord{
			ID:           fmt.Sprintf("st-%d-%s", len(records), token),
			Name:         name,
			Subject:      subject,
			Score:        score,
			Level:        ClassifyLevel(levelRaw),
			Status:       model.StatusPending,
			OriginalData: row,
		})
	}
	if len(records) == 0 {
		return nil, nil, ErrNameColumnNotFound
	}

	result.Imported = len(records)
	result.Skipped = result.TotalRows - result.Imported
	return records, result, nil
}

// ListRecords returns one page of the session's records in import order.
func (uc *SessionUsecase) ListRecords(id string, page, pageSize int) ([]model.StudentRecord, *response.Pagination, error) {
	s, err := uc.Get(id)
	if err != nil {
		return nil, nil, err
	}
	records := s.Records()
	pagination := response.NewPagination(page, pageSize, len(records))
	from, to := pagination.Bounds()
	return records[from:to], pagination, nil
}

func (uc *SessionUsecase) EditComment(id, recordID, comment string) (model.StudentRecord, error) {
	s, err := uc.Get(id)
	if err != nil {
		return model.StudentRecord{}, err
	}
	rec, ok := s.EditComment(recordID, strings.TrimSpace(comment))
	if !ok {
		return model.StudentRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

type ExportFile struct {
	Name string
	Data []byte
}

// Export renders the session's records, with their comments, as an xlsx workbook.
func (uc *SessionUsecase) Export(id string) (*ExportFile, error) {
	s, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, ErrNoRecords
	}
	cfg := s.Config()

	var buf bytes.Buffer
	if err := util.WriteWorkbook(&buf, s.Headers(), s.Records()); err != nil {
		return nil, err
	}
	return &ExportFile{Name: util.ExportFileName(cfg.Grade, cfg.Term), Data: buf.Bytes()}, nil
}
