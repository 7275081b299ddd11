package model

import "strings"

type RecordStatus string

const (
	StatusPending    RecordStatus = "pending"
	StatusProcessing RecordStatus = "processing"
	StatusCompleted  RecordStatus = "completed"
	StatusError      RecordStatus = "error"
)

// CanTransition reports whether the generation lifecycle allows moving from s to next.
// Manual comment edits bypass this check and always land on completed.
func (s RecordStatus) CanTransition(next RecordStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}

type AchievementLevel string

const (
	LevelExcellent      AchievementLevel = "Hoàn thành tốt"
	LevelSatisfactory   AchievementLevel = "Hoàn thành"
	LevelUnsatisfactory AchievementLevel = "Chưa hoàn thành"
)

// Code returns the short T/H/C form used on report cards.
func (l AchievementLevel) Code() string {
	switch l {
	case LevelExcellent:
		return "T"
	case LevelUnsatisfactory:
		return "C"
	default:
		return "H"
	}
}

// RowData is one spreadsheet row keyed by header. A nil value is an empty cell.
type RowData map[string]*string

// Value returns the trimmed cell under header and whether it held anything.
func (r RowData) Value(header string) (string, bool) {
	v, ok := r[header]
	if !ok || v == nil {
		return "", false
	}
	return strings.TrimSpace(*v), true
}

type StudentRecord struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Subject      string           `json:"subject"`
	Score        string           `json:"score"`
	Level        AchievementLevel `json:"level"`
	Comment      *string          `json:"comment,omitempty"`
	Status       RecordStatus     `json:"status"`
	OriginalData RowData          `json:"original_data"`
}

// CommentText returns the comment or an empty string when none was produced yet.
func (r *StudentRecord) CommentText() string {
	if r.Comment == nil {
		return ""
	}
	return *r.Comment
}

// Requeue starts a new generation lifecycle for the record.
func (r *StudentRecord) Requeue() {
	r.Status = StatusPending
}

func (r *StudentRecord) MarkProcessing() bool {
	return r.transition(StatusProcessing, nil)
}

func (r *StudentRecord) Complete(comment string) bool {
	return r.transition(StatusCompleted, &comment)
}

func (r *StudentRecord) Fail(message string) bool {
	return r.transition(StatusError, &message)
}

// EditComment applies a manual edit. Edits always count as completed.
func (r *StudentRecord) EditComment(comment string) {
	r.Comment = &comment
	r.Status = StatusCompleted
}

func (r *StudentRecord) transition(next RecordStatus, comment *string) bool {
	if !r.Status.CanTransition(next) {
		return false
	}
	r.Status = next
	if comment != nil {
		r.Comment = comment
	}
	return true
}

// Clone returns a copy that shares no mutable state with r.
func (r StudentRecord) Clone() StudentRecord {
	out := r
	if r.Comment != nil {
		c := *r.Comment
		out.Comment = &c
	}
	if r.OriginalData != nil {
		out.OriginalData = make(RowData, len(r.OriginalData))
		for k, v := range r.OriginalData {
			if v == nil {
				out.OriginalData[k] = nil
				continue
			}
			c := *v
			out.OriginalData[k] = &c
		}
	}
	return out
}

// GeneratedComment is one entry of a generator response.
type GeneratedComment struct {
	ID      string `json:"id"`
	Comment string `json:"comment"`
}
