package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/tidwall/gjson"
)

var ErrMalformedResponse = errors.New("malformed generator response")

// ParseComments reads a JSON array of {id, comment} objects out of model output.
// Markdown code fences are stripped, and an object wrapping a single array
// (as json_object response modes produce) is unwrapped. Entries missing either
// field are skipped.
func ParseComments(text string) ([]model.GeneratedComment, error) {
	cleaned := cleanModelOutput(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	result := gjson.Parse(cleaned)
	if result.IsObject() {
		var inner gjson.Result
		result.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				inner = value
				return false
			}
			return true
		})
		result = inner
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}

	items := result.Array()
	comments := make([]model.GeneratedComment, 0, len(items))
	for _, item := range items {
		id := item.Get("id")
		comment := item.Get("comment")
		if !id.Exists() || !comment.Exists() {
			continue
		}
		comments = append(comments, model.GeneratedComment{
			ID:      strings.TrimSpace(id.String()),
			Comment: strings.TrimSpace(comment.String()),
		})
	}
	return comments, nil
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
