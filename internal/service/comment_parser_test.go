package service

import (
	"testing"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []model.GeneratedComment
	}{
		{
			name: "plain array",
			in:   `[{"id":"st-0","comment":"Tính nhẩm nhanh."},{"id":"st-1","comment":" Đọc to, rõ ràng. "}]`,
			want: []model.GeneratedComment{{ID: "st-0", Comment: "Tính nhẩm nhanh."}, {ID: "st-1", Comment: "Đọc to, rõ ràng."}},
		},
		{
			name: "fenced",
			in:   "```json\n[{\"id\":\"a\",\"comment\":\"x\"}]\n```",
			want: []model.GeneratedComment{{ID: "a", Comment: "x"}},
		},
		{
			name: "wrapped in object",
			in:   `{"comments":[{"id":"a","comment":"x"}]}`,
			want: []model.GeneratedComment{{ID: "a", Comment: "x"}},
		},
		{
			name: "entries missing fields are skipped",
			in:   `[{"id":"a"},{"comment":"orphan"},{"id":"b","comment":"y"}]`,
			want: []model.GeneratedComment{{ID: "b", Comment: "y"}},
		},
		{
			name: "empty array",
			in:   `[]`,
			want: []model.GeneratedComment{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseComments(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComments_Malformed(t *testing.T) {
	for _, in := range []string{"", "not json", `{"id":"a","comment":"x"}`, `"just a string"`, `[{"id":"a",`} {
		_, err := ParseComments(in)
		assert.ErrorIs(t, err, ErrMalformedResponse, "input %q", in)
	}
}
