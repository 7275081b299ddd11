package util

import (
	"bytes"
	"testing"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "NhanXet_Lop3_Cuối học kỳ 1.xlsx", ExportFileName(model.Grade3, model.TermEndFirst))
}

func TestCommentColumnName(t *testing.T) {
	assert.Equal(t, CommentColumn, CommentColumnName([]string{"Họ tên"}))
	assert.Equal(t, CommentColumn+"_1", CommentColumnName([]string{"Họ tên", CommentColumn}))
	assert.Equal(t, CommentColumn+"_2", CommentColumnName([]string{CommentColumn, CommentColumn + "_1"}))
}

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	headers := []string{"STT", "Họ và tên", "Điểm", "Ghi chú"}
	records := []model.StudentRecord{
		{
			ID:      "st-0",
			Comment: strPtr("Đọc trôi chảy, viết đúng chính tả."),
			OriginalData: model.RowData{
				"STT": strPtr("1"), "Họ và tên": strPtr("Nguyễn Văn An"), "Điểm": strPtr("9"), "Ghi chú": nil,
			},
		},
		{
			ID: "st-1",
			OriginalData: model.RowData{
				"STT": strPtr("2"), "Họ và tên": strPtr("Trần Thị Bình"), "Điểm": strPtr("07"), "Ghi chú": strPtr("vắng"),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, headers, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheetName}, f.GetSheetList())
	rows, err := f.GetRows(ExportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, append(append([]string{}, headers...), CommentColumn), rows[0])
	assert.Equal(t, "Đọc trôi chảy, viết đúng chính tả.", rows[1][4])
	assert.Equal(t, "07", rows[2][2], "leading zero text is kept as text")
	assert.Equal(t, "9", rows[1][2])
	assert.Equal(t, "", rows[1][3], "nil cells stay empty")
	if len(rows[2]) > 4 {
		assert.Equal(t, "", rows[2][4], "missing comment exports as empty")
	}
}

func TestWriteWorkbook_ThenExtract(t *testing.T) {
	headers := []string{"Họ tên", "Mức"}
	records := []model.StudentRecord{{
		Comment:      strPtr("Tốt"),
		OriginalData: model.RowData{"Họ tên": strPtr("An"), "Mức": strPtr("T")},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, headers, records))

	sheet, err := ExtractSheet(&buf, "out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"Họ tên", "Mức", CommentColumn}, sheet.Headers)
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("NhanXet_Lop3_Cuối học kỳ 1.xlsx")
	assert.Equal(t,
		`attachment; filename="NhanXet_Lop3_Cuoi hoc ky 1.xlsx"; filename*=UTF-8''NhanXet_Lop3_Cu%E1%BB%91i%20h%E1%BB%8Dc%20k%E1%BB%B3%201.xlsx`,
		got)
	assert.Contains(t, ContentDisposition("Đạo đức.xlsx"), `filename="Dao duc.xlsx"`)
}

func TestWriteWorkbook_PaddedHeaderRoundTrip(t *testing.T) {
	data := buildXLSX(t, [][]any{
		{"STT", "  HỌ VÀ TÊN ", "Điểm"},
		{1, "Nguyễn Văn An", 9},
	})
	in, err := ExtractSheet(bytes.NewReader(data), "lop.xlsx")
	require.NoError(t, err)
	require.Equal(t, []string{"STT", "  HỌ VÀ TÊN ", "Điểm"}, in.Headers)

	records := []model.StudentRecord{{Comment: strPtr("Chăm ngoan"), OriginalData: in.Rows[0]}}
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, in.Headers, records))

	out, err := ExtractSheet(&buf, "out.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"STT", "  HỌ VÀ TÊN ", "Điểm", CommentColumn}, out.Headers)
	name, _ := out.Rows[0].Value("  HỌ VÀ TÊN ")
	assert.Equal(t, "Nguyễn Văn An", name)
}
