package usecase

import (
	"bytes"
	"testing"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/fadilmartias/comment-assistant/internal/repository"
	"github.com/fadilmartias/comment-assistant/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func newSessionUsecase() *SessionUsecase {
	return NewSessionUsecase(repository.NewSessionRepository(), model.DefaultCatalog(), zap.NewNop())
}

func workbook(t *testing.T, grid [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range grid {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func classWorkbook(t *testing.T) []byte {
	return workbook(t, [][]any{
		{"STT", "  HỌ VÀ TÊN ", "Điểm KTĐK", "Mức đạt được"},
		{1, "Nguyễn Văn An", 9, "Tốt"},
		{2, "Trần Thị Bình", nil, "Đạt"},
		{3, nil, 7, "T"},
		{4, "Lê Minh Châu", 4, "Chưa đạt"},
	})
}

func TestSessionUsecase_Import(t *testing.T) {
	uc := newSessionUsecase()
	s := uc.Create()

	res, err := uc.Import(s.ID.String(), bytes.NewReader(classWorkbook(t)), "lop1.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "  HỌ VÀ TÊN ", res.NameColumn)
	assert.Equal(t, "Điểm KTĐK", res.ScoreColumn)

	records := s.Records()
	require.Len(t, records, 3)

	assert.Equal(t, "Nguyễn Văn An", records[0].Name)
	assert.Equal(t, "9", records[0].Score)
	assert.Equal(t, model.LevelExcellent, records[0].Level)

	assert.Equal(t, "0", records[1].Score, "missing score defaults to 0")
	assert.Equal(t, model.LevelSatisfactory, records[1].Level)
	assert.Equal(t, model.LevelUnsatisfactory, records[2].Level)

	ids := map[string]bool{}
	for _, r := range records {
		assert.Equal(t, model.StatusPending, r.Status)
		assert.Equal(t, "Tiếng Việt", r.Subject)
		assert.Nil(t, r.Comment)
		assert.Contains(t, r.OriginalData, "STT")
		ids[r.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestSessionUsecase_ImportErrors(t *testing.T) {
	uc := newSessionUsecase()
	s := uc.Create()
	id := s.ID.String()

	_, err := uc.Import(id, bytes.NewReader(workbook(t, [][]any{{"Họ và tên", "Điểm"}})), "a.xlsx")
	assert.ErrorIs(t, err, ErrEmptySpreadsheet)

	noNames := workbook(t, [][]any{{"STT", "Lớp"}, {1, "1A"}})
	_, err = uc.Import(id, bytes.NewReader(noNames), "a.xlsx")
	assert.ErrorIs(t, err, ErrNameColumnNotFound)

	_, err = uc.Import(id, bytes.NewReader([]byte("not a workbook")), "a.xlsx")
	assert.ErrorIs(t, err, ErrSpreadsheetParse)

	_, err = uc.Import(id, bytes.NewReader([]byte("a,b")), "a.csv")
	assert.ErrorIs(t, err, ErrSpreadsheetParse)
	assert.ErrorIs(t, err, util.ErrUnsupportedFormat)

	_, err = uc.Import("missing", bytes.NewReader(nil), "a.xlsx")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Zero(t, s.Len(), "failed imports leave the session untouched")
}

func TestSessionUsecase_ImportRefusedWhileRunning(t *testing.T) {
	uc := newSessionUsecase()
	s := uc.Create()
	require.True(t, s.TryStartRun())
	defer s.FinishRun()

	_, err := uc.Import(s.ID.String(), bytes.NewReader(classWorkbook(t)), "lop1.xlsx")
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestSessionUsecase_ImportSnapshotsSubject(t *testing.T) {
	uc := newSessionUsecase()
	s := uc.Create()
	id := s.ID.String()

	subject := "Toán"
	_, err := uc.UpdateConfig(id, ConfigUpdate{Subject: &subject})
	require.NoError(t, err)
	_, err = uc.Import(id, bytes.NewReader(classWorkbook(t)), "lop1.xlsx")
	require.NoError(t, err)

	other := "Đạo đức"
	_, err = uc.UpdateConfig(id, ConfigUpdate{Subject: &other})
	require.NoError(t, err)

	for _, r := range s.Records() {
		assert.Equal(t, "Toán", r.Subject)
	}
}

func TestSessionUsecase_UpdateConfig(t *testing.T) {
	uc := newSessionUsecase()
	id := uc.Create().ID.String()

	science := "Khoa học"
	_, err := uc.UpdateConfig(id, ConfigUpdate{Subject: &science})
	assert.ErrorIs(t, err, model.ErrInvalidConfig, "grade 1 has no Khoa học")

	grade4 := model.Grade("4")
	cfg, err := uc.UpdateConfig(id, ConfigUpdate{Grade: &grade4, Subject: &science})
	require.NoError(t, err)
	assert.Equal(t, "Khoa học", cfg.Subject)

	grade2 := model.Grade("2")
	cfg, err = uc.UpdateConfig(id, ConfigUpdate{Grade: &grade2})
	require.NoError(t, err)
	assert.Equal(t, "Tiếng Việt", cfg.Subject, "subject resets to the first one of the new grade")

	bad := model.Grade("9")
	_, err = uc.UpdateConfig(id, ConfigUpdate{Grade: &bad})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	basis := model.EvaluationBasis("vibes")
	_, err = uc.UpdateConfig(id, ConfigUpdate{EvaluationBasis: &basis})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	s, _ := uc.Get(id)
	assert.Equal(t, grade2, s.Config().Grade, "rejected updates keep the previous config")
}

func TestSessionUsecase_ListRecords(t *testing.T) {
	uc := newSessionUsecase()
	id := uc.Create().ID.String()
	_, err := uc.Import(id, bytes.NewReader(classWorkbook(t)), "lop1.xlsx")
	require.NoError(t, err)

	page, p, err := uc.ListRecords(id, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Lê Minh Châu", page[0].Name)
	assert.Equal(t, 3, p.TotalItems)
	assert.Equal(t, 2, p.TotalPages)
	assert.False(t, p.HasMore)
	assert.Equal(t, 3, p.From)
	assert.Equal(t, 3, p.To)

	all, p, err := uc.ListRecords(id, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 1, p.TotalPages)

	beyond, _, err := uc.ListRecords(id, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestSessionUsecase_EditCommentAndExport(t *testing.T) {
	uc := newSessionUsecase()
	s := uc.Create()
	id := s.ID.String()
	_, err := uc.Import(id, bytes.NewReader(classWorkbook(t)), "lop1.xlsx")
	require.NoError(t, err)

	target := s.Records()[1]
	rec, err := uc.EditComment(id, target.ID, "  Em chăm chỉ, cần luyện viết thêm.  ")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, rec.Status)
	assert.Equal(t, "Em chăm chỉ, cần luyện viết thêm.", rec.CommentText())

	_, err = uc.EditComment(id, "st-99-x", "x")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	file, err := uc.Export(id)
	require.NoError(t, err)
	assert.Equal(t, "NhanXet_Lop1_Cuối học kỳ 1.xlsx", file.Name)

	sheet, err := util.ExtractSheet(bytes.NewReader(file.Data), file.Name)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 3)
	comment, ok := sheet.Rows[1].Value(util.CommentColumn)
	assert.True(t, ok)
	assert.Equal(t, "Em chăm chỉ, cần luyện viết thêm.", comment)
}

func TestSessionUsecase_ExportRequiresRecords(t *testing.T) {
	uc := newSessionUsecase()
	_, err := uc.Export(uc.Create().ID.String())
	assert.ErrorIs(t, err, ErrNoRecords)
}
