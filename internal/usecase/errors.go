package usecase

import "errors"

var (
	ErrEmptySpreadsheet   = errors.New("spreadsheet has no data rows")
	ErrNameColumnNotFound = errors.New("no student name column found")
	ErrSpreadsheetParse   = errors.New("failed to parse spreadsheet")
	ErrCredentialRequired = errors.New("api credential required")
	ErrRunInProgress      = errors.New("generation already in progress")
	ErrNoRecords          = errors.New("no records to generate comments for")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRecordNotFound     = errors.New("record not found")
)

// Texts written into a record's comment when generation does not produce one.
const (
	CommentOmittedMessage   = "AI gặp sự cố khi tạo nội dung. Vui lòng thử lại sau."
	ConnectionFailedMessage = "Lỗi kết nối AI. Vui lòng kiểm tra lại khóa API."
)

// UserMessage returns the user-facing Vietnamese text for err, or "" if err has none.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptySpreadsheet):
		return "Tệp Excel này không có dữ liệu."
	case errors.Is(err, ErrNameColumnNotFound):
		return "Không tìm thấy cột tên học sinh. Vui lòng kiểm tra lại tiêu đề cột."
	case errors.Is(err, ErrSpreadsheetParse):
		return "Lỗi xử lý tệp Excel."
	case errors.Is(err, ErrCredentialRequired):
		return "Vui lòng cấu hình API Key trước khi tạo nhận xét."
	case errors.Is(err, ErrRunInProgress):
		return "Đang tạo nhận xét, vui lòng đợi hoàn tất."
	case errors.Is(err, ErrNoRecords):
		return "Chưa có danh sách học sinh. Vui lòng tải tệp Excel lên."
	case errors.Is(err, ErrSessionNotFound):
		return "Không tìm thấy phiên làm việc."
	case errors.Is(err, ErrRecordNotFound):
		return "Không tìm thấy học sinh."
	}
	return ""
}
