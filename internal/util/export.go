package util

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	CommentColumn   = "Nội dung nhận xét AI"
	ExportSheetName = "KetQua"
)

// ExportFileName names the download after the class and term, e.g. NhanXet_Lop3_Cuối học kỳ 1.xlsx.
func ExportFileName(grade model.Grade, term model.Term) string {
	return fmt.Sprintf("NhanXet_Lop%s_%s.xlsx", grade, term)
}

// ContentDisposition builds an attachment header carrying both an ASCII
// fallback name and the exact UTF-8 name.
func ContentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`,
		asciiFileName(filename), url.PathEscape(filename))
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func asciiFileName(name string) string {
	name = strings.NewReplacer("đ", "d", "Đ", "D").Replace(name)
	if out, _, err := transform.String(stripMarks, name); err == nil {
		name = out
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || r == '"' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
}

// CommentColumnName returns the header used for generated comments, suffixed
// when the imported sheet already carries a column of that name.
func CommentColumnName(headers []string) string {
	taken := make(map[string]bool, len(headers))
	for _, h := range headers {
		taken[h] = true
	}
	name := CommentColumn
	for i := 1; taken[name]; i++ {
		name = CommentColumn + "_" + strconv.Itoa(i)
	}
	return name
}

// BuildWorkbook lays out every original column followed by the comment column.
// The caller owns the returned file and must Close it.
func BuildWorkbook(headers []string, records []model.StudentRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := append(append([]string{}, headers...), CommentColumnName(headers))
	for i, h := range columns {
		if err := setCell(f, i+1, 1, h, false); err != nil {
			f.Close()
			return nil, err
		}
	}

	for r, rec := range records {
		rowNum := r + 2
		for i, h := range headers {
			v, ok := rec.OriginalData[h]
			if !ok || v == nil {
				continue
			}
			if err := setCell(f, i+1, rowNum, *v, true); err != nil {
				f.Close()
				return nil, err
			}
		}
		if err := setCell(f, len(headers)+1, rowNum, rec.CommentText(), false); err != nil {
			f.Close()
			return nil, err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(ExportSheetName, 1, 1, style)
	}
	if col, err := excelize.ColumnNumberToName(len(columns)); err == nil {
		_ = f.SetColWidth(ExportSheetName, col, col, 60)
	}

	return f, nil
}

// WriteWorkbook serializes the export workbook to w.
func WriteWorkbook(w io.Writer, headers []string, records []model.StudentRecord) error {
	f, err := BuildWorkbook(headers, records)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value string, numeric bool) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell %d,%d: %w", col, row, err)
	}
	if numeric {
		// Keep scores numeric when the text round-trips exactly.
		if n, err := strconv.ParseFloat(value, 64); err == nil && strconv.FormatFloat(n, 'f', -1, 64) == value {
			return f.SetCellFloat(ExportSheetName, cell, n, -1, 64)
		}
	}
	return f.SetCellStr(ExportSheetName, cell, value)
}
