package util

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/fadilmartias/comment-assistant/internal/model"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Sheet is the first worksheet of an uploaded workbook, flattened to header-keyed rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []model.RowData
}

// ExtractSheetFile opens path and extracts its first worksheet.
func ExtractSheetFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()
	return ExtractSheet(f, filepath.Base(path))
}

// ExtractSheet reads the first worksheet of an .xlsx or .xls workbook.
// The file extension of filename picks the decoder.
func ExtractSheet(r io.Reader, filename string) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	var (
		name string
		grid [][]string
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		name, grid, err = readXLSX(data)
	case ".xls":
		name, grid, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	return buildSheet(name, grid), nil
}

func readXLSX(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

func readXLS(data []byte) (string, [][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("failed to open xls: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return sheet.Name, grid, nil
}

// buildSheet turns a raw cell grid into header-keyed rows. The first non-blank
// row is the header; blank headers become __EMPTY, __EMPTY_1, ... and repeated
// headers get _1, _2 suffixes. Empty cells map to nil and blank rows are dropped.
func buildSheet(name string, grid [][]string) *Sheet {
	sheet := &Sheet{Name: name}

	start := 0
	for start < len(grid) && isBlankRow(grid[start]) {
		start++
	}
	if start == len(grid) {
		return sheet
	}

	width := 0
	for _, row := range grid[start:] {
		width = max(width, len(row))
	}

	sheet.Headers = uniqueHeaders(grid[start], width)

	for _, cells := range grid[start+1:] {
		if isBlankRow(cells) {
			continue
		}
		row := make(model.RowData, width)
		for i, h := range sheet.Headers {
			if i < len(cells) && cells[i] != "" {
				v := cells[i]
				row[h] = &v
			} else {
				row[h] = nil
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func uniqueHeaders(raw []string, width int) []string {
	headers := make([]string, width)
	seen := make(map[string]int, width)
	for i := range headers {
		h := ""
		if i < len(raw) {
			h = raw[i]
		}
		// Header text is kept verbatim so the export reproduces it.
		if strings.TrimSpace(h) == "" {
			h = "__EMPTY"
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			seen[h] = 0
		}
		headers[i] = h
	}
	return headers
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
