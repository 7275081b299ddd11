package usecase

import (
	"strings"
	"unicode"

	"github.com/fadilmartias/comment-assistant/internal/model"
	"golang.org/x/text/unicode/norm"
)

// Accepted header spellings, in priority order.
var (
	NameAliases  = []string{"Họ và tên", "Họ tên", "Tên học sinh", "Full Name", "Họ & tên"}
	LevelAliases = []string{"Mức đạt được", "Mức đạt", "Xếp loại", "Level", "Mức"}
	ScoreAliases = []string{"Điểm KTĐK", "Điểm số", "Điểm", "Score", "Điểm KT", "Kết quả"}
)

// NormalizeHeader composes accents, lowercases and strips every whitespace rune, so
// "HỌ VÀ TÊN", "họ và tên" and "Họ  và   tên" compare equal.
func NormalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(norm.NFC.String(h)))
}

// ColumnMatcher resolves one logical field against a sheet's headers.
type ColumnMatcher struct {
	aliases map[string]struct{}
}

func NewColumnMatcher(aliases []string) ColumnMatcher {
	m := ColumnMatcher{aliases: make(map[string]struct{}, len(aliases))}
	for _, a := range aliases {
		m.aliases[NormalizeHeader(a)] = struct{}{}
	}
	return m
}

// Resolve returns the first header, in column order, that matches an alias.
func (m ColumnMatcher) Resolve(headers []string) (string, bool) {
	for _, h := range headers {
		if _, ok := m.aliases[NormalizeHeader(h)]; ok {
			return h, true
		}
	}
	return "", false
}

// Lookup returns the trimmed value of the first matching column in row.
// An empty or whitespace-only cell counts as absent.
func (m ColumnMatcher) Lookup(headers []string, row model.RowData) (string, bool) {
	h, ok := m.Resolve(headers)
	if !ok {
		return "", false
	}
	v, ok := row.Value(h)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

var levelPhrases = []struct {
	phrase string
	level  model.AchievementLevel
}{
	{"CHƯA", model.LevelUnsatisfactory},
	{"UNSATISFACTORY", model.LevelUnsatisfactory},
	{"NOT ", model.LevelUnsatisfactory},
	{"HOÀN THÀNH TỐT", model.LevelExcellent},
	{"TỐT", model.LevelExcellent},
	{"XUẤT SẮC", model.LevelExcellent},
	{"EXCELLENT", model.LevelExcellent},
	{"GOOD", model.LevelExcellent},
	{"HOÀN THÀNH", model.LevelSatisfactory},
	{"ĐẠT", model.LevelSatisfactory},
	{"SATISFACTORY", model.LevelSatisfactory},
	{"PASS", model.LevelSatisfactory},
}

// ClassifyLevel maps a raw level cell to an achievement level.
//
// Bare report-card codes (T/H/C, HTT/HT/CHT) and the usual Vietnamese and
// English phrases are recognised first; anything else falls back to letter
// containment: T means excellent, otherwise C means unsatisfactory, otherwise
// satisfactory.
func ClassifyLevel(raw string) model.AchievementLevel {
	v := strings.ToUpper(strings.TrimSpace(norm.NFC.String(raw)))
	switch v {
	case "":
		return model.LevelSatisfactory
	case "T", "HTT":
		return model.LevelExcellent
	case "H", "HT":
		return model.LevelSatisfactory
	case "C", "CHT":
		return model.LevelUnsatisfactory
	}

	for _, p := range levelPhrases {
		if strings.Contains(v+" ", p.phrase) {
			return p.level
		}
	}

	switch {
	case strings.Contains(v, "T"):
		return model.LevelExcellent
	case strings.Contains(v, "C"):
		return model.LevelUnsatisfactory
	default:
		return model.LevelSatisfactory
	}
}
