package service

import (
	"fmt"
	"strings"

	"github.com/fadilmartias/comment-assistant/internal/model"
)

// Prompt is the instruction pair sent for one batch.
type Prompt struct {
	System string
	User   string
}

var basisGuidance = map[model.EvaluationBasis]string{
	model.BasisScore: "CĂN CỨ ĐÁNH GIÁ: Dựa chủ yếu vào Điểm số. Điểm cao nêu rõ điểm mạnh về kiến thức, kỹ năng; điểm thấp chỉ ra nội dung cần củng cố một cách nhẹ nhàng.",
	model.BasisLevel: "CĂN CỨ ĐÁNH GIÁ: Dựa chủ yếu vào Mức đạt (T: Hoàn thành tốt, H: Hoàn thành, C: Chưa hoàn thành). Không nhắc tới điểm số trong nhận xét.",
	model.BasisBoth:  "CĂN CỨ ĐÁNH GIÁ: Kết hợp cả Mức đạt (T/H/C) và Điểm số để nhận xét logic, nhất quán giữa hai thông tin.",
}

// BuildPrompt renders the system instruction and the student listing for a batch.
// Tone and IncludeWeakness do not influence the prompt.
func BuildPrompt(batch []model.StudentRecord, cfg model.GenerationConfig) Prompt {
	basis, ok := basisGuidance[cfg.EvaluationBasis]
	if !ok {
		basis = basisGuidance[model.BasisBoth]
	}

	system := fmt.Sprintf(`Bạn là chuyên gia giáo dục tiểu học tại Việt Nam, am hiểu:
1. Thông tư 27/2020/TT-BGDĐT về đánh giá học sinh tiểu học.
2. Chương trình giáo dục phổ thông 2018.
3. Bộ sách giáo khoa "Kết nối tri thức với cuộc sống".

NHIỆM VỤ: Viết nhận xét cho học sinh Lớp %[1]s, môn %[2]s, giai đoạn %[3]s.

YÊU CẦU:
- Bám sát yêu cầu cần đạt của môn %[2]s lớp %[1]s ở giai đoạn %[3]s.
- Không dùng các từ "em", "nắm được", "học sinh".
- Học sinh cùng mức, cùng điểm phải có cách diễn đạt khác nhau.
- Độ dài 120 - 180 ký tự, văn phong sư phạm, tích cực, khích lệ.
- Cấu trúc: năng lực đặc thù môn học, năng lực chung hoặc phẩm chất, góp ý hướng phát triển.
%[4]s

Trả về mảng JSON, mỗi phần tử {"id": "<ID>", "comment": "<nhận xét>"}, giữ nguyên ID đã cho.`,
		cfg.Grade, cfg.Subject, cfg.Term, basis)

	var b strings.Builder
	b.WriteString("Viết nhận xét đa dạng, không lặp lại câu chữ, cho danh sách sau:\n")
	for _, r := range batch {
		fmt.Fprintf(&b, "ID: %s, Tên: %s, Mức: %s, Điểm: %s\n", r.ID, r.Name, r.Level, r.Score)
	}
	fmt.Fprintf(&b, "\nNội dung nhận xét phải phản ánh đúng kiến thức môn %s lớp %s tại thời điểm %s.", cfg.Subject, cfg.Grade, cfg.Term)

	return Prompt{System: system, User: b.String()}
}
