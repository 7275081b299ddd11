package dto

import "github.com/fadilmartias/comment-assistant/internal/model"

type GradeDTO struct {
	Grade    model.Grade `json:"grade"`
	Subjects []string    `json:"subjects"`
}

type CatalogDTO struct {
	Grades          []GradeDTO              `json:"grades"`
	Terms           []model.Term            `json:"terms"`
	EvaluationBases []model.EvaluationBasis `json:"evaluation_bases"`
	Tones           []model.Tone            `json:"tones"`
}

func NewCatalogDTO(cat *model.Catalog) CatalogDTO {
	grades := make([]GradeDTO, 0, len(model.Grades))
	for _, g := range model.Grades {
		grades = append(grades, GradeDTO{Grade: g, Subjects: cat.Subjects(g)})
	}
	return CatalogDTO{
		Grades:          grades,
		Terms:           model.Terms,
		EvaluationBases: model.EvaluationBases,
		Tones:           []model.Tone{model.ToneProfessional, model.ToneEncouraging},
	}
}
