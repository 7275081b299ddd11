package model

import (
	"errors"
	"fmt"
	"slices"
)

type Grade string

const (
	Grade1 Grade = "1"
	Grade2 Grade = "2"
	Grade3 Grade = "3"
	Grade4 Grade = "4"
	Grade5 Grade = "5"
)

var Grades = []Grade{Grade1, Grade2, Grade3, Grade4, Grade5}

func (g Grade) Valid() bool { return slices.Contains(Grades, g) }

type Term string

const (
	TermMidFirst  Term = "Giữa học kỳ 1"
	TermEndFirst  Term = "Cuối học kỳ 1"
	TermMidSecond Term = "Giữa học kỳ 2"
	TermEndSecond Term = "Cuối học kỳ 2"
)

var Terms = []Term{TermMidFirst, TermEndFirst, TermMidSecond, TermEndSecond}

func (t Term) Valid() bool { return slices.Contains(Terms, t) }

type EvaluationBasis string

const (
	BasisScore EvaluationBasis = "score"
	BasisLevel EvaluationBasis = "level"
	BasisBoth  EvaluationBasis = "both"
)

var EvaluationBases = []EvaluationBasis{BasisScore, BasisLevel, BasisBoth}

func (b EvaluationBasis) Valid() bool { return slices.Contains(EvaluationBases, b) }

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneEncouraging  Tone = "encouraging"
)

func (t Tone) Valid() bool { return t == ToneProfessional || t == ToneEncouraging }

var ErrInvalidConfig = errors.New("invalid generation config")

// GenerationConfig is the classroom context a comment run is written for.
// Tone and IncludeWeakness are stored and echoed back but do not shape the prompt.
type GenerationConfig struct {
	Grade           Grade           `json:"grade"`
	Term            Term            `json:"term"`
	Subject         string          `json:"subject"`
	EvaluationBasis EvaluationBasis `json:"evaluation_basis"`
	Tone            Tone            `json:"tone"`
	IncludeWeakness bool            `json:"include_weakness"`
}

func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Grade:           Grade1,
		Term:            TermEndFirst,
		Subject:         "Tiếng Việt",
		EvaluationBasis: BasisBoth,
		Tone:            ToneEncouraging,
		IncludeWeakness: true,
	}
}

// WithGrade switches grade, keeping the subject only if the new grade still offers it.
func (c GenerationConfig) WithGrade(g Grade, cat *Catalog) GenerationConfig {
	c.Grade = g
	if !cat.Allows(g, c.Subject) {
		if subjects := cat.Subjects(g); len(subjects) > 0 {
			c.Subject = subjects[0]
		}
	}
	return c
}

func (c GenerationConfig) Validate(cat *Catalog) error {
	switch {
	case !c.Grade.Valid():
		return fmt.Errorf("%w: unknown grade %q", ErrInvalidConfig, c.Grade)
	case !c.Term.Valid():
		return fmt.Errorf("%w: unknown term %q", ErrInvalidConfig, c.Term)
	case !c.EvaluationBasis.Valid():
		return fmt.Errorf("%w: unknown evaluation basis %q", ErrInvalidConfig, c.EvaluationBasis)
	case !c.Tone.Valid():
		return fmt.Errorf("%w: unknown tone %q", ErrInvalidConfig, c.Tone)
	case !cat.Allows(c.Grade, c.Subject):
		return fmt.Errorf("%w: subject %q is not taught in grade %s", ErrInvalidConfig, c.Subject, c.Grade)
	}
	return nil
}
