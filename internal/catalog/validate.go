package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"casper-learning/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		structCheck = validator.New()
	})
	return structCheck
}

// Validate enforces the catalog preconditions of the quiz engine: required ids
// and titles, non-empty quizzes, at least two options per question, a correct
// index inside the options, known difficulties and unique ids. Failures wrap
// domain.ErrInvalidCatalog.
func Validate(modules []domain.Module) error {
	var problems []string
	moduleIDs := make(map[string]bool, len(modules))

	for mi, m := range modules {
		where := fmt.Sprintf("modules[%d]", mi)
		if m.ID != "" {
			where = "module " + m.ID
		}
		if err := structValidator().Struct(m); err != nil {
			problems = append(problems, fieldProblems(where, err)...)
		}
		if moduleIDs[m.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate module id", where))
		}
		moduleIDs[m.ID] = true

		quizIDs := make(map[string]bool, len(m.Quizzes))
		for _, q := range m.Quizzes {
			if quizIDs[q.ID] {
				problems = append(problems, fmt.Sprintf("%s: duplicate quiz id %q", where, q.ID))
			}
			quizIDs[q.ID] = true

			questionIDs := make(map[string]bool, len(q.Questions))
			for _, question := range q.Questions {
				if questionIDs[question.ID] {
					problems = append(problems, fmt.Sprintf("%s/%s: duplicate question id %q", where, q.ID, question.ID))
				}
				questionIDs[question.ID] = true
				if question.CorrectAnswer < 0 || question.CorrectAnswer >= len(question.Options) {
					problems = append(problems, fmt.Sprintf("%s/%s/%s: correct answer %d outside %d options",
						where, q.ID, question.ID, question.CorrectAnswer, len(question.Options)))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}

func fieldProblems(where string, err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("%s: %v", where, err)}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fmt.Sprintf("%s: %s failed %s", where, fe.Namespace(), fe.Tag()))
	}
	return out
}
