package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"casper-learning/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout: the first sheet, one row per question, columns named by
// the header row. Module and quiz columns repeat on every row; the first row
// of a module or quiz defines it. Every header starting with "option_" is an
// answer option, in header order; empty option cells are skipped.
const (
	colModuleID          = "module_id"
	colModuleTitle       = "module_title"
	colModuleDescription = "module_description"
	colModuleIcon        = "module_icon"
	colModuleOrder       = "module_order"
	colQuizID            = "quiz_id"
	colQuizTitle         = "quiz_title"
	colQuizDescription   = "quiz_description"
	colQuizCategory      = "quiz_category"
	colQuizDifficulty    = "quiz_difficulty"
	colQuizEstimatedTime = "quiz_estimated_time"
	colQuizBadgeIcon     = "quiz_badge_icon"
	colQuestionID        = "question_id"
	colQuestion          = "question"
	colCorrectAnswer     = "correct_answer"
	colExplanation       = "explanation"
	colQuestionLevel     = "question_difficulty"

	optionPrefix = "option_"
)

func loadXLSX(path string) ([]domain.Module, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no sheets", domain.ErrInvalidCatalog)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}
	return modulesFromRows(rows)
}

func modulesFromRows(rows [][]string) ([]domain.Module, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet is empty", domain.ErrInvalidCatalog)
	}

	header := make(map[string]int)
	var optionCols []int
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		header[name] = i
		if strings.HasPrefix(name, optionPrefix) {
			optionCols = append(optionCols, i)
		}
	}
	for _, required := range []string{colModuleID, colQuizID, colQuestionID, colQuestion, colCorrectAnswer} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrInvalidCatalog, required)
		}
	}

	var modules []domain.Module
	moduleIdx := map[string]int{}
	quizIdx := map[string]int{}

	for n, row := range rows[1:] {
		line := n + 2
		cell := func(col string) string {
			i, ok := header[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if cell(colModuleID) == "" && cell(colQuestion) == "" {
			continue
		}

		moduleID := cell(colModuleID)
		mi, ok := moduleIdx[moduleID]
		if !ok {
			order, err := atoiOrZero(cell(colModuleOrder))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: module_order: %v", domain.ErrInvalidCatalog, line, err)
			}
			modules = append(modules, domain.Module{
				ID:          moduleID,
				Title:       cell(colModuleTitle),
				Description: cell(colModuleDescription),
				Icon:        cell(colModuleIcon),
				Order:       order,
			})
			mi = len(modules) - 1
			moduleIdx[moduleID] = mi
		}

		quizKey := moduleID + "/" + cell(colQuizID)
		qi, ok := quizIdx[quizKey]
		if !ok {
			minutes, err := atoiOrZero(cell(colQuizEstimatedTime))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: quiz_estimated_time: %v", domain.ErrInvalidCatalog, line, err)
			}
			modules[mi].Quizzes = append(modules[mi].Quizzes, domain.Quiz{
				ID:            cell(colQuizID),
				Title:         cell(colQuizTitle),
				Description:   cell(colQuizDescription),
				Category:      cell(colQuizCategory),
				Difficulty:    domain.Difficulty(strings.ToLower(cell(colQuizDifficulty))),
				EstimatedTime: minutes,
				BadgeIcon:     cell(colQuizBadgeIcon),
			})
			qi = len(modules[mi].Quizzes) - 1
			quizIdx[quizKey] = qi
		}

		correct, err := strconv.Atoi(cell(colCorrectAnswer))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: correct_answer: %v", domain.ErrInvalidCatalog, line, err)
		}
		var options []string
		for _, col := range optionCols {
			if col < len(row) && strings.TrimSpace(row[col]) != "" {
				options = append(options, strings.TrimSpace(row[col]))
			}
		}
		level := domain.Difficulty(strings.ToLower(cell(colQuestionLevel)))
		if level == "" {
			level = modules[mi].Quizzes[qi].Difficulty
		}
		modules[mi].Quizzes[qi].Questions = append(modules[mi].Quizzes[qi].Questions, domain.Question{
			ID:            cell(colQuestionID),
			Prompt:        cell(colQuestion),
			Options:       options,
			CorrectAnswer: correct,
			Explanation:   cell(colExplanation),
			Difficulty:    level,
		})
	}
	return modules, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
