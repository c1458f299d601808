package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"casper-learning/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestLoadFileBundledCatalog(t *testing.T) {
	modules, err := LoadFile(filepath.Join("..", "..", "data", "catalog.yaml"))
	if err != nil {
		t.Fatalf("load bundled catalog: %v", err)
	}
	if len(modules) == 0 {
		t.Fatalf("expected modules")
	}
	s := Summarize(modules)
	if s.Quizzes == 0 || s.Questions == 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestLoadFileJSONShapes(t *testing.T) {
	dir := t.TempDir()
	module := `{"id":"m1","title":"M","order":1,"quizzes":[{"id":"q","title":"Q","difficulty":"beginner","estimatedTime":3,
		"questions":[{"id":"a","question":"?","options":["x","y"],"correctAnswer":1,"difficulty":"beginner"}]}]}`

	cases := map[string]string{
		"array.json":    "[" + module + "]",
		"document.json": `{"modules":[` + module + `]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, dir, name, body)
			modules, err := LoadFile(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(modules) != 1 || modules[0].Quizzes[0].Questions[0].CorrectAnswer != 1 {
				t.Fatalf("unexpected modules %+v", modules)
			}
		})
	}
}

func TestLoadFileYAMLSequence(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.yml", `
- id: m1
  title: M
  quizzes:
    - id: q
      title: Q
      difficulty: advanced
      questions:
        - id: a
          question: "?"
          options: [x, y, z]
          correctAnswer: 2
          difficulty: advanced
`)
	modules, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := modules[0].Quizzes[0].Questions[0].Options; len(got) != 3 {
		t.Fatalf("expected 3 options, got %v", got)
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.toml", "")
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"module_id", "module_title", "module_order", "quiz_id", "quiz_title", "quiz_difficulty", "quiz_estimated_time",
			"question_id", "question", "option_a", "option_b", "option_c", "correct_answer", "explanation"},
		{"wallets", "Wallets", "2", "keys", "Keys", "beginner", "4", "q1", "Ed25519 prefix?", "00", "01", "02", "1", "01 is ed25519"},
		{"wallets", "Wallets", "2", "keys", "Keys", "beginner", "4", "q2", "Secp256k1 prefix?", "01", "02", "", "1", ""},
		{"basics", "Basics", "1", "intro", "Intro", "beginner", "2", "q1", "Token?", "CSPR", "ETH", "", "0", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	modules, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	keys := modules[0].Quizzes[0]
	if modules[0].Order != 2 || keys.EstimatedTime != 4 || len(keys.Questions) != 2 {
		t.Fatalf("unexpected first module %+v", modules[0])
	}
	if got := keys.Questions[1].Options; len(got) != 2 {
		t.Fatalf("expected empty option cell skipped, got %v", got)
	}
	if keys.Questions[0].Difficulty != domain.DifficultyBeginner {
		t.Fatalf("expected question difficulty to default to quiz difficulty, got %q", keys.Questions[0].Difficulty)
	}
}

func TestModulesFromRowsMissingColumn(t *testing.T) {
	_, err := modulesFromRows([][]string{{"module_id", "quiz_id"}})
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() []domain.Module {
		return []domain.Module{{
			ID: "m", Title: "M",
			Quizzes: []domain.Quiz{{
				ID: "q", Title: "Q", Difficulty: domain.DifficultyBeginner,
				Questions: []domain.Question{
					{ID: "a", Prompt: "?", Options: []string{"x", "y"}, CorrectAnswer: 0, Difficulty: domain.DifficultyBeginner},
				},
			}},
		}}
	}

	tests := []struct {
		name   string
		mutate func([]domain.Module) []domain.Module
		want   string
	}{
		{"valid", func(m []domain.Module) []domain.Module { return m }, ""},
		{"empty quiz", func(m []domain.Module) []domain.Module {
			m[0].Quizzes[0].Questions = nil
			return m
		}, "Questions"},
		{"one option", func(m []domain.Module) []domain.Module {
			m[0].Quizzes[0].Questions[0].Options = []string{"x"}
			return m
		}, "Options"},
		{"correct index out of range", func(m []domain.Module) []domain.Module {
			m[0].Quizzes[0].Questions[0].CorrectAnswer = 2
			return m
		}, "outside 2 options"},
		{"unknown difficulty", func(m []domain.Module) []domain.Module {
			m[0].Quizzes[0].Difficulty = "expert"
			return m
		}, "oneof"},
		{"negative estimated time", func(m []domain.Module) []domain.Module {
			m[0].Quizzes[0].EstimatedTime = -1
			return m
		}, "EstimatedTime"},
		{"duplicate module", func(m []domain.Module) []domain.Module {
			return append(m, m[0])
		}, "duplicate module id"},
		{"duplicate question", func(m []domain.Module) []domain.Module {
			q := &m[0].Quizzes[0]
			q.Questions = append(q.Questions, q.Questions[0])
			return m
		}, "duplicate question id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mutate(valid()))
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected valid catalog, got %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestFileLoaderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileLoader("missing.yaml").LoadCatalog(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type staticLoader []domain.Module

func (s staticLoader) LoadCatalog(context.Context) ([]domain.Module, error) { return s, nil }

func TestValidatingLoaderRejectsBadCatalog(t *testing.T) {
	bad := staticLoader{{ID: "m", Title: "M"}, {ID: "m", Title: "M again"}}
	if _, err := NewValidatingLoader(bad).LoadCatalog(context.Background()); !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}
