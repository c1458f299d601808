// Package catalog loads learning modules from files and validates them before
// they reach the quiz engine.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"casper-learning/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a catalog from a .json, .yaml/.yml or .xlsx file and validates it.
func LoadFile(path string) ([]domain.Module, error) {
	var (
		modules []domain.Module
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		modules, err = loadJSON(path)
	case ".yaml", ".yml":
		modules, err = loadYAML(path)
	case ".xlsx":
		modules, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if err := Validate(modules); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return modules, nil
}

// document accepts both a bare module array and {"modules": [...]}.
type document struct {
	Modules []domain.Module `json:"modules" yaml:"modules"`
}

func loadJSON(path string) ([]domain.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var modules []domain.Module
		if err := json.Unmarshal(data, &modules); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
		}
		return modules, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	return doc.Modules, nil
}

func loadYAML(path string) ([]domain.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var modules []domain.Module
		if err := node.Decode(&modules); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
		}
		return modules, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	return doc.Modules, nil
}

// FileLoader serves a catalog file to a caching repository. The file is
// re-read on every load so edits show up after the cache TTL.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadCatalog(ctx context.Context) ([]domain.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(l.path)
}

// Summary counts what a catalog contains.
type Summary struct {
	Modules   int
	Quizzes   int
	Questions int
	Minutes   int
}

func Summarize(modules []domain.Module) Summary {
	s := Summary{Modules: len(modules)}
	for _, m := range modules {
		s.Quizzes += len(m.Quizzes)
		s.Minutes += m.EstimatedTime()
		for _, q := range m.Quizzes {
			s.Questions += len(q.Questions)
		}
	}
	return s
}

// Loader is any source of catalog modules.
type Loader interface {
	LoadCatalog(ctx context.Context) ([]domain.Module, error)
}

// ValidatingLoader validates what another loader returns, for sources such as
// a database that do not validate on their own.
type ValidatingLoader struct {
	inner Loader
}

func NewValidatingLoader(inner Loader) *ValidatingLoader {
	return &ValidatingLoader{inner: inner}
}

func (l *ValidatingLoader) LoadCatalog(ctx context.Context) ([]domain.Module, error) {
	modules, err := l.inner.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(modules); err != nil {
		return nil, err
	}
	return modules, nil
}
