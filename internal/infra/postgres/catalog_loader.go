package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"casper-learning/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads module JSONB documents from Postgres, ordered by ord.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Module, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, ord, data FROM catalog_modules ORDER BY ord, id`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var modules []domain.Module
	for rows.Next() {
		var (
			id  string
			ord int
			raw []byte
		)
		if err := rows.Scan(&id, &ord, &raw); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		var m domain.Module
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal module %s: %w", id, err)
		}
		// Row columns win over the document.
		m.ID = id
		m.Order = ord
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return modules, nil
}

// SaveModule upserts one module document; used by catalog seeding.
func SaveModule(ctx context.Context, pool *pgxpool.Pool, m domain.Module) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal module %s: %w", m.ID, err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO catalog_modules (id, ord, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET ord = EXCLUDED.ord, data = EXCLUDED.data, updated_at = now()`,
		m.ID, m.Order, data)
	if err != nil {
		return fmt.Errorf("save module %s: %w", m.ID, err)
	}
	return nil
}
