// Package postgres stores flowcharts as process_steps, hazards, ccps and
// flow_edges rows using pgx.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/flowchart"
)

var _ flowchart.Store = (*PGStore)(nil)

// PGStore implements flowchart.Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// nullable turns a nullable column into a plain value or nil.
func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
