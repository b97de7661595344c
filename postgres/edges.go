package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/flowchart"
)

func (s *PGStore) fetchEdges(ctx context.Context, productID int64) ([]flowchart.EdgeRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source, target, label FROM flow_edges WHERE product_id = $1 ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("flowchart: query edges: %w", err)
	}
	defer rows.Close()

	var out []flowchart.EdgeRecord
	for rows.Next() {
		var e flowchart.EdgeRecord
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Label); err != nil {
			return nil, fmt.Errorf("flowchart: scan edge: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowchart: rows edges: %w", err)
	}
	return out, nil
}

// ReplaceEdges stores the product's edge list, replacing what was there.
func (s *PGStore) ReplaceEdges(ctx context.Context, productID int64, edges []flowchart.EdgeRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flowchart: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("flowchart: delete edges: %w", err)
	}

	for i, e := range edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_edges (product_id, id, source, target, label, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			productID, e.ID, e.Source, e.Target, e.Label, i,
		); err != nil {
			return fmt.Errorf("flowchart: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("flowchart: commit: %w", err)
	}
	return nil
}
