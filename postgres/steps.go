package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/flowchart"
)

// FetchProcessSteps returns a product's steps ordered by step number, with
// its stored edges. Returns nil, nil if the product has no steps.
func (s *PGStore) FetchProcessSteps(ctx context.Context, productID int64) (*flowchart.FlowRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, step_number, step_name, description, equipment,
		        temperature, time_minutes, ph, aw, parameters
		   FROM process_steps
		  WHERE product_id = $1
		  ORDER BY step_number, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("flowchart: query steps: %w", err)
	}
	defer rows.Close()

	flow := &flowchart.FlowRecord{}
	for rows.Next() {
		var (
			id                 int64
			number             int
			name, desc, equip  string
			temp, mins, ph, aw *float64
			params             []byte
		)
		if err := rows.Scan(&id, &number, &name, &desc, &equip, &temp, &mins, &ph, &aw, &params); err != nil {
			return nil, fmt.Errorf("flowchart: scan step: %w", err)
		}
		p, err := flowchart.DecodeStepParameters(params)
		if err != nil {
			return nil, fmt.Errorf("flowchart: step %d: %w", id, err)
		}
		flow.Steps = append(flow.Steps, flowchart.StepRecord{
			ID:    flowchart.StepID(id),
			Type:  string(p.Type),
			Label: name,
			X:     p.Position.X,
			Y:     p.Position.Y,
			Data: flowchart.StepData{
				StepNumber:  flowchart.Int(number),
				Description: desc,
				Equipment:   equip,
				Temperature: nullable(temp),
				TimeMinutes: nullable(mins),
				PH:          nullable(ph),
				AW:          nullable(aw),
			},
			Parameters: json.RawMessage(params),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowchart: rows steps: %w", err)
	}

	if len(flow.Steps) == 0 {
		return nil, nil
	}

	flow.Edges, err = s.fetchEdges(ctx, productID)
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// CreateProcessStep inserts a step and returns its id.
func (s *PGStore) CreateProcessStep(ctx context.Context, productID int64, step *flowchart.StepWrite) (int64, error) {
	params, err := json.Marshal(step.Parameters)
	if err != nil {
		return 0, fmt.Errorf("flowchart: encode parameters: %w", err)
	}

	var id int64
	err = s.db.QueryRow(ctx,
		`INSERT INTO process_steps
		        (product_id, step_number, step_name, description, equipment,
		         temperature, time_minutes, ph, aw, parameters)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		productID, step.StepNumber, step.StepName, step.Description, step.Equipment,
		step.Temperature, step.TimeMinutes, step.PH, step.AW, params,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("flowchart: insert step: %w", err)
	}
	return id, nil
}

// UpdateProcessStep overwrites a stored step.
// Returns ErrStepNotPersisted if the step doesn't exist.
func (s *PGStore) UpdateProcessStep(ctx context.Context, stepID int64, step *flowchart.StepWrite) error {
	params, err := json.Marshal(step.Parameters)
	if err != nil {
		return fmt.Errorf("flowchart: encode parameters: %w", err)
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE process_steps
		    SET step_number = $1, step_name = $2, description = $3, equipment = $4,
		        temperature = $5, time_minutes = $6, ph = $7, aw = $8,
		        parameters = $9, updated_at = NOW()
		  WHERE id = $10`,
		step.StepNumber, step.StepName, step.Description, step.Equipment,
		step.Temperature, step.TimeMinutes, step.PH, step.AW, params, stepID,
	)
	if err != nil {
		return fmt.Errorf("flowchart: update step: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return flowchart.ErrStepNotPersisted
	}
	return nil
}

// DeleteProduct removes every step of a product; hazards and CCPs go with
// them. No error if the product has nothing stored.
func (s *PGStore) DeleteProduct(ctx context.Context, productID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flowchart: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("flowchart: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM process_steps WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("flowchart: delete steps: %w", err)
	}

	return tx.Commit(ctx)
}
