package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/flowchart"
)

// FetchHazards returns every hazard of a product's steps.
func (s *PGStore) FetchHazards(ctx context.Context, productID int64) ([]flowchart.HazardRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT h.id, h.process_step_id, h.hazard_type, h.description, h.likelihood,
		        h.severity, h.risk_level, h.control_measures, h.is_ccp, h.risk_strategy
		   FROM hazards h
		   JOIN process_steps s ON s.id = h.process_step_id
		  WHERE s.product_id = $1
		  ORDER BY s.step_number, h.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("flowchart: query hazards: %w", err)
	}
	defer rows.Close()

	var out []flowchart.HazardRecord
	for rows.Next() {
		var (
			id, stepID int64
			h          flowchart.HazardRecord
		)
		if err := rows.Scan(&id, &stepID, &h.HazardType, &h.Description, &h.Likelihood,
			&h.Severity, &h.RiskLevel, &h.ControlMeasures, &h.IsCCP, &h.RiskStrategy); err != nil {
			return nil, fmt.Errorf("flowchart: scan hazard: %w", err)
		}
		h.ID = flowchart.RecordIDOf(id)
		h.ProcessStepID = flowchart.RecordIDOf(stepID)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowchart: rows hazards: %w", err)
	}
	return out, nil
}

// FetchCCPs returns every CCP of a product's hazards.
func (s *PGStore) FetchCCPs(ctx context.Context, productID int64) ([]flowchart.CCPRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.hazard_id, c.ccp_number, c.critical_limit_parameter,
		        c.critical_limit_min, c.critical_limit_max, c.critical_limit_unit,
		        c.critical_limits, c.monitoring_frequency, c.monitoring_method,
		        c.monitoring_responsible, c.corrective_actions, c.verification_method
		   FROM ccps c
		   JOIN hazards h ON h.id = c.hazard_id
		   JOIN process_steps s ON s.id = h.process_step_id
		  WHERE s.product_id = $1
		  ORDER BY c.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("flowchart: query ccps: %w", err)
	}
	defer rows.Close()

	var out []flowchart.CCPRecord
	for rows.Next() {
		var (
			id, hazardID int64
			min, max     *float64
			limits       []byte
			c            flowchart.CCPRecord
		)
		if err := rows.Scan(&id, &hazardID, &c.CCPNumber, &c.CriticalLimitParameter,
			&min, &max, &c.CriticalLimitUnit, &limits, &c.MonitoringFrequency,
			&c.MonitoringMethod, &c.MonitoringResponsible, &c.CorrectiveActions,
			&c.VerificationMethod); err != nil {
			return nil, fmt.Errorf("flowchart: scan ccp: %w", err)
		}
		if len(limits) > 0 {
			if err := json.Unmarshal(limits, &c.CriticalLimits); err != nil {
				return nil, fmt.Errorf("flowchart: ccp %d limits: %w", id, err)
			}
		}
		c.ID = flowchart.RecordIDOf(id)
		c.HazardID = flowchart.RecordIDOf(hazardID)
		c.CriticalLimitMin = nullable(min)
		c.CriticalLimitMax = nullable(max)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowchart: rows ccps: %w", err)
	}
	return out, nil
}

// ReplaceStepHazards swaps a step's hazards and CCP in one transaction. The
// CCP is stored against the first hazard flagged as a CCP, or the first
// hazard when none is flagged.
func (s *PGStore) ReplaceStepHazards(ctx context.Context, stepID int64, hazards []flowchart.Hazard, ccp *flowchart.CCP) error {
	if ccp != nil && len(hazards) == 0 {
		return fmt.Errorf("%w: step %d", flowchart.ErrOrphanCCP, stepID)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flowchart: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `SELECT 1 FROM process_steps WHERE id = $1 FOR UPDATE`, stepID)
	if err != nil {
		return fmt.Errorf("flowchart: lock step: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return flowchart.ErrStepNotPersisted
	}

	// Cascades to ccps.
	if _, err := tx.Exec(ctx, `DELETE FROM hazards WHERE process_step_id = $1`, stepID); err != nil {
		return fmt.Errorf("flowchart: delete hazards: %w", err)
	}

	var owner int64
	ownerIdx := ownerIndex(hazards)
	for i, h := range hazards {
		var id int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO hazards
			        (process_step_id, hazard_type, description, likelihood, severity,
			         risk_level, control_measures, is_ccp, risk_strategy)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			stepID, string(h.Type), h.Description, h.Likelihood, h.Severity,
			string(flowchart.RiskLevelFor(h.Likelihood, h.Severity)), h.ControlMeasures,
			h.IsCCP, string(h.RiskStrategy),
		).Scan(&id); err != nil {
			return fmt.Errorf("flowchart: insert hazard %d: %w", i+1, err)
		}
		if i == ownerIdx {
			owner = id
		}
	}

	if ccp != nil {
		if err := insertCCP(ctx, tx, owner, ccp); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ownerIndex is the hazard a CCP is stored against.
func ownerIndex(hazards []flowchart.Hazard) int {
	for i, h := range hazards {
		if h.IsCCP {
			return i
		}
	}
	return 0
}

func insertCCP(ctx context.Context, tx pgx.Tx, hazardID int64, ccp *flowchart.CCP) error {
	limits := make([]flowchart.CriticalLimitRecord, 0, len(ccp.CriticalLimits))
	for _, l := range ccp.CriticalLimits {
		limits = append(limits, flowchart.CriticalLimitRecord{
			Parameter: l.Parameter,
			Min:       nullable(l.Min),
			Max:       nullable(l.Max),
			Unit:      l.Unit,
		})
	}
	encoded, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("flowchart: encode limits: %w", err)
	}

	// The flat columns mirror the first limit for readers that only know those.
	var first flowchart.CriticalLimit
	if len(ccp.CriticalLimits) > 0 {
		first = ccp.CriticalLimits[0]
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO ccps
		        (hazard_id, ccp_number, critical_limit_parameter, critical_limit_min,
		         critical_limit_max, critical_limit_unit, critical_limits,
		         monitoring_frequency, monitoring_method, monitoring_responsible,
		         corrective_actions, verification_method)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		hazardID, ccp.Number, first.Parameter, first.Min, first.Max, first.Unit, encoded,
		ccp.MonitoringFrequency, ccp.MonitoringMethod, ccp.ResponsiblePerson,
		ccp.CorrectiveActions, ccp.VerificationMethod,
	); err != nil {
		return fmt.Errorf("flowchart: insert ccp: %w", err)
	}
	return nil
}
