package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS process_steps (
    id           BIGSERIAL PRIMARY KEY,
    product_id   BIGINT NOT NULL,
    step_number  INTEGER NOT NULL,
    step_name    TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    equipment    TEXT NOT NULL DEFAULT '',
    temperature  DOUBLE PRECISION,
    time_minutes DOUBLE PRECISION,
    ph           DOUBLE PRECISION,
    aw           DOUBLE PRECISION,
    parameters   JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS hazards (
    id               BIGSERIAL PRIMARY KEY,
    process_step_id  BIGINT NOT NULL REFERENCES process_steps(id) ON DELETE CASCADE,
    hazard_type      TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    likelihood       INTEGER NOT NULL,
    severity         INTEGER NOT NULL,
    risk_level       TEXT NOT NULL,
    control_measures TEXT NOT NULL DEFAULT '',
    is_ccp           BOOLEAN NOT NULL DEFAULT FALSE,
    risk_strategy    TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ccps (
    id                       BIGSERIAL PRIMARY KEY,
    hazard_id                BIGINT NOT NULL REFERENCES hazards(id) ON DELETE CASCADE,
    ccp_number               TEXT NOT NULL,
    critical_limit_parameter TEXT NOT NULL DEFAULT '',
    critical_limit_min       DOUBLE PRECISION,
    critical_limit_max       DOUBLE PRECISION,
    critical_limit_unit      TEXT NOT NULL DEFAULT '',
    critical_limits          JSONB NOT NULL DEFAULT '[]',
    monitoring_frequency     TEXT NOT NULL DEFAULT '',
    monitoring_method        TEXT NOT NULL DEFAULT '',
    monitoring_responsible   TEXT NOT NULL DEFAULT '',
    corrective_actions       TEXT NOT NULL DEFAULT '',
    verification_method      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS flow_edges (
    product_id BIGINT NOT NULL,
    id         TEXT NOT NULL,
    source     TEXT NOT NULL,
    target     TEXT NOT NULL,
    label      TEXT NOT NULL DEFAULT '',
    position   INTEGER NOT NULL,
    PRIMARY KEY (product_id, id)
);

CREATE INDEX IF NOT EXISTS idx_process_steps_product ON process_steps(product_id);
CREATE INDEX IF NOT EXISTS idx_hazards_step          ON hazards(process_step_id);
CREATE INDEX IF NOT EXISTS idx_ccps_hazard           ON ccps(hazard_id);
`

// CreateSchema creates the flowchart tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the flowchart tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_edges, ccps, hazards, process_steps CASCADE;`)
	return err
}
