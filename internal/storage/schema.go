package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS poc;

CREATE TABLE IF NOT EXISTS poc.scan_runs (
	id            BIGSERIAL PRIMARY KEY,
	data_source   TEXT        NOT NULL,
	total_scanned INTEGER     NOT NULL,
	conditions    JSONB       NOT NULL,
	stats         JSONB       NOT NULL,
	buy_count     INTEGER     NOT NULL DEFAULT 0,
	sell_count    INTEGER     NOT NULL DEFAULT 0,
	scanned_at    TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_source_time
	ON poc.scan_runs (data_source, scanned_at DESC);

CREATE TABLE IF NOT EXISTS poc.recommendations (
	run_id               BIGINT           NOT NULL REFERENCES poc.scan_runs(id) ON DELETE CASCADE,
	rank                 INTEGER          NOT NULL,
	symbol               TEXT             NOT NULL,
	name                 TEXT             NOT NULL,
	sector               TEXT             NOT NULL,
	market               TEXT             NOT NULL,
	signal               TEXT             NOT NULL,
	current_price        DOUBLE PRECISION NOT NULL,
	poc                  BIGINT           NOT NULL,
	price_change_pct     DOUBLE PRECISION NOT NULL,
	volume               BIGINT           NOT NULL,
	avg_volume           BIGINT           NOT NULL,
	volume_ratio         DOUBLE PRECISION NOT NULL,
	trade_value_millions BIGINT           NOT NULL,
	signal_strength      DOUBLE PRECISION NOT NULL,
	reasons              TEXT[]           NOT NULL,
	top_buckets          JSONB            NOT NULL,
	PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_recommendations_symbol
	ON poc.recommendations (symbol, run_id DESC);
`

// EnsureSchema creates the poc schema and tables if missing
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
