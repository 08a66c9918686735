package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pocscan/internal/contracts"
)

// Repository persists completed scans to PostgreSQL
// ⭐ SSOT: 스캔 결과 저장/조회는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RunSummary is one row of the scan history
type RunSummary struct {
	ID           int64     `json:"id"`
	DataSource   string    `json:"dataSource"`
	TotalScanned int       `json:"totalScanned"`
	BuyCount     int       `json:"buyCount"`
	SellCount    int       `json:"sellCount"`
	ScannedAt    time.Time `json:"scannedAt"`
}

// SaveScan stores a scan and its ranked recommendations in one transaction
func (r *Repository) SaveScan(ctx context.Context, result *contracts.ScanResult) (int64, error) {
	conditionsJSON, err := json.Marshal(result.Conditions)
	if err != nil {
		return 0, fmt.Errorf("marshal conditions: %w", err)
	}
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshal stats: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	buy, sell := result.Count()

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO poc.scan_runs (
			data_source,
			total_scanned,
			conditions,
			stats,
			buy_count,
			sell_count,
			scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		result.DataSource,
		result.TotalScanned,
		conditionsJSON,
		statsJSON,
		buy,
		sell,
		result.Timestamp,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert scan run: %w", err)
	}

	batch := &pgx.Batch{}
	for i, rec := range result.Recommendations {
		bucketsJSON, err := json.Marshal(rec.TopBuckets)
		if err != nil {
			return 0, fmt.Errorf("marshal buckets %s: %w", rec.Symbol, err)
		}

		batch.Queue(`
			INSERT INTO poc.recommendations (
				run_id, rank, symbol, name, sector, market, signal,
				current_price, poc, price_change_pct, volume, avg_volume,
				volume_ratio, trade_value_millions, signal_strength, reasons, top_buckets
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`,
			runID, i+1, rec.Symbol, rec.Name, rec.Sector, rec.Market, string(rec.Signal),
			rec.CurrentPrice, rec.POC, rec.PriceChangePct, rec.Volume, rec.AvgVolume,
			rec.VolumeRatio, rec.TradeValueMillions, rec.SignalStrength, rec.Reasons, bucketsJSON,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("insert recommendations: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return runID, nil
}

// LatestScan loads the most recent scan; an empty dataSource matches any source
func (r *Repository) LatestScan(ctx context.Context, dataSource string) (*contracts.ScanResult, error) {
	query := `
		SELECT id, data_source, total_scanned, conditions, stats, scanned_at
		FROM poc.scan_runs
		WHERE ($1 = '' OR data_source = $1)
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`

	result := &contracts.ScanResult{Success: true}

	var (
		runID          int64
		conditionsJSON []byte
		statsJSON      []byte
	)
	err := r.db.QueryRow(ctx, query, dataSource).Scan(
		&runID,
		&result.DataSource,
		&result.TotalScanned,
		&conditionsJSON,
		&statsJSON,
		&result.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest scan: %w", err)
	}

	if err := json.Unmarshal(conditionsJSON, &result.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &result.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	recs, err := r.recommendations(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Recommendations = recs

	return result, nil
}

func (r *Repository) recommendations(ctx context.Context, runID int64) ([]contracts.SignalResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT symbol, name, sector, market, signal,
			current_price, poc, price_change_pct, volume, avg_volume,
			volume_ratio, trade_value_millions, signal_strength, reasons, top_buckets
		FROM poc.recommendations
		WHERE run_id = $1
		ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]contracts.SignalResult, 0)
	for rows.Next() {
		var (
			rec         contracts.SignalResult
			signal      string
			bucketsJSON []byte
		)
		if err := rows.Scan(
			&rec.Symbol, &rec.Name, &rec.Sector, &rec.Market, &signal,
			&rec.CurrentPrice, &rec.POC, &rec.PriceChangePct, &rec.Volume, &rec.AvgVolume,
			&rec.VolumeRatio, &rec.TradeValueMillions, &rec.SignalStrength, &rec.Reasons, &bucketsJSON,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Signal = contracts.SignalType(signal)
		if err := json.Unmarshal(bucketsJSON, &rec.TopBuckets); err != nil {
			return nil, fmt.Errorf("unmarshal buckets: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// RecentRuns lists the latest scan runs, newest first
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, data_source, total_scanned, buy_count, sell_count, scanned_at
		FROM poc.scan_runs
		ORDER BY scanned_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.DataSource, &run.TotalScanned, &run.BuyCount, &run.SellCount, &run.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
