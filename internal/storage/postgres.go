package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/synthlab/alphalog/internal/tracker"
	"go.uber.org/zap"
)

// Schema creates the edge_tracking table when missing.
const Schema = `
	CREATE TABLE IF NOT EXISTS edge_tracking (
		id                     TEXT PRIMARY KEY,
		detected_at            TIMESTAMPTZ NOT NULL,
		asset                  TEXT NOT NULL,
		edge_type              TEXT NOT NULL,
		timeframe              TEXT NOT NULL,
		direction              TEXT NOT NULL,
		confidence             TEXT NOT NULL,
		synth_probability      DOUBLE PRECISION,
		polymarket_probability DOUBLE PRECISION,
		edge_size              DOUBLE PRECISION,
		current_price          DOUBLE PRECISION,
		resolution_deadline    TIMESTAMPTZ NOT NULL,
		resolved               BOOLEAN NOT NULL DEFAULT FALSE,
		resolution             TEXT,
		actual_outcome         TEXT,
		pnl                    DOUBLE PRECISION,
		resolved_at            TIMESTAMPTZ
	)
`

const insertEdgeQuery = `
	INSERT INTO edge_tracking (
		id, detected_at, asset, edge_type, timeframe, direction, confidence,
		synth_probability, polymarket_probability, edge_size, current_price,
		resolution_deadline, resolved
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
`

const updateResolutionQuery = `
	UPDATE edge_tracking
	SET resolved = $1, resolution = $2, actual_outcome = $3, pnl = $4, resolved_at = $5
	WHERE id = $6
`

// PostgresMirror implements Mirror using PostgreSQL.
type PostgresMirror struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// DSN builds the lib/pq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// NewPostgresMirror connects to PostgreSQL and ensures the schema exists.
func NewPostgresMirror(ctx context.Context, cfg *PostgresConfig) (*PostgresMirror, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	m := NewPostgresMirrorFromDB(db, cfg.Logger)
	err = m.EnsureSchema(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	m.logger.Info("postgres-mirror-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return m, nil
}

// NewPostgresMirrorFromDB wraps an open database handle.
func NewPostgresMirrorFromDB(db *sql.DB, logger *zap.Logger) *PostgresMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresMirror{db: db, logger: logger}
}

// EnsureSchema creates the edge_tracking table if needed.
func (p *PostgresMirror) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create edge_tracking table: %w", err)
	}
	return nil
}

// InsertEdges stores records in one transaction.
func (p *PostgresMirror) InsertEdges(ctx context.Context, records []tracker.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for i := range records {
		r := &records[i]
		_, err = tx.ExecContext(ctx, insertEdgeQuery,
			r.ID,
			r.DetectedAt,
			r.Asset,
			string(r.EdgeType),
			r.Timeframe,
			string(r.Direction),
			string(r.Confidence),
			nullFloat(r.SynthProbability),
			nullFloat(r.PolymarketProbability),
			nullFloat(r.EdgeSize),
			nullFloat(r.CurrentPrice),
			r.ResolutionDeadline,
			false,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert edge %s: %w", r.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit edges: %w", err)
	}

	p.logger.Debug("edges-mirrored", zap.Int("count", len(records)))
	return nil
}

// UpdateResolution stores the outcome of a resolved record.
func (p *PostgresMirror) UpdateResolution(ctx context.Context, record tracker.Record) error {
	var resolvedAt sql.NullTime
	if record.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: *record.ResolvedAt, Valid: true}
	}

	res, err := p.db.ExecContext(ctx, updateResolutionQuery,
		true,
		string(record.Resolution),
		record.ActualOutcome,
		nullFloat(record.PnL),
		resolvedAt,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update edge %s: %w", record.ID, err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		p.logger.Warn("mirror-edge-missing", zap.String("edge-id", record.ID))
	}

	p.logger.Debug("edge-resolution-mirrored",
		zap.String("edge-id", record.ID),
		zap.String("resolution", string(record.Resolution)))
	return nil
}

// Close closes the database connection.
func (p *PostgresMirror) Close() error {
	p.logger.Info("closing-postgres-mirror")
	return p.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
