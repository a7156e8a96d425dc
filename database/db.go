package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dnldd/spike/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createAlertTableSQL = "CREATE TABLE IF NOT EXISTS alert (id TEXT PRIMARY KEY, market TEXT, kind TEXT, title TEXT, description TEXT, color INTEGER, candletime INTEGER, createdon INTEGER)"
	persistAlertSQL     = "INSERT INTO alert(id, market, kind, title, description, color, candletime, createdon) VALUES(?,?,?,?,?,?,?,?)"
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the alert journal connection. Alerts are only ever written, dedup
// state is not restored from the journal.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the AlertStorer interface.
var _ shared.AlertStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// execute runs the provided statements in a transaction, surfacing statement errors.
func (db *Database) execute(ctx context.Context, stmts rqlitehttp.SQLStatements) error {
	resp, err := db.client.Execute(ctx, stmts, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("statement %d: %s", idx, errStr)
	}

	return nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	return db.execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createAlertTableSQL},
	})
}

// PersistAlert stores the provided alert to the database.
func (db *Database) PersistAlert(ctx context.Context, alert *shared.Alert) error {
	err := db.execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistAlertSQL,
			PositionalParams: []any{alert.ID, alert.Market, alert.Kind.String(), alert.Title,
				alert.Description, alert.Color, alert.CandleTime.Unix(), alert.CreatedOn.Unix()},
		},
	})
	if err != nil {
		return fmt.Errorf("persisting %s alert %s: %w", alert.Kind.String(), alert.ID, err)
	}

	db.cfg.Logger.Debug().Str("market", alert.Market).Msgf("persisted %s alert %s", alert.Kind.String(), alert.ID)

	return nil
}
