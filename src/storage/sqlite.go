package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// Records are append-only and retained forever, so the schema is
	// created once and never dropped.
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS backtest_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			strategy TEXT NOT NULL,
			params TEXT NOT NULL,
			initial_capital REAL,
			final_balance REAL,
			roi REAL,
			total_trades INTEGER,
			win_rate REAL,
			equity_curve TEXT,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create backtest_records: %w", err)
	}

	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_records_user_created ON backtest_records (user_id, created_at DESC)`); err != nil {
		return fmt.Errorf("failed to create record index: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			token TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveRecord(record *models.MBacktestRecord) error {
	params, err := json.Marshal(record.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	curve, err := json.Marshal(record.EquityCurve)
	if err != nil {
		return fmt.Errorf("failed to encode equity curve: %w", err)
	}

	_, err = d.DB.Exec(`
		INSERT INTO backtest_records
			(id, user_id, symbol, strategy, params, initial_capital, final_balance, roi, total_trades, win_rate, equity_curve, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.Symbol, record.Strategy, string(params),
		record.InitialCapital, record.FinalBalance, record.ROI, record.TotalTrades,
		record.WinRate, string(curve), record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest record: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) RecentRecords(userID string, limit int) ([]models.MBacktestRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, user_id, symbol, strategy, params, initial_capital, final_balance, roi, total_trades, win_rate, equity_curve, created_at
		FROM backtest_records
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) RecordsByUser(userID string) ([]models.MBacktestRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, user_id, symbol, strategy, params, initial_capital, final_balance, roi, total_trades, win_rate, equity_curve, created_at
		FROM backtest_records
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) UserByToken(token string) (*models.MUser, error) {
	var user models.MUser
	var createdAt int64

	err := d.DB.QueryRow(`
		SELECT id, name, email, token, created_at FROM users WHERE token = ?`, token).
		Scan(&user.ID, &user.Name, &user.Email, &user.Token, &createdAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	return &user, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CreateUser(user *models.MUser) error {
	_, err := d.DB.Exec(`
		INSERT INTO users (id, name, email, token, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Token, user.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
