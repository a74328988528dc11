package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS backtest_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			strategy TEXT NOT NULL,
			params JSONB NOT NULL,
			initial_capital DOUBLE PRECISION,
			final_balance DOUBLE PRECISION,
			roi DOUBLE PRECISION,
			total_trades INTEGER,
			win_rate DOUBLE PRECISION,
			equity_curve JSONB,
			created_at BIGINT NOT NULL
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
			created_at BIGINT NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveRecord(record *models.MBacktestRecord) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
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

func (d *PostgresDB) RecentRecords(userID string, limit int) ([]models.MBacktestRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, user_id, symbol, strategy, params::text, initial_capital, final_balance, roi, total_trades, win_rate, equity_curve::text, created_at
		FROM backtest_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RecordsByUser(userID string) ([]models.MBacktestRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, user_id, symbol, strategy, params::text, initial_capital, final_balance, roi, total_trades, win_rate, equity_curve::text, created_at
		FROM backtest_records
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) UserByToken(token string) (*models.MUser, error) {
	var user models.MUser
	var createdAt int64

	err := d.DB.QueryRow(`
		SELECT id, name, email, token, created_at FROM users WHERE token = $1`, token).
		Scan(&user.ID, &user.Name, &user.Email, &user.Token, &createdAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = time.UnixMilli(createdAt)
	return &user, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CreateUser(user *models.MUser) error {
	_, err := d.DB.Exec(`
		INSERT INTO users (id, name, email, token, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Email, user.Token, user.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
