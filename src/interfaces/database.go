package interfaces

import "trading-simulator/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveRecord appends one immutable backtest record.
	SaveRecord(record *models.MBacktestRecord) error

	// -----------------------------------------------------------------------------

	// RecentRecords returns up to limit records for a user, newest first.
	RecentRecords(userID string, limit int) ([]models.MBacktestRecord, error)

	// -----------------------------------------------------------------------------

	// RecordsByUser returns every record owned by a user.
	RecordsByUser(userID string) ([]models.MBacktestRecord, error)

	// -----------------------------------------------------------------------------

	// UserByToken resolves an API token to a user, or returns an error.
	UserByToken(token string) (*models.MUser, error)

	// -----------------------------------------------------------------------------

	// CreateUser inserts a new user row.
	CreateUser(user *models.MUser) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
