package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/deepscan/deepscan/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateScan(ctx context.Context, scan *models.ScanRecord) error
	GetScan(ctx context.Context, id uuid.UUID) (*models.ScanRecord, error)
	ListScans(ctx context.Context, filter models.ScanFilter) ([]*models.ScanRecord, int, error)
}
