package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mfalicoff/kosync/internal/core/domain"
)

// ProgressInput carries the client-supplied fields of one progress update.
// All fields are opaque to the server; the stored timestamp is never
// client-controlled.
type ProgressInput struct {
	Progress   string
	Percentage decimal.Decimal
	Device     string
	DeviceID   string
}

type SyncService interface {
	UpdateProgress(ctx context.Context, username, documentHash string, input ProgressInput) (*domain.Progress, error)
	GetProgress(ctx context.Context, username, documentHash string) (*domain.Progress, error)
}
