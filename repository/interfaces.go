package repository

import (
	"context"
	"time"

	"donutshop/models"
)

// OrderRepositoryI defines the persistence operations for pending orders
// and the delivery checkpoint.
type OrderRepositoryI interface {
	Create(ctx context.Context, clientID int64, quantity int, at time.Time) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByClient(ctx context.Context, clientID int64) (*models.Order, error)
	ExistsByClient(ctx context.Context, clientID int64) (bool, error)
	DeleteByClient(ctx context.Context, clientID int64) error
	ListByPriority(ctx context.Context) ([]models.Order, error)
	CountPending(ctx context.Context) (int, error)
	LastDeliveryAt(ctx context.Context) (time.Time, error)
	SetLastDeliveryAt(ctx context.Context, t time.Time) error
	FinishDelivery(ctx context.Context, maxSize int, now time.Time) ([]models.Order, error)
}
