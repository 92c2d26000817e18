// Package service implements the order-queue operations on top of the
// order repository and the queue ranker.
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"donutshop/internal/config"
	"donutshop/internal/queue"
	"donutshop/models"
	"donutshop/repository"
)

// OrderService coordinates order submission, queue reads and deliveries.
type OrderService struct {
	repo repository.OrderRepositoryI
	cfg  config.QueueConfig
	now  func() time.Time
}

// New creates an OrderService with the given repository and queue settings.
func New(repo repository.OrderRepositoryI, cfg config.QueueConfig) *OrderService {
	return &OrderService{repo: repo, cfg: cfg, now: time.Now}
}

// Submit places a new order and returns its queue entry. The quantity must
// be positive and fit into one delivery: orders cannot be split, so an
// order above the maximum delivery size could never be served.
func (s *OrderService) Submit(ctx context.Context, clientID int64, quantity int) (models.QueueEntry, error) {
	if quantity <= 0 {
		return models.QueueEntry{}, models.ErrInvalidQuantity
	}
	if quantity > s.cfg.MaxDeliverySize {
		return models.QueueEntry{}, models.ErrOrderTooLarge
	}

	o, err := s.repo.Create(ctx, clientID, quantity, s.now())
	if err != nil {
		return models.QueueEntry{}, err
	}

	entry, err := s.findEntry(ctx, func(e models.QueueEntry) bool { return e.Order.ID == o.ID })
	if err != nil {
		// We just inserted the order; not finding it means a concurrent
		// delete won the race or the store is broken.
		return models.QueueEntry{}, errors.Wrap(err, "rank new order")
	}
	return entry, nil
}

// ListQueue returns the full ranked queue. A limit above zero truncates the
// result to the first entries.
func (s *OrderService) ListQueue(ctx context.Context, limit int) ([]models.QueueEntry, error) {
	entries, err := s.rankAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// GetByOrderID returns the queue entry for the given order id.
func (s *OrderService) GetByOrderID(ctx context.Context, id int64) (models.QueueEntry, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.QueueEntry{}, err
	}
	if o == nil {
		return models.QueueEntry{}, models.ErrOrderNotFound
	}
	return s.findEntry(ctx, func(e models.QueueEntry) bool { return e.Order.ID == id })
}

// GetByClientID returns the queue entry for the client's pending order.
func (s *OrderService) GetByClientID(ctx context.Context, clientID int64) (models.QueueEntry, error) {
	o, err := s.repo.GetByClient(ctx, clientID)
	if err != nil {
		return models.QueueEntry{}, err
	}
	if o == nil {
		return models.QueueEntry{}, models.ErrOrderNotFound
	}
	return s.findEntry(ctx, func(e models.QueueEntry) bool { return e.Order.ClientID == clientID })
}

// DeleteByClient removes the client's pending order.
func (s *OrderService) DeleteByClient(ctx context.Context, clientID int64) error {
	return s.repo.DeleteByClient(ctx, clientID)
}

// NextDelivery returns the orders of the next delivery: the prefix of the
// queue whose cumulative quantity fits the maximum delivery size.
func (s *OrderService) NextDelivery(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListByPriority(ctx)
	if err != nil {
		return nil, err
	}
	return queue.FirstBatch(orders, s.cfg.MaxDeliverySize), nil
}

// FinishDelivery removes the current next-delivery batch and advances the
// delivery checkpoint. Subsequent queue reads project wait times from the
// new checkpoint.
func (s *OrderService) FinishDelivery(ctx context.Context) ([]models.Order, error) {
	return s.repo.FinishDelivery(ctx, s.cfg.MaxDeliverySize, s.now())
}

// rankAll loads the checkpoint and the ordered scan, then runs the batching
// simulation once over the whole queue.
func (s *OrderService) rankAll(ctx context.Context) ([]models.QueueEntry, error) {
	last, err := s.repo.LastDeliveryAt(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListByPriority(ctx)
	if err != nil {
		return nil, err
	}
	return queue.Rank(orders, last, s.now(), s.cfg.DeliveryInterval, s.cfg.MaxDeliverySize, s.cfg.PremiumCutoff), nil
}

// findEntry ranks the queue once and returns the first matching entry.
// The ranked list is built a single time; the match is a plain index scan,
// not a per-candidate recomputation.
func (s *OrderService) findEntry(ctx context.Context, match func(models.QueueEntry) bool) (models.QueueEntry, error) {
	entries, err := s.rankAll(ctx)
	if err != nil {
		return models.QueueEntry{}, err
	}
	for _, e := range entries {
		if match(e) {
			return e, nil
		}
	}
	return models.QueueEntry{}, models.ErrOrderNotFound
}
