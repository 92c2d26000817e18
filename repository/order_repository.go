package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"donutshop/internal/queue"
	"donutshop/models"
)

// OrderRepository persists pending orders and the delivery checkpoint in
// SQLite. The priority cutoff is applied at query time only; it is never
// stored with the order.
type OrderRepository struct {
	db            *sql.DB
	premiumCutoff int64
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sql.DB, premiumCutoff int64) *OrderRepository {
	return &OrderRepository{db: db, premiumCutoff: premiumCutoff}
}

const orderColumns = `id, client_id, quantity, submitted_at`

// orderByPriority sorts premium clients first, then by submission time.
// Ties on submitted_at fall back to the autoincrement id, so insertion
// order is stable across repeated scans.
const orderByPriority = `ORDER BY (client_id < ?) DESC, submitted_at ASC, id ASC`

// Create inserts a new pending order for the client. It fails with
// models.ErrDuplicateClient when the client already has one; the check and
// the insert run in a single transaction, with the UNIQUE index on
// client_id as a backstop against concurrent submissions.
func (r *OrderRepository) Create(ctx context.Context, clientID int64, quantity int, at time.Time) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin create order")
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE client_id = ?)`, clientID).Scan(&exists); err != nil {
		return nil, errors.Wrap(err, "check pending order")
	}
	if exists {
		return nil, models.ErrDuplicateClient
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO orders (client_id, quantity, submitted_at) VALUES (?,?,?)`,
		clientID, quantity, at.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateClient
		}
		return nil, errors.Wrap(err, "insert order")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "order id")
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateClient
		}
		return nil, errors.Wrap(err, "commit create order")
	}

	return &models.Order{ID: id, ClientID: clientID, Quantity: quantity, SubmittedAt: at}, nil
}

// GetByID fetches an order by its ID. Returns nil when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

// GetByClient fetches the client's pending order. Returns nil when absent.
func (r *OrderRepository) GetByClient(ctx context.Context, clientID int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE client_id = ?`, clientID)
}

// ExistsByClient reports whether the client has a pending order.
func (r *OrderRepository) ExistsByClient(ctx context.Context, clientID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE client_id = ?)`, clientID).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "exists by client")
	}
	return exists, nil
}

// DeleteByClient removes the client's pending order. Fails with
// models.ErrOrderNotFound when there is none.
func (r *OrderRepository) DeleteByClient(ctx context.Context, clientID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE client_id = ?`, clientID)
	if err != nil {
		return errors.Wrap(err, "delete by client")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

// ListByPriority returns every pending order in canonical queue order:
// premium clients first, then oldest submission first.
func (r *OrderRepository) ListByPriority(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+orderByPriority, r.premiumCutoff)
	if err != nil {
		return nil, errors.Wrap(err, "list by priority")
	}
	defer rows.Close()
	return scanOrders(rows)
}

// CountPending returns the number of pending orders.
func (r *OrderRepository) CountPending(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count pending")
	}
	return n, nil
}

// LastDeliveryAt reads the delivery checkpoint.
func (r *OrderRepository) LastDeliveryAt(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var nanos int64
	err := r.db.QueryRowContext(ctx, `SELECT last_delivery_at FROM delivery_state WHERE id = 1`).Scan(&nanos)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "read delivery checkpoint")
	}
	return time.Unix(0, nanos), nil
}

// SetLastDeliveryAt advances the delivery checkpoint.
func (r *OrderRepository) SetLastDeliveryAt(ctx context.Context, t time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE delivery_state SET last_delivery_at = ? WHERE id = 1`, t.UnixNano())
	return errors.Wrap(err, "write delivery checkpoint")
}

// FinishDelivery computes the next delivery batch, removes exactly those
// orders and advances the checkpoint, all in one transaction so that no
// concurrent write can change the batch between compute and clear. The
// cleared orders are returned in queue order.
func (r *OrderRepository) FinishDelivery(ctx context.Context, maxSize int, now time.Time) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin finish delivery")
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders `+orderByPriority, r.premiumCutoff)
	if err != nil {
		return nil, errors.Wrap(err, "scan queue")
	}
	all, err := scanOrders(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	batch := queue.FirstBatch(all, maxSize)
	if len(batch) > 0 {
		ids := make([]interface{}, len(batch))
		ph := make([]string, len(batch))
		for i, o := range batch {
			ids[i] = o.ID
			ph[i] = "?"
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id IN (`+strings.Join(ph, ",")+`)`, ids...); err != nil {
			return nil, errors.Wrap(err, "clear delivery batch")
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE delivery_state SET last_delivery_at = ? WHERE id = 1`, now.UnixNano()); err != nil {
		return nil, errors.Wrap(err, "advance delivery checkpoint")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit finish delivery")
	}
	return batch, nil
}

func (r *OrderRepository) getOne(ctx context.Context, query string, arg int64) (*models.Order, error) {
	var o models.Order
	var nanos int64
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&o.ID, &o.ClientID, &o.Quantity, &nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get order")
	}
	o.SubmittedAt = time.Unix(0, nanos)
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var nanos int64
		if err := rows.Scan(&o.ID, &o.ClientID, &o.Quantity, &nanos); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		o.SubmittedAt = time.Unix(0, nanos)
		orders = append(orders, o)
	}
	return orders, errors.Wrap(rows.Err(), "scan orders")
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
