// Package queue implements the serving-order ranking and wait-time
// estimation for pending donut orders.
//
// The input is expected in canonical queue order (premium customers first,
// then by submission time). Wait times come from replaying a delivery-batch
// simulation over the whole queue: whether an order fits the current batch
// depends on the cumulative quantity of every order ahead of it, which is
// why entries are recomputed per read instead of memoized per order.
package queue

import (
	"fmt"
	"time"

	"donutshop/models"
)

// Rank walks the priority-ordered input once and assigns each order its
// 1-based queue position and estimated wait.
//
// The wait starts at the distance from now to the next assumed delivery
// (lastDelivery + interval) and grows by one interval every time an order
// no longer fits the simulated batch. An overdue delivery yields a negative
// starting wait, which is rendered as-is rather than clamped.
func Rank(orders []models.Order, lastDelivery, now time.Time, interval time.Duration, maxSize int, premiumCutoff int64) []models.QueueEntry {
	next := lastDelivery.Add(interval)
	wait := int64(next.Sub(now) / time.Second)
	step := int64(interval / time.Second)

	entries := make([]models.QueueEntry, 0, len(orders))
	fill := 0
	for i, o := range orders {
		if candidate := fill + o.Quantity; candidate <= maxSize {
			fill = candidate
		} else {
			// Order starts the next simulated batch.
			fill = o.Quantity
			wait += step
		}
		entries = append(entries, models.QueueEntry{
			Order:         o,
			IsPriority:    o.IsPriority(premiumCutoff),
			QueuePosition: i + 1,
			EstimatedWait: FormatWait(wait),
		})
	}
	return entries
}

// FirstBatch returns the longest prefix of the priority-ordered input whose
// cumulative quantity fits into one delivery.
func FirstBatch(orders []models.Order, maxSize int) []models.Order {
	batch := make([]models.Order, 0, len(orders))
	fill := 0
	for _, o := range orders {
		if fill+o.Quantity > maxSize {
			break
		}
		fill += o.Quantity
		batch = append(batch, o)
	}
	return batch
}

// FormatWait renders a wait in seconds as "M:SS" with total minutes and
// zero-padded seconds (125 -> "2:05"). Negative waits keep a single leading
// sign: -65 -> "-1:05".
func FormatWait(seconds int64) string {
	neg := seconds < 0
	if neg {
		seconds = -seconds
	}
	s := fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	if neg {
		return "-" + s
	}
	return s
}
