package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"donutshop/internal/testutil"
	"donutshop/models"
)

const testCutoff = int64(1000)

func newTestRepo(t *testing.T, name string) *OrderRepository {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)
	return NewOrderRepository(d, testCutoff)
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t, "create_get")
	ctx := context.Background()
	at := time.Now()

	o, err := repo.Create(ctx, 42, 10, at)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.ID == 0 {
		t.Fatal("expected assigned order id")
	}

	got, err := repo.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.ClientID != 42 || got.Quantity != 10 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got.SubmittedAt.Equal(at) {
		t.Fatalf("submitted_at mismatch: want %v, got %v", at, got.SubmittedAt)
	}

	byClient, err := repo.GetByClient(ctx, 42)
	if err != nil {
		t.Fatalf("get by client: %v", err)
	}
	if byClient == nil || byClient.ID != o.ID {
		t.Fatalf("unexpected order by client: %+v", byClient)
	}

	if missing, err := repo.GetByID(ctx, o.ID+1); err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %+v err=%v", missing, err)
	}
}

func TestCreate_DuplicateClient(t *testing.T) {
	repo := newTestRepo(t, "dup_client")
	ctx := context.Background()

	if _, err := repo.Create(ctx, 7, 5, time.Now()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Quantity does not matter, the client is what counts.
	_, err := repo.Create(ctx, 7, 1, time.Now())
	if !errors.Is(err, models.ErrDuplicateClient) {
		t.Fatalf("expected ErrDuplicateClient, got %v", err)
	}

	n, err := repo.CountPending(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pending order, got %d", n)
	}
}

func TestExistsAndDelete(t *testing.T) {
	repo := newTestRepo(t, "exists_delete")
	ctx := context.Background()

	if err := repo.DeleteByClient(ctx, 9); !errors.Is(err, models.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	if _, err := repo.Create(ctx, 9, 3, time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	exists, err := repo.ExistsByClient(ctx, 9)
	if err != nil || !exists {
		t.Fatalf("expected pending order, exists=%v err=%v", exists, err)
	}

	if err := repo.DeleteByClient(ctx, 9); err != nil {
		t.Fatalf("delete: %v", err)
	}
	exists, err = repo.ExistsByClient(ctx, 9)
	if err != nil || exists {
		t.Fatalf("expected no pending order after delete, exists=%v err=%v", exists, err)
	}
}

func TestListByPriority_Ordering(t *testing.T) {
	repo := newTestRepo(t, "priority_order")
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Interleave premium and regular clients; 999 is premium, 1000 is not.
	inserts := []struct {
		clientID int64
		offset   time.Duration
	}{
		{1500, 0},
		{999, 10 * time.Second},
		{1000, 20 * time.Second},
		{5, 30 * time.Second},
	}
	for _, in := range inserts {
		if _, err := repo.Create(ctx, in.clientID, 1, base.Add(in.offset)); err != nil {
			t.Fatalf("create %d: %v", in.clientID, err)
		}
	}

	list, err := repo.ListByPriority(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{999, 5, 1500, 1000}
	if len(list) != len(want) {
		t.Fatalf("expected %d orders, got %d", len(want), len(list))
	}
	for i, clientID := range want {
		if list[i].ClientID != clientID {
			t.Errorf("position %d: expected client %d, got %d", i+1, clientID, list[i].ClientID)
		}
	}
}

func TestListByPriority_StableTieBreak(t *testing.T) {
	repo := newTestRepo(t, "tie_break")
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// Identical timestamps: insertion order must hold across repeated scans.
	clients := []int64{2000, 2001, 2002}
	for _, c := range clients {
		if _, err := repo.Create(ctx, c, 1, at); err != nil {
			t.Fatalf("create %d: %v", c, err)
		}
	}

	for round := 0; round < 3; round++ {
		list, err := repo.ListByPriority(ctx)
		if err != nil {
			t.Fatalf("list round %d: %v", round, err)
		}
		for i, c := range clients {
			if list[i].ClientID != c {
				t.Fatalf("round %d position %d: expected client %d, got %d", round, i+1, c, list[i].ClientID)
			}
		}
	}
}

func TestDeliveryCheckpoint(t *testing.T) {
	repo := newTestRepo(t, "checkpoint")
	ctx := context.Background()

	// The migration seeds an initial checkpoint.
	initial, err := repo.LastDeliveryAt(ctx)
	if err != nil {
		t.Fatalf("read initial checkpoint: %v", err)
	}
	if initial.IsZero() {
		t.Fatal("expected seeded checkpoint")
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.SetLastDeliveryAt(ctx, at); err != nil {
		t.Fatalf("set checkpoint: %v", err)
	}
	got, err := repo.LastDeliveryAt(ctx)
	if err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("checkpoint mismatch: want %v, got %v", at, got)
	}
}

func TestFinishDelivery(t *testing.T) {
	repo := newTestRepo(t, "finish_delivery")
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	quantities := []int{5, 3, 6, 50, 3}
	for i, q := range quantities {
		if _, err := repo.Create(ctx, int64(2000+i), q, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("create order %d: %v", i, err)
		}
	}

	now := base.Add(time.Minute)
	batch, err := repo.FinishDelivery(ctx, 50, now)
	if err != nil {
		t.Fatalf("finish delivery: %v", err)
	}
	// First three fit (5+3+6=14), the 50 starts the next batch.
	if len(batch) != 3 {
		t.Fatalf("expected batch of 3, got %d", len(batch))
	}

	remaining, err := repo.ListByPriority(ctx)
	if err != nil {
		t.Fatalf("list after finish: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining orders, got %d", len(remaining))
	}
	for _, o := range remaining {
		for _, cleared := range batch {
			if o.ID == cleared.ID {
				t.Fatalf("order %d both cleared and remaining", o.ID)
			}
		}
	}

	checkpoint, err := repo.LastDeliveryAt(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if !checkpoint.Equal(now) {
		t.Fatalf("checkpoint not advanced: want %v, got %v", now, checkpoint)
	}
}

func TestFinishDelivery_EmptyQueue(t *testing.T) {
	repo := newTestRepo(t, "finish_empty")
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	batch, err := repo.FinishDelivery(ctx, 50, now)
	if err != nil {
		t.Fatalf("finish delivery: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty batch, got %d", len(batch))
	}
	checkpoint, err := repo.LastDeliveryAt(ctx)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if !checkpoint.Equal(now) {
		t.Fatalf("checkpoint not advanced on empty queue")
	}
}
