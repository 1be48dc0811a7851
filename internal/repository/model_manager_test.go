package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
)

func newProductManagerForTest(t *testing.T) (*GormModelManager, func() *domain.Product) {
	t.Helper()
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		t.Fatalf("migrate product: %v", err)
	}
	mgr := NewGormModelManager(db, "product",
		func() any { return &domain.Product{} },
		func(obj any) string { return strconv.FormatUint(uint64(obj.(*domain.Product).ID), 10) },
	)
	seq := 0
	seed := func() *domain.Product {
		seq++
		p := &domain.Product{SKU: fmt.Sprintf("SKU-%d", seq), Name: "Widget", Price: 10, Status: domain.ProductStatusDraft}
		if err := mgr.Create(context.Background(), p); err != nil {
			t.Fatalf("seed product: %v", err)
		}
		return p
	}
	return mgr, seed
}

func TestModelManagerFindNotFound(t *testing.T) {
	mgr, _ := newProductManagerForTest(t)

	_, err := mgr.Find(context.Background(), "4242")
	if !errors.Is(err, admin.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestModelManagerCreateFindUpdateDelete(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()

	p := seed()
	id := strconv.FormatUint(uint64(p.ID), 10)

	loaded, err := mgr.Find(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got := loaded.(*domain.Product)
	if got.SKU != p.SKU {
		t.Fatalf("sku mismatch: got %q want %q", got.SKU, p.SKU)
	}

	got.Name = "Renamed"
	if err := mgr.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := mgr.Find(ctx, id)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if reloaded.(*domain.Product).Name != "Renamed" {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	if err := mgr.Delete(ctx, reloaded); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := mgr.Find(ctx, id); !errors.Is(err, admin.ErrObjectNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestModelManagerUpdateDetectsStaleVersion(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()

	p := seed()
	id := strconv.FormatUint(uint64(p.ID), 10)

	// Two operators load the same row.
	firstRaw, err := mgr.Find(ctx, id)
	if err != nil {
		t.Fatalf("first find: %v", err)
	}
	secondRaw, err := mgr.Find(ctx, id)
	if err != nil {
		t.Fatalf("second find: %v", err)
	}
	first := firstRaw.(*domain.Product)
	second := secondRaw.(*domain.Product)

	first.Name = "first wins"
	if err := mgr.Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}

	second.Name = "second loses"
	err = mgr.Update(ctx, second)
	var lockErr *admin.LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockError, got %v", err)
	}
	if lockErr.ObjectID != id {
		t.Fatalf("lock error object id: got %q want %q", lockErr.ObjectID, id)
	}

	reloaded, err := mgr.Find(ctx, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.(*domain.Product).Name != "first wins" {
		t.Fatalf("stale write overwrote fresh data: %+v", reloaded)
	}
}

func TestModelManagerUpdateDeletedObjectIsNotFound(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()

	p := seed()
	loaded, err := mgr.Find(ctx, strconv.FormatUint(uint64(p.ID), 10))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := mgr.Delete(ctx, loaded); err != nil {
		t.Fatalf("delete: %v", err)
	}

	loaded.(*domain.Product).Name = "ghost"
	if err := mgr.Update(ctx, loaded); !errors.Is(err, admin.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound on update of deleted row, got %v", err)
	}
}

func TestModelManagerListFiltersSortsAndPaginates(t *testing.T) {
	mgr, _ := newProductManagerForTest(t)
	ctx := context.Background()

	names := []string{"alpha widget", "beta widget", "gamma gadget", "delta widget"}
	for i, name := range names {
		p := &domain.Product{SKU: fmt.Sprintf("L-%d", i), Name: name, Price: float64(i + 1), Status: domain.ProductStatusPublished}
		if err := mgr.Create(ctx, p); err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
	}

	q := &admin.Query{
		Conditions: []admin.Condition{{Column: "name", Op: admin.OpContains, Value: "widget"}},
		SortColumn: "price",
		SortDesc:   true,
		Page:       1,
		PageSize:   2,
	}
	items, total, err := mgr.List(ctx, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 widgets total, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("expected page of 2, got %d", len(items))
	}
	firstPrice := items[0].(*domain.Product).Price
	secondPrice := items[1].(*domain.Product).Price
	if firstPrice < secondPrice {
		t.Fatalf("expected descending price order: %v then %v", firstPrice, secondPrice)
	}
}

func TestModelManagerListRestrictedToIDs(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()

	first := seed()
	seed()
	third := seed()

	ids := []string{
		strconv.FormatUint(uint64(first.ID), 10),
		strconv.FormatUint(uint64(third.ID), 10),
	}
	q := &admin.Query{}
	q.RestrictToIDs(ids)
	items, total, err := mgr.List(ctx, q)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected exactly the 2 selected rows, got total=%d len=%d", total, len(items))
	}
}

func TestModelManagerDeleteMatching(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()

	first := seed()
	seed()
	seed()

	if _, err := mgr.DeleteMatching(ctx, nil); err == nil {
		t.Fatal("expected error for nil query")
	}

	delQ := &admin.Query{}
	delQ.RestrictToIDs([]string{strconv.FormatUint(uint64(first.ID), 10)})
	n, err := mgr.DeleteMatching(ctx, delQ)
	if err != nil {
		t.Fatalf("delete matching ids: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}

	// Unfiltered query wipes the rest.
	n, err = mgr.DeleteMatching(ctx, &admin.Query{})
	if err != nil {
		t.Fatalf("delete matching all: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows deleted, got %d", n)
	}
	_, total, err := mgr.List(ctx, &admin.Query{})
	if err != nil {
		t.Fatalf("list after wipe: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected empty table, got %d rows", total)
	}
}

func TestModelManagerStreamWalksAllRowsInBatches(t *testing.T) {
	mgr, _ := newProductManagerForTest(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := &domain.Product{SKU: fmt.Sprintf("S-%d", i), Name: fmt.Sprintf("P%d", i), Status: domain.ProductStatusDraft}
		if err := mgr.Create(ctx, p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	var seen []string
	err := mgr.Stream(ctx, &admin.Query{}, 2, func(obj any) error {
		seen = append(seen, obj.(*domain.Product).SKU)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 streamed rows, got %d (%v)", len(seen), seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i-1] >= seen[i] {
			t.Fatalf("expected ascending id order, got %v", seen)
		}
	}
}

func TestModelManagerStreamStopsOnCallbackError(t *testing.T) {
	mgr, seed := newProductManagerForTest(t)
	ctx := context.Background()
	seed()
	seed()

	boom := errors.New("boom")
	count := 0
	err := mgr.Stream(ctx, &admin.Query{}, 10, func(any) error {
		count++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stream to stop after first row, got %d calls", count)
	}
}
