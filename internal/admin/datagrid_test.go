package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

type fixtureEntity struct {
	ID   uint
	Name string
}

type fixtureManager struct{}

func (fixtureManager) NewInstance() any                                  { return &fixtureEntity{} }
func (fixtureManager) Find(context.Context, string) (any, error)         { return nil, ErrObjectNotFound }
func (fixtureManager) Create(context.Context, any) error                 { return nil }
func (fixtureManager) Update(context.Context, any) error                 { return nil }
func (fixtureManager) Delete(context.Context, any) error                 { return nil }
func (fixtureManager) DeleteMatching(context.Context, *Query) (int64, error) { return 0, nil }
func (fixtureManager) List(context.Context, *Query) ([]any, int64, error) {
	return nil, 0, nil
}
func (fixtureManager) Stream(context.Context, *Query, int, func(any) error) error { return nil }

type fixtureBinder struct{}

func (fixtureBinder) Fields() []FormField { return []FormField{{Name: "name", Label: "Name"}} }
func (fixtureBinder) Bind(_ *http.Request, _ string, _ any) *FormState {
	return NewFormState()
}

func newFixtureDescriptor(t *testing.T, mutate func(*DescriptorConfig)) *Descriptor {
	t.Helper()
	cfg := DescriptorConfig{
		Code:       "widgets",
		EntityName: "widget",
		Manager:    fixtureManager{},
		FormBinder: fixtureBinder{},
		ObjectID: func(obj any) string {
			return strconv.FormatUint(uint64(obj.(*fixtureEntity).ID), 10)
		},
		ListFields: []Field{{Name: "name", Label: "Name", Value: func(obj any) string {
			return obj.(*fixtureEntity).Name
		}}},
		Filters: []Filter{
			{Name: "name", Label: "Name", Column: "name", Op: OpContains},
			{Name: "status", Label: "Status", Column: "status", Op: OpEq},
		},
		SortableColumns: map[string]string{"name": "name", "created": "created_at"},
		DefaultSort:     "created_at",
		DefaultSortDesc: true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := NewDescriptor(cfg)
	if err != nil {
		t.Fatalf("build descriptor: %v", err)
	}
	return d
}

func TestBuildDatagridDefaults(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	r := httptest.NewRequest("GET", "/admin/widgets", nil)
	grid := d.BuildDatagrid(r)
	if grid.Page != 1 || grid.PageSize != defaultDescriptorPageSize {
		t.Fatalf("unexpected paging defaults: page=%d size=%d", grid.Page, grid.PageSize)
	}
	if grid.Query.SortColumn != "created_at" || !grid.Query.SortDesc {
		t.Fatalf("unexpected default sort: %+v", grid.Query)
	}
	if len(grid.Query.Conditions) != 0 {
		t.Fatalf("no filters supplied, got conditions %+v", grid.Query.Conditions)
	}
	if grid.ListMode != "list" {
		t.Fatalf("unexpected list mode %q", grid.ListMode)
	}
}

func TestBuildDatagridParsesFiltersAndSort(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	r := httptest.NewRequest("GET", "/admin/widgets?page=3&page_size=10&sort_by=name&sort_order=asc&f_name=gear&f_status=", nil)
	grid := d.BuildDatagrid(r)
	if grid.Page != 3 || grid.PageSize != 10 {
		t.Fatalf("unexpected paging: page=%d size=%d", grid.Page, grid.PageSize)
	}
	if grid.Query.SortColumn != "name" || grid.Query.SortDesc {
		t.Fatalf("unexpected sort: %+v", grid.Query)
	}
	if len(grid.Query.Conditions) != 1 {
		t.Fatalf("expected one condition, got %+v", grid.Query.Conditions)
	}
	cond := grid.Query.Conditions[0]
	if cond.Column != "name" || cond.Op != OpContains || cond.Value != "gear" {
		t.Fatalf("unexpected condition: %+v", cond)
	}
}

func TestBuildDatagridRejectsUnknownSortAndCapsPageSize(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	r := httptest.NewRequest("GET", "/admin/widgets?sort_by=password&page_size=9999&page=-2", nil)
	grid := d.BuildDatagrid(r)
	if grid.Query.SortColumn != "created_at" {
		t.Fatalf("unknown sort should fall back to default, got %q", grid.Query.SortColumn)
	}
	if grid.PageSize != maxPageSize {
		t.Fatalf("page size should be capped at %d, got %d", maxPageSize, grid.PageSize)
	}
	if grid.Page != 1 {
		t.Fatalf("invalid page should fall back to 1, got %d", grid.Page)
	}
}

func TestDatagridCacheKeyIsStable(t *testing.T) {
	d := newFixtureDescriptor(t, nil)
	r1 := httptest.NewRequest("GET", "/admin/widgets?page=2&f_name=gear", nil)
	r2 := httptest.NewRequest("GET", "/admin/widgets?f_name=gear&page=2", nil)
	if d.BuildDatagrid(r1).CacheKey() != d.BuildDatagrid(r2).CacheKey() {
		t.Fatal("same state should produce the same cache key")
	}
	r3 := httptest.NewRequest("GET", "/admin/widgets?page=2&f_name=cog", nil)
	if d.BuildDatagrid(r1).CacheKey() == d.BuildDatagrid(r3).CacheKey() {
		t.Fatal("different filters should produce different cache keys")
	}
}

func TestQueryCloneIsIndependent(t *testing.T) {
	q := &Query{IDs: []string{"1"}, Conditions: []Condition{{Column: "status", Op: OpEq, Value: "draft"}}, Page: 2, PageSize: 20}
	cp := q.Clone()
	cp.RestrictToIDs([]string{"9"})
	cp.ClearPagination()
	cp.Conditions[0].Value = "published"
	if q.IDs[0] != "1" || q.Page != 2 || q.Conditions[0].Value != "draft" {
		t.Fatalf("clone mutated the original: %+v", q)
	}
	if cp.Paginated() {
		t.Fatal("cleared clone should not be paginated")
	}
	if !q.Paginated() {
		t.Fatal("original should stay paginated")
	}
}
