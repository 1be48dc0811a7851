package admin

import (
	"net/http"
	"strconv"
	"strings"
)

// Datagrid captures the parsed list-view state: applied filter values, sort
// and paging, plus the query they produce. It drives the list view, the
// batch all-elements query and exports.
type Datagrid struct {
	Filters  []FilterValue
	Page     int
	PageSize int
	SortBy   string
	SortDesc bool
	ListMode string
	Query    *Query
}

// FilterValue pairs a declared filter with the value this request supplied.
type FilterValue struct {
	Filter Filter
	Value  string
}

const (
	defaultListMode   = "list"
	maxPageSize       = 100
	filterParamPrefix = "f_"
)

// BuildDatagrid parses page, page_size, sort_by, sort_order, _list_mode and
// the declared f_<name> filter parameters. Invalid values fall back to the
// descriptor defaults rather than failing the request; sort columns are
// resolved against the allow-list.
func (d *Descriptor) BuildDatagrid(r *http.Request) *Datagrid {
	q := r.URL.Query()

	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			page = v
		}
	}
	pageSize := d.pageSize
	if raw := strings.TrimSpace(q.Get("page_size")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			pageSize = v
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	sortBy := strings.ToLower(strings.TrimSpace(q.Get("sort_by")))
	sortColumn, ok := d.SortColumn(sortBy)
	sortDesc := d.defaultSortDesc
	if !ok {
		sortBy = ""
		sortColumn = d.defaultSort
	} else {
		switch strings.ToLower(strings.TrimSpace(q.Get("sort_order"))) {
		case "desc":
			sortDesc = true
		case "asc":
			sortDesc = false
		}
	}

	listMode := strings.TrimSpace(q.Get("_list_mode"))
	if listMode != "list" && listMode != "mosaic" {
		listMode = defaultListMode
	}

	grid := &Datagrid{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
		SortDesc: sortDesc,
		ListMode: listMode,
	}

	var conds []Condition
	for _, f := range d.filters {
		value := strings.TrimSpace(q.Get(filterParamPrefix + f.Name))
		grid.Filters = append(grid.Filters, FilterValue{Filter: f, Value: value})
		if value == "" {
			continue
		}
		conds = append(conds, Condition{Column: f.Column, Op: f.Op, Value: value})
	}

	grid.Query = &Query{
		Conditions: conds,
		SortColumn: sortColumn,
		SortDesc:   sortDesc,
		Page:       page,
		PageSize:   pageSize,
	}
	return grid
}

// CacheKey folds the datagrid state into a stable string for the list cache.
func (g *Datagrid) CacheKey() string {
	var b strings.Builder
	b.WriteString("p=")
	b.WriteString(strconv.Itoa(g.Page))
	b.WriteString(";ps=")
	b.WriteString(strconv.Itoa(g.PageSize))
	b.WriteString(";s=")
	b.WriteString(g.SortBy)
	if g.SortDesc {
		b.WriteString(";d=1")
	}
	for _, fv := range g.Filters {
		if fv.Value == "" {
			continue
		}
		b.WriteString(";f:")
		b.WriteString(fv.Filter.Name)
		b.WriteString("=")
		b.WriteString(fv.Value)
	}
	return b.String()
}
