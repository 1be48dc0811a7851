package admin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Field describes one displayed column of the list, show and export views.
// Value renders the display string for an entity.
type Field struct {
	Name  string
	Label string
	Value func(obj any) string
}

// Filter declares one datagrid filter. The query parameter f_<Name> feeds it;
// Column and Op translate the value into a query condition.
type Filter struct {
	Name   string
	Label  string
	Column string
	Op     string
}

// ModelManager abstracts persistence for one entity type. Find returns
// ErrObjectNotFound (possibly wrapped) for unknown identifiers; Update
// returns a LockError on a stale optimistic-lock version.
type ModelManager interface {
	NewInstance() any
	Find(ctx context.Context, id string) (any, error)
	Create(ctx context.Context, obj any) error
	Update(ctx context.Context, obj any) error
	Delete(ctx context.Context, obj any) error
	DeleteMatching(ctx context.Context, q *Query) (int64, error)
	List(ctx context.Context, q *Query) ([]any, int64, error)
	Stream(ctx context.Context, q *Query, batchSize int, fn func(obj any) error) error
}

// DescriptorConfig declares one admin. Code, Manager, FormBinder, ObjectID
// and at least one list field are mandatory.
type DescriptorConfig struct {
	Code             string
	Label            string
	EntityName       string
	Manager          ModelManager
	FormBinder       FormBinder
	ObjectID         func(obj any) string
	ObjectName       func(obj any) string
	ListFields       []Field
	ShowFields       []Field
	Filters          []Filter
	SortableColumns  map[string]string
	DefaultSort      string
	DefaultSortDesc  bool
	PageSize         int
	ExportFormats    []string
	BatchActions     []BatchAction
	SupportsPreview  bool
	ACLEnabled       bool
	RevisionsEnabled bool
	Subclasses       []string
	Templates        map[string]string
	PreHooks         map[string]PreHook
	BatchQueryHook   QueryHook
}

// Descriptor is the per-entity-type admin configuration. It is immutable
// once the registry is built; handlers only read from it.
type Descriptor struct {
	code             string
	label            string
	entityName       string
	manager          ModelManager
	formBinder       FormBinder
	objectID         func(obj any) string
	objectName       func(obj any) string
	listFields       []Field
	showFields       []Field
	filters          []Filter
	sortableColumns  map[string]string
	defaultSort      string
	defaultSortDesc  bool
	pageSize         int
	exportFormats    []string
	batchActions     *BatchRegistry
	supportsPreview  bool
	aclEnabled       bool
	revisionsEnabled bool
	subclasses       []string
	templates        map[string]string
	preHooks         map[string]PreHook
	batchQueryHook   QueryHook
}

const defaultDescriptorPageSize = 20

func NewDescriptor(cfg DescriptorConfig) (*Descriptor, error) {
	if cfg.Code == "" {
		return nil, NewConfigurationError("admin descriptor requires a code")
	}
	if cfg.Manager == nil {
		return nil, NewConfigurationError("admin %q requires a model manager", cfg.Code)
	}
	if cfg.FormBinder == nil {
		return nil, NewConfigurationError("admin %q requires a form binder", cfg.Code)
	}
	if cfg.ObjectID == nil {
		return nil, NewConfigurationError("admin %q requires an object id accessor", cfg.Code)
	}
	if len(cfg.ListFields) == 0 {
		return nil, NewConfigurationError("admin %q requires at least one list field", cfg.Code)
	}
	registry, err := NewBatchRegistry(cfg.BatchActions...)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		code:             cfg.Code,
		label:            cfg.Label,
		entityName:       cfg.EntityName,
		manager:          cfg.Manager,
		formBinder:       cfg.FormBinder,
		objectID:         cfg.ObjectID,
		objectName:       cfg.ObjectName,
		listFields:       append([]Field(nil), cfg.ListFields...),
		showFields:       append([]Field(nil), cfg.ShowFields...),
		filters:          append([]Filter(nil), cfg.Filters...),
		sortableColumns:  map[string]string{},
		defaultSort:      cfg.DefaultSort,
		defaultSortDesc:  cfg.DefaultSortDesc,
		pageSize:         cfg.PageSize,
		exportFormats:    append([]string(nil), cfg.ExportFormats...),
		batchActions:     registry,
		supportsPreview:  cfg.SupportsPreview,
		aclEnabled:       cfg.ACLEnabled,
		revisionsEnabled: cfg.RevisionsEnabled,
		subclasses:       append([]string(nil), cfg.Subclasses...),
		templates:        map[string]string{},
		preHooks:         map[string]PreHook{},
		batchQueryHook:   cfg.BatchQueryHook,
	}
	for k, v := range cfg.SortableColumns {
		d.sortableColumns[k] = v
	}
	for k, v := range cfg.Templates {
		d.templates[k] = v
	}
	for k, v := range cfg.PreHooks {
		d.preHooks[k] = v
	}
	if d.label == "" {
		d.label = titleize(d.code)
	}
	if d.entityName == "" {
		d.entityName = d.code
	}
	if d.pageSize <= 0 {
		d.pageSize = defaultDescriptorPageSize
	}
	if len(d.showFields) == 0 {
		d.showFields = d.listFields
	}
	return d, nil
}

func (d *Descriptor) Code() string       { return d.code }
func (d *Descriptor) Label() string      { return d.label }
func (d *Descriptor) EntityName() string { return d.entityName }

func (d *Descriptor) Manager() ModelManager { return d.manager }
func (d *Descriptor) FormBinder() FormBinder {
	return d.formBinder
}

func (d *Descriptor) NewInstance() any { return d.manager.NewInstance() }

// ObjectID renders the opaque identifier used in URLs and revisions.
func (d *Descriptor) ObjectID(obj any) string {
	if obj == nil {
		return ""
	}
	return d.objectID(obj)
}

// ObjectName renders the human-readable name used in flashes and JSON
// payloads. Falls back to "<entity> <id>".
func (d *Descriptor) ObjectName(obj any) string {
	if obj == nil {
		return ""
	}
	if d.objectName != nil {
		if name := d.objectName(obj); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%s %s", d.entityName, d.objectID(obj))
}

func (d *Descriptor) ListFields() []Field { return d.listFields }
func (d *Descriptor) ShowFields() []Field { return d.showFields }
func (d *Descriptor) Filters() []Filter   { return d.filters }

// SortColumn resolves a requested sort parameter against the allow-list.
func (d *Descriptor) SortColumn(param string) (string, bool) {
	col, ok := d.sortableColumns[param]
	return col, ok
}

func (d *Descriptor) DefaultSort() (string, bool) { return d.defaultSort, d.defaultSortDesc }
func (d *Descriptor) PageSize() int               { return d.pageSize }

func (d *Descriptor) ExportFormats() []string { return d.exportFormats }

func (d *Descriptor) HasExportFormat(format string) bool {
	for _, f := range d.exportFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (d *Descriptor) BatchActions() *BatchRegistry { return d.batchActions }
func (d *Descriptor) SupportsPreview() bool        { return d.supportsPreview }
func (d *Descriptor) ACLEnabled() bool             { return d.aclEnabled }
func (d *Descriptor) RevisionsEnabled() bool       { return d.revisionsEnabled }

func (d *Descriptor) Subclasses() []string { return d.subclasses }

func (d *Descriptor) HasSubclass(name string) bool {
	for _, s := range d.subclasses {
		if s == name {
			return true
		}
	}
	return false
}

// Template resolves the template for an action, honoring per-admin
// overrides and falling back to the shared admin templates.
func (d *Descriptor) Template(action string) string {
	if t, ok := d.templates[action]; ok {
		return t
	}
	return "admin/" + action
}

// PreHook returns the registered hook for an action, or nil.
func (d *Descriptor) PreHook(action string) PreHook { return d.preHooks[action] }

// BatchQuery applies the descriptor's batch query hook to a clone of q.
func (d *Descriptor) BatchQuery(ctx context.Context, actionName string, q *Query) *Query {
	if d.batchQueryHook == nil {
		return q
	}
	if out := d.batchQueryHook(ctx, actionName, q.Clone()); out != nil {
		return out
	}
	return q
}

// URL helpers. Routes are mounted under /admin/{code} by the router; these
// stay in sync with that layout.

func (d *Descriptor) ListURL() string { return "/admin/" + d.code }

func (d *Descriptor) CreateURL(subclass string) string {
	u := "/admin/" + d.code + "/create"
	if subclass != "" && d.HasSubclass(subclass) {
		u += "?subclass=" + url.QueryEscape(subclass)
	}
	return u
}

func (d *Descriptor) EditURL(id string) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/edit"
}

func (d *Descriptor) ShowURL(id string) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/show"
}

func (d *Descriptor) DeleteURL(id string) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/delete"
}

func (d *Descriptor) HistoryURL(id string) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/history"
}

func (d *Descriptor) HistoryViewURL(id string, seq int64) string {
	return d.HistoryURL(id) + "/" + strconv.FormatInt(seq, 10)
}

func (d *Descriptor) HistoryCompareURL(id string, base, compare int64) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/history-compare/" +
		strconv.FormatInt(base, 10) + "/" + strconv.FormatInt(compare, 10)
}

func (d *Descriptor) BatchURL() string { return "/admin/" + d.code + "/batch" }

func (d *Descriptor) ACLURL(id string) string {
	return "/admin/" + d.code + "/" + url.PathEscape(id) + "/acl"
}

func (d *Descriptor) ExportURL(format string) string {
	return "/admin/" + d.code + "/export?format=" + url.QueryEscape(format)
}

func titleize(code string) string {
	words := strings.Fields(strings.ReplaceAll(code, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// applyOverrides folds manifest values in. Called before the registry is
// frozen; see Manifest.Apply.
func (d *Descriptor) applyOverrides(o AdminOverrides) error {
	if o.Label != nil && *o.Label != "" {
		d.label = *o.Label
	}
	if o.PageSize != nil && *o.PageSize > 0 {
		d.pageSize = *o.PageSize
	}
	if o.ExportFormats != nil {
		d.exportFormats = append([]string(nil), o.ExportFormats...)
	}
	if o.Preview != nil {
		d.supportsPreview = *o.Preview
	}
	if o.Revisions != nil {
		d.revisionsEnabled = *o.Revisions
	}
	for _, name := range o.SkipConfirmation {
		if err := d.batchActions.setSkipConfirmation(name); err != nil {
			return err
		}
	}
	return nil
}
