package handler

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/events"
	"github.com/stewardhq/steward/internal/http/middleware"
	"github.com/stewardhq/steward/internal/http/render"
	"github.com/stewardhq/steward/internal/http/response"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
	"github.com/stewardhq/steward/internal/security"
	"github.com/stewardhq/steward/internal/service"
)

const (
	exportStreamBatchSize = 500
	paginationWindow      = 5
)

// capability names the templates key their Can map on.
var templateCapabilities = map[string]admin.Capability{
	"list":   admin.CapList,
	"create": admin.CapCreate,
	"edit":   admin.CapEdit,
	"delete": admin.CapDelete,
	"view":   admin.CapView,
	"export": admin.CapExport,
}

// CRUDHandler serves every admin action for every registered descriptor.
// It owns no per-request state: the descriptor is resolved from the route on
// each call and all collaborators are injected once at construction.
type CRUDHandler struct {
	registry        *admin.Registry
	authz           admin.Authorizer
	renderer        *render.Renderer
	revisions       *service.RevisionService
	acl             *service.ACLService
	exporter        *service.Exporter
	exportStorage   service.ExportStorage
	listCache       service.AdminListCacheStore
	publisher       events.Publisher
	operatorRepo    repository.OperatorRepository
	roleRepo        repository.RoleRepository
	logger          *slog.Logger
	debug           bool
	listCacheTTL    time.Duration
	archiveRowLimit int64
}

type CRUDHandlerConfig struct {
	Registry        *admin.Registry
	Authorizer      admin.Authorizer
	Renderer        *render.Renderer
	Revisions       *service.RevisionService
	ACL             *service.ACLService
	Exporter        *service.Exporter
	ExportStorage   service.ExportStorage
	ListCache       service.AdminListCacheStore
	Publisher       events.Publisher
	OperatorRepo    repository.OperatorRepository
	RoleRepo        repository.RoleRepository
	Logger          *slog.Logger
	Debug           bool
	ListCacheTTL    time.Duration
	ArchiveRowLimit int64
}

func NewCRUDHandler(cfg CRUDHandlerConfig) *CRUDHandler {
	h := &CRUDHandler{
		registry:        cfg.Registry,
		authz:           cfg.Authorizer,
		renderer:        cfg.Renderer,
		revisions:       cfg.Revisions,
		acl:             cfg.ACL,
		exporter:        cfg.Exporter,
		exportStorage:   cfg.ExportStorage,
		listCache:       cfg.ListCache,
		publisher:       cfg.Publisher,
		operatorRepo:    cfg.OperatorRepo,
		roleRepo:        cfg.RoleRepo,
		logger:          cfg.Logger,
		debug:           cfg.Debug,
		listCacheTTL:    cfg.ListCacheTTL,
		archiveRowLimit: cfg.ArchiveRowLimit,
	}
	if h.listCache == nil {
		h.listCache = service.NewNoopAdminListCacheStore()
	}
	if h.publisher == nil {
		h.publisher = events.NewNoopPublisher()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Dashboard lists the admins the current operator can at least list.
func (h *CRUDHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var links []render.AdminLink
	for _, d := range h.registry.All() {
		granted, err := h.authz.Granted(r.Context(), actor, d.Code(), admin.CapList, "")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if granted {
			links = append(links, render.AdminLink{Code: d.Code(), Label: d.Label(), ListURL: d.ListURL()})
		}
	}
	h.renderer.Render(w, r, http.StatusOK, "admin/dashboard", map[string]any{
		"Admins": links,
	})
}

func (h *CRUDHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, actor, ok := h.requireCapability(w, r, admin.CapList, "")
	if !ok {
		return
	}
	if h.runPreHook(w, r, d, admin.HookList, nil) {
		return
	}

	grid := d.BuildDatagrid(r)
	rows, total, err := h.loadListPage(r, d, grid)
	if err != nil {
		observability.RecordAdminAction(r.Context(), d.Code(), "list", "error", time.Since(start))
		h.writeError(w, r, err)
		return
	}

	can, err := h.capabilityMap(r, d, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var batchViews []render.BatchActionView
	for _, a := range d.BatchActions().All() {
		batchViews = append(batchViews, render.BatchActionView{Name: a.Name, Label: a.Label})
	}

	observability.RecordAdminAction(r.Context(), d.Code(), "list", "success", time.Since(start))
	observability.RecordAdminListRequestDuration(r.Context(), d.Code(), "200", time.Since(start))
	observability.RecordAdminListPageSize(r.Context(), d.Code(), grid.PageSize)

	h.renderer.Render(w, r, http.StatusOK, d.Template("list"), map[string]any{
		"Admin":        d,
		"Action":       "list",
		"Can":          can,
		"CSRFToken":    h.csrfToken(w, r),
		"Datagrid":     grid,
		"Fields":       d.ListFields(),
		"Rows":         rows,
		"Total":        total,
		"Pages":        paginationLinks(r, grid, total),
		"BatchActions": batchViews,
	})
}

func (h *CRUDHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, actor, ok := h.requireCapability(w, r, admin.CapCreate, "")
	if !ok {
		return
	}
	subclass := r.FormValue(admin.ParamSubclass)
	if subclass != "" && !d.HasSubclass(subclass) {
		h.writeError(w, r, admin.NewNotFound("unknown subclass %q for admin %q", subclass, d.Code()))
		return
	}

	obj := d.NewInstance()
	if h.runPreHook(w, r, d, admin.HookCreate, obj) {
		return
	}

	h.handleWrite(w, r, d, actor, obj, writeCreate, start)
}

func (h *CRUDHandler) Edit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, actor, obj, ok := h.requireObject(w, r, admin.CapEdit)
	if !ok {
		return
	}
	if h.runPreHook(w, r, d, admin.HookEdit, obj) {
		return
	}

	h.handleWrite(w, r, d, actor, obj, writeUpdate, start)
}

type writeKind int

const (
	writeCreate writeKind = iota
	writeUpdate
)

func (k writeKind) action() string {
	if k == writeCreate {
		return "create"
	}
	return "edit"
}

// handleWrite is the shared create/edit cycle: bind, preview-gate, persist,
// recover or redirect. GET and unsubmitted POST render the form.
func (h *CRUDHandler) handleWrite(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, actor admin.Actor, obj any, kind writeKind, start time.Time) {
	action := kind.action()
	uniqid := r.FormValue(admin.ParamUniqID)
	if uniqid == "" {
		uniqid = "f" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	if r.Method != http.MethodPost {
		h.renderForm(w, r, d, action, obj, uniqid, nil)
		return
	}

	if err := h.validateCSRF(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	state := d.FormBinder().Bind(r, uniqid, obj)
	mode := admin.ResolvePreviewMode(r, d.SupportsPreview())

	if !state.Valid() || !state.Submitted {
		h.renderForm(w, r, d, action, obj, uniqid, state)
		return
	}
	if mode == admin.PreviewRequested {
		h.renderPreview(w, r, d, action, obj, uniqid, state)
		return
	}
	if mode == admin.PreviewDeclined {
		h.renderForm(w, r, d, action, obj, uniqid, state)
		return
	}

	var err error
	if kind == writeCreate {
		err = d.Manager().Create(r.Context(), obj)
	} else {
		err = d.Manager().Update(r.Context(), obj)
	}
	if err != nil {
		observability.RecordAdminAction(r.Context(), d.Code(), action, "error", time.Since(start))
		h.recoverWriteError(w, r, d, action, obj, uniqid, state, err)
		return
	}

	revisionAction := domainRevisionAction(kind)
	h.afterWrite(r, d, actor, obj, revisionAction)
	observability.RecordAdminAction(r.Context(), d.Code(), action, "success", time.Since(start))

	name := d.ObjectName(obj)
	if admin.IsXMLHTTPRequest(r) {
		response.JSON(w, r, http.StatusOK, map[string]any{
			"result":     "ok",
			"objectId":   d.ObjectID(obj),
			"objectName": name,
		})
		return
	}
	if kind == writeCreate {
		response.AddFlash(w, r, response.FlashSuccess, fmt.Sprintf("Item %q has been created.", name))
	} else {
		response.AddFlash(w, r, response.FlashSuccess, fmt.Sprintf("Item %q has been updated.", name))
	}
	http.Redirect(w, r, admin.RedirectTarget(r, d, obj), http.StatusFound)
}

func domainRevisionAction(kind writeKind) string {
	if kind == writeCreate {
		return "create"
	}
	return "update"
}

// recoverWriteError converts manager failures into a re-rendered form so the
// operator keeps the in-flight values. Debug mode surfaces the raw error.
func (h *CRUDHandler) recoverWriteError(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, action string, obj any, uniqid string, state *admin.FormState, err error) {
	var lockErr *admin.LockError
	if errors.As(err, &lockErr) {
		h.logger.WarnContext(r.Context(), "concurrent edit conflict",
			"admin", d.Code(), "object_id", lockErr.ObjectID)
		response.AddFlash(w, r, response.FlashError, fmt.Sprintf(
			"Someone else modified %q while you were editing. Review the current version at %s and retry.",
			d.ObjectName(obj), d.EditURL(lockErr.ObjectID)))
		h.renderForm(w, r, d, action, obj, uniqid, state)
		return
	}

	var persistErr *admin.PersistenceError
	if errors.As(err, &persistErr) {
		if h.debug {
			h.writeError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "admin persistence failure",
			"admin", d.Code(), "action", action, "error", err)
		if admin.IsXMLHTTPRequest(r) {
			response.JSON(w, r, http.StatusOK, map[string]any{"result": "error"})
			return
		}
		response.AddFlash(w, r, response.FlashError, fmt.Sprintf(
			"An error occurred while saving %q.", d.ObjectName(obj)))
		h.renderForm(w, r, d, action, obj, uniqid, state)
		return
	}

	h.writeError(w, r, err)
}

func (h *CRUDHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, actor, obj, ok := h.requireObject(w, r, admin.CapDelete)
	if !ok {
		return
	}
	if h.runPreHook(w, r, d, admin.HookDelete, obj) {
		return
	}

	if !admin.IsDeleteRequest(r) {
		// GET renders the confirmation page.
		h.renderer.Render(w, r, http.StatusOK, d.Template("delete"), map[string]any{
			"Admin":      d,
			"Action":     "delete",
			"Can":        map[string]bool{},
			"CSRFToken":  h.csrfToken(w, r),
			"ObjectID":   d.ObjectID(obj),
			"ObjectName": d.ObjectName(obj),
		})
		return
	}

	if err := h.validateCSRF(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	name := d.ObjectName(obj)
	if err := d.Manager().Delete(r.Context(), obj); err != nil {
		observability.RecordAdminAction(r.Context(), d.Code(), "delete", "error", time.Since(start))
		if h.debug {
			h.writeError(w, r, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "admin delete failure", "admin", d.Code(), "error", err)
		if admin.IsXMLHTTPRequest(r) {
			response.JSON(w, r, http.StatusOK, map[string]any{"result": "error"})
			return
		}
		response.AddFlash(w, r, response.FlashError, fmt.Sprintf("An error occurred while deleting %q.", name))
		http.Redirect(w, r, d.ListURL(), http.StatusFound)
		return
	}

	h.afterWrite(r, d, actor, obj, "delete")
	observability.RecordAdminAction(r.Context(), d.Code(), "delete", "success", time.Since(start))

	if admin.IsXMLHTTPRequest(r) {
		response.JSON(w, r, http.StatusOK, map[string]any{"result": "ok"})
		return
	}
	response.AddFlash(w, r, response.FlashSuccess, fmt.Sprintf("Item %q has been deleted.", name))
	http.Redirect(w, r, admin.RedirectTarget(r, d, obj), http.StatusFound)
}

func (h *CRUDHandler) Show(w http.ResponseWriter, r *http.Request) {
	d, actor, obj, ok := h.requireObject(w, r, admin.CapView)
	if !ok {
		return
	}
	if h.runPreHook(w, r, d, admin.HookShow, obj) {
		return
	}
	can, err := h.capabilityMap(r, d, actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("show"), map[string]any{
		"Admin":      d,
		"Action":     "show",
		"Can":        can,
		"ObjectID":   d.ObjectID(obj),
		"ObjectName": d.ObjectName(obj),
		"Elements":   elementViews(d.ShowFields(), obj),
	})
}

func (h *CRUDHandler) History(w http.ResponseWriter, r *http.Request) {
	d, _, obj, ok := h.requireObject(w, r, admin.CapView)
	if !ok {
		return
	}
	if !d.RevisionsEnabled() {
		h.writeError(w, r, admin.NewNotFound("admin %q has no revision reader", d.Code()))
		return
	}

	id := d.ObjectID(obj)
	revs, err := h.revisions.List(r.Context(), d, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	views := make([]render.RevisionView, 0, len(revs))
	for _, rev := range revs {
		view := render.RevisionView{
			Seq:        rev.Seq,
			Action:     rev.Action,
			ActorEmail: rev.ActorEmail,
			CreatedAt:  rev.CreatedAt,
			ViewURL:    d.HistoryViewURL(id, rev.Seq),
		}
		if rev.Seq > 1 {
			view.CompareURL = d.HistoryCompareURL(id, rev.Seq-1, rev.Seq)
		}
		views = append(views, view)
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("history"), map[string]any{
		"Admin":      d,
		"Action":     "history",
		"Can":        map[string]bool{},
		"ObjectID":   id,
		"ObjectName": d.ObjectName(obj),
		"Revisions":  views,
	})
}

func (h *CRUDHandler) HistoryViewRevision(w http.ResponseWriter, r *http.Request) {
	d, _, obj, ok := h.requireObject(w, r, admin.CapView)
	if !ok {
		return
	}
	if !d.RevisionsEnabled() {
		h.writeError(w, r, admin.NewNotFound("admin %q has no revision reader", d.Code()))
		return
	}

	id := d.ObjectID(obj)
	seq, err := strconv.ParseInt(chi.URLParam(r, "revision"), 10, 64)
	if err != nil {
		h.writeError(w, r, admin.NewNotFound("invalid revision identifier %q", chi.URLParam(r, "revision")))
		return
	}
	rev, err := h.revisions.Get(r.Context(), d, id, seq)
	if err != nil {
		if errors.Is(err, repository.ErrRevisionNotFound) {
			h.writeError(w, r, admin.NewNotFound(
				"unable to find the revision %d for object %s %s", seq, d.Code(), id))
			return
		}
		h.writeError(w, r, err)
		return
	}
	values, err := h.revisions.SnapshotValues(rev)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("history_view"), map[string]any{
		"Admin":      d,
		"Action":     "history_view",
		"Can":        map[string]bool{},
		"ObjectID":   id,
		"ObjectName": d.ObjectName(obj),
		"Revision":   rev,
		"Values":     values,
	})
}

func (h *CRUDHandler) HistoryCompareRevisions(w http.ResponseWriter, r *http.Request) {
	d, _, obj, ok := h.requireObject(w, r, admin.CapView)
	if !ok {
		return
	}
	if !d.RevisionsEnabled() {
		h.writeError(w, r, admin.NewNotFound("admin %q has no revision reader", d.Code()))
		return
	}

	id := d.ObjectID(obj)
	baseSeq, err := strconv.ParseInt(chi.URLParam(r, "baseRevision"), 10, 64)
	if err != nil {
		h.writeError(w, r, admin.NewNotFound("invalid revision identifier %q", chi.URLParam(r, "baseRevision")))
		return
	}
	compareSeq, err := strconv.ParseInt(chi.URLParam(r, "compareRevision"), 10, 64)
	if err != nil {
		h.writeError(w, r, admin.NewNotFound("invalid revision identifier %q", chi.URLParam(r, "compareRevision")))
		return
	}

	base, compare, diff, err := h.revisions.Compare(r.Context(), d, id, baseSeq, compareSeq)
	if err != nil {
		if errors.Is(err, repository.ErrRevisionNotFound) {
			h.writeError(w, r, admin.NewNotFound(
				"unable to find one of the revisions %d/%d for object %s %s",
				baseSeq, compareSeq, d.Code(), id))
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("history_compare"), map[string]any{
		"Admin":      d,
		"Action":     "history_compare",
		"Can":        map[string]bool{},
		"ObjectID":   id,
		"ObjectName": d.ObjectName(obj),
		"Base":       base,
		"Compare":    compare,
		"Diff":       diff,
	})
}

// ACL sub-form marker fields. The submitted sub-form is identified by which
// marker arrived.
const (
	aclUsersField = "acl_users"
	aclRolesField = "acl_roles"
)

func (h *CRUDHandler) ACL(w http.ResponseWriter, r *http.Request) {
	d, err := h.resolveAdmin(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !d.ACLEnabled() {
		h.writeError(w, r, admin.NewNotFound("ACL is not enabled for admin %q", d.Code()))
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	obj, err := d.Manager().Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	id := d.ObjectID(obj)

	granted, err := h.authz.Granted(r.Context(), actor, d.Code(), admin.CapMaster, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !granted {
		h.writeError(w, r, &admin.AccessDeniedError{AdminCode: d.Code(), Capability: admin.CapMaster, ObjectID: id})
		return
	}

	if r.Method == http.MethodPost {
		h.applyACLSubmission(w, r, d, id, obj)
		return
	}
	h.renderACL(w, r, d, id, obj)
}

func (h *CRUDHandler) applyACLSubmission(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, id string, obj any) {
	if err := h.validateCSRF(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	switch {
	case admin.HasFormField(r, aclUsersField):
		ops, err := h.operatorRepo.List()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		grants := make([]service.SubjectGrant, 0, len(ops))
		for _, op := range ops {
			grants = append(grants, service.SubjectGrant{
				SubjectID:    op.ID,
				Capabilities: parseACLChecks(r, aclInputPrefix("op", op.ID)),
			})
		}
		if err := h.acl.ApplyOperatorGrants(r.Context(), d, id, grants); err != nil {
			h.writeError(w, r, err)
			return
		}
	case admin.HasFormField(r, aclRolesField):
		roles, err := h.roleRepo.List()
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		grants := make([]service.SubjectGrant, 0, len(roles))
		for _, role := range roles {
			grants = append(grants, service.SubjectGrant{
				SubjectID:    role.ID,
				Capabilities: parseACLChecks(r, aclInputPrefix("role", role.ID)),
			})
		}
		if err := h.acl.ApplyRoleGrants(r.Context(), d, id, grants); err != nil {
			h.writeError(w, r, err)
			return
		}
	default:
		h.writeError(w, r, admin.NewNotFound("unknown ACL sub-form submission"))
		return
	}

	observability.Audit(r, "admin_acl_update", "admin", d.Code(), "object_id", id)
	response.AddFlash(w, r, response.FlashSuccess, "Permissions have been updated.")
	http.Redirect(w, r, d.ACLURL(id), http.StatusFound)
}

func (h *CRUDHandler) renderACL(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, id string, obj any) {
	operatorGrants, roleGrants, err := h.acl.Grants(r.Context(), d, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	opMasks := map[uint]admin.Capabilities{}
	for _, g := range operatorGrants {
		opMasks[g.SubjectID] = admin.Capabilities(g.Capabilities)
	}
	roleMasks := map[uint]admin.Capabilities{}
	for _, g := range roleGrants {
		roleMasks[g.SubjectID] = admin.Capabilities(g.Capabilities)
	}

	ops, err := h.operatorRepo.List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	roles, err := h.roleRepo.List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users := make([]render.ACLRowView, 0, len(ops))
	for _, op := range ops {
		users = append(users, aclRow(op.Email, aclInputPrefix("op", op.ID), opMasks[op.ID]))
	}
	roleRows := make([]render.ACLRowView, 0, len(roles))
	for _, role := range roles {
		roleRows = append(roleRows, aclRow(role.Name, aclInputPrefix("role", role.ID), roleMasks[role.ID]))
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("acl"), map[string]any{
		"Admin":      d,
		"Action":     "acl",
		"Can":        map[string]bool{},
		"CSRFToken":  h.csrfToken(w, r),
		"ObjectID":   id,
		"ObjectName": d.ObjectName(obj),
		"CapNames":   aclCapabilityOrder.names(),
		"Users":      users,
		"Roles":      roleRows,
	})
}

type capabilityOrder []admin.Capability

var aclCapabilityOrder = capabilityOrder{
	admin.CapList, admin.CapCreate, admin.CapEdit, admin.CapDelete,
	admin.CapView, admin.CapExport, admin.CapMaster,
}

func (o capabilityOrder) names() []string {
	out := make([]string, len(o))
	for i, c := range o {
		out[i] = c.String()
	}
	return out
}

func aclInputPrefix(kind string, id uint) string {
	return fmt.Sprintf("acl_%s_%d_", kind, id)
}

func aclRow(label, prefix string, mask admin.Capabilities) render.ACLRowView {
	row := render.ACLRowView{Label: label}
	for _, c := range aclCapabilityOrder {
		row.Caps = append(row.Caps, render.CapCheck{
			InputName: prefix + strings.ToLower(c.String()),
			Checked:   mask&admin.Capabilities(c) != 0,
		})
	}
	return row
}

func parseACLChecks(r *http.Request, prefix string) admin.Capabilities {
	var mask admin.Capabilities
	for _, c := range aclCapabilityOrder {
		if r.PostFormValue(prefix+strings.ToLower(c.String())) == "1" {
			mask = mask.Add(c)
		}
	}
	return mask
}

func (h *CRUDHandler) Export(w http.ResponseWriter, r *http.Request) {
	d, _, ok := h.requireCapability(w, r, admin.CapExport, "")
	if !ok {
		return
	}

	format := r.URL.Query().Get(admin.ParamFormat)
	if err := h.exporter.ValidateFormat(format, d.ExportFormats()); err != nil {
		h.writeError(w, r, err)
		return
	}

	grid := d.BuildDatagrid(r)
	q := grid.Query.Clone()
	q.ClearPagination()

	source := service.ExportRowSource(func(fn func(obj any) error) error {
		return d.Manager().Stream(r.Context(), q, exportStreamBatchSize, fn)
	})

	filename := h.exporter.Filename(d.EntityName(), format, time.Now())
	contentType := h.exporter.ContentType(format)

	if h.shouldArchive(r, d, grid) {
		h.exportToArchive(w, r, d, format, filename, contentType, source)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	rows, err := h.exporter.Write(w, format, d.ListFields(), source)
	if err != nil {
		// Headers are committed by now; all we can do is log.
		h.logger.ErrorContext(r.Context(), "export stream failed",
			"admin", d.Code(), "format", format, "error", err)
		observability.RecordExport(r.Context(), d.Code(), format, "direct", "error")
		return
	}
	observability.RecordExport(r.Context(), d.Code(), format, "direct", "success")
	observability.RecordExportRows(r.Context(), d.Code(), format, rows)
}

// shouldArchive decides the delivery mode: explicit archive=1, or a
// configured row limit exceeded by the current filter set.
func (h *CRUDHandler) shouldArchive(r *http.Request, d *admin.Descriptor, grid *admin.Datagrid) bool {
	if h.exportStorage == nil {
		return false
	}
	if r.URL.Query().Get("archive") == "1" {
		return true
	}
	if h.archiveRowLimit <= 0 {
		return false
	}
	countQ := grid.Query.Clone()
	countQ.Page = 1
	countQ.PageSize = 1
	_, total, err := d.Manager().List(r.Context(), countQ)
	if err != nil {
		return false
	}
	return total > h.archiveRowLimit
}

func (h *CRUDHandler) exportToArchive(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, format, filename, contentType string, source service.ExportRowSource) {
	var buf bytes.Buffer
	rows, err := h.exporter.Write(&buf, format, d.ListFields(), source)
	if err != nil {
		observability.RecordExport(r.Context(), d.Code(), format, "archive", "error")
		h.writeError(w, r, err)
		return
	}
	key, err := h.exportStorage.StoreExport(r.Context(), d.Code(), filename, contentType, &buf, int64(buf.Len()))
	if err != nil {
		observability.RecordExport(r.Context(), d.Code(), format, "archive", "error")
		h.writeError(w, r, err)
		return
	}
	downloadURL, err := h.exportStorage.PresignedExportURL(r.Context(), key)
	if err != nil {
		observability.RecordExport(r.Context(), d.Code(), format, "archive", "error")
		h.writeError(w, r, err)
		return
	}
	observability.RecordExport(r.Context(), d.Code(), format, "archive", "success")
	observability.RecordExportRows(r.Context(), d.Code(), format, rows)

	if admin.IsXMLHTTPRequest(r) {
		response.JSON(w, r, http.StatusOK, map[string]any{"result": "ok", "url": downloadURL})
		return
	}
	http.Redirect(w, r, downloadURL, http.StatusFound)
}

// batchPayload is the decoded submission: either the JSON data blob or the
// discrete action/idx/all_elements form fields.
type batchPayload struct {
	Action      string
	Selection   admin.Selection
	Extra       map[string]any
	Confirmed   bool
}

func (h *CRUDHandler) Batch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d, err := h.resolveAdmin(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, r, admin.NewNotFound("batch actions only accept POST"))
		return
	}
	if err := h.validateCSRF(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	actor, _ := middleware.ActorFromContext(r.Context())

	payload := decodeBatchPayload(r)
	action, err := d.BatchActions().Get(payload.Action)
	if err != nil {
		observability.RecordBatchExecution(r.Context(), d.Code(), payload.Action, "config_error")
		h.writeError(w, r, err)
		return
	}

	relevant, skipMessage := true, ""
	if action.Relevance != nil {
		relevant, skipMessage = action.Relevance(r.Context(), payload.Selection)
	} else {
		relevant = payload.Selection.Relevant()
	}
	if !relevant {
		if skipMessage == "" {
			skipMessage = "No items selected; nothing was done."
		}
		observability.RecordBatchExecution(r.Context(), d.Code(), action.Name, "skipped")
		response.AddFlash(w, r, response.FlashInfo, skipMessage)
		http.Redirect(w, r, d.ListURL(), http.StatusFound)
		return
	}

	if !action.SkipConfirmation && !payload.Confirmed {
		h.renderBatchConfirmation(w, r, d, action, payload)
		return
	}

	q := batchQuery(d, payload)
	q = d.BatchQuery(r.Context(), action.Name, q)

	resp, err := action.Execute(r.Context(), &admin.BatchRequest{
		Descriptor: d,
		Actor:      actor,
		Selection:  payload.Selection,
		Query:      q,
		Extra:      payload.Extra,
		Record: func(obj any, rowAction string) {
			h.recordWrite(r, d, actor, obj, rowAction)
		},
	})
	if err != nil {
		observability.RecordBatchExecution(r.Context(), d.Code(), action.Name, "error")
		var persistErr *admin.PersistenceError
		if errors.As(err, &persistErr) && !h.debug {
			h.logger.ErrorContext(r.Context(), "batch action failed",
				"admin", d.Code(), "action", action.Name, "error", err)
			response.AddFlash(w, r, response.FlashError,
				fmt.Sprintf("An error occurred while running %q.", action.Label))
			http.Redirect(w, r, d.ListURL(), http.StatusFound)
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.invalidateListCache(r, d)
	observability.Audit(r, "admin_batch", "admin", d.Code(), "action", action.Name,
		"selected", len(payload.Selection.IDs), "all", payload.Selection.All)
	observability.RecordBatchExecution(r.Context(), d.Code(), action.Name, "success")
	observability.RecordAdminAction(r.Context(), d.Code(), "batch", "success", time.Since(start))

	if resp == nil {
		response.AddFlash(w, r, response.FlashSuccess,
			fmt.Sprintf("%q completed.", action.Label))
		http.Redirect(w, r, d.ListURL(), http.StatusFound)
		return
	}
	h.writeResponse(w, r, d, resp)
}

// decodeBatchPayload favors the JSON data blob; malformed JSON falls back to
// the discrete fields.
func decodeBatchPayload(r *http.Request) batchPayload {
	_ = r.ParseForm()

	if raw := r.PostFormValue("data"); raw != "" {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			p := batchPayload{Extra: map[string]any{}}
			for k, v := range decoded {
				switch k {
				case "action":
					if s, ok := v.(string); ok {
						p.Action = s
					}
				case "idx":
					if list, ok := v.([]any); ok {
						for _, item := range list {
							p.Selection.IDs = append(p.Selection.IDs, fmt.Sprint(item))
						}
					}
				case "all_elements":
					p.Selection.All = truthy(v)
				case "confirmation":
					if s, ok := v.(string); ok {
						p.Confirmed = s == "ok"
					}
				default:
					p.Extra[k] = v
				}
			}
			return p
		}
	}

	p := batchPayload{Extra: map[string]any{}}
	p.Action = r.PostFormValue("action")
	p.Selection.IDs = append(p.Selection.IDs, r.PostForm["idx"]...)
	p.Selection.All = truthy(r.PostFormValue("all_elements"))
	p.Confirmed = r.PostFormValue(admin.ParamConfirmation) == "ok"
	return p
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || strings.EqualFold(t, "true") || strings.EqualFold(t, "on")
	case float64:
		return t != 0
	}
	return false
}

// batchQuery narrows the execution query: explicit ids beat the all flag; an
// empty selection yields nil.
func batchQuery(d *admin.Descriptor, p batchPayload) *admin.Query {
	if len(p.Selection.IDs) > 0 {
		q := admin.NewQuery()
		q.RestrictToIDs(p.Selection.IDs)
		return q
	}
	if p.Selection.All {
		q := admin.NewQuery()
		q.ClearPagination()
		return q
	}
	return nil
}

func (h *CRUDHandler) renderBatchConfirmation(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, action admin.BatchAction, payload batchPayload) {
	var rows []render.RowView
	previewQ := batchQuery(d, payload)
	if previewQ != nil {
		if previewQ.PageSize == 0 {
			previewQ.Page = 1
			previewQ.PageSize = d.PageSize()
		}
		objs, _, err := d.Manager().List(r.Context(), previewQ)
		if err == nil {
			for _, obj := range objs {
				rows = append(rows, rowView(d, obj))
			}
		}
	}

	label := action.Label
	if label == "" {
		label = action.Name
	}
	h.renderer.Render(w, r, http.StatusOK, d.Template("batch_confirmation"), map[string]any{
		"Admin":       d,
		"Action":      "batch_confirmation",
		"Can":         map[string]bool{},
		"CSRFToken":   h.csrfToken(w, r),
		"ActionName":  action.Name,
		"ActionLabel": label,
		"AllElements": payload.Selection.All,
		"Idx":         payload.Selection.IDs,
		"Fields":      d.ListFields(),
		"Rows":        rows,
	})
}

// --- shared plumbing ---

func (h *CRUDHandler) resolveAdmin(r *http.Request) (*admin.Descriptor, error) {
	return h.registry.Get(chi.URLParam(r, "adminCode"))
}

// requireCapability resolves the descriptor and runs a collection-scoped
// capability check. On failure the response is already written.
func (h *CRUDHandler) requireCapability(w http.ResponseWriter, r *http.Request, c admin.Capability, objectID string) (*admin.Descriptor, admin.Actor, bool) {
	d, err := h.resolveAdmin(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, admin.Actor{}, false
	}
	actor, _ := middleware.ActorFromContext(r.Context())
	granted, err := h.authz.Granted(r.Context(), actor, d.Code(), c, objectID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, admin.Actor{}, false
	}
	if !granted {
		h.writeError(w, r, &admin.AccessDeniedError{AdminCode: d.Code(), Capability: c, ObjectID: objectID})
		return nil, admin.Actor{}, false
	}
	return d, actor, true
}

// requireObject fetches the routed object and runs an object-scoped check,
// so per-object ACL grants are honored. The object is loaded before the
// check only to resolve its identifier; no mutation happens before the check
// passes.
func (h *CRUDHandler) requireObject(w http.ResponseWriter, r *http.Request, c admin.Capability) (*admin.Descriptor, admin.Actor, any, bool) {
	d, err := h.resolveAdmin(r)
	if err != nil {
		h.writeError(w, r, err)
		return nil, admin.Actor{}, nil, false
	}
	obj, err := d.Manager().Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, admin.Actor{}, nil, false
	}
	id := d.ObjectID(obj)

	actor, _ := middleware.ActorFromContext(r.Context())
	granted, err := h.authz.Granted(r.Context(), actor, d.Code(), c, id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, admin.Actor{}, nil, false
	}
	if !granted {
		h.writeError(w, r, &admin.AccessDeniedError{AdminCode: d.Code(), Capability: c, ObjectID: id})
		return nil, admin.Actor{}, nil, false
	}
	return d, actor, obj, true
}

// runPreHook invokes the registered hook for an action. A non-nil response
// short-circuits; the caller stops when true is returned.
func (h *CRUDHandler) runPreHook(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, hook string, obj any) bool {
	fn := d.PreHook(hook)
	if fn == nil {
		return false
	}
	resp, err := fn(r.Context(), r, d, obj)
	if err != nil {
		h.writeError(w, r, err)
		return true
	}
	if resp == nil {
		return false
	}
	h.writeResponse(w, r, d, resp)
	return true
}

func (h *CRUDHandler) writeResponse(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, resp *admin.Response) {
	switch {
	case resp.Redirect != "":
		status := resp.Status
		if status == 0 {
			status = http.StatusFound
		}
		http.Redirect(w, r, resp.Redirect, status)
	case resp.Template != "":
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := map[string]any{"Admin": d, "Can": map[string]bool{}}
		for k, v := range resp.Context {
			ctx[k] = v
		}
		h.renderer.Render(w, r, status, resp.Template, ctx)
	default:
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		response.JSON(w, r, status, resp.JSON)
	}
}

// writeError maps the admin error taxonomy onto HTTP statuses. XHR callers
// get the JSON envelope; pages get a plain status response.
func (h *CRUDHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	message := "internal server error"

	var notFound *admin.NotFoundError
	var denied *admin.AccessDeniedError
	var csrfErr *admin.CSRFError
	var configErr *admin.ConfigurationError
	switch {
	case errors.Is(err, admin.ErrObjectNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.As(err, &notFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", notFound.Message
	case errors.As(err, &denied):
		status, code, message = http.StatusForbidden, "FORBIDDEN", denied.Error()
	case errors.As(err, &csrfErr):
		status, code, message = http.StatusBadRequest, "CSRF_INVALID", csrfErr.Error()
	case errors.As(err, &configErr):
		h.logger.ErrorContext(r.Context(), "admin configuration error", "error", configErr.Message)
		message = configErr.Message
	default:
		h.logger.ErrorContext(r.Context(), "admin action failed", "error", err)
		if h.debug {
			message = err.Error()
		}
	}

	if admin.IsXMLHTTPRequest(r) || !strings.Contains(r.Header.Get("Accept"), "text/html") {
		response.Error(w, r, status, code, message, nil)
		return
	}
	http.Error(w, fmt.Sprintf("%d %s", status, message), status)
}

// validateCSRF compares the submitted form token (or header) against the
// CSRF cookie set at login.
func (h *CRUDHandler) validateCSRF(r *http.Request) error {
	cookie := security.GetCookie(r, security.CSRFTokenCookie)
	if cookie == "" {
		return &admin.CSRFError{Reason: "missing csrf cookie"}
	}
	submitted := r.PostFormValue(admin.ParamCSRFToken)
	if submitted == "" {
		submitted = r.Header.Get("X-CSRF-Token")
	}
	if submitted == "" {
		return &admin.CSRFError{Reason: "missing csrf token"}
	}
	if subtle.ConstantTimeCompare([]byte(cookie), []byte(submitted)) != 1 {
		return &admin.CSRFError{Reason: "token mismatch"}
	}
	return nil
}

// csrfToken returns the operator's CSRF cookie value for form rendering,
// minting one when absent.
func (h *CRUDHandler) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if tok := security.GetCookie(r, security.CSRFTokenCookie); tok != "" {
		return tok
	}
	tok, err := security.NewCSRFToken()
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     security.CSRFTokenCookie,
		Value:    tok,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return tok
}

func (h *CRUDHandler) capabilityMap(r *http.Request, d *admin.Descriptor, actor admin.Actor) (map[string]bool, error) {
	can := make(map[string]bool, len(templateCapabilities))
	for name, c := range templateCapabilities {
		granted, err := h.authz.Granted(r.Context(), actor, d.Code(), c, "")
		if err != nil {
			return nil, err
		}
		can[name] = granted
	}
	return can, nil
}

// afterWrite does the post-persistence bookkeeping shared by create, edit
// and delete: revision, change event, audit line, list cache invalidation.
// None of it can fail the request.
func (h *CRUDHandler) afterWrite(r *http.Request, d *admin.Descriptor, actor admin.Actor, obj any, action string) {
	h.recordWrite(r, d, actor, obj, action)
	h.invalidateListCache(r, d)
}

// recordWrite is the per-object slice of afterWrite: revision, change event
// and audit for one mutated row. Batch actions report each affected row
// through it via BatchRequest.Record.
func (h *CRUDHandler) recordWrite(r *http.Request, d *admin.Descriptor, actor admin.Actor, obj any, action string) {
	if err := h.revisions.Record(r.Context(), d, obj, action, &actor); err != nil {
		h.logger.ErrorContext(r.Context(), "revision record failed",
			"admin", d.Code(), "action", action, "error", err)
	}
	h.publisher.PublishEntityChange(r.Context(), events.EntityChange{
		EventID:    uuid.NewString(),
		AdminCode:  d.Code(),
		ObjectID:   d.ObjectID(obj),
		Action:     action,
		ActorID:    actor.OperatorID,
		ActorEmail: actor.Email,
		OccurredAt: time.Now().UTC(),
	})
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "admin." + d.Code() + "." + action,
		ActorUserID: strconv.FormatUint(uint64(actor.OperatorID), 10),
		TargetType:  d.Code(),
		TargetID:    d.ObjectID(obj),
		Action:      action,
		Outcome:     "success",
		Reason:      "applied",
	})
}

func (h *CRUDHandler) invalidateListCache(r *http.Request, d *admin.Descriptor) {
	if err := h.listCache.InvalidateNamespace(r.Context(), d.Code()); err != nil {
		h.logger.WarnContext(r.Context(), "list cache invalidation failed",
			"admin", d.Code(), "error", err)
	}
}

// cachedListPage is the serialized list cache entry.
type cachedListPage struct {
	Rows  []render.RowView `json:"rows"`
	Total int64            `json:"total"`
}

func (h *CRUDHandler) loadListPage(r *http.Request, d *admin.Descriptor, grid *admin.Datagrid) ([]render.RowView, int64, error) {
	key := grid.CacheKey()
	if withAge, ok := h.listCache.(service.AdminListCacheStoreWithAge); ok {
		if raw, hit, age, err := withAge.GetWithAge(r.Context(), d.Code(), key); err == nil && hit {
			var page cachedListPage
			if err := json.Unmarshal(raw, &page); err == nil {
				observability.RecordAdminListCacheEvent(r.Context(), d.Code(), "hit")
				observability.RecordAdminListCacheEntryAge(r.Context(), d.Code(), age)
				return page.Rows, page.Total, nil
			}
		}
	} else if raw, hit, err := h.listCache.Get(r.Context(), d.Code(), key); err == nil && hit {
		var page cachedListPage
		if err := json.Unmarshal(raw, &page); err == nil {
			observability.RecordAdminListCacheEvent(r.Context(), d.Code(), "hit")
			return page.Rows, page.Total, nil
		}
	}
	observability.RecordAdminListCacheEvent(r.Context(), d.Code(), "miss")

	objs, total, err := d.Manager().List(r.Context(), grid.Query)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]render.RowView, 0, len(objs))
	for _, obj := range objs {
		rows = append(rows, rowView(d, obj))
	}

	if raw, err := json.Marshal(cachedListPage{Rows: rows, Total: total}); err == nil {
		if err := h.listCache.Set(r.Context(), d.Code(), key, raw, h.listCacheTTL); err != nil {
			h.logger.WarnContext(r.Context(), "list cache store failed", "admin", d.Code(), "error", err)
		}
	}
	return rows, total, nil
}

func rowView(d *admin.Descriptor, obj any) render.RowView {
	id := d.ObjectID(obj)
	row := render.RowView{
		ID:        id,
		Name:      d.ObjectName(obj),
		ShowURL:   d.ShowURL(id),
		EditURL:   d.EditURL(id),
		DeleteURL: d.DeleteURL(id),
	}
	for _, f := range d.ListFields() {
		row.Cells = append(row.Cells, f.Value(obj))
	}
	return row
}

func elementViews(fields []admin.Field, obj any) []render.ElementView {
	out := make([]render.ElementView, 0, len(fields))
	for _, f := range fields {
		out = append(out, render.ElementView{Label: f.Label, Value: f.Value(obj)})
	}
	return out
}

func (h *CRUDHandler) renderForm(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, action string, obj any, uniqid string, state *admin.FormState) {
	subclass := r.FormValue(admin.ParamSubclass)
	var title, formAction string
	if action == "create" {
		title = "Create " + d.EntityName()
		formAction = d.CreateURL(subclass)
	} else {
		title = "Edit " + d.ObjectName(obj)
		formAction = d.EditURL(d.ObjectID(obj))
	}

	var prefill map[string]string
	if state == nil || !state.Submitted {
		if valuer, ok := d.FormBinder().(admin.FormValuer); ok && action != "create" {
			prefill = valuer.Values(obj)
		}
	}

	fields := make([]render.FormFieldView, 0, len(d.FormBinder().Fields()))
	for _, f := range d.FormBinder().Fields() {
		view := render.FormFieldView{
			Name:      f.Name,
			Label:     f.Label,
			Type:      f.Type,
			Options:   f.Options,
			Required:  f.Required,
			InputName: admin.ScopedField(uniqid, f.Name),
		}
		if state != nil {
			view.Value = state.Values[f.Name]
			view.Error = state.Errors[f.Name]
		}
		if view.Value == "" && prefill != nil {
			view.Value = prefill[f.Name]
		}
		fields = append(fields, view)
	}
	if state == nil {
		state = admin.NewFormState()
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template(action), map[string]any{
		"Title":      title,
		"Admin":      d,
		"Action":     action,
		"Can":        map[string]bool{},
		"CSRFToken":  h.csrfToken(w, r),
		"FormAction": formAction,
		"Uniqid":     uniqid,
		"Subclass":   subclass,
		"Form":       state,
		"FormFields": fields,
	})
}

// renderPreview shows the pending values and re-submits them through hidden
// fields so approval persists without re-typing.
func (h *CRUDHandler) renderPreview(w http.ResponseWriter, r *http.Request, d *admin.Descriptor, action string, obj any, uniqid string, state *admin.FormState) {
	formAction := d.CreateURL(r.FormValue(admin.ParamSubclass))
	if action != "create" {
		formAction = d.EditURL(d.ObjectID(obj))
	}

	hidden := make([]render.HiddenField, 0, len(state.Values))
	for _, f := range d.FormBinder().Fields() {
		if v, ok := state.Values[f.Name]; ok {
			hidden = append(hidden, render.HiddenField{
				Name:  admin.ScopedField(uniqid, f.Name),
				Value: v,
			})
		}
	}

	h.renderer.Render(w, r, http.StatusOK, d.Template("preview"), map[string]any{
		"Title":        d.ObjectName(obj),
		"Admin":        d,
		"Action":       action,
		"Can":          map[string]bool{},
		"CSRFToken":    h.csrfToken(w, r),
		"FormAction":   formAction,
		"Uniqid":       uniqid,
		"Subclass":     r.FormValue(admin.ParamSubclass),
		"Elements":     elementViews(d.ShowFields(), obj),
		"HiddenFields": hidden,
	})
}

func paginationLinks(r *http.Request, grid *admin.Datagrid, total int64) []render.PageLink {
	if grid.PageSize <= 0 {
		return nil
	}
	last := int((total + int64(grid.PageSize) - 1) / int64(grid.PageSize))
	if last <= 1 {
		return nil
	}
	first := grid.Page - paginationWindow/2
	if first < 1 {
		first = 1
	}
	end := first + paginationWindow - 1
	if end > last {
		end = last
		if first = end - paginationWindow + 1; first < 1 {
			first = 1
		}
	}

	links := make([]render.PageLink, 0, end-first+1)
	for p := first; p <= end; p++ {
		links = append(links, render.PageLink{
			Number:  p,
			URL:     pageURL(r.URL, p),
			Current: p == grid.Page,
		})
	}
	return links
}

func pageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}
