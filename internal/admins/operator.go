package admins

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/repository"
)

// OperatorFormBinder binds the console-account form. Passwords and SSO links
// are managed through the auth endpoints, not here.
type OperatorFormBinder struct{}

func (OperatorFormBinder) Fields() []admin.FormField {
	return []admin.FormField{
		{Name: "email", Label: "Email", Type: "text", Required: true},
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "status", Label: "Status", Type: "select", Options: []string{
			domain.OperatorStatusActive, domain.OperatorStatusDisabled,
		}},
	}
}

func (b OperatorFormBinder) Bind(r *http.Request, uniqid string, obj any) *admin.FormState {
	state := admin.NewFormState()
	op, ok := obj.(*domain.Operator)
	if !ok {
		state.AddError("", "unexpected entity type")
		return state
	}
	if r.Method != http.MethodPost {
		return state
	}
	_ = r.ParseForm()
	state.Submitted = true

	for _, f := range b.Fields() {
		state.SetValue(f.Name, admin.FormValue(r, uniqid, f.Name))
	}

	email := strings.ToLower(strings.TrimSpace(state.Values["email"]))
	if email == "" || !strings.Contains(email, "@") {
		state.AddError("email", "a valid email is required")
	}
	name := strings.TrimSpace(state.Values["name"])
	if name == "" {
		state.AddError("name", "name is required")
	}
	status := state.Values["status"]
	if status == "" {
		status = domain.OperatorStatusActive
	}
	if status != domain.OperatorStatusActive && status != domain.OperatorStatusDisabled {
		state.AddError("status", "unknown status")
	}

	if !state.Valid() {
		return state
	}
	op.Email = email
	op.Name = name
	op.Status = status
	return state
}

func (OperatorFormBinder) Values(obj any) map[string]string {
	op, ok := obj.(*domain.Operator)
	if !ok {
		return nil
	}
	return map[string]string{
		"email":  op.Email,
		"name":   op.Name,
		"status": op.Status,
	}
}

// NewOperatorAdmin wires the console-account descriptor. ACL is enabled so
// object-level grants can delegate management of individual accounts.
func NewOperatorAdmin(db *gorm.DB) (*admin.Descriptor, error) {
	manager := repository.NewGormModelManager(db, "operator",
		func() any { return &domain.Operator{} },
		func(obj any) string {
			return strconv.FormatUint(uint64(obj.(*domain.Operator).ID), 10)
		},
	)

	return admin.NewDescriptor(admin.DescriptorConfig{
		Code:       "operator",
		Label:      "Operators",
		EntityName: "operator",
		Manager:    manager,
		FormBinder: OperatorFormBinder{},
		ObjectID: func(obj any) string {
			return strconv.FormatUint(uint64(obj.(*domain.Operator).ID), 10)
		},
		ObjectName: func(obj any) string { return obj.(*domain.Operator).Email },
		ListFields: []admin.Field{
			{Name: "email", Label: "Email", Value: func(obj any) string { return obj.(*domain.Operator).Email }},
			{Name: "name", Label: "Name", Value: func(obj any) string { return obj.(*domain.Operator).Name }},
			{Name: "status", Label: "Status", Value: func(obj any) string { return obj.(*domain.Operator).Status }},
		},
		ShowFields: []admin.Field{
			{Name: "email", Label: "Email", Value: func(obj any) string { return obj.(*domain.Operator).Email }},
			{Name: "name", Label: "Name", Value: func(obj any) string { return obj.(*domain.Operator).Name }},
			{Name: "status", Label: "Status", Value: func(obj any) string { return obj.(*domain.Operator).Status }},
			{Name: "last_login_at", Label: "Last login", Value: func(obj any) string {
				t := obj.(*domain.Operator).LastLoginAt
				if t.IsZero() {
					return "never"
				}
				return t.UTC().Format("2006-01-02 15:04:05")
			}},
		},
		Filters: []admin.Filter{
			{Name: "email", Label: "Email", Column: "email", Op: admin.OpContains},
			{Name: "status", Label: "Status", Column: "status", Op: admin.OpEq},
		},
		SortableColumns: map[string]string{
			"email":      "email",
			"name":       "name",
			"status":     "status",
			"created_at": "created_at",
		},
		DefaultSort:      "email",
		ExportFormats:    []string{"csv"},
		ACLEnabled:       true,
		RevisionsEnabled: true,
		BatchActions: []admin.BatchAction{
			batchDeleteAction(manager),
			operatorDisableAction(manager),
		},
	})
}

// operatorDisableAction deactivates selected accounts without removing their
// history.
func operatorDisableAction(manager admin.ModelManager) admin.BatchAction {
	return admin.BatchAction{
		Name:  "disable",
		Label: "Disable selected",
		Execute: func(ctx context.Context, req *admin.BatchRequest) (*admin.Response, error) {
			if req.Query == nil {
				return nil, nil
			}
			err := manager.Stream(ctx, req.Query, 200, func(obj any) error {
				op, ok := obj.(*domain.Operator)
				if !ok {
					return nil
				}
				if op.Status == domain.OperatorStatusDisabled {
					return nil
				}
				op.Status = domain.OperatorStatusDisabled
				if err := manager.Update(ctx, op); err != nil {
					return err
				}
				req.RecordRow(op, "disable")
				return nil
			})
			return nil, err
		},
	}
}
