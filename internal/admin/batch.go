package admin

import "context"

// BatchRequest carries everything one batch execution needs. Query is nil
// when nothing was selected and the all-elements flag was not set; handlers
// must cope with that. Record is set by the dispatcher so actions can report
// each affected row for revision, change-event and audit bookkeeping.
type BatchRequest struct {
	Descriptor *Descriptor
	Actor      Actor
	Selection  Selection
	Query      *Query
	Extra      map[string]any
	Record     func(obj any, action string)
}

// RecordRow reports one affected row to the dispatcher. Safe to call when no
// recorder is set.
func (req *BatchRequest) RecordRow(obj any, action string) {
	if req.Record != nil {
		req.Record(obj, action)
	}
}

// BatchAction is one registered bulk operation. Execute is mandatory.
// Relevance overrides the default non-empty-selection rule and may return a
// custom flash message for the skip. A nil Response from Execute falls back
// to the list redirect with a success flash.
type BatchAction struct {
	Name             string
	Label            string
	SkipConfirmation bool
	Relevance        func(ctx context.Context, sel Selection) (bool, string)
	Execute          func(ctx context.Context, req *BatchRequest) (*Response, error)
}

// BatchRegistry maps action names to typed handlers. A lookup miss is a
// configuration defect in the admin wiring, not a request-level failure.
type BatchRegistry struct {
	order   []string
	actions map[string]BatchAction
}

func NewBatchRegistry(actions ...BatchAction) (*BatchRegistry, error) {
	reg := &BatchRegistry{actions: make(map[string]BatchAction, len(actions))}
	for _, a := range actions {
		if a.Name == "" {
			return nil, NewConfigurationError("batch action with empty name")
		}
		if _, dup := reg.actions[a.Name]; dup {
			return nil, NewConfigurationError("duplicate batch action %q", a.Name)
		}
		reg.actions[a.Name] = a
		reg.order = append(reg.order, a.Name)
	}
	return reg, nil
}

// Get resolves a registered action. Unknown names and nil handlers are
// configuration errors.
func (r *BatchRegistry) Get(name string) (BatchAction, error) {
	if r == nil {
		return BatchAction{}, NewConfigurationError("batch action %q is not registered", name)
	}
	a, ok := r.actions[name]
	if !ok {
		return BatchAction{}, NewConfigurationError("batch action %q is not registered", name)
	}
	if a.Execute == nil {
		return BatchAction{}, NewConfigurationError("batch action %q has no execute handler", name)
	}
	return a, nil
}

// All returns the registered actions in registration order.
func (r *BatchRegistry) All() []BatchAction {
	if r == nil {
		return nil
	}
	out := make([]BatchAction, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.actions[name])
	}
	return out
}

func (r *BatchRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.actions)
}

// setSkipConfirmation is used by manifest overlays.
func (r *BatchRegistry) setSkipConfirmation(name string) error {
	if r == nil {
		return NewConfigurationError("batch action %q is not registered", name)
	}
	a, ok := r.actions[name]
	if !ok {
		return NewConfigurationError("batch action %q is not registered", name)
	}
	a.SkipConfirmation = true
	r.actions[name] = a
	return nil
}
