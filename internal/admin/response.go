package admin

import (
	"context"
	"net/http"
)

// Response is the declarative result of a pre-hook or batch handler. At most
// one of Redirect, Template or JSON is set; a nil *Response means "no
// opinion" and the caller proceeds with its default behavior.
type Response struct {
	Status   int
	Redirect string
	Template string
	Context  map[string]any
	JSON     any
}

// RedirectResponse points the client at url.
func RedirectResponse(url string) *Response {
	return &Response{Status: http.StatusFound, Redirect: url}
}

// RenderResponse renders the named template with ctx merged into the
// standard render context.
func RenderResponse(template string, ctx map[string]any) *Response {
	return &Response{Status: http.StatusOK, Template: template, Context: ctx}
}

// JSONResponse writes payload as the response body.
func JSONResponse(status int, payload any) *Response {
	return &Response{Status: status, JSON: payload}
}

// PreHook runs before an action's main logic. obj is the loaded entity (the
// fresh instance for create, nil for list). A non-nil Response short-circuits
// the action and is written out unchanged.
type PreHook func(ctx context.Context, r *http.Request, d *Descriptor, obj any) (*Response, error)

// QueryHook lets a descriptor rewrite the batch query before execution. It
// receives a clone and returns the query to use; returning nil keeps the
// input.
type QueryHook func(ctx context.Context, actionName string, q *Query) *Query

// Pre-hook registration keys, one per action that supports hooks.
const (
	HookList   = "list"
	HookCreate = "create"
	HookEdit   = "edit"
	HookDelete = "delete"
	HookShow   = "show"
)
