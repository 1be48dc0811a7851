package admin

import (
	"net/http"
	"strings"
)

// Cross-cutting request parameters shared by the action handlers.
const (
	ParamUpdateAndList   = "btn_update_and_list"
	ParamCreateAndList   = "btn_create_and_list"
	ParamCreateAndCreate = "btn_create_and_create"
	ParamSubclass        = "subclass"
	ParamMethodOverride  = "_method"
	ParamUniqID          = "uniqid"
	ParamListMode        = "_list_mode"
	ParamCSRFToken       = "_csrf_token"
	ParamConfirmation    = "confirmation"
	ParamFormat          = "format"
)

// RedirectTarget picks the post-write destination. Priority order, first
// match wins:
//  1. update-and-list / create-and-list buttons send the operator back to
//     the list;
//  2. create-and-continue re-opens the create form, keeping the active
//     subclass selection;
//  3. a deletion performed through the DELETE verb lands on the list;
//  4. everything else defaults to the object's edit view.
func RedirectTarget(r *http.Request, d *Descriptor, obj any) string {
	switch {
	case HasFormField(r, ParamUpdateAndList), HasFormField(r, ParamCreateAndList):
		return d.ListURL()
	case HasFormField(r, ParamCreateAndCreate):
		return d.CreateURL(r.FormValue(ParamSubclass))
	case IsDeleteRequest(r):
		return d.ListURL()
	}
	return d.EditURL(d.ObjectID(obj))
}

// IsDeleteRequest reports whether the request is a DELETE, either directly
// or through the _method override form field.
func IsDeleteRequest(r *http.Request) bool {
	if r.Method == http.MethodDelete {
		return true
	}
	return r.Method == http.MethodPost &&
		strings.EqualFold(r.PostFormValue(ParamMethodOverride), http.MethodDelete)
}

// IsXMLHTTPRequest reports whether the client asked for the JSON
// short-circuit instead of a redirect or render.
func IsXMLHTTPRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}
