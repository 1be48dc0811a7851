package admin

import "net/http"

// FormField describes one editable field for form rendering.
type FormField struct {
	Name     string
	Label    string
	Type     string // text, textarea, number, checkbox, select
	Options  []string
	Required bool
}

// FormState is the outcome of binding one submission: the raw values for
// re-rendering plus validation errors keyed by field name.
type FormState struct {
	Submitted bool
	Values    map[string]string
	Errors    map[string]string
}

func NewFormState() *FormState {
	return &FormState{Values: map[string]string{}, Errors: map[string]string{}}
}

func (s *FormState) Valid() bool { return s != nil && len(s.Errors) == 0 }

func (s *FormState) SetValue(field, value string) {
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	s.Values[field] = value
}

func (s *FormState) AddError(field, message string) {
	if s.Errors == nil {
		s.Errors = map[string]string{}
	}
	s.Errors[field] = message
}

// FormBinder binds submitted values onto an entity and validates them. One
// implementation exists per admin. The uniqid prefix scopes submitted field
// names when several forms share a page; binders read fields through
// FormValue so unscoped submissions keep working.
type FormBinder interface {
	Fields() []FormField
	Bind(r *http.Request, uniqid string, obj any) *FormState
}

// FormValuer is an optional binder extension: binders implementing it can
// prefill edit forms from the loaded entity.
type FormValuer interface {
	Values(obj any) map[string]string
}

// ScopedField returns the submitted name of field under uniqid.
func ScopedField(uniqid, name string) string {
	if uniqid == "" {
		return name
	}
	return uniqid + "_" + name
}

// FormValue reads a scoped form field, falling back to the bare name. The
// request form must already be parsed.
func FormValue(r *http.Request, uniqid, name string) string {
	if uniqid != "" {
		if vs, ok := r.PostForm[ScopedField(uniqid, name)]; ok && len(vs) > 0 {
			return vs[0]
		}
	}
	return r.PostFormValue(name)
}

// HasFormField reports whether the submission carries the field at all,
// which is how submit-button markers are detected.
func HasFormField(r *http.Request, name string) bool {
	if r.PostForm == nil {
		_ = r.ParseForm()
	}
	_, ok := r.PostForm[name]
	return ok
}
