package render

import "time"

// View models for the admin pages. Handlers assemble these; templates only
// read them.

// RowView is one datagrid row: pre-rendered cells plus the row action URLs.
type RowView struct {
	ID        string
	Name      string
	Cells     []string
	ShowURL   string
	EditURL   string
	DeleteURL string
}

// PageLink is one pagination entry.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// BatchActionView is one entry of the batch action dropdown.
type BatchActionView struct {
	Name  string
	Label string
}

// FormFieldView pairs a form field definition with its in-flight value and
// validation error.
type FormFieldView struct {
	Name      string
	Label     string
	Type      string
	Options   []string
	Required  bool
	InputName string
	Value     string
	Error     string
}

// ElementView is one label/value pair of the show and preview pages.
type ElementView struct {
	Label string
	Value string
}

// HiddenField re-submits a bound form value through the preview form.
type HiddenField struct {
	Name  string
	Value string
}

// RevisionView is one history row with its deep links resolved. CompareURL
// is empty for the oldest listed revision.
type RevisionView struct {
	Seq        int64
	Action     string
	ActorEmail string
	CreatedAt  time.Time
	ViewURL    string
	CompareURL string
}

// CapCheck is one capability checkbox of the ACL grids.
type CapCheck struct {
	InputName string
	Checked   bool
}

// ACLRowView is one subject row of the ACL page.
type ACLRowView struct {
	Label string
	Caps  []CapCheck
}

// AdminLink is one dashboard entry.
type AdminLink struct {
	Code    string
	Label   string
	ListURL string
}
