package admin

// Condition operators understood by model managers.
const (
	OpEq       = "eq"
	OpContains = "contains"
	OpGte      = "gte"
	OpLte      = "lte"
)

// Condition is one declarative filter clause. Translation to the underlying
// store is the model manager's job.
type Condition struct {
	Column string
	Op     string
	Value  any
}

// Query is the proxy query passed between datagrid, batch dispatcher and
// model manager. It is pure data and carries no store handle, so hooks and
// tests can inspect and rewrite it freely.
type Query struct {
	IDs        []string
	Conditions []Condition
	SortColumn string
	SortDesc   bool
	Page       int
	PageSize   int
}

func NewQuery() *Query { return &Query{} }

// RestrictToIDs narrows the query to exactly the given identifiers.
func (q *Query) RestrictToIDs(ids []string) {
	q.IDs = append([]string(nil), ids...)
}

// ClearPagination removes paging so the query walks every match.
func (q *Query) ClearPagination() {
	q.Page = 0
	q.PageSize = 0
}

func (q *Query) Paginated() bool { return q != nil && q.PageSize > 0 }

// Clone returns an independent copy. Hooks receive clones so shared datagrid
// state is never mutated.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	cp := *q
	cp.IDs = append([]string(nil), q.IDs...)
	cp.Conditions = append([]Condition(nil), q.Conditions...)
	return &cp
}

// Selection is the decoded target set of one batch submission.
type Selection struct {
	IDs []string
	All bool
}

// Relevant is the default relevance rule: something was selected or the
// all-elements flag is set.
func (s Selection) Relevant() bool { return len(s.IDs) > 0 || s.All }
