package store

// Pagination defaults. Page and limit values arrive from query strings and
// are clamped rather than rejected: page < 1 becomes 1, limit < 1 becomes
// DefaultLimit, limit > MaxLimit becomes MaxLimit.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpLte Op = "lte"

	// OpContainsFold matches when the field contains the value as a
	// case-insensitive substring. On list fields it matches if any element
	// does.
	OpContainsFold Op = "containsfold"
)

// Cond is a single field comparison.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter describes which documents match. All conditions are conjunctive;
// when Any is non-empty at least one of its conditions must also hold.
type Filter struct {
	All []Cond
	Any []Cond
}

// IsZero reports whether the filter matches every document.
func (f Filter) IsZero() bool { return len(f.All) == 0 && len(f.Any) == 0 }

// Where appends a conjunctive condition and returns the filter for chaining.
func (f Filter) Where(field string, op Op, value any) Filter {
	f.All = append(f.All, Cond{Field: field, Op: op, Value: value})
	return f
}

// OrWhere appends a disjunctive condition and returns the filter for chaining.
func (f Filter) OrWhere(field string, op Op, value any) Filter {
	f.Any = append(f.Any, Cond{Field: field, Op: op, Value: value})
	return f
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query is the descriptor a Collection executes: filter, sort, window.
type Query struct {
	Filter Filter
	Sort   string
	Order  SortOrder
	Skip   int
	Limit  int
}

// Page is a clamped page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw page/limit values into a valid page request.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: page, Size: limit}
}

// Skip returns the number of documents preceding this page.
func (p Page) Skip() int { return (p.Number - 1) * p.Size }

// BuildQuery maps a filter, page and sort onto a store query descriptor.
func BuildQuery(f Filter, p Page, sort string, order SortOrder) Query {
	if order != SortAsc {
		order = SortDesc
	}
	return Query{
		Filter: f,
		Sort:   sort,
		Order:  order,
		Skip:   p.Skip(),
		Limit:  p.Size,
	}
}

// Pages returns the total number of pages for a match count, ceil(total/size).
func Pages(total int64, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
