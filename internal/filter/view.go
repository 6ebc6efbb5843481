package filter

import (
	"github.com/charliek/netscope/internal/domain"
)

// Result is a filtered snapshot delivered to the presentation layer.
type Result struct {
	Requests []domain.RequestRecord
	Total    int
	Criteria domain.FilterCriteria
}

// View binds a request snapshot and the current criteria to a filtered result.
//
// Every setter that changes an input marks the view stale and recomputes before
// returning, then notifies subscribers, so observers never see a result that
// disagrees with the criteria. Setters given an unchanged value do nothing.
//
// A View is owned by a single UI loop and is not safe for concurrent use.
type View struct {
	records  []domain.RequestRecord
	criteria domain.FilterCriteria
	result   Result
	fresh    bool

	subs   map[int]func(Result)
	nextID int
}

// NewView creates a view over records with default criteria
func NewView(records []domain.RequestRecord) *View {
	return &View{
		records:  records,
		criteria: domain.DefaultCriteria(),
		subs:     make(map[int]func(Result)),
	}
}

// Fresh returns true if the current result matches the records and criteria
func (v *View) Fresh() bool {
	return v.fresh
}

// Criteria returns the current criteria
func (v *View) Criteria() domain.FilterCriteria {
	return v.criteria
}

// Records returns the unfiltered snapshot
func (v *View) Records() []domain.RequestRecord {
	return v.records
}

// Result returns the filtered result, recomputing first if the view is stale
func (v *View) Result() Result {
	if !v.fresh {
		v.recompute()
	}
	return v.result
}

// SetRecords replaces the source snapshot. Any call counts as a change since
// the source delivers full snapshots rather than deltas.
func (v *View) SetRecords(records []domain.RequestRecord) {
	v.records = records
	v.invalidate()
}

// SetSearchText sets the free-text criterion
func (v *View) SetSearchText(text string) {
	if v.criteria.SearchText == text {
		return
	}
	v.criteria.SearchText = text
	v.invalidate()
}

// SetMethod sets the method criterion. domain.AnyMethod disables it.
func (v *View) SetMethod(method string) {
	if v.criteria.Method == method {
		return
	}
	v.criteria.Method = method
	v.invalidate()
}

// SetStatusCode sets the status criterion. domain.AnyStatus disables it.
func (v *View) SetStatusCode(code int) {
	if v.criteria.StatusCode == code {
		return
	}
	v.criteria.StatusCode = code
	v.invalidate()
}

// SetCriteria replaces all three criteria in one update
func (v *View) SetCriteria(c domain.FilterCriteria) {
	if v.criteria == c {
		return
	}
	v.criteria = c
	v.invalidate()
}

// Reset restores the default criteria
func (v *View) Reset() {
	v.SetCriteria(domain.DefaultCriteria())
}

// Subscribe registers fn to receive every recomputed result.
// It returns a function that removes the subscription.
func (v *View) Subscribe(fn func(Result)) func() {
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	return func() {
		delete(v.subs, id)
	}
}

func (v *View) invalidate() {
	v.fresh = false
	v.recompute()
	for _, fn := range v.subs {
		fn(v.result)
	}
}

func (v *View) recompute() {
	v.result = Result{
		Requests: Apply(v.records, v.criteria),
		Total:    len(v.records),
		Criteria: v.criteria,
	}
	v.fresh = true
}
