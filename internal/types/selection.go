package types

import (
	"strings"
	"time"

	"github.com/BurntSushi/xgb/xproto"
)

// SelectionQuery identifies one selection being inspected
type SelectionQuery struct {
	Name string      `json:"name"`
	Atom xproto.Atom `json:"atom"`
}

// TargetInfo is one data format advertised by a selection owner
type TargetInfo struct {
	Atom xproto.Atom `json:"atom"`
	Name string      `json:"name"`
}

// OwnerInfo describes the window currently owning a selection.
// Targets keeps the order in which the owner advertised them.
type OwnerInfo struct {
	Window      xproto.Window `json:"window"`
	DisplayName string        `json:"display_name,omitempty"`
	Targets     []TargetInfo  `json:"targets"`
}

// TargetNames returns the target names in advertised order
func (o *OwnerInfo) TargetNames() []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, len(o.Targets))
	for _, t := range o.Targets {
		names = append(names, t.Name)
	}
	return names
}

// SelectionResult is the root of a single query.
// Owner is nil when nobody owns the selection. Err is set when the
// query degraded and the rest of the result should not be trusted.
type SelectionResult struct {
	Query SelectionQuery `json:"selection"`
	Owner *OwnerInfo     `json:"owner"`
	Err   string         `json:"error,omitempty"`
}

// HasOwner reports whether a window owned the selection at query time
func (r *SelectionResult) HasOwner() bool {
	return r != nil && r.Owner != nil
}

// Degraded reports whether the query failed part way
func (r *SelectionResult) Degraded() bool {
	return r != nil && r.Err != ""
}

// HistoryRecord is a stored selection result
type HistoryRecord struct {
	ID       string           `json:"id"`
	Display  string           `json:"display"`
	Recorded time.Time        `json:"recorded"`
	Result   *SelectionResult `json:"result"`
}

// Summary returns a compact single-line description of the record
func (h *HistoryRecord) Summary() string {
	if h == nil || h.Result == nil {
		return ""
	}
	r := h.Result
	switch {
	case r.Degraded():
		return r.Query.Name + ": error"
	case !r.HasOwner():
		return r.Query.Name + ": none"
	}
	return r.Query.Name + ": " + strings.Join(r.Owner.TargetNames(), " ")
}
