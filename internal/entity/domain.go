// Package entity scores routing signals extracted from an invoice against a
// catalog of legal-entity profiles and either auto-assigns the owning entity
// or returns ranked candidates for human disambiguation.
package entity

// SignalType enumerates the routing signals an invoice can yield.
type SignalType string

const (
	SignalOwnerNumber  SignalType = "owner_number"
	SignalRemitState   SignalType = "remit_state"
	SignalNameFragment SignalType = "name_fragment"
	SignalLotPrefix    SignalType = "lot_prefix"
	SignalVendorName   SignalType = "vendor_name"
)

// Signal is one (type, value) pair extracted from an invoice.
type Signal struct {
	Type  SignalType `json:"type"`
	Value string     `json:"value"`
}

// RoutingRule maps a signal value to a score contribution for one profile.
type RoutingRule struct {
	Type   SignalType `json:"type"`
	Value  string     `json:"value"`
	Weight int        `json:"weight,omitempty"`
}

// Profile is read-only reference data describing one legal business unit.
type Profile struct {
	ID                string            `json:"id"`
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	Aliases           []string          `json:"aliases,omitempty"`
	Rules             []RoutingRule     `json:"rules,omitempty"`
	DefaultDimensions map[string]string `json:"default_dimensions,omitempty"`
}

// SignalReason records one signal's contribution to a candidate score.
type SignalReason struct {
	Type   SignalType `json:"type"`
	Value  string     `json:"value"`
	Points int        `json:"points"`
	Detail string     `json:"detail,omitempty"`
}

// Candidate is a profile plus its accumulated score.
type Candidate struct {
	EntityID   string         `json:"entity_id"`
	EntityCode string         `json:"entity_code"`
	EntityName string         `json:"entity_name"`
	Score      int            `json:"score"`
	Reasons    []SignalReason `json:"reasons,omitempty"`
}

// Resolution is the outcome of scoring one invoice's signals. An unassigned
// resolution with candidates is a designed low-confidence outcome, not an
// error.
type Resolution struct {
	EntityID       string         `json:"entity_id,omitempty"`
	IsAutoAssigned bool           `json:"is_auto_assigned"`
	Score          int            `json:"score"`
	Margin         int            `json:"margin"`
	Reasons        []SignalReason `json:"reasons,omitempty"`
	Candidates     []Candidate    `json:"candidates,omitempty"`
}
