// Package coding maps invoice line items to general-ledger accounts and
// computes accounting dimension values from entity, vendor and invoice
// context.
package coding

// Category is a line-item charge category from the fixed feedlot taxonomy.
type Category string

const (
	CategoryFeed          Category = "feed"
	CategoryYardage       Category = "yardage"
	CategoryVeterinary    Category = "veterinary"
	CategoryProcessing    Category = "processing"
	CategoryInsurance     Category = "insurance"
	CategoryInterest      Category = "interest"
	CategoryFreight       Category = "freight"
	CategoryCommission    Category = "commission"
	CategoryUncategorized Category = "uncategorized"
)

// Level is the precedence level a GL mapping matched at.
type Level string

const (
	LevelVendor   Level = "VENDOR"
	LevelEntity   Level = "ENTITY"
	LevelGlobal   Level = "GLOBAL"
	LevelSuspense Level = "SUSPENSE"
)

// GLMapping associates a category with a GL account. EntityID and VendorID
// narrow the scope: both set means vendor-level, entity only means
// entity-level, neither means global.
type GLMapping struct {
	Category  Category `json:"category"`
	GLAccount string   `json:"gl_account"`
	EntityID  string   `json:"entity_id,omitempty"`
	VendorID  string   `json:"vendor_id,omitempty"`
}

// MappingSet is the read-only GL mapping table for one resolution run plus
// the suspense account unmapped lines land on.
type MappingSet struct {
	Mappings        []GLMapping `json:"mappings"`
	SuspenseAccount string      `json:"suspense_account"`
}

// Transform names for dimension rules.
const (
	TransformUppercase   = "uppercase"
	TransformNormalize   = "normalize"
	TransformDateBucket  = "date_bucket"
	TransformPassthrough = "passthrough"
)

// DimensionRule computes one dimension value from a source field. Scoped the
// same way GL mappings are: vendor-specific beats entity-specific beats
// global.
type DimensionRule struct {
	Code        string `json:"code"`
	SourceField string `json:"source_field"`
	Transform   string `json:"transform,omitempty"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required"`
	EntityID    string `json:"entity_id,omitempty"`
	VendorID    string `json:"vendor_id,omitempty"`
}

// LineCoding is the decision for one line item.
type LineCoding struct {
	Index             int               `json:"index"`
	Description       string            `json:"description"`
	Category          Category          `json:"category"`
	GLAccount         string            `json:"gl_account"`
	Level             Level             `json:"level"`
	Amount            *float64          `json:"amount,omitempty"`
	Dimensions        map[string]string `json:"dimensions,omitempty"`
	MissingDimensions []string          `json:"missing_dimensions,omitempty"`
	IsComplete        bool              `json:"is_complete"`
}

// InvoiceCoding is the per-invoice output: every line's decision plus
// invoice-level rollups of what is still missing.
type InvoiceCoding struct {
	InvoiceNumber string       `json:"invoice_number"`
	EntityID      string       `json:"entity_id"`
	VendorID      string       `json:"vendor_id,omitempty"`
	Lines         []LineCoding `json:"lines"`
	IsComplete    bool         `json:"is_complete"`
	Gaps          []string     `json:"gaps,omitempty"`
}
