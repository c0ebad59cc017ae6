package coding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
	"github.com/feedlot-ap/feedlot-ap/internal/matching"
)

// Engine codes invoices against one loaded mapping set and dimension rule
// set. Stateless across invoices; reference data is fixed for the run.
type Engine struct {
	mappings MappingSet
	rules    []DimensionRule
}

// NewEngine validates the reference data once, up front, so a bad
// configuration fails before any invoice is coded.
func NewEngine(mappings MappingSet, rules []DimensionRule) (*Engine, error) {
	if mappings.SuspenseAccount == "" {
		return nil, fmt.Errorf("coding: suspense account not configured")
	}
	for i, m := range mappings.Mappings {
		if m.Category == "" || m.GLAccount == "" {
			return nil, fmt.Errorf("coding: mapping %d missing category or account", i)
		}
		if m.VendorID != "" && m.EntityID == "" {
			return nil, fmt.Errorf("coding: vendor mapping %d has no entity scope", i)
		}
	}
	for i, r := range rules {
		if r.Code == "" {
			return nil, fmt.Errorf("coding: dimension rule %d missing code", i)
		}
		if r.SourceField == "" && r.Default == "" {
			return nil, fmt.Errorf("coding: dimension rule %s has neither source nor default", r.Code)
		}
	}
	return &Engine{mappings: mappings, rules: rules}, nil
}

// CodeInvoice maps every line item to a GL account and computes its
// dimension values. Unmapped lines land on the suspense account and mark the
// invoice incomplete instead of failing it.
func (e *Engine) CodeInvoice(inv document.Invoice, entityID, vendorID string) InvoiceCoding {
	out := InvoiceCoding{
		InvoiceNumber: inv.InvoiceNumber,
		EntityID:      entityID,
		VendorID:      vendorID,
		IsComplete:    true,
	}
	for i, li := range inv.LineItems {
		line := e.codeLine(inv, li, i, entityID, vendorID)
		if !line.IsComplete {
			out.IsComplete = false
			if line.Level == LevelSuspense {
				out.Gaps = append(out.Gaps, fmt.Sprintf("line %d (%s): no GL mapping for category %s", i, li.Description, line.Category))
			}
			for _, dim := range line.MissingDimensions {
				out.Gaps = append(out.Gaps, fmt.Sprintf("line %d (%s): dimension %s unresolved", i, li.Description, dim))
			}
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

func (e *Engine) codeLine(inv document.Invoice, li document.LineItem, index int, entityID, vendorID string) LineCoding {
	category := Classify(li.Description, li.CategoryHint)
	account, level := e.lookupAccount(category, entityID, vendorID)

	dims, missing := e.computeDimensions(inv, li, category, entityID, vendorID)

	return LineCoding{
		Index:             index,
		Description:       li.Description,
		Category:          category,
		GLAccount:         account,
		Level:             level,
		Amount:            li.Amount,
		Dimensions:        dims,
		MissingDimensions: missing,
		IsComplete:        level != LevelSuspense && len(missing) == 0,
	}
}

// lookupAccount walks the precedence ladder: vendor-level, entity-level,
// global, then the suspense account.
func (e *Engine) lookupAccount(category Category, entityID, vendorID string) (string, Level) {
	if vendorID != "" {
		for _, m := range e.mappings.Mappings {
			if m.Category == category && m.EntityID == entityID && m.VendorID == vendorID {
				return m.GLAccount, LevelVendor
			}
		}
	}
	for _, m := range e.mappings.Mappings {
		if m.Category == category && m.EntityID == entityID && m.VendorID == "" {
			return m.GLAccount, LevelEntity
		}
	}
	for _, m := range e.mappings.Mappings {
		if m.Category == category && m.EntityID == "" && m.VendorID == "" {
			return m.GLAccount, LevelGlobal
		}
	}
	return e.mappings.SuspenseAccount, LevelSuspense
}

// computeDimensions applies, for each dimension code, the most specific
// applicable rule. A dimension is missing when neither its source field nor
// its default resolves.
func (e *Engine) computeDimensions(inv document.Invoice, li document.LineItem, category Category, entityID, vendorID string) (map[string]string, []string) {
	selected := make(map[string]DimensionRule)
	rank := func(r DimensionRule) int {
		switch {
		case r.VendorID != "":
			return 3
		case r.EntityID != "":
			return 2
		default:
			return 1
		}
	}
	for _, r := range e.rules {
		if r.EntityID != "" && r.EntityID != entityID {
			continue
		}
		if r.VendorID != "" && r.VendorID != vendorID {
			continue
		}
		if cur, ok := selected[r.Code]; !ok || rank(r) > rank(cur) {
			selected[r.Code] = r
		}
	}

	dims := make(map[string]string, len(selected))
	var missing []string
	for _, r := range selected {
		value := applyTransform(r.Transform, sourceValue(inv, li, category, r.SourceField))
		if value == "" {
			value = r.Default
		}
		if value == "" {
			if r.Required {
				missing = append(missing, r.Code)
			}
			continue
		}
		dims[r.Code] = value
	}
	sort.Strings(missing)
	return dims, missing
}

func sourceValue(inv document.Invoice, li document.LineItem, category Category, field string) string {
	switch field {
	case "lot_number":
		return inv.LotNumber
	case "invoice_number":
		return inv.InvoiceNumber
	case "invoice_date":
		if inv.InvoiceDate == nil {
			return ""
		}
		return inv.InvoiceDate.Format("2006-01-02")
	case "owner_number":
		return inv.OwnerNumber
	case "owner_name":
		return inv.OwnerName
	case "feedlot_name":
		return inv.FeedlotName
	case "vendor_name":
		return inv.VendorName
	case "description":
		return li.Description
	case "category":
		return string(category)
	default:
		return ""
	}
}

func applyTransform(transform, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch transform {
	case TransformUppercase:
		return strings.ToUpper(value)
	case TransformNormalize:
		return strings.Join(matching.Tokens(value), " ")
	case TransformDateBucket:
		if len(value) >= 7 {
			return value[:7]
		}
		return value
	case TransformPassthrough, "":
		return value
	default:
		return value
	}
}
