package recon

import "github.com/shopspring/decimal"

// Tolerances are intentionally distinct per check type. The intra-invoice
// line-sum check absorbs per-line rounding from extraction, so it carries the
// looser bound; statement-vs-invoice amounts compare two already-rounded
// figures and get the tight one.
var (
	lineSumTolerance      = decimal.NewFromFloat(0.05)
	statementTolerance    = decimal.NewFromFloat(0.01)
	packageTotalTolerance = decimal.NewFromFloat(0.01)
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// money renders an amount for evidence maps with stable formatting.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
