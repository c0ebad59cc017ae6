package coding

import (
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/matching"
)

// categoryRule ties a category to the description keywords that select it.
// Rules are evaluated in this explicit order; the first hit wins, so the more
// specific charge types sit above feed.
type categoryRule struct {
	category Category
	keywords []string
}

var categoryRules = []categoryRule{
	{CategoryInterest, []string{"interest", "finance charge", "carrying charge"}},
	{CategoryInsurance, []string{"insurance", "premium", "coverage"}},
	{CategoryCommission, []string{"commission", "brokerage", "agent fee"}},
	{CategoryFreight, []string{"freight", "trucking", "hauling", "transport", "shipping"}},
	{CategoryVeterinary, []string{"vet", "veterinary", "medic", "vaccine", "antibiotic", "treatment", "doctoring", "implant", "health"}},
	{CategoryProcessing, []string{"processing", "branding", "tagging", "chute", "receiving"}},
	{CategoryYardage, []string{"yardage", "pen rent", "bunk", "bedding"}},
	{CategoryFeed, []string{"feed", "ration", "corn", "hay", "silage", "grain", "supplement", "mineral", "protein", "roughage"}},
}

// Classify resolves a line's category from its optional extraction hint
// first, then keyword matching on the description. Unmatched lines fall back
// to uncategorized rather than failing.
func Classify(description, hint string) Category {
	if c, ok := categoryFromHint(hint); ok {
		return c
	}
	folded := " " + strings.Join(matching.Tokens(description), " ") + " "
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(folded, " "+kw) {
				return rule.category
			}
		}
	}
	return CategoryUncategorized
}

func categoryFromHint(hint string) (Category, bool) {
	folded := matching.Fold(strings.TrimSpace(hint))
	if folded == "" {
		return "", false
	}
	for _, rule := range categoryRules {
		if folded == string(rule.category) {
			return rule.category, true
		}
	}
	return "", false
}
