package coding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		description string
		hint        string
		want        Category
	}{
		{"Feed ration week 24", "", CategoryFeed},
		{"Corn silage delivery", "", CategoryFeed},
		{"Yardage 6/1-6/30", "", CategoryYardage},
		{"Pen rent June", "", CategoryYardage},
		{"Vet supplies and treatment", "", CategoryVeterinary},
		{"Vaccine booster round", "", CategoryVeterinary},
		{"Processing and branding", "", CategoryProcessing},
		{"Mortality insurance premium", "", CategoryInsurance},
		{"Interest on feed advance", "", CategoryInterest},
		{"Freight to Amarillo", "", CategoryFreight},
		{"Sale commission 2%", "", CategoryCommission},
		{"Miscellaneous charge", "", CategoryUncategorized},
		// Hint wins over description keywords.
		{"Feed ration week 24", "yardage", CategoryYardage},
		// Unknown hints fall back to the description.
		{"Feed ration week 24", "misc", CategoryFeed},
		// Specific charge types beat feed even when feed words appear.
		{"Interest on feed account", "", CategoryInterest},
		{"Feed hauling", "", CategoryFreight},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.description, tc.hint))
		})
	}
}

func testMappings() MappingSet {
	return MappingSet{
		SuspenseAccount: "9999",
		Mappings: []GLMapping{
			{Category: CategoryFeed, GLAccount: "5100"},
			{Category: CategoryYardage, GLAccount: "5200"},
			{Category: CategoryVeterinary, GLAccount: "5300"},
			{Category: CategoryFeed, GLAccount: "5110", EntityID: "ENT-BF2"},
			{Category: CategoryFeed, GLAccount: "5115", EntityID: "ENT-BF2", VendorID: "V-1002"},
		},
	}
}

func TestLookupAccountPrecedence(t *testing.T) {
	engine, err := NewEngine(testMappings(), nil)
	require.NoError(t, err)

	cases := []struct {
		name      string
		entityID  string
		vendorID  string
		account   string
		wantLevel Level
	}{
		{"vendor-level wins", "ENT-BF2", "V-1002", "5115", LevelVendor},
		{"entity-level when vendor has no mapping", "ENT-BF2", "V-9999", "5110", LevelEntity},
		{"entity-level without vendor", "ENT-BF2", "", "5110", LevelEntity},
		{"global for other entities", "ENT-CC1", "", "5100", LevelGlobal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account, level := engine.lookupAccount(CategoryFeed, tc.entityID, tc.vendorID)
			require.Equal(t, tc.account, account)
			require.Equal(t, tc.wantLevel, level)
		})
	}
}

func TestCodeInvoiceSuspense(t *testing.T) {
	engine, err := NewEngine(testMappings(), nil)
	require.NoError(t, err)

	amount := 42.50
	inv := document.Invoice{
		InvoiceNumber: "13290",
		LineItems: []document.LineItem{
			{Description: "Feed ration", Amount: &amount},
			{Description: "Mystery charge", Amount: &amount},
		},
	}
	out := engine.CodeInvoice(inv, "ENT-BF2", "")

	require.Len(t, out.Lines, 2)
	require.True(t, out.Lines[0].IsComplete)
	require.Equal(t, "5110", out.Lines[0].GLAccount)

	require.False(t, out.Lines[1].IsComplete)
	require.Equal(t, "9999", out.Lines[1].GLAccount)
	require.Equal(t, LevelSuspense, out.Lines[1].Level)
	require.Equal(t, CategoryUncategorized, out.Lines[1].Category)

	require.False(t, out.IsComplete)
	require.Len(t, out.Gaps, 1)
	require.Contains(t, out.Gaps[0], "Mystery charge")
}

func TestComputeDimensions(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	rules := []DimensionRule{
		{Code: "LOT", SourceField: "lot_number", Transform: TransformUppercase, Required: true},
		{Code: "PERIOD", SourceField: "invoice_date", Transform: TransformDateBucket, Required: true},
		{Code: "OWNER", SourceField: "owner_number", Default: "UNASSIGNED"},
		{Code: "CAT", SourceField: "category"},
	}
	engine, err := NewEngine(testMappings(), rules)
	require.NoError(t, err)

	inv := document.Invoice{
		InvoiceNumber: "13290",
		LotNumber:     "bf2-5521",
		InvoiceDate:   &date,
		LineItems:     []document.LineItem{{Description: "Feed ration"}},
	}
	out := engine.CodeInvoice(inv, "ENT-BF2", "")

	require.True(t, out.IsComplete)
	line := out.Lines[0]
	require.Equal(t, map[string]string{
		"LOT":    "BF2-5521",
		"PERIOD": "2025-06",
		"OWNER":  "UNASSIGNED",
		"CAT":    "feed",
	}, line.Dimensions)
	require.Empty(t, line.MissingDimensions)
}

func TestRequiredDimensionMissing(t *testing.T) {
	rules := []DimensionRule{
		{Code: "LOT", SourceField: "lot_number", Required: true},
		{Code: "MEMO", SourceField: "owner_name"},
	}
	engine, err := NewEngine(testMappings(), rules)
	require.NoError(t, err)

	inv := document.Invoice{
		InvoiceNumber: "13290",
		LineItems:     []document.LineItem{{Description: "Feed ration"}},
	}
	out := engine.CodeInvoice(inv, "ENT-BF2", "")

	require.False(t, out.IsComplete)
	line := out.Lines[0]
	require.Equal(t, []string{"LOT"}, line.MissingDimensions)
	require.NotContains(t, line.Dimensions, "MEMO", "optional dimension simply absent")
	require.Contains(t, out.Gaps[0], "LOT")
}

func TestDimensionRuleScoping(t *testing.T) {
	rules := []DimensionRule{
		{Code: "SRC", Default: "global"},
		{Code: "SRC", Default: "entity", EntityID: "ENT-BF2"},
		{Code: "SRC", Default: "vendor", EntityID: "ENT-BF2", VendorID: "V-1002"},
	}
	engine, err := NewEngine(testMappings(), rules)
	require.NoError(t, err)

	inv := document.Invoice{LineItems: []document.LineItem{{Description: "Feed"}}}

	require.Equal(t, "vendor", engine.CodeInvoice(inv, "ENT-BF2", "V-1002").Lines[0].Dimensions["SRC"])
	require.Equal(t, "entity", engine.CodeInvoice(inv, "ENT-BF2", "").Lines[0].Dimensions["SRC"])
	require.Equal(t, "global", engine.CodeInvoice(inv, "ENT-CC1", "").Lines[0].Dimensions["SRC"])
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(MappingSet{}, nil)
	require.Error(t, err, "suspense account required")

	_, err = NewEngine(MappingSet{
		SuspenseAccount: "9999",
		Mappings:        []GLMapping{{Category: CategoryFeed}},
	}, nil)
	require.Error(t, err, "mapping without account")

	_, err = NewEngine(MappingSet{
		SuspenseAccount: "9999",
		Mappings:        []GLMapping{{Category: CategoryFeed, GLAccount: "5100", VendorID: "V-1"}},
	}, nil)
	require.Error(t, err, "vendor mapping without entity scope")

	_, err = NewEngine(MappingSet{SuspenseAccount: "9999"}, []DimensionRule{{Code: "X"}})
	require.Error(t, err, "rule with neither source nor default")
}
