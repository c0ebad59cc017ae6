package document

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func validStatement() Statement {
	return Statement{
		FeedlotName: "Bovina Feeders",
		OwnerNumber: "4402",
		PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		LotReferences: []LotReference{
			{InvoiceNumber: "13290", LotNumber: "BF2-5521"},
		},
	}
}

func TestValidateStatement(t *testing.T) {
	require.NoError(t, ValidateStatement(validStatement()))
}

func TestValidateStatementMalformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Statement)
	}{
		{"missing feedlot name", func(st *Statement) { st.FeedlotName = "" }},
		{"missing period start", func(st *Statement) { st.PeriodStart = time.Time{} }},
		{"period end before start", func(st *Statement) {
			st.PeriodEnd = st.PeriodStart.AddDate(0, 0, -1)
		}},
		{"no lot references", func(st *Statement) { st.LotReferences = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := validStatement()
			tc.mutate(&st)
			err := ValidateStatement(st)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestValidatePackage(t *testing.T) {
	pkg := Package{ID: uuid.New(), ScopeKey: "BF2-2025-06", Statement: validStatement()}
	require.NoError(t, ValidatePackage(pkg))

	pkg.ScopeKey = ""
	require.ErrorIs(t, ValidatePackage(pkg), ErrMalformed)
}

func TestLineSum(t *testing.T) {
	a, b := 7200.12, 1317.25
	inv := Invoice{LineItems: []LineItem{
		{Description: "Feed", Amount: &a},
		{Description: "Yardage", Amount: &b},
		{Description: "No amount"},
	}}
	sum, counted := inv.LineSum()
	require.Equal(t, 2, counted)
	require.InDelta(t, 8517.37, sum, 1e-9)
}

func TestResolvedTotal(t *testing.T) {
	total, subtotal, adj := 100.0, 90.0, 5.0

	require.Nil(t, Invoice{}.ResolvedTotal())

	got := Invoice{TotalDue: &total}.ResolvedTotal()
	require.NotNil(t, got)
	require.Equal(t, 100.0, *got)

	got = Invoice{Subtotal: &subtotal, Adjustments: &adj}.ResolvedTotal()
	require.NotNil(t, got)
	require.Equal(t, 95.0, *got)

	got = Invoice{Subtotal: &subtotal}.ResolvedTotal()
	require.NotNil(t, got)
	require.Equal(t, 90.0, *got)
}
