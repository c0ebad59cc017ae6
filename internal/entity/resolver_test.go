package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
)

func testProfiles() []Profile {
	return []Profile{
		{
			ID:   "ENT-BF2",
			Code: "BF2",
			Name: "Bovina Feeders",
			Rules: []RoutingRule{
				{Type: SignalOwnerNumber, Value: "4402", Weight: 35},
				{Type: SignalRemitState, Value: "TX"},
				{Type: SignalLotPrefix, Value: "BF2"},
			},
		},
		{
			ID:      "ENT-CC1",
			Code:    "CC1",
			Name:    "Cimarron Cattle Company",
			Aliases: []string{"Cimarron Cattle"},
			Rules: []RoutingRule{
				{Type: SignalOwnerNumber, Value: "7710"},
				{Type: SignalRemitState, Value: "OK"},
				{Type: SignalLotPrefix, Value: "CC"},
			},
		},
	}
}

func TestResolveAutoAssign(t *testing.T) {
	signals := []Signal{
		{Type: SignalOwnerNumber, Value: "4402"},
		{Type: SignalRemitState, Value: "TX"},
		{Type: SignalNameFragment, Value: "Bovina Feeders"},
		{Type: SignalLotPrefix, Value: "BF2-5521"},
	}
	res := NewResolver().Resolve(signals, testProfiles())

	require.True(t, res.IsAutoAssigned)
	require.Equal(t, "ENT-BF2", res.EntityID)
	require.Equal(t, 75, res.Score, "35 owner + 15 state + 15 name + 10 lot prefix")
	require.Equal(t, 75, res.Margin, "runner-up scored zero")
	require.Empty(t, res.Candidates)
}

func TestResolveBelowScoreThreshold(t *testing.T) {
	signals := []Signal{{Type: SignalOwnerNumber, Value: "4402"}}
	res := NewResolver().Resolve(signals, testProfiles())

	require.False(t, res.IsAutoAssigned)
	require.Empty(t, res.EntityID)
	require.Len(t, res.Candidates, 1)
	require.Equal(t, "ENT-BF2", res.Candidates[0].EntityID)
	require.Equal(t, 35, res.Candidates[0].Score)
}

func TestResolveInsufficientMargin(t *testing.T) {
	profiles := []Profile{
		{ID: "ENT-A", Code: "A", Name: "Alpha Cattle", Rules: []RoutingRule{
			{Type: SignalOwnerNumber, Value: "100", Weight: 40},
			{Type: SignalRemitState, Value: "TX"},
			{Type: SignalLotPrefix, Value: "AL"},
		}},
		{ID: "ENT-B", Code: "B", Name: "Beta Cattle", Rules: []RoutingRule{
			{Type: SignalOwnerNumber, Value: "100", Weight: 40},
			{Type: SignalRemitState, Value: "TX"},
		}},
	}
	signals := []Signal{
		{Type: SignalOwnerNumber, Value: "100"},
		{Type: SignalRemitState, Value: "TX"},
		{Type: SignalLotPrefix, Value: "AL-1"},
	}
	res := NewResolver().Resolve(signals, profiles)

	// ENT-A scores 65, ENT-B scores 55: margin 10 < 15, no auto-assign even
	// though a clear leader exists.
	require.False(t, res.IsAutoAssigned)
	require.Equal(t, 65, res.Score)
	require.Equal(t, 10, res.Margin)
	require.Len(t, res.Candidates, 2)
	require.Equal(t, "ENT-A", res.Candidates[0].EntityID)
}

func TestResolveNoSignals(t *testing.T) {
	res := NewResolver().Resolve(nil, testProfiles())
	require.False(t, res.IsAutoAssigned)
	require.Empty(t, res.Candidates)
	require.Zero(t, res.Score)
}

func TestResolveCandidatesCapped(t *testing.T) {
	profiles := make([]Profile, 0, 5)
	for _, id := range []string{"ENT-1", "ENT-2", "ENT-3", "ENT-4", "ENT-5"} {
		profiles = append(profiles, Profile{
			ID:    id,
			Code:  id,
			Name:  id,
			Rules: []RoutingRule{{Type: SignalRemitState, Value: "TX"}},
		})
	}
	res := NewResolver().Resolve([]Signal{{Type: SignalRemitState, Value: "TX"}}, profiles)

	require.False(t, res.IsAutoAssigned)
	require.Len(t, res.Candidates, 3)
	// Equal scores break ties by entity id for determinism.
	require.Equal(t, "ENT-1", res.Candidates[0].EntityID)
	require.Equal(t, "ENT-2", res.Candidates[1].EntityID)
	require.Equal(t, "ENT-3", res.Candidates[2].EntityID)
}

func TestOwnerWeightClamped(t *testing.T) {
	cases := []struct {
		name   string
		weight int
		want   int
	}{
		{"default when unset", 0, 30},
		{"clamped low", 10, 25},
		{"clamped high", 90, 40},
		{"in range", 33, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{ID: "E", Rules: []RoutingRule{{Type: SignalOwnerNumber, Value: "1", Weight: tc.weight}}}
			got, ok := ownerNumberWeight(p, "1")
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestVendorNameSignal(t *testing.T) {
	signals := []Signal{
		{Type: SignalOwnerNumber, Value: "4402"},
		{Type: SignalRemitState, Value: "TX"},
		{Type: SignalVendorName, Value: "ENT-BF2"},
	}
	res := NewResolver().Resolve(signals, testProfiles())

	// 35 + 15 + 30 = 80, sole scorer, margin equals score.
	require.True(t, res.IsAutoAssigned)
	require.Equal(t, "ENT-BF2", res.EntityID)
	require.Equal(t, 80, res.Score)
	require.Equal(t, 80, res.Margin)
	require.Len(t, res.Reasons, 3)
}

func TestExtractSignals(t *testing.T) {
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	inv := document.Invoice{
		InvoiceNumber: "13290",
		LotNumber:     "BF2-5521",
		InvoiceDate:   &date,
		FeedlotName:   "Bovina Feeders",
		OwnerNumber:   "4402",
		RemitToState:  "TX",
	}
	signals := ExtractSignals(inv, []string{"ENT-BF2"})

	require.ElementsMatch(t, []Signal{
		{Type: SignalOwnerNumber, Value: "4402"},
		{Type: SignalRemitState, Value: "TX"},
		{Type: SignalNameFragment, Value: "Bovina Feeders"},
		{Type: SignalLotPrefix, Value: "BF2-5521"},
		{Type: SignalVendorName, Value: "ENT-BF2"},
	}, signals)
}

func TestExtractSignalsSkipsEmpty(t *testing.T) {
	signals := ExtractSignals(document.Invoice{OwnerNumber: "  "}, []string{"", " "})
	require.Empty(t, signals)
}
