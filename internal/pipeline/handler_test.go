package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/feedlot-ap/feedlot-ap/internal/entity"
	"github.com/feedlot-ap/feedlot-ap/internal/recon"
	"github.com/feedlot-ap/feedlot-ap/internal/shared"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
)

type stubArtifacts struct {
	results map[uuid.UUID]PackageResult
}

func (s *stubArtifacts) SaveResult(_ context.Context, result PackageResult) error {
	if s.results == nil {
		s.results = make(map[uuid.UUID]PackageResult)
	}
	s.results[result.PackageID] = result
	return nil
}

func (s *stubArtifacts) GetResult(_ context.Context, packageID uuid.UUID) (PackageResult, error) {
	result, ok := s.results[packageID]
	if !ok {
		return PackageResult{}, fmt.Errorf("artifact %s: %w", packageID, shared.ErrNotFound)
	}
	return result, nil
}

func newTestRouter(t *testing.T, artifacts ArtifactStore) chi.Router {
	t.Helper()
	svc := newTestService(t, testBundle())
	h := NewHandler(testLogger(), svc, artifacts, nil, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerReconcile(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})
	pkg := testPackage(cleanInvoice("13290", "BF2-5521", 8517.37))

	rr := doJSON(t, router, http.MethodPost, "/reconcile", pkg)
	require.Equal(t, http.StatusOK, rr.Code)

	var report recon.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Equal(t, recon.StatusPass, report.Status)
	require.Equal(t, "BF2-2025-06", report.ScopeKey)
}

func TestHandlerReconcileMalformed(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})
	pkg := testPackage(cleanInvoice("13290", "BF2-5521", 100))
	pkg.Statement.LotReferences = nil

	rr := doJSON(t, router, http.MethodPost, "/reconcile", pkg)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandlerReconcileMissingScopeKey(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})
	pkg := testPackage(cleanInvoice("13290", "BF2-5521", 100))
	pkg.ScopeKey = ""

	rr := doJSON(t, router, http.MethodPost, "/reconcile", pkg)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandlerReconcileBadJSON(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})
	req := httptest.NewRequest(http.MethodPost, "/reconcile", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerResolveEntity(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})
	body := map[string]any{"signals": []entity.Signal{
		{Type: entity.SignalOwnerNumber, Value: "4402"},
		{Type: entity.SignalRemitState, Value: "TX"},
		{Type: entity.SignalNameFragment, Value: "Bovina Feeders"},
		{Type: entity.SignalLotPrefix, Value: "BF2-5521"},
	}}

	rr := doJSON(t, router, http.MethodPost, "/invoices/resolve-entity", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var res entity.Resolution
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.True(t, res.IsAutoAssigned)
	require.Equal(t, "ENT-BF2", res.EntityID)
}

func TestHandlerResolveVendor(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})

	rr := doJSON(t, router, http.MethodPost, "/invoices/resolve-vendor", map[string]string{
		"entity_id": "ENT-BF2",
		"name":      "Bovina Feeders, Inc.",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var res vendor.Resolution
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, vendor.MatchExactAlias, res.MatchType)
	require.Equal(t, 100, res.Confidence)

	rr = doJSON(t, router, http.MethodPost, "/invoices/resolve-vendor", map[string]string{"name": "x"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerConfirmVendor(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})

	rr := doJSON(t, router, http.MethodPost, "/vendors/confirm", map[string]any{
		"entity_id": "ENT-BF2",
		"raw_name":  "Bovina Feedyard Inc",
		"vendor":    vendor.Vendor{ID: "V-1001", EntityID: "ENT-BF2", Number: "1001", Name: "Bovina Cattle Feeders"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var alias vendor.Alias
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &alias))
	require.Equal(t, "bovina feedyard", alias.NormalizedName)
	require.Equal(t, "confirmed", alias.Source)

	rr = doJSON(t, router, http.MethodPost, "/vendors/confirm", map[string]any{
		"entity_id": "ENT-BF2",
		"raw_name":  "Cimarron Supply",
		"vendor":    vendor.Vendor{ID: "V-9", EntityID: "ENT-CC1"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandlerCodeInvoice(t *testing.T) {
	router := newTestRouter(t, &stubArtifacts{})

	rr := doJSON(t, router, http.MethodPost, "/invoices/code", map[string]any{
		"invoice":   cleanInvoice("13290", "BF2-5521", 100),
		"entity_id": "ENT-BF2",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"gl_account":"5100"`)

	rr = doJSON(t, router, http.MethodPost, "/invoices/code", map[string]any{
		"invoice": cleanInvoice("13290", "BF2-5521", 100),
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerGetReport(t *testing.T) {
	artifacts := &stubArtifacts{}
	router := newTestRouter(t, artifacts)

	id := uuid.New()
	rr := doJSON(t, router, http.MethodGet, "/packages/"+id.String()+"/report", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	require.NoError(t, artifacts.SaveResult(context.Background(), PackageResult{
		PackageID: id,
		ScopeKey:  "BF2-2025-06",
		Report:    recon.Report{ScopeKey: "BF2-2025-06", Status: recon.StatusPass},
	}))
	rr = doJSON(t, router, http.MethodGet, "/packages/"+id.String()+"/report", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var result PackageResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	require.Equal(t, id, result.PackageID)

	rr = doJSON(t, router, http.MethodGet, "/packages/not-a-uuid/report", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
