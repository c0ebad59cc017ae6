package pipeline

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
	"github.com/feedlot-ap/feedlot-ap/internal/entity"
	"github.com/feedlot-ap/feedlot-ap/internal/platform/cache"
	"github.com/feedlot-ap/feedlot-ap/internal/platform/httpx"
	"github.com/feedlot-ap/feedlot-ap/internal/shared"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
)

// TaskTypePackageProcess is the asynq task type for full package processing.
const TaskTypePackageProcess = "package:process"

// PackageTaskPayload is the asynq payload for TaskTypePackageProcess.
type PackageTaskPayload struct {
	PackageID uuid.UUID `json:"package_id"`
}

// NewPackageProcessTask builds the asynq task for one package.
func NewPackageProcessTask(packageID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(PackageTaskPayload{PackageID: packageID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePackageProcess, payload), nil
}

// Handler exposes the resolution core over HTTP. Each endpoint is a thin
// JSON wrapper over one service entry point.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	artifacts ArtifactStore
	enqueuer  *asynq.Client
	reports   *cache.ReportCache
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, artifacts ArtifactStore, enqueuer *asynq.Client, reports *cache.ReportCache) *Handler {
	return &Handler{logger: logger, service: service, artifacts: artifacts, enqueuer: enqueuer, reports: reports}
}

// MountRoutes registers resolution routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reconcile", h.reconcile)
	r.Post("/invoices/resolve-entity", h.resolveEntity)
	r.Post("/invoices/resolve-vendor", h.resolveVendor)
	r.Post("/invoices/code", h.codeInvoice)
	r.Post("/vendors/confirm", h.confirmVendor)
	r.Post("/packages/{id}/process", h.enqueuePackage)
	r.Get("/packages/{id}/report", h.getReport)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var pkg document.Package
	if err := httpx.DecodeJSON(r, &pkg); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package payload")
		return
	}
	report, err := h.service.Reconcile(pkg)
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Malformed Document", err.Error())
			return
		}
		h.logger.Error("reconcile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

type resolveEntityRequest struct {
	Signals []entity.Signal `json:"signals"`
}

func (h *Handler) resolveEntity(w http.ResponseWriter, r *http.Request) {
	var req resolveEntityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid signals payload")
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.ResolveEntity(req.Signals))
}

type resolveVendorRequest struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
}

func (h *Handler) resolveVendor(w http.ResponseWriter, r *http.Request) {
	var req resolveVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.EntityID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "entity_id and name are required")
		return
	}
	res, err := h.service.ResolveVendor(r.Context(), req.EntityID, req.Name, req.Address)
	if err != nil {
		h.logger.Error("resolve vendor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

type confirmVendorRequest struct {
	EntityID string        `json:"entity_id"`
	RawName  string        `json:"raw_name"`
	Vendor   vendor.Vendor `json:"vendor"`
}

func (h *Handler) confirmVendor(w http.ResponseWriter, r *http.Request) {
	var req confirmVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.EntityID == "" || req.RawName == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "entity_id, raw_name and vendor are required")
		return
	}
	alias, err := h.service.ConfirmVendor(r.Context(), req.EntityID, req.RawName, req.Vendor)
	if err != nil {
		if errors.Is(err, vendor.ErrUnknownVendor) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Vendor", err.Error())
			return
		}
		h.logger.Error("confirm vendor", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, alias)
}

type codeInvoiceRequest struct {
	Invoice  document.Invoice `json:"invoice"`
	EntityID string           `json:"entity_id"`
	VendorID string           `json:"vendor_id,omitempty"`
}

func (h *Handler) codeInvoice(w http.ResponseWriter, r *http.Request) {
	var req codeInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.EntityID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invoice and entity_id are required")
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.CodeInvoice(req.Invoice, req.EntityID, req.VendorID))
}

func (h *Handler) enqueuePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}
	task, err := NewPackageProcessTask(id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	info, err := h.enqueuer.EnqueueContext(r.Context(), task)
	if err != nil {
		h.logger.Error("enqueue package", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.reports.Invalidate(r.Context(), id.String())
	httpx.JSON(w, http.StatusAccepted, map[string]string{
		"package_id": id.String(),
		"task_id":    info.ID,
		"queue":      info.Queue,
	})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid package id")
		return
	}
	if payload, ok := h.reports.Get(r.Context(), id.String()); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}
	result, err := h.artifacts.GetResult(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no decision artifact for package")
			return
		}
		h.logger.Error("get report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.reports.Set(r.Context(), id.String(), payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
