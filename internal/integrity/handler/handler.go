// Package handler exposes the integrity engine to guild administrators over
// HTTP. Routes expect the admin token middleware to run first.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
	dErrors "counsel/pkg/domain-errors"
	"counsel/pkg/platform/httputil"
	"counsel/pkg/requestcontext"
)

// Service is the slice of the integrity service the handler needs.
type Service interface {
	ScanForIntegrityIssues(ctx context.Context, guildID string) (*models.Report, error)
	ScanAndRepair(ctx context.Context, guildID string) (*models.Report, *models.RepairResult, error)
	ValidateBeforeOperation(ctx context.Context, entity models.Entity, t models.EntityType, op models.OperationKind, rc rules.Context) (*models.OperationCheck, error)
	Rules(t models.EntityType) []rules.Rule
}

// Handler serves the integrity admin endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// New creates a Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the integrity routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/guilds/{guildID}/integrity", h.handleScan)
	r.Post("/admin/guilds/{guildID}/integrity/repair", h.handleRepair)
	r.Post("/admin/guilds/{guildID}/integrity/check", h.handleCheck)
	r.Get("/admin/integrity/rules", h.handleListRules)
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guildID := chi.URLParam(r, "guildID")

	report, err := h.svc.ScanForIntegrityIssues(ctx, guildID)
	if err != nil {
		h.fail(ctx, w, "integrity scan failed", guildID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toScanResponse(report))
}

func (h *Handler) handleRepair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guildID := chi.URLParam(r, "guildID")

	report, result, err := h.svc.ScanAndRepair(ctx, guildID)
	if err != nil {
		h.fail(ctx, w, "integrity repair failed", guildID, err)
		return
	}
	h.logger.InfoContext(ctx, "integrity repair requested",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.ActorID(ctx),
		"guild_id", guildID,
		"repaired", result.IssuesRepaired,
		"failed", result.IssuesFailed,
	)
	httputil.WriteJSON(w, http.StatusOK, RepairResponse{Scan: toScanResponse(report), Result: result})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guildID := chi.URLParam(r, "guildID")

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid integrity check request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(guildID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	check, err := h.svc.ValidateBeforeOperation(ctx, req.parsedEntity, req.parsedType, req.parsedOp, rules.Context{GuildID: guildID})
	if err != nil {
		h.fail(ctx, w, "integrity check failed", guildID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	var t models.EntityType
	if raw := r.URL.Query().Get("entity_type"); raw != "" {
		parsed, err := models.ParseEntityType(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "unknown entity_type"))
			return
		}
		t = parsed
	}
	httputil.WriteJSON(w, http.StatusOK, toRuleResponses(h.svc.Rules(t)))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg, guildID string, err error) {
	level := slog.LevelError
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"guild_id", guildID,
		"error", err,
	)
	httputil.WriteError(w, err)
}
