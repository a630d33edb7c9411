package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
	"counsel/internal/integrity/service"
	"counsel/internal/storage"
	"counsel/pkg/platform/middleware/admin"
)

const adminToken = "secret-token"

func newIntegrityRouter(t *testing.T) (http.Handler, *storage.InMemory) {
	t.Helper()
	store := storage.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(store.Ports(), service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(admin.RequireAdminToken(adminToken, logger))
	New(svc, logger).Register(r)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Admin-Token", adminToken)
	req.Header.Set(admin.ActorHeader, "admin-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminTokenRequired(t *testing.T) {
	router, _ := newIntegrityRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/guilds/g1/integrity", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when admin token missing, got %d", rec.Code)
	}
}

func TestScanAndRepairViaHandlers(t *testing.T) {
	router, store := newIntegrityRouter(t)
	ctx := context.Background()
	require.NoError(t, store.Cases.Save(ctx, &models.Case{Base: models.Base{ID: "c1", GuildID: "g1"}, LeadAttorneyID: "ghost"}))
	require.NoError(t, store.Applications.Save(ctx, &models.Application{Base: models.Base{ID: "a1", GuildID: "g1"}, JobID: "gone"}))

	rec := do(t, router, http.MethodGet, "/admin/guilds/g1/integrity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scan struct {
		GuildID    string                  `json:"guild_id"`
		Issues     []models.Issue          `json:"issues"`
		BySeverity map[models.Severity]int `json:"by_severity"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&scan))
	assert.Equal(t, "g1", scan.GuildID)
	assert.Len(t, scan.Issues, 2)
	assert.Equal(t, 2, scan.BySeverity[models.SeverityCritical])

	rec = do(t, router, http.MethodPost, "/admin/guilds/g1/integrity/repair", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var repaired RepairResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&repaired))
	assert.Equal(t, 2, repaired.Result.TotalIssuesFound)
	assert.Equal(t, 1, repaired.Result.IssuesRepaired)
	assert.Equal(t, 0, repaired.Result.IssuesFailed)

	c, err := store.Cases.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, c.LeadAttorneyID)
}

func TestCheckOperation(t *testing.T) {
	router, store := newIntegrityRouter(t)
	require.NoError(t, store.Staff.Save(context.Background(),
		&models.Staff{Base: models.Base{ID: "s1", GuildID: "g1"}, UserID: "u1", Status: models.StaffActive}))

	t.Run("critical issue refuses the operation", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/admin/guilds/g1/integrity/check", map[string]any{
			"entity_type": "case",
			"operation":   "create",
			"entity":      map[string]any{"id": "c9", "lead_attorney_id": "ghost"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var check models.OperationCheck
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&check))
		assert.False(t, check.Allowed)
		require.Len(t, check.Issues, 1)
		assert.Equal(t, "g1", check.Issues[0].GuildID, "path guild applies to the entity")
	})

	t.Run("valid staff reference is allowed", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/admin/guilds/g1/integrity/check", map[string]any{
			"entity_type": "case",
			"operation":   "update",
			"entity":      map[string]any{"id": "c9", "guild_id": "other", "lead_attorney_id": "u1"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var check models.OperationCheck
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&check))
		assert.True(t, check.Allowed)
		assert.Empty(t, check.Issues)
	})

	tests := []struct {
		name string
		body any
		want string
	}{
		{"unknown operation", map[string]any{"entity_type": "case", "operation": "archive", "entity": map[string]any{"id": "c1"}}, "operation failed oneof"},
		{"unknown type", map[string]any{"entity_type": "invoice", "operation": "create", "entity": map[string]any{"id": "x"}}, "unknown entity_type"},
		{"missing id", map[string]any{"entity_type": "job", "operation": "create", "entity": map[string]any{}}, "entity.id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/admin/guilds/g1/integrity/check", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/guilds/g1/integrity/check", strings.NewReader("{"))
		req.Header.Set("X-Admin-Token", adminToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListRules(t *testing.T) {
	router, _ := newIntegrityRouter(t)

	rec := do(t, router, http.MethodGet, "/admin/integrity/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []RuleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 8)

	rec = do(t, router, http.MethodGet, "/admin/integrity/rules?entity_type=application", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var apps []RuleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apps))
	require.Len(t, apps, 2)
	assert.Equal(t, "application.job_exists", apps[0].Name)

	rec = do(t, router, http.MethodGet, "/admin/integrity/rules?entity_type=invoice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
