//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "counsel/pkg/platform/audit"
	"counsel/pkg/platform/audit/store/postgres"
	"counsel/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetPostgres(s.T())
	s.Require().NoError(s.postgres.Exec(context.Background(), postgres.Schema))
	s.store = postgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "integrity_audit"))
}

func (s *AuditStoreSuite) TestAppendIsIdempotentByID() {
	ctx := context.Background()
	e := audit.Entry{
		ID:         uuid.New(),
		Action:     audit.ActionIntegrityRepair,
		GuildID:    "g1",
		EntityType: "feedback",
		EntityID:   "f1",
		Field:      "targetStaffId",
		Message:    "Target staff member u9 not found",
		Timestamp:  time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Append(ctx, e))
	s.Require().NoError(s.store.Append(ctx, e))

	entries, err := s.store.ListByGuild(ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(e.ID, entries[0].ID)
	s.Equal(audit.ActionIntegrityRepair, entries[0].Action)
	s.True(e.Timestamp.Equal(entries[0].Timestamp))
}
