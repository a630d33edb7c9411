//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"counsel/internal/integrity/models"
	platformpg "counsel/internal/platform/postgres"
	"counsel/internal/storage/postgres"
	"counsel/pkg/platform/sentinel"
	"counsel/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	stores   *postgres.Stores
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, s.postgres.DB))
	s.stores = postgres.New(s.postgres.DB)
	s.now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(s.ctx, "staff", "cases", "jobs", "applications", "retainers", "feedback", "reminders")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) base(id, guild string) models.Base {
	return models.Base{ID: id, GuildID: guild, CreatedAt: s.now, UpdatedAt: s.now}
}

func (s *PostgresStoreSuite) TestStaffLookups() {
	s.Require().NoError(s.stores.Staff.Save(s.ctx, &models.Staff{
		Base: s.base("s1", "g1"), UserID: "u1", Status: models.StaffActive, HiredAt: s.now,
	}))

	got, err := s.stores.Staff.FindByUserID(s.ctx, "g1", "u1")
	s.Require().NoError(err)
	s.Equal("s1", got.ID)
	s.Equal(models.StaffActive, got.Status)

	_, err = s.stores.Staff.FindByUserID(s.ctx, "g2", "u1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCaseLawyerArrayRoundTrip() {
	c := &models.Case{
		Base: s.base("c1", "g1"), Status: models.CaseInProgress,
		LeadAttorneyID: "u1", AssignedLawyerIDs: []string{"u1", "u2"},
	}
	s.Require().NoError(s.stores.Cases.Save(s.ctx, c))

	got, err := s.stores.Cases.FindByID(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal([]string{"u1", "u2"}, got.AssignedLawyerIDs)

	got.LeadAttorneyID = ""
	got.AssignedLawyerIDs = nil
	s.Require().NoError(s.stores.Cases.Update(s.ctx, got))

	again, err := s.stores.Cases.FindByID(s.ctx, "c1")
	s.Require().NoError(err)
	s.Empty(again.LeadAttorneyID)
	s.Empty(again.AssignedLawyerIDs)
}

func (s *PostgresStoreSuite) TestJobClosedAt() {
	closed := s.now.Add(-time.Hour)
	s.Require().NoError(s.stores.Jobs.Save(s.ctx, &models.Job{Base: s.base("j1", "g1"), ClosedAt: &closed}))
	s.Require().NoError(s.stores.Jobs.Save(s.ctx, &models.Job{Base: s.base("j2", "g1"), IsOpen: true}))

	jobs, err := s.stores.Jobs.FindByGuild(s.ctx, "g1")
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Require().NotNil(jobs[0].ClosedAt)
	s.True(closed.Equal(*jobs[0].ClosedAt))
	s.Nil(jobs[1].ClosedAt)
}

func (s *PostgresStoreSuite) TestUpdateMissingRow() {
	err := s.stores.Retainers.Update(s.ctx, &models.Retainer{Base: s.base("missing", "g1")})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTransactorRollsBack() {
	s.Require().NoError(s.stores.Reminders.Save(s.ctx, &models.Reminder{
		Base: s.base("r1", "g1"), UserID: "u1", CaseID: "c1", ScheduledFor: s.now, IsActive: true,
	}))

	boom := errors.New("abort")
	err := platformpg.NewTransactor(s.postgres.DB).RunInTx(s.ctx, func(ctx context.Context) error {
		r, err := s.stores.Reminders.FindByID(ctx, "r1")
		if err != nil {
			return err
		}
		r.CaseID = ""
		if err := s.stores.Reminders.Update(ctx, r); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	got, err := s.stores.Reminders.FindByID(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("c1", got.CaseID, "the update must roll back with the transaction")
}

func (s *PostgresStoreSuite) TestFindByIDInsideTxLocksRow() {
	s.Require().NoError(s.stores.Reminders.Save(s.ctx, &models.Reminder{
		Base: s.base("r1", "g1"), UserID: "u1", CaseID: "c1", ScheduledFor: s.now, IsActive: true,
	}))

	err := platformpg.NewTransactor(s.postgres.DB).RunInTx(s.ctx, func(ctx context.Context) error {
		if _, err := s.stores.Reminders.FindByID(ctx, "r1"); err != nil {
			return err
		}
		blocked, cancel := context.WithTimeout(s.ctx, 300*time.Millisecond)
		defer cancel()
		concurrent := &models.Reminder{Base: s.base("r1", "g1"), UserID: "u1", CaseID: "other", ScheduledFor: s.now}
		s.Error(s.stores.Reminders.Update(blocked, concurrent), "a writer outside the tx must wait for the row lock")
		return nil
	})
	s.Require().NoError(err)

	got, err := s.stores.Reminders.FindByID(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("c1", got.CaseID)
}

func (s *PostgresStoreSuite) TestPortsAreComplete() {
	s.NoError(s.stores.Ports().Validate())
}
