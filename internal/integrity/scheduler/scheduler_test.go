package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
	"counsel/pkg/requestcontext"
)

type fakeService struct {
	mu       sync.Mutex
	reports  map[string]*models.Report
	errs     map[string]error
	scanned  []string
	repaired [][]models.Issue
	actors   []string
}

func (f *fakeService) ScanForIntegrityIssues(ctx context.Context, guildID string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned = append(f.scanned, guildID)
	f.actors = append(f.actors, requestcontext.ActorID(ctx))
	if err := f.errs[guildID]; err != nil {
		return nil, err
	}
	if r, ok := f.reports[guildID]; ok {
		return r, nil
	}
	return &models.Report{GuildID: guildID, Issues: []models.Issue{}}, nil
}

func (f *fakeService) RepairIntegrityIssues(_ context.Context, issues []models.Issue) *models.RepairResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repaired = append(f.repaired, issues)
	result := models.NewRepairResult()
	result.TotalIssuesFound = len(issues)
	result.IssuesRepaired = len(issues)
	return result
}

func (f *fakeService) scans() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scanned)
}

func reportWithIssues(guildID string) *models.Report {
	c := &models.Case{Base: models.Base{ID: "c1", GuildID: guildID}, LeadAttorneyID: "ghost"}
	return &models.Report{GuildID: guildID, Issues: []models.Issue{
		models.NewIssue(c, models.SeverityCritical, "leadAttorneyId", "missing").WithRepair(models.ClearLeadAttorney(c)),
		models.NewIssue(c, models.SeverityWarning, "assignedLawyerIds", "inactive"),
	}}
}

func newLocker(t *testing.T) (*redislock.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redislock.New(client), mr
}

func TestRunOnce(t *testing.T) {
	svc := &fakeService{
		reports: map[string]*models.Report{"g1": reportWithIssues("g1")},
		errs:    map[string]error{"g2": errors.New("db down")},
	}
	s := New(svc, []string{"g1", "g2", "g3"}, WithAutoRepair(true))

	outcomes := s.RunOnce(context.Background())

	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"g1", "g2", "g3"}, svc.scanned)
	assert.Equal(t, []string{Actor, Actor, Actor}, svc.actors)

	require.NotNil(t, outcomes[0].Repair)
	assert.Equal(t, 1, outcomes[0].Repair.IssuesRepaired, "only repairable issues are submitted")
	assert.EqualError(t, outcomes[1].Err, "db down")
	assert.Nil(t, outcomes[2].Repair, "clean guild needs no repair")
	require.Len(t, svc.repaired, 1)
}

func TestRunOnceWithoutAutoRepair(t *testing.T) {
	svc := &fakeService{reports: map[string]*models.Report{"g1": reportWithIssues("g1")}}
	outcomes := New(svc, []string{"g1"}).RunOnce(context.Background())

	require.Len(t, outcomes, 1)
	assert.Len(t, outcomes[0].Report.Issues, 2)
	assert.Nil(t, outcomes[0].Repair)
	assert.Empty(t, svc.repaired)
}

func TestLockSkipsGuildHeldElsewhere(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()
	held, err := locker.Obtain(ctx, lockPrefix+"g1", time.Minute, nil)
	require.NoError(t, err)

	svc := &fakeService{}
	s := New(svc, []string{"g1", "g2"}, WithLocker(locker, time.Minute))
	outcomes := s.RunOnce(ctx)

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Skipped)
	assert.False(t, outcomes[1].Skipped)
	assert.Equal(t, []string{"g2"}, svc.scanned)
	assert.False(t, mr.Exists(lockPrefix+"g2"), "lock is released after the pass")

	require.NoError(t, held.Release(ctx))
	outcomes = s.RunOnce(ctx)
	assert.False(t, outcomes[0].Skipped)
}

func TestRunStopsWithContext(t *testing.T) {
	svc := &fakeService{}
	s := New(svc, []string{"g1"}, WithInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.scans() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunRejectsBadInterval(t *testing.T) {
	s := New(&fakeService{}, []string{"g1"}, WithInterval(0))
	assert.Error(t, s.Run(context.Background()))
}
