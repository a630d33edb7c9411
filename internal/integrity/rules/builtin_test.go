package rules

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel/internal/integrity/models"
	"counsel/pkg/platform/sentinel"
)

type fakeLookup struct {
	staff map[string]*models.Staff
	jobs  map[string]*models.Job
	cases map[string]*models.Case
	err   error
}

func (f fakeLookup) StaffByUserID(_ context.Context, guildID, userID string) (*models.Staff, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.staff[userID]; ok && s.GuildID == guildID {
		return s, nil
	}
	return nil, fmt.Errorf("staff %s: %w", userID, sentinel.ErrNotFound)
}

func (f fakeLookup) Job(_ context.Context, guildID, id string) (*models.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	if j, ok := f.jobs[id]; ok && j.GuildID == guildID {
		return j, nil
	}
	return nil, fmt.Errorf("job %s: %w", id, sentinel.ErrNotFound)
}

func (f fakeLookup) Case(_ context.Context, guildID, id string) (*models.Case, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.cases[id]; ok && c.GuildID == guildID {
		return c, nil
	}
	return nil, fmt.Errorf("case %s: %w", id, sentinel.ErrNotFound)
}

const guild = "g1"

func base(id string) models.Base { return models.Base{ID: id, GuildID: guild} }

func lookup() fakeLookup {
	return fakeLookup{
		staff: map[string]*models.Staff{
			"active":    {Base: base("s1"), UserID: "active", Status: models.StaffActive},
			"inactive":  {Base: base("s2"), UserID: "inactive", Status: models.StaffInactive},
			"elsewhere": {Base: models.Base{ID: "s3", GuildID: "g2"}, UserID: "elsewhere", Status: models.StaffActive},
		},
		jobs: map[string]*models.Job{
			"open":   {Base: base("j1"), IsOpen: true},
			"closed": {Base: base("j2")},
		},
		cases: map[string]*models.Case{
			"c1": {Base: base("c1")},
		},
	}
}

func builtin(t *testing.T, name string) Rule {
	t.Helper()
	reg, err := NewRegistry(Builtins(DefaultBuiltinOptions())...)
	require.NoError(t, err)
	rule, ok := reg.Get(name)
	require.True(t, ok, "missing built-in %s", name)
	return rule
}

func validate(t *testing.T, name string, entity models.Entity, l Lookup) []models.Issue {
	t.Helper()
	issues, err := builtin(t, name).Validate(context.Background(), entity, Context{GuildID: guild, Lookup: l})
	require.NoError(t, err)
	return issues
}

func TestBuiltinsCoverEveryEntityType(t *testing.T) {
	reg, err := NewRegistry(Builtins(BuiltinOptions{})...)
	require.NoError(t, err)
	assert.Equal(t, 8, reg.Len())
	for _, et := range models.EntityTypes {
		if et == models.EntityJob {
			assert.Empty(t, reg.For(et), "jobs hold no outbound references")
			continue
		}
		assert.NotEmpty(t, reg.For(et), et)
	}
	assert.Equal(t, []string{RuleCaseLeadAttorneyExists, RuleCaseAssignedLawyersActive}, names(reg.For(models.EntityCase)))
	assert.Equal(t, []string{RuleApplicationJobExists, RuleApplicationJobOpen}, names(reg.For(models.EntityApplication)))
}

func TestStaffStatusRule(t *testing.T) {
	t.Run("known statuses pass", func(t *testing.T) {
		for _, status := range []models.StaffStatus{models.StaffActive, models.StaffInactive, models.StaffTerminated} {
			assert.Empty(t, validate(t, RuleStaffValidStatus, &models.Staff{Base: base("s1"), Status: status}, lookup()))
		}
	})

	t.Run("unknown status is critical and resets to the default", func(t *testing.T) {
		issues := validate(t, RuleStaffValidStatus, &models.Staff{Base: base("s1"), Status: "on-leave"}, lookup())
		require.Len(t, issues, 1)
		assert.Equal(t, models.SeverityCritical, issues[0].Severity)
		require.True(t, issues[0].Repairable())
		assert.Equal(t, "on-leave", issues[0].Repair.Expected)
		assert.Equal(t, string(models.StaffActive), issues[0].Repair.Value)
	})

	t.Run("configured statuses and fallback", func(t *testing.T) {
		rules := Builtins(BuiltinOptions{
			ValidStaffStatuses: []models.StaffStatus{"active", "on-leave"},
			DefaultStaffStatus: models.StaffInactive,
		})
		staffRule := rules[0]
		issues, err := staffRule.Validate(context.Background(), &models.Staff{Base: base("s1"), Status: "on-leave"}, Context{})
		require.NoError(t, err)
		assert.Empty(t, issues)

		issues, err = staffRule.Validate(context.Background(), &models.Staff{Base: base("s1"), Status: models.StaffTerminated}, Context{})
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, string(models.StaffInactive), issues[0].Repair.Value)
	})
}

func TestCaseRules(t *testing.T) {
	t.Run("empty lead attorney is not an issue", func(t *testing.T) {
		assert.Empty(t, validate(t, RuleCaseLeadAttorneyExists, &models.Case{Base: base("c1")}, lookup()))
	})

	t.Run("lead attorney from another guild is missing", func(t *testing.T) {
		issues := validate(t, RuleCaseLeadAttorneyExists, &models.Case{Base: base("c1"), LeadAttorneyID: "elsewhere"}, lookup())
		require.Len(t, issues, 1)
		assert.Equal(t, "leadAttorneyId", issues[0].Field)
		assert.Equal(t, models.RepairClearCaseLeadAttorney, issues[0].Repair.Kind)
	})

	t.Run("inactive lead attorney still exists", func(t *testing.T) {
		assert.Empty(t, validate(t, RuleCaseLeadAttorneyExists, &models.Case{Base: base("c1"), LeadAttorneyID: "inactive"}, lookup()))
	})

	t.Run("one warning per bad assigned lawyer", func(t *testing.T) {
		c := &models.Case{Base: base("c1"), AssignedLawyerIDs: []string{"active", "inactive", "ghost"}}
		issues := validate(t, RuleCaseAssignedLawyersActive, c, lookup())
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, models.SeverityWarning, issue.Severity)
			assert.False(t, issue.CanAutoRepair)
		}
		assert.Contains(t, issues[0].Message, "inactive")
		assert.Contains(t, issues[1].Message, "ghost not found")
	})
}

func TestApplicationRules(t *testing.T) {
	t.Run("orphan is critical and manual", func(t *testing.T) {
		issues := validate(t, RuleApplicationJobExists, &models.Application{Base: base("a1"), JobID: "gone"}, lookup())
		require.Len(t, issues, 1)
		assert.Equal(t, models.SeverityCritical, issues[0].Severity)
		assert.False(t, issues[0].Repairable())
	})

	tests := []struct {
		name   string
		jobID  string
		status models.ApplicationStatus
		want   int
	}{
		{"pending on closed job", "closed", models.ApplicationPending, 1},
		{"pending on open job", "open", models.ApplicationPending, 0},
		{"accepted on closed job", "closed", models.ApplicationAccepted, 0},
		{"pending on missing job", "gone", models.ApplicationPending, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &models.Application{Base: base("a1"), JobID: tt.jobID, Status: tt.status}
			issues := validate(t, RuleApplicationJobOpen, app, lookup())
			require.Len(t, issues, tt.want)
			if tt.want == 1 {
				assert.Equal(t, models.SeverityWarning, issues[0].Severity)
				assert.Equal(t, string(models.ApplicationWithdrawn), issues[0].Repair.Value)
			}
		})
	}
}

func TestOptionalReferenceRules(t *testing.T) {
	tests := []struct {
		name     string
		rule     string
		entity   models.Entity
		severity models.Severity
		kind     models.RepairKind
	}{
		{"retainer", RuleRetainerLawyerExists, &models.Retainer{Base: base("r1"), LawyerID: "ghost"}, models.SeverityCritical, models.RepairClearRetainerLawyer},
		{"feedback", RuleFeedbackTargetExists, &models.Feedback{Base: base("f1"), TargetStaffID: "ghost"}, models.SeverityWarning, models.RepairClearFeedbackTarget},
		{"reminder", RuleReminderCaseExists, &models.Reminder{Base: base("m1"), CaseID: "ghost"}, models.SeverityWarning, models.RepairClearReminderCase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validate(t, tt.rule, tt.entity, lookup())
			require.Len(t, issues, 1)
			assert.Equal(t, tt.severity, issues[0].Severity)
			assert.Equal(t, tt.kind, issues[0].Repair.Kind)
			assert.Equal(t, "ghost", issues[0].Repair.Expected)
		})
	}

	t.Run("empty references are ignored", func(t *testing.T) {
		assert.Empty(t, validate(t, RuleRetainerLawyerExists, &models.Retainer{Base: base("r1")}, lookup()))
		assert.Empty(t, validate(t, RuleFeedbackTargetExists, &models.Feedback{Base: base("f1"), IsForFirm: true}, lookup()))
		assert.Empty(t, validate(t, RuleReminderCaseExists, &models.Reminder{Base: base("m1")}, lookup()))
	})

	t.Run("resolved references are clean", func(t *testing.T) {
		assert.Empty(t, validate(t, RuleReminderCaseExists, &models.Reminder{Base: base("m1"), CaseID: "c1"}, lookup()))
	})
}

func TestLookupFailuresAreErrors(t *testing.T) {
	broken := fakeLookup{err: errors.New("timeout")}
	_, err := builtin(t, RuleCaseLeadAttorneyExists).Validate(context.Background(),
		&models.Case{Base: base("c1"), LeadAttorneyID: "x"}, Context{Lookup: broken})
	assert.EqualError(t, err, "timeout")
}

func TestWrongEntityType(t *testing.T) {
	_, err := builtin(t, RuleCaseLeadAttorneyExists).Validate(context.Background(), &models.Job{Base: base("j1")}, Context{})
	assert.ErrorContains(t, err, "unexpected entity")
}
