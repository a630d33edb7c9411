package models

import "time"

// Report is the outcome of one guild scan. It is not modified after the scan
// returns it.
type Report struct {
	GuildID         string             `json:"guild_id"`
	Issues          []Issue            `json:"issues"`
	EntitiesScanned map[EntityType]int `json:"entities_scanned"`
	ScannedAt       time.Time          `json:"scanned_at"`
	Duration        time.Duration      `json:"duration"`
}

// CountBySeverity tallies issues per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// CountByEntityType tallies issues per entity type.
func (r *Report) CountByEntityType() map[EntityType]int {
	counts := make(map[EntityType]int)
	for _, issue := range r.Issues {
		counts[issue.EntityType]++
	}
	return counts
}

// HasCritical reports whether any issue is critical.
func (r *Report) HasCritical() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// Repairable returns the issues the engine may fix on its own.
func (r *Report) Repairable() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Repairable() {
			out = append(out, issue)
		}
	}
	return out
}

// FailedRepair pairs an issue with the verbatim error its repair returned.
type FailedRepair struct {
	Issue Issue  `json:"issue"`
	Error string `json:"error"`
}

// RepairResult summarises one repair invocation. Issues that are not
// auto-repairable count toward TotalIssuesFound only. AlreadyResolved is the
// part of IssuesRepaired whose record no longer held the offending value, so
// no write happened.
type RepairResult struct {
	TotalIssuesFound int            `json:"total_issues_found"`
	IssuesRepaired   int            `json:"issues_repaired"`
	AlreadyResolved  int            `json:"already_resolved"`
	IssuesFailed     int            `json:"issues_failed"`
	FailedRepairs    []FailedRepair `json:"failed_repairs"`
}

// NewRepairResult returns a zero result with a non-nil failure list.
func NewRepairResult() *RepairResult {
	return &RepairResult{FailedRepairs: []FailedRepair{}}
}

// Skipped returns how many issues were neither repaired nor failed.
func (r *RepairResult) Skipped() int {
	return r.TotalIssuesFound - r.IssuesRepaired - r.IssuesFailed
}
