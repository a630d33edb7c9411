package handler

import (
	"counsel/internal/integrity/models"
	"counsel/internal/integrity/rules"
)

// ScanResponse wraps a report with its severity tallies.
type ScanResponse struct {
	*models.Report
	BySeverity map[models.Severity]int `json:"by_severity"`
}

// RepairResponse is returned by the repair endpoint.
type RepairResponse struct {
	Scan   ScanResponse         `json:"scan"`
	Result *models.RepairResult `json:"result"`
}

// RuleResponse describes one registered rule.
type RuleResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	EntityType  models.EntityType `json:"entity_type"`
	Priority    int               `json:"priority"`
}

func toScanResponse(report *models.Report) ScanResponse {
	return ScanResponse{Report: report, BySeverity: report.CountBySeverity()}
}

func toRuleResponses(rs []rules.Rule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, RuleResponse{
			Name:        r.Name(),
			Description: r.Description(),
			EntityType:  r.EntityType(),
			Priority:    r.Priority(),
		})
	}
	return out
}
