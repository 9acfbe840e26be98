package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event AlertEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event AlertEvent) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("phiguard: %s", event.Outcome),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Audit:* %s", event.AuditID)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Regulation:* %s", event.GoverningRegulation)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Risk:* %.2f (%s, %s policy)", event.RiskScore, event.ScoreBasis, event.Policy)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Rationale:* %s", event.Rationale)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event AlertEvent) ([]byte, error) {
	severity := "info"
	switch event.Outcome {
	case "REJECTED":
		severity = "critical"
	case "NEEDS_REVIEW":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("phiguard %s: dataset %s", event.Outcome, event.DatasetFingerprint),
			"severity": severity,
			"source":   "phiguard",
			"custom_details": map[string]any{
				"audit_id":             event.AuditID,
				"governing_regulation": event.GoverningRegulation,
				"risk_score":           event.RiskScore,
				"score_basis":          event.ScoreBasis,
				"policy":               event.Policy,
				"rationale":            event.Rationale,
			},
		},
	}
	return json.Marshal(payload)
}
