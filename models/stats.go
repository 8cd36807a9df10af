package models

// Stats holds the priority counts shown in the dashboard cards.
// It is always derived from a full lead snapshot.
type Stats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ComputeStats counts leads per priority. Leads with an unknown priority
// only contribute to Total.
func ComputeStats(leads []Lead) Stats {
	stats := Stats{Total: len(leads)}
	for _, lead := range leads {
		switch lead.Priority {
		case PriorityHigh:
			stats.High++
		case PriorityMedium:
			stats.Medium++
		case PriorityLow:
			stats.Low++
		}
	}
	return stats
}

// ProcessResult is the summary returned by POST /api/leads/process
type ProcessResult struct {
	TotalLeads        int    `json:"total_leads"`
	HighPriorityCount int    `json:"high_priority_count"`
	EmailsSent        int    `json:"emails_sent"`
	Message           string `json:"message,omitempty"`
}
