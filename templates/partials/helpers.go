package partials

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"leadboard/models"
	"leadboard/services"
)

func uploadLabel(view services.DashboardView) string {
	if view.Uploading {
		return "Uploading..."
	}
	return "Upload CSV"
}

func processLabel(view services.DashboardView) string {
	if view.Processing {
		return "Processing..."
	}
	return "Process Leads"
}

// tabVals builds the hx-vals JSON for a tab link
func tabVals(tab services.Tab) string {
	b, _ := json.Marshal(map[string]string{"tab": string(tab)})
	return string(b)
}

func dismissVals(msg *services.Message) string {
	b, _ := json.Marshal(map[string]string{"id": msg.ID})
	return string(b)
}

func tabClass(active bool) string {
	if active {
		return "border-indigo-500 text-indigo-600"
	}
	return "border-transparent text-gray-500 hover:text-gray-700 hover:border-gray-300"
}

func messageClass(kind services.MessageKind) string {
	if kind == services.MessageSuccess {
		return "bg-green-100 text-green-800"
	}
	return "bg-red-100 text-red-800"
}

// flashTrigger schedules the banner refresh for when the message expires
func flashTrigger(expiresIn time.Duration) string {
	if expiresIn < 0 {
		expiresIn = 0
	}
	return fmt.Sprintf("load delay:%dms", expiresIn.Milliseconds())
}

func scoreClass(score float64) string {
	switch {
	case score >= models.ScoreThresholdHigh:
		return "text-red-600 font-bold"
	case score >= models.ScoreThresholdMedium:
		return "text-yellow-600 font-semibold"
	default:
		return "text-green-600"
	}
}

func priorityClass(priority string) string {
	switch priority {
	case models.PriorityHigh:
		return "bg-red-100 text-red-800"
	case models.PriorityMedium:
		return "bg-yellow-100 text-yellow-800"
	case models.PriorityLow:
		return "bg-green-100 text-green-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

func eventClass(event string) string {
	switch event {
	case models.EventEmailSent:
		return "bg-green-100 text-green-800"
	case models.EventLeadScored:
		return "bg-blue-100 text-blue-800"
	case models.EventCSVUploaded:
		return "bg-purple-100 text-purple-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func formatBudget(budget models.Amount) string {
	return "$" + budget.String()
}

// formatLogTime shows the entry time, falling back to the raw timestamp
func formatLogTime(entry models.LogEntry) string {
	t, ok := entry.Time()
	if !ok {
		return entry.Timestamp
	}
	return fmt.Sprintf("%s (%s)", t.Format("Jan 2, 2006 15:04:05"), formatRelativeTime(t, time.Now()))
}

// Helper function to format relative time
func formatRelativeTime(t, now time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
