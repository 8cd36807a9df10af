package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadboard/middleware"
	"leadboard/services"
)

// DashboardPage holds the data for the full dashboard page
type DashboardPage struct {
	Title  string
	Footer string
	View   services.DashboardView
}

// NewDashboardPage wraps a dashboard snapshot with page chrome
func NewDashboardPage(view services.DashboardView) DashboardPage {
	return DashboardPage{
		Title:  "EasyFinder AI | Lead Dashboard",
		Footer: fmt.Sprintf("© %d EasyFinder AI - Enterprise Lead Management System", time.Now().Year()),
		View:   view,
	}
}

// csrfHeaders makes htmx send the CSRF token with every request
func csrfHeaders(ctx context.Context) string {
	b, _ := json.Marshal(map[string]string{middleware.CSRFHeaderName: middleware.CSRFTokenFromContext(ctx)})
	return string(b)
}
