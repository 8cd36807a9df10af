package handlers

import (
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leadboard/config"
	"leadboard/services"
	"leadboard/templates/pages"
	"leadboard/templates/partials"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	headerHXRetarget = "HX-Retarget"
	headerHXReswap   = "HX-Reswap"
)

// DashboardHandler serves the lead dashboard and forwards its actions to
// the shared Dashboard state
type DashboardHandler struct {
	dashboard     *services.Dashboard
	maxUploadSize int64
	logger        *zap.Logger
}

func NewDashboardHandler(dashboard *services.Dashboard, cfg *config.Config, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &DashboardHandler{
		dashboard:     dashboard,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        logger.Named("handlers"),
	}
}

// RootHandler sends visitors to the dashboard
func RootHandler(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/dashboard")
}

// HealthHandler reports liveness
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Show reloads leads and logs and renders the full page
func (h *DashboardHandler) Show(c echo.Context) error {
	if tab := c.QueryParam("tab"); tab != "" {
		parsed, err := services.ParseTab(tab)
		if err != nil {
			return h.reject(c, http.StatusBadRequest, err.Error())
		}
		// Already validated
		_ = h.dashboard.SelectTab(parsed)
	}

	// Failures surface through the banner and the logs notice
	_ = h.dashboard.Refresh(c.Request().Context())

	page := pages.NewDashboardPage(h.dashboard.Snapshot())
	return render(c, http.StatusOK, pages.Dashboard(page))
}

// SelectTab switches between the leads table and the activity log
func (h *DashboardHandler) SelectTab(c echo.Context) error {
	tab, err := services.ParseTab(c.FormValue("tab"))
	if err != nil {
		return h.reject(c, http.StatusBadRequest, err.Error())
	}
	_ = h.dashboard.SelectTab(tab)
	return h.respond(c)
}

// Upload validates the submitted CSV and forwards it to the backend
func (h *DashboardHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.dashboard.ShowMessage(services.MessageError, services.MsgUploadFailed+": no file selected")
		return h.respond(c)
	}

	if err := services.ValidateCSVUpload(fileHeader, h.maxUploadSize); err != nil {
		h.logger.Info("rejected csv upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
		h.dashboard.ShowMessage(services.MessageError, services.MsgUploadFailed+": "+err.Error())
		return h.respond(c)
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		h.dashboard.ShowMessage(services.MessageError, services.MsgUploadFailed)
		return h.respond(c)
	}
	defer file.Close()

	// Backend failures are already on the banner
	if err := h.dashboard.UploadCSV(c.Request().Context(), fileHeader.Filename, file); errors.Is(err, services.ErrUploadInFlight) {
		return h.reject(c, http.StatusConflict, err.Error())
	}
	return h.respond(c)
}

// Process triggers scoring and outreach on the backend
func (h *DashboardHandler) Process(c echo.Context) error {
	if _, err := h.dashboard.ProcessLeads(c.Request().Context()); err != nil {
		switch {
		case errors.Is(err, services.ErrProcessInFlight):
			return h.reject(c, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrNoLeads):
			return h.reject(c, http.StatusBadRequest, err.Error())
		}
	}
	return h.respond(c)
}

// ClearLogs empties the backend activity log
func (h *DashboardHandler) ClearLogs(c echo.Context) error {
	// Failures are reported on the banner
	_ = h.dashboard.ClearLogs(c.Request().Context())
	return h.respond(c)
}

// Message returns the banner partial. Once the message has expired the
// banner comes back empty.
func (h *DashboardHandler) Message(c echo.Context) error {
	view := h.dashboard.Snapshot()
	return render(c, http.StatusOK, partials.Flash(view.Message, view.MessageExpiresIn))
}

// DismissMessage hides the banner early if it is still the one shown
func (h *DashboardHandler) DismissMessage(c echo.Context) error {
	h.dashboard.DismissMessage(c.FormValue("id"))
	return h.Message(c)
}

// Export downloads the current lead snapshot as an XLSX workbook
func (h *DashboardHandler) Export(c echo.Context) error {
	view := h.dashboard.Snapshot()
	now := h.dashboard.Now()

	buf, err := services.ExportLeadsWorkbook(view.Leads, view.Stats, now)
	if err != nil {
		h.logger.Error("failed to export leads", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export leads")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+services.ExportFilename(now)+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// respond re-renders the dashboard body for htmx and redirects plain form
// posts back to the page
func (h *DashboardHandler) respond(c echo.Context) error {
	if !isHTMX(c) {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return render(c, http.StatusOK, partials.DashboardBody(h.dashboard.Snapshot()))
}

// Limited answers a request refused by the action rate limiter
func (h *DashboardHandler) Limited(c echo.Context, message string) error {
	return h.reject(c, http.StatusTooManyRequests, message)
}

// reject refuses a request. htmx gets the reason on the banner, swapped in
// place of #flash so the rest of the dashboard stays as it is; other
// clients get a plain HTTP error.
func (h *DashboardHandler) reject(c echo.Context, status int, reason string) error {
	if !isHTMX(c) {
		return echo.NewHTTPError(status, reason)
	}

	h.dashboard.ShowMessage(services.MessageError, sentence(reason))
	view := h.dashboard.Snapshot()

	c.Response().Header().Set(headerHXRetarget, "#flash")
	c.Response().Header().Set(headerHXReswap, "outerHTML")
	return render(c, status, partials.Flash(view.Message, view.MessageExpiresIn))
}

// sentence upper-cases the first letter of an error text for the banner
func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}
