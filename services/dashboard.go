package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leadboard/config"
	"leadboard/models"
)

// Tab selects which list the dashboard shows
type Tab string

const (
	TabLeads Tab = "leads"
	TabLogs  Tab = "logs"
)

// ParseTab validates a tab name coming from a request
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabLeads, TabLogs:
		return Tab(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the transient banner shown above the stats cards
type Message struct {
	ID    string
	Kind  MessageKind
	Text  string
	SetAt time.Time
}

// Banner texts
const (
	MsgLoadLeadsFailed = "Failed to load leads"
	MsgUploadSucceeded = "CSV uploaded successfully!"
	MsgUploadFailed    = "Failed to upload CSV"
	MsgProcessFailed   = "Failed to process leads"
	MsgLogsCleared     = "Activity logs cleared"
	MsgClearLogsFailed = "Failed to clear logs"
)

var (
	ErrUnknownTab      = errors.New("unknown tab")
	ErrUploadInFlight  = errors.New("an upload is already in progress")
	ErrProcessInFlight = errors.New("leads are already being processed")
	ErrNoLeads         = errors.New("there are no leads to process")
)

// ProcessSummary is the banner text after a successful processing run
func ProcessSummary(r *models.ProcessResult) string {
	return fmt.Sprintf("Processed %d leads. %d high-priority, %d emails sent.",
		r.TotalLeads, r.HighPriorityCount, r.EmailsSent)
}

// DashboardOptions tunes a Dashboard. Zero values fall back to defaults.
type DashboardOptions struct {
	LogLimit   int
	MessageTTL time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

// Dashboard holds the state behind the lead dashboard page: the last lead
// and log snapshots fetched from the backend, the derived stats, busy flags
// and the transient message. All mutations go through its methods.
type Dashboard struct {
	api        LeadsAPI
	logLimit   int
	messageTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
	sanitizer  *bluemonday.Policy

	mu              sync.Mutex
	leads           []models.Lead
	logs            []models.LogEntry
	stats           models.Stats
	loading         int
	uploading       bool
	processing      bool
	logsUnavailable bool
	tab             Tab
	message         *Message
}

// DashboardView is a copy of the dashboard state for rendering
type DashboardView struct {
	Leads           []models.Lead
	Logs            []models.LogEntry
	Stats           models.Stats
	Loading         bool
	Uploading       bool
	Processing      bool
	LogsUnavailable bool
	Tab             Tab
	Message         *Message
	// MessageExpiresIn is how long Message stays visible from now
	MessageExpiresIn time.Duration
}

// CanProcess reports whether the "Process Leads" action is enabled
func (v DashboardView) CanProcess() bool {
	return !v.Processing && len(v.Leads) > 0
}

// CanUpload reports whether the upload control is enabled
func (v DashboardView) CanUpload() bool {
	return !v.Loading && !v.Uploading
}

func NewDashboard(api LeadsAPI, opts DashboardOptions) *Dashboard {
	if opts.LogLimit <= 0 {
		opts.LogLimit = config.DefaultLogLimit
	}
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = config.DefaultMessageTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Dashboard{
		api:        api,
		logLimit:   opts.LogLimit,
		messageTTL: opts.MessageTTL,
		logger:     opts.Logger.Named("dashboard"),
		now:        opts.Now,
		sanitizer:  bluemonday.StrictPolicy(),
		tab:        TabLeads,
	}
}

// Refresh reloads leads and logs. The two loads run concurrently and do
// not depend on each other; each handles its own failure.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return d.LoadLeads(ctx) })
	g.Go(func() error { return d.LoadLogs(ctx) })
	return g.Wait()
}

// LoadLeads replaces the lead snapshot and recomputes the stats. On failure
// the previous snapshot is kept and an error message is shown.
func (d *Dashboard) LoadLeads(ctx context.Context) error {
	d.mu.Lock()
	d.loading++
	d.mu.Unlock()

	leads, err := d.api.ListLeads(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading--

	if err != nil {
		d.logger.Error("failed to load leads", zap.Error(err))
		d.setMessageLocked(MessageError, MsgLoadLeadsFailed)
		return err
	}

	d.leads = leads
	d.stats = models.ComputeStats(leads)
	return nil
}

// LoadLogs replaces the log snapshot, newest entry first. On failure the
// previous entries stay and the logs tab is flagged as unavailable; the
// banner is left alone so it keeps reporting the action that triggered
// the reload.
func (d *Dashboard) LoadLogs(ctx context.Context) error {
	logs, err := d.api.ListLogs(ctx, d.logLimit)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.logger.Warn("failed to load activity logs", zap.Error(err))
		d.logsUnavailable = true
		return err
	}

	d.logs = models.ReverseLogs(logs)
	d.logsUnavailable = false
	return nil
}

// UploadCSV forwards a CSV file to the backend and reloads both lists on
// success. Only one upload may be in flight.
func (d *Dashboard) UploadCSV(ctx context.Context, filename string, content io.Reader) error {
	d.mu.Lock()
	if d.uploading {
		d.mu.Unlock()
		return ErrUploadInFlight
	}
	d.uploading = true
	d.loading++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.uploading = false
		d.loading--
		d.mu.Unlock()
	}()

	if err := d.api.UploadCSV(ctx, filename, content); err != nil {
		d.logger.Error("failed to upload csv", zap.String("filename", filename), zap.Error(err))
		d.ShowMessage(MessageError, d.uploadFailureText(err))
		return err
	}

	d.logger.Info("csv uploaded", zap.String("filename", filename))
	d.ShowMessage(MessageSuccess, MsgUploadSucceeded)
	// Reload failures show on their own
	_ = d.Refresh(ctx)
	return nil
}

// uploadFailureText prefers the backend's own explanation
func (d *Dashboard) uploadFailureText(err error) string {
	// StrictPolicy strips markup and escapes the rest; templates escape again
	detail := strings.TrimSpace(html.UnescapeString(d.sanitizer.Sanitize(ErrorDetail(err))))
	if detail == "" {
		return MsgUploadFailed
	}
	return detail
}

// ProcessLeads triggers scoring and outreach on the backend. It is rejected
// while a run is in flight or when there are no leads.
func (d *Dashboard) ProcessLeads(ctx context.Context) (*models.ProcessResult, error) {
	d.mu.Lock()
	if d.processing {
		d.mu.Unlock()
		return nil, ErrProcessInFlight
	}
	if len(d.leads) == 0 {
		d.mu.Unlock()
		return nil, ErrNoLeads
	}
	d.processing = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.processing = false
		d.mu.Unlock()
	}()

	result, err := d.api.ProcessLeads(ctx)
	if err != nil {
		d.logger.Error("failed to process leads", zap.Error(err))
		d.ShowMessage(MessageError, MsgProcessFailed)
		return nil, err
	}

	d.logger.Info("leads processed",
		zap.Int("total_leads", result.TotalLeads),
		zap.Int("high_priority", result.HighPriorityCount),
		zap.Int("emails_sent", result.EmailsSent),
	)
	d.ShowMessage(MessageSuccess, ProcessSummary(result))
	_ = d.Refresh(ctx)
	return result, nil
}

// ClearLogs empties the backend activity log and reloads the log list
func (d *Dashboard) ClearLogs(ctx context.Context) error {
	if err := d.api.ClearLogs(ctx); err != nil {
		d.logger.Error("failed to clear activity logs", zap.Error(err))
		d.ShowMessage(MessageError, MsgClearLogsFailed)
		return err
	}

	d.ShowMessage(MessageSuccess, MsgLogsCleared)
	// A failed reload flags the logs tab
	_ = d.LoadLogs(ctx)
	return nil
}

// SelectTab switches the visible list
func (d *Dashboard) SelectTab(tab Tab) error {
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}
	d.mu.Lock()
	d.tab = tab
	d.mu.Unlock()
	return nil
}

// ShowMessage replaces the banner. It disappears after the message TTL.
func (d *Dashboard) ShowMessage(kind MessageKind, text string) *Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMessageLocked(kind, text)
}

func (d *Dashboard) setMessageLocked(kind MessageKind, text string) *Message {
	d.message = &Message{
		ID:    uuid.New().String(),
		Kind:  kind,
		Text:  text,
		SetAt: d.now(),
	}
	return d.message
}

// Message returns the current banner, or nil once it has expired
func (d *Dashboard) Message() *Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentMessageLocked()
}

func (d *Dashboard) currentMessageLocked() *Message {
	if d.message == nil {
		return nil
	}
	if d.now().Sub(d.message.SetAt) >= d.messageTTL {
		d.message = nil
		return nil
	}
	msg := *d.message
	return &msg
}

// DismissMessage clears the banner if id is still the current message
func (d *Dashboard) DismissMessage(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.message == nil || d.message.ID != id {
		return false
	}
	d.message = nil
	return true
}

// Now reads the dashboard clock
func (d *Dashboard) Now() time.Time {
	return d.now()
}

// Snapshot copies the state for rendering
func (d *Dashboard) Snapshot() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()

	view := DashboardView{
		Leads:           append([]models.Lead(nil), d.leads...),
		Logs:            append([]models.LogEntry(nil), d.logs...),
		Stats:           d.stats,
		Loading:         d.loading > 0,
		Uploading:       d.uploading,
		Processing:      d.processing,
		LogsUnavailable: d.logsUnavailable,
		Tab:             d.tab,
		Message:         d.currentMessageLocked(),
	}
	if view.Message != nil {
		view.MessageExpiresIn = d.messageTTL - d.now().Sub(view.Message.SetAt)
	}
	return view
}
