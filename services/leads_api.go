package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"leadboard/models"
)

// ErrUnsuccessful is returned when the backend answers 2xx with success=false
var ErrUnsuccessful = errors.New("backend reported an unsuccessful request")

// APIError is a non-2xx answer from the backend. Detail carries the
// backend's "detail" field when it sent one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// ErrorDetail extracts the backend "detail" message from err, if any
func ErrorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// LeadsAPI is the backend the dashboard reads from and forwards actions to
type LeadsAPI interface {
	ListLeads(ctx context.Context) ([]models.Lead, error)
	ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	UploadCSV(ctx context.Context, filename string, content io.Reader) error
	ProcessLeads(ctx context.Context) (*models.ProcessResult, error)
	ClearLogs(ctx context.Context) error
}

// LeadsClient talks to the backend REST API over HTTP
type LeadsClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLeadsClient creates a client for the backend rooted at baseURL
// (without the /api prefix)
func NewLeadsClient(baseURL string, timeout time.Duration) *LeadsClient {
	return &LeadsClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type leadsResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Leads   []models.Lead `json:"leads"`
}

type logsResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Logs    []models.LogEntry `json:"logs"`
}

type statusResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// ListLeads fetches all scored leads
func (c *LeadsClient) ListLeads(ctx context.Context) ([]models.Lead, error) {
	var resp leadsResponse
	if err := c.do(ctx, http.MethodGet, "/api/leads", nil, "", &resp); err != nil {
		return nil, eris.Wrap(err, "list leads")
	}
	if !resp.Success {
		return nil, eris.Wrap(ErrUnsuccessful, "list leads")
	}
	return resp.Leads, nil
}

// ListLogs fetches the most recent limit log entries, oldest first
func (c *LeadsClient) ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	path := "/api/logs?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()

	var resp logsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, eris.Wrap(err, "list logs")
	}
	if !resp.Success {
		return nil, eris.Wrap(ErrUnsuccessful, "list logs")
	}
	return resp.Logs, nil
}

// UploadCSV sends the file as multipart field "file"
func (c *LeadsClient) UploadCSV(ctx context.Context, filename string, content io.Reader) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return eris.Wrap(err, "upload csv: create form file")
	}
	if _, err := io.Copy(part, content); err != nil {
		return eris.Wrap(err, "upload csv: copy content")
	}
	if err := writer.Close(); err != nil {
		return eris.Wrap(err, "upload csv: close multipart writer")
	}

	var resp statusResponse
	if err := c.do(ctx, http.MethodPost, "/api/leads/upload", body, writer.FormDataContentType(), &resp); err != nil {
		return eris.Wrapf(err, "upload csv %s", filename)
	}
	if !resp.Success {
		return eris.Wrapf(ErrUnsuccessful, "upload csv %s", filename)
	}
	return nil
}

// ProcessLeads asks the backend to score the leads and send outreach
func (c *LeadsClient) ProcessLeads(ctx context.Context) (*models.ProcessResult, error) {
	var resp models.ProcessResult
	if err := c.do(ctx, http.MethodPost, "/api/leads/process", nil, "", &resp); err != nil {
		return nil, eris.Wrap(err, "process leads")
	}
	return &resp, nil
}

// ClearLogs deletes the backend activity log
func (c *LeadsClient) ClearLogs(ctx context.Context) error {
	var resp statusResponse
	if err := c.do(ctx, http.MethodDelete, "/api/logs", nil, "", &resp); err != nil {
		return eris.Wrap(err, "clear logs")
	}
	if !resp.Success {
		return eris.Wrap(ErrUnsuccessful, "clear logs")
	}
	return nil
}

func (c *LeadsClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

// decodeAPIError reads FastAPI-style {"detail": ...} bodies. Validation
// errors carry a list instead of a string; those are not shown to users.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if detail, ok := body.Detail.(string); ok {
		apiErr.Detail = detail
	}
	return apiErr
}
