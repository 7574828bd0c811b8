package panel

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

	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
)

var (
	// ErrSessionExpired is returned after the transport already cleared the
	// session in reaction to an unauthorized response.
	ErrSessionExpired = errors.New("session expired")

	// ErrServerUnreachable covers transport-level failures where no HTTP
	// response was received at all.
	ErrServerUnreachable = errors.New("server unreachable")
)

// Endpoints carries one base URL per server module. They are configured
// independently because deployments have historically split equipment, report
// and auth traffic across different listeners.
type Endpoints struct {
	Equipment string
	Report    string
	Auth      string
}

// Client is the single HTTP boundary of the panel. Every request goes through
// do, so the bearer header, the envelope check and the forced-logout reaction
// live in exactly one place.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	session   *Session
	logger    *zap.Logger
}

func NewClient(endpoints Endpoints, session *Session, logger *zap.Logger) *Client {
	return &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: 30 * time.Second},
		session:   session,
		logger:    logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Reports json.RawMessage `json:"reports"`
}

// do sends one request and decodes the raw response body. An unauthorized
// status logs the session out before anything else is inspected, regardless
// of which endpoint produced it.
func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token := c.session.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request transport failure", zap.String("url", rawURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	// Unauthorized only forces a logout when a token was presented; a login
	// attempt with wrong credentials keeps its own error message.
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.logger.Info("unauthorized response, forcing logout", zap.String("url", rawURL))
		c.session.Logout()
		return nil, ErrSessionExpired
	}
	return raw, nil
}

// doEnvelope runs do and then applies the success/error contract. The check
// is driven by the body, not the HTTP status: a 2xx with success=false is
// still a failure and the error text is surfaced verbatim.
func (c *Client) doEnvelope(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*envelope, error) {
	raw, err := c.do(ctx, method, rawURL, body, contentType)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed response from %s: %w", rawURL, err)
	}
	if !env.Success {
		if env.Error == "" {
			return nil, fmt.Errorf("request to %s failed", rawURL)
		}
		return nil, errors.New(env.Error)
	}
	return &env, nil
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload interface{}) (*envelope, error) {
	return c.sendJSON(ctx, http.MethodPost, rawURL, payload)
}

func (c *Client) sendJSON(ctx context.Context, method, rawURL string, payload interface{}) (*envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.doEnvelope(ctx, method, rawURL, bytes.NewReader(raw), "application/json")
}

// Login authenticates against the auth module and stores the returned token.
// The token and username ride next to the success flag, not under a data key.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(dto.LoginDTO{Username: username, Password: password})
	if err != nil {
		return err
	}
	raw, err := c.do(ctx, http.MethodPost, c.endpoints.Auth+"/auth/login", bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}

	var out struct {
		Success     bool   `json:"success"`
		Error       string `json:"error"`
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("malformed login response: %w", err)
	}
	if !out.Success {
		if out.Error == "" {
			return errors.New("login failed")
		}
		return errors.New(out.Error)
	}
	if out.AccessToken == "" {
		return errors.New("login response carried no token")
	}
	return c.session.Login(out.AccessToken, out.Username)
}

// FetchEquipment returns the full list, optionally narrowed to one status on
// the server side. The endpoint replies with a bare JSON array.
func (c *Client) FetchEquipment(ctx context.Context, status string) ([]entities.Equipment, error) {
	u := c.endpoints.Equipment + "/api/equipment"
	if status != "" {
		u += "?status=" + url.QueryEscape(status)
	}
	raw, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	var records []entities.Equipment
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("malformed equipment list: %w", err)
	}
	return records, nil
}

// FetchStatusCounts returns the per-status record counts as a bare map.
func (c *Client) FetchStatusCounts(ctx context.Context) (map[string]int, error) {
	raw, err := c.do(ctx, http.MethodGet, c.endpoints.Equipment+"/api/equipment/status_counts", nil, "")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("malformed status counts: %w", err)
	}
	return counts, nil
}

func (c *Client) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) error {
	_, err := c.postJSON(ctx, c.endpoints.Equipment+"/api/equipment", payload)
	return err
}

func (c *Client) UpdateEquipment(ctx context.Context, ccmID string, payload dto.UpdateEquipmentDTO) error {
	u := c.endpoints.Equipment + "/api/equipment/" + url.PathEscape(ccmID)
	_, err := c.sendJSON(ctx, http.MethodPut, u, payload)
	return err
}

func (c *Client) BatchUpdateEquipment(ctx context.Context, items []dto.BatchUpdateItemDTO) error {
	_, err := c.sendJSON(ctx, http.MethodPut, c.endpoints.Equipment+"/api/equipment/batch", items)
	return err
}

// ForceDeleteEquipment removes the row by its numeric key. The server records
// the audit entry before the row disappears.
func (c *Client) ForceDeleteEquipment(ctx context.Context, id uint64, updateBy string) error {
	u := c.endpoints.Equipment + "/api/equipment/" + strconv.FormatUint(id, 10)
	_, err := c.sendJSON(ctx, http.MethodDelete, u, dto.ForceDeleteDTO{UpdateBy: updateBy})
	return err
}

func (c *Client) FetchLogs(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error) {
	u := c.endpoints.Equipment + "/api/equipment/logs/" + url.PathEscape(ccmID)
	env, err := c.doEnvelope(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	var logs []entities.EquipmentLog
	if err := json.Unmarshal(env.Data, &logs); err != nil {
		return nil, fmt.Errorf("malformed log list: %w", err)
	}
	return logs, nil
}

func (c *Client) FetchReports(ctx context.Context) ([]entities.Report, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, c.endpoints.Report+"/api/reports", nil, "")
	if err != nil {
		return nil, err
	}

	var reports []entities.Report
	if err := json.Unmarshal(env.Reports, &reports); err != nil {
		return nil, fmt.Errorf("malformed report list: %w", err)
	}
	return reports, nil
}

func (c *Client) UpdateReport(ctx context.Context, id uint64, payload dto.UpdateReportDTO) error {
	u := c.endpoints.Report + "/api/report/" + strconv.FormatUint(id, 10)
	_, err := c.sendJSON(ctx, http.MethodPut, u, payload)
	return err
}

func (c *Client) DeleteReport(ctx context.Context, id uint64) error {
	u := c.endpoints.Report + "/api/report/" + strconv.FormatUint(id, 10)
	_, err := c.doEnvelope(ctx, http.MethodDelete, u, nil, "")
	return err
}

// ReportImage is one attachment streamed into the upload form.
type ReportImage struct {
	Name   string
	Reader io.Reader
}

// UploadReport sends a new issue report as multipart form data, images
// included under the repeated "images" field.
func (c *Client) UploadReport(ctx context.Context, payload dto.UploadReportDTO, images []ReportImage) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"reporter_name":     payload.ReporterName,
		"ccm_id":            payload.CcmID,
		"issue_type":        payload.IssueType,
		"issue_description": payload.IssueDescription,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return err
		}
	}
	for _, img := range images {
		part, err := w.CreateFormFile("images", img.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, img.Reader); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	_, err := c.doEnvelope(ctx, http.MethodPost, c.endpoints.Report+"/api/report/upload", &buf, w.FormDataContentType())
	return err
}
