package plm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/metrics"
	"github.com/plmdeck/backend/pkg/logger"
	"github.com/plmdeck/backend/pkg/retry"
)

// SessionSource is the slice of the settings layer the client needs:
// the current session token, read on every request and rewritten when
// the backend invalidates it.
type SessionSource interface {
	SessionToken(ctx context.Context) string
	SetSessionToken(ctx context.Context, token string) error
}

// Client is the single point of authenticated communication with the
// PLM backend. It is stateless per invocation except for the session
// token read/write through the SessionSource.
type Client struct {
	baseURL       string
	sessionHeader string
	pageSize      int
	maxPages      int
	httpClient    *http.Client
	sessions      SessionSource
	retryCfg      retry.Config
}

type Config struct {
	BaseURL       string
	SessionHeader string
	PageSize      int
	MaxPages      int
	TimeoutSec    int
	RetryAttempts int
	RetryDelayMs  int
}

// qualityEndpointCandidates are tried in order for every quality
// operation; which one exists depends on the workspace configuration.
// The order is static and probing always restarts from the top.
var qualityEndpointCandidates = []string{
	"/qualityprocesses",
	"/quality/processes",
	"/quality",
}

const qualityGuidance = "quality processes may not be enabled for this workspace; check the workspace configuration or contact your administrator"

func NewClient(cfg Config, sessions SessionSource) *Client {
	if cfg.PageSize == 0 {
		cfg.PageSize = 400
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.SessionHeader == "" {
		cfg.SessionHeader = "arena_session_id"
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelayMs == 0 {
		cfg.RetryDelayMs = 200
	}

	logger.Info("PLM client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("page_size", cfg.PageSize),
	)

	return &Client{
		baseURL:       cfg.BaseURL,
		sessionHeader: cfg.SessionHeader,
		pageSize:      cfg.PageSize,
		maxPages:      cfg.MaxPages,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		sessions: sessions,
		retryCfg: retry.Config{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Retryable:    IsRetryableTransport,
			Logger:       logger.GetLogger(),
		},
	}
}

// Login exchanges credentials for a session token and stores it. The
// password is never persisted.
func (c *Client) Login(ctx context.Context, req LoginRequest) (Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/login", req, "")
	if err != nil {
		return Session{}, err
	}

	token := pickString(body, "arenaSessionId")
	if token == "" {
		token = pickString(body, "sessionId")
	}
	if token == "" {
		return Session{}, &TransportError{Err: fmt.Errorf("login response carried no session token")}
	}

	workspace := req.WorkspaceID
	if workspace == "" {
		workspace = pickString(body, "workspaceId")
	}

	sess := Session{
		Token:       token,
		UserEmail:   req.Email,
		WorkspaceID: workspace,
		CreatedAt:   time.Now(),
	}

	if err := c.sessions.SetSessionToken(ctx, token); err != nil {
		logger.Warn("Failed to persist session token", zap.Error(err))
	}

	logger.Info("Login succeeded", zap.String("workspace", workspace))

	return sess, nil
}

// Request issues an authenticated call and maps non-2xx statuses into
// the error taxonomy. On 401 the cached session is invalidated and the
// request is retried exactly once with whatever token is then stored;
// without a stored password no fresh login is possible, so a second
// 401 surfaces ErrAuthExpired and the caller must prompt for login.
func (c *Client) Request(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	token := c.sessions.SessionToken(ctx)

	body, err := c.doRequest(ctx, method, path, payload, token)
	if err == nil {
		return body, nil
	}

	if !errors.Is(err, ErrAuthExpired) {
		return nil, err
	}

	logger.Warn("Session rejected by backend, retrying once", zap.String("path", path))

	reread := c.sessions.SessionToken(ctx)
	if reread == "" || reread == token {
		return nil, ErrAuthExpired
	}

	return c.doRequest(ctx, method, path, payload, reread)
}

// doRequest issues the call, retrying transport-level failures with
// backoff. Only GETs are replayed: a failed write may still have
// reached the backend, so it surfaces immediately.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, token string) (map[string]any, error) {
	if method == http.MethodGet {
		return retry.DoWithResult(ctx, c.retryCfg, func() (map[string]any, error) {
			return c.doRequestOnce(ctx, method, path, payload, token)
		})
	}
	return c.doRequestOnce(ctx, method, path, payload, token)
}

func (c *Client) doRequestOnce(ctx context.Context, method, path string, payload any, token string) (map[string]any, error) {
	status, raw, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return nil, err
	}

	if status >= 200 && status < 300 {
		if len(raw) == 0 {
			return map[string]any{}, nil
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, &TransportError{Err: fmt.Errorf("malformed response body: %w", err)}
		}
		return body, nil
	}

	switch status {
	case http.StatusUnauthorized:
		if err := c.sessions.SetSessionToken(ctx, ""); err != nil {
			logger.Warn("Failed to invalidate session token", zap.Error(err))
		}
		return nil, ErrAuthExpired
	case http.StatusBadRequest:
		return nil, &ValidationError{Message: firstValidationMessage(raw)}
	case http.StatusConflict:
		return nil, ErrConflict
	default:
		return nil, &APIError{StatusCode: status, Body: string(raw)}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload any, token string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, &TransportError{Err: fmt.Errorf("failed to marshal payload: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, &TransportError{Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(c.sessionHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PLMRequestTotal.WithLabelValues("transport_error").Inc()
		return 0, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	metrics.PLMRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	metrics.PLMRequestTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()

	return resp.StatusCode, raw, nil
}

// listPath returns the listing endpoint for a record type. Quality is
// absent here on purpose; its endpoint is workspace-dependent and goes
// through probeQualityEndpoint instead.
func listPath(recordType RecordType) string {
	switch recordType {
	case TypeChange:
		return "/changes"
	case TypeRequest:
		return "/changerequests"
	default:
		return "/items"
	}
}

func detailPath(recordType RecordType, guid string) string {
	return fmt.Sprintf("%s/%s", listPath(recordType), url.PathEscape(guid))
}

// ListRecords walks every page of a listing, concatenating results in
// order. The loop stops on the first page shorter than the page size.
func (c *Client) ListRecords(ctx context.Context, recordType RecordType) ([]Record, error) {
	if recordType == TypeQuality {
		return c.ListQualityRecords(ctx)
	}
	return c.listAllPages(ctx, listPath(recordType))
}

func (c *Client) listAllPages(ctx context.Context, path string) ([]Record, error) {
	var records []Record
	offset := 0
	pages := 0

	for {
		pagePath := fmt.Sprintf("%s?limit=%d&offset=%d", path, c.pageSize, offset)
		body, err := c.Request(ctx, http.MethodGet, pagePath, nil)
		if err != nil {
			return nil, err
		}

		results := ExtractResults(body)
		for _, raw := range results {
			records = append(records, NormalizeRecord(raw))
		}
		pages++

		if len(results) < c.pageSize {
			break
		}
		if c.maxPages > 0 && pages >= c.maxPages {
			logger.Warn("Listing truncated at page cap",
				zap.String("path", path),
				zap.Int("pages", pages),
			)
			break
		}
		offset += c.pageSize
	}

	metrics.PLMPagesFetched.Observe(float64(pages))
	logger.Debug("Listing fetched",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("pages", pages),
	)

	return records, nil
}

func (c *Client) GetRecord(ctx context.Context, recordType RecordType, guid string) (Record, error) {
	if recordType == TypeQuality {
		return c.GetQualityRecord(ctx, guid)
	}

	body, err := c.Request(ctx, http.MethodGet, detailPath(recordType, guid)+"?responseView=full", nil)
	if err != nil {
		return Record{}, err
	}
	return NormalizeRecord(body), nil
}

// GetRecordByNumber resolves a record through its listing. Numbers are
// not guaranteed unique across time, so this is best-effort and exists
// for the legacy slide-title refresh path only.
func (c *Client) GetRecordByNumber(ctx context.Context, recordType RecordType, number string) (Record, error) {
	records, err := c.ListRecords(ctx, recordType)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if rec.Number == number {
			return rec, nil
		}
	}
	return Record{}, &APIError{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("no %s with number %s", recordType, number)}
}

// ListQualityRecords probes the candidate quality endpoints in order
// and returns the first listing that succeeds. Exhausting every
// candidate is reported as FeatureUnavailableError, not a raw HTTP
// error.
func (c *Client) ListQualityRecords(ctx context.Context) ([]Record, error) {
	path, err := c.probeQualityEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	return c.listAllPages(ctx, path)
}

func (c *Client) GetQualityRecord(ctx context.Context, guid string) (Record, error) {
	path, err := c.probeQualityEndpoint(ctx)
	if err != nil {
		return Record{}, err
	}

	body, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("%s/%s?responseView=full", path, url.PathEscape(guid)), nil)
	if err != nil {
		return Record{}, err
	}
	return NormalizeRecord(body), nil
}

func (c *Client) probeQualityEndpoint(ctx context.Context) (string, error) {
	for _, candidate := range qualityEndpointCandidates {
		_, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("%s?limit=1", candidate), nil)
		if err == nil {
			return candidate, nil
		}

		// Auth problems are terminal; there is no point probing
		// further candidates with a dead session.
		if errors.Is(err, ErrAuthExpired) {
			return "", err
		}

		logger.Debug("Quality endpoint candidate failed",
			zap.String("candidate", candidate),
			zap.Error(err),
		)
	}

	return "", &FeatureUnavailableError{Feature: "quality records", Guidance: qualityGuidance}
}

// SearchRecords fetches the full listing once and filters client-side
// with a case-insensitive substring match over name, number and
// description. Generic searches match over the full serialized record.
func (c *Client) SearchRecords(ctx context.Context, recordType RecordType, term string, generic bool) ([]Record, error) {
	records, err := c.ListRecords(ctx, recordType)
	if err != nil {
		return nil, err
	}
	return FilterRecords(records, term, generic), nil
}

// FilterRecords is the pure filtering half of SearchRecords, split out
// so cached listings go through the identical matching rules.
func FilterRecords(records []Record, term string, generic bool) []Record {
	if term == "" {
		return records
	}

	matched := make([]Record, 0)
	for _, rec := range records {
		if generic {
			if MatchesAnyField(rec, term) {
				matched = append(matched, rec)
			}
		} else if MatchesTerm(rec, term) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// GetFiles lists the file attachments of an item.
func (c *Client) GetFiles(ctx context.Context, itemGUID string) ([]FileInfo, error) {
	body, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/items/%s/files", url.PathEscape(itemGUID)), nil)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, raw := range ExtractResults(body) {
		files = append(files, FileInfo{
			GUID:     pickString(raw, "guid"),
			Name:     pickString(raw, "name"),
			Format:   pickString(raw, "format"),
			Location: pickString(raw, "location"),
		})
	}
	return files, nil
}

// DownloadFileContent fetches raw attachment bytes. The response is not
// JSON, so this bypasses the taxonomy mapping except for auth.
func (c *Client) DownloadFileContent(ctx context.Context, itemGUID, fileGUID string) ([]byte, error) {
	path := fmt.Sprintf("/items/%s/files/%s/content", url.PathEscape(itemGUID), url.PathEscape(fileGUID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set(c.sessionHeader, c.sessions.SessionToken(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return io.ReadAll(resp.Body)
}

// UpdateWorkingRevision writes attribute changes to an item's working
// revision. The payload passes through untouched.
func (c *Client) UpdateWorkingRevision(ctx context.Context, guid string, payload map[string]any) (Record, error) {
	body, err := c.Request(ctx, http.MethodPut, fmt.Sprintf("/items/%s", url.PathEscape(guid)), payload)
	if err != nil {
		return Record{}, err
	}
	return NormalizeRecord(body), nil
}

// ValidateSession performs the authoritative live check: a minimal
// authenticated request. Only a 2xx means valid.
func (c *Client) ValidateSession(ctx context.Context) bool {
	token := c.sessions.SessionToken(ctx)
	if token == "" {
		return false
	}

	_, err := c.doRequest(ctx, http.MethodGet, "/items?limit=1", nil, token)
	if err != nil {
		logger.Debug("Session validation failed", zap.Error(err))
		return false
	}
	return true
}
