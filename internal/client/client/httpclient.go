package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/client/models"
	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/netx"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) getToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout forgets the access token.
func (c *HTTPClient) Logout() {
	c.setToken("")
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string, auth bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		token := c.getToken()
		if token == "" {
			return nil, ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}
	return req, nil
}

// do sends req and returns the response when the status is 2xx. Any other
// status is turned into an *APIError and the body is closed.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseAPIError(resp.StatusCode, body)
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, auth bool) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType, auth)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil, false)
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) error {
	return c.doJSON(ctx, http.MethodPost, "/api/register", r, nil, false)
}

// Login authenticates and keeps the returned token for later calls.
func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*models.Session, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: string(password)}

	var s models.Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", in, &s, false); err != nil {
		return nil, err
	}

	c.setToken(s.Token)
	return &s, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListRecords(ctx context.Context) ([]models.Record, error) {
	var recs []models.Record
	if err := c.doJSON(ctx, http.MethodGet, "/api/health-records", nil, &recs, true); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *HTTPClient) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var r models.Record
	if err := c.doJSON(ctx, http.MethodGet, recordPath(id), nil, &r, true); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) CreateRecord(ctx context.Context, fields map[string]string, file *Attachment) (*models.Record, error) {
	return c.sendRecord(ctx, http.MethodPost, "/api/health-records", fields, file)
}

func (c *HTTPClient) UpdateRecord(ctx context.Context, id string, fields map[string]string, file *Attachment) (*models.Record, error) {
	return c.sendRecord(ctx, http.MethodPut, recordPath(id), fields, file)
}

func (c *HTTPClient) sendRecord(ctx context.Context, method, path string, fields map[string]string, file *Attachment) (*models.Record, error) {
	var part *netx.FilePart
	if file != nil {
		part = &netx.FilePart{Field: common.MedicalReportField, FileName: file.FileName, Content: file.Content}
	}
	body, contentType := netx.MultipartBody(fields, part)
	defer body.Close()

	req, err := c.newRequest(ctx, method, path, body, contentType, true)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Record models.Record `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out.Record, nil
}

func (c *HTTPClient) DeleteRecord(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, recordPath(id), nil, nil, true)
}

// DownloadReport streams the record's medical report into w and returns
// the file name the server suggested.
func (c *HTTPClient) DownloadReport(ctx context.Context, id string, w io.Writer) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, recordPath(id)+"/report", nil, "", true)
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}

	return fileNameFromDisposition(resp.Header.Get("Content-Disposition")), nil
}

func recordPath(id string) string {
	return "/api/health-records/" + url.PathEscape(id)
}

func fileNameFromDisposition(v string) string {
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}
