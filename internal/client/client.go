// Package client talks to the equipment API over HTTP. It is what the desktop
// front end and cevctl use.
package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-resty/resty/v2"

	"equipment-visualizer-backend/internal/analytics"
	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/store"
)

// DefaultBaseURL is used when CEV_API_BASE_URL is unset.
const DefaultBaseURL = "http://localhost:8000/api"

// APIError carries the error text the server returned.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

type errorBody struct {
	Error string `json:"error"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message"`
}

// UploadResult is returned by UploadCSV.
type UploadResult struct {
	model.Upload
	EquipmentCount int `json:"equipment_count"`
	SkippedRows    int `json:"skipped_rows"`
}

// Report is a downloaded report file.
type Report struct {
	Filename string
	Content  []byte
}

// RegisterRequest holds the fields of a new account.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Client is not safe for concurrent use while the token changes.
type Client struct {
	http  *resty.Client
	token string
}

// New creates a client for baseURL, e.g. http://localhost:8000/api.
func New(baseURL, token string) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetAuthScheme("Token"),
	}
	c.SetToken(token)
	return c
}

// SetToken replaces the token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
	c.http.SetAuthToken(token)
}

// Token returns the current token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok {
		apiErr.Message = body.Error
	}
	return apiErr
}

// Register creates an account and keeps its token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := check(c.request(ctx).SetBody(req).SetResult(&out).Post("/auth/register/")); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login exchanges credentials for a token and keeps it.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"username": username, "password": password}
	if err := check(c.request(ctx).SetBody(body).SetResult(&out).Post("/auth/login/")); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout invalidates the current token on the server and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := check(c.request(ctx).Post("/auth/logout/")); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// UploadCSV sends the file at path.
func (c *Client) UploadCSV(ctx context.Context, path string) (*UploadResult, error) {
	var out UploadResult
	if err := check(c.request(ctx).SetFile("file", path).SetResult(&out).Post("/upload-csv/")); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches the dashboard aggregates.
func (c *Client) Summary(ctx context.Context) (*analytics.Summary, error) {
	var out analytics.Summary
	if err := check(c.request(ctx).SetResult(&out).Get("/summary/")); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the most recent uploads.
func (c *Client) History(ctx context.Context) ([]store.UploadSummary, error) {
	var out []store.UploadSummary
	if err := check(c.request(ctx).SetResult(&out).Get("/history/")); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePDF downloads the PDF report of uploadID, or of the latest upload when nil.
func (c *Client) GeneratePDF(ctx context.Context, uploadID *uint) (*Report, error) {
	return c.download(ctx, "/generate-pdf/", uploadID)
}

// GenerateXLSX downloads the spreadsheet report of uploadID, or of the latest upload when nil.
func (c *Client) GenerateXLSX(ctx context.Context, uploadID *uint) (*Report, error) {
	return c.download(ctx, "/generate-xlsx/", uploadID)
}

func (c *Client) download(ctx context.Context, path string, uploadID *uint) (*Report, error) {
	body := map[string]any{}
	if uploadID != nil {
		body["upload_id"] = *uploadID
	}
	resp, err := c.request(ctx).SetBody(body).Post(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode()}
	}

	report := &Report{Content: resp.Body()}
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil {
		report.Filename = params["filename"]
	}
	return report, nil
}
