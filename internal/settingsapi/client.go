package settingsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/dials/internal/setting"
)

// SettingsAPI defines the settings endpoints consumed by the services.
// This interface is implemented by *Client and can be used for testing.
type SettingsAPI interface {
	ListSections(ctx context.Context) ([]setting.SectionPath, error)
	FetchSection(ctx context.Context, section setting.SectionPath) ([]setting.Setting, error)
	UpdateSetting(ctx context.Context, section setting.SectionPath, key setting.Key, value setting.Value) error
	UpdateBatch(ctx context.Context, updates []setting.Update) ([]setting.UpdateResult, error)
	FetchDefaults(ctx context.Context, section setting.SectionPath, keys []setting.Key) (map[setting.Key]setting.Value, error)
}

// RegionsAPI defines the regions CRUD endpoints.
type RegionsAPI interface {
	FetchAllRegions(ctx context.Context) ([]Region, error)
	CreateRegion(ctx context.Context, name string) (Region, error)
	UpdateRegion(ctx context.Context, region Region) (Region, error)
	DeleteRegions(ctx context.Context, ids []string) error
}

// Ensure Client implements both interfaces at compile time.
var (
	_ SettingsAPI = (*Client)(nil)
	_ RegionsAPI  = (*Client)(nil)
)

// ErrSectionNotFound is returned when the API does not know a section.
var ErrSectionNotFound = errors.New("settings section not found")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}

// Client talks to the settings HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultAPIBase   = "127.0.0.1:8750"
	defaultUserAgent = "dials/0.1"
	requestTimeout   = 5 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client using the provided host:port or URL.
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// EventsURL returns the websocket URL of the change feed.
func (c *Client) EventsURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/events"
	return u.String()
}

// AuthHeader returns the headers a websocket dial should carry.
func (c *Client) AuthHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// ListSections retrieves the sections known to the API.
func (c *Client) ListSections(ctx context.Context) ([]setting.SectionPath, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload SectionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Sections, nil
}

// FetchSection retrieves every setting of one section.
func (c *Client) FetchSection(ctx context.Context, section setting.SectionPath) ([]setting.Setting, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(string(section)) == "" {
		return nil, fmt.Errorf("section path required")
	}
	var payload SectionResponse
	err := c.do(ctx, http.MethodGet, sectionPath(section), nil, &payload)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, section)
		}
		return nil, err
	}
	return payload.Settings, nil
}

// UpdateSetting persists a single value.
func (c *Client) UpdateSetting(ctx context.Context, section setting.SectionPath, key setting.Key, value setting.Value) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if key == "" {
		return fmt.Errorf("setting key required")
	}
	path := sectionPath(section) + "/" + string(key)
	return c.do(ctx, http.MethodPut, path, ValueRequest{Value: value}, nil)
}

// UpdateBatch persists several values in one request.
func (c *Client) UpdateBatch(ctx context.Context, updates []setting.Update) ([]setting.UpdateResult, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if len(updates) == 0 {
		return nil, nil
	}
	var payload BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/settings/batch", BatchRequest{Updates: updates}, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// FetchDefaults retrieves factory defaults for the given keys.
func (c *Client) FetchDefaults(ctx context.Context, section setting.SectionPath, keys []setting.Key) (map[setting.Key]setting.Value, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	for _, k := range keys {
		values.Add("key", string(k))
	}
	rel := &url.URL{Path: sectionPath(section) + "/defaults", RawQuery: values.Encode()}
	var payload DefaultsResponse
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Defaults, nil
}

// FetchAllRegions lists the regions table.
func (c *Client) FetchAllRegions(ctx context.Context) ([]Region, error) {
	var regions []Region
	if err := c.doEnvelope(ctx, http.MethodGet, "/api/regions", nil, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// CreateRegion adds a region.
func (c *Client) CreateRegion(ctx context.Context, name string) (Region, error) {
	var region Region
	if err := c.doEnvelope(ctx, http.MethodPost, "/api/regions", RegionNameRequest{Name: name}, &region); err != nil {
		return Region{}, err
	}
	return region, nil
}

// UpdateRegion renames a region.
func (c *Client) UpdateRegion(ctx context.Context, region Region) (Region, error) {
	if strings.TrimSpace(region.ID) == "" {
		return Region{}, fmt.Errorf("region id required")
	}
	var updated Region
	path := "/api/regions/" + region.ID
	if err := c.doEnvelope(ctx, http.MethodPut, path, RegionNameRequest{Name: region.Name}, &updated); err != nil {
		return Region{}, err
	}
	return updated, nil
}

// DeleteRegions removes regions by id.
func (c *Client) DeleteRegions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.doEnvelope(ctx, http.MethodDelete, "/api/regions", RegionDeleteRequest{IDs: ids}, nil)
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var env Envelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return err
	}
	if !env.Success {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = "request rejected"
		}
		return fmt.Errorf("api %s: %s", path, msg)
	}
	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &StatusError{Path: rel.Path, Status: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sectionPath(section setting.SectionPath) string {
	return "/api/settings/" + string(section)
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
