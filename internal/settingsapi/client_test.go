package settingsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/dials/internal/setting"
)

const testSection setting.SectionPath = "Application.Security.PasswordPolicies"

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBase {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBase)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_EventsURL(t *testing.T) {
	c, err := NewClient("https://settings.example.com")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.EventsURL(); got != "wss://settings.example.com/api/events" {
		t.Fatalf("EventsURL = %q, want wss://settings.example.com/api/events", got)
	}

	c, err = NewClient("127.0.0.1:9000")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.EventsURL(); got != "ws://127.0.0.1:9000/api/events" {
		t.Fatalf("EventsURL = %q, want ws://127.0.0.1:9000/api/events", got)
	}
}

func TestClient_SettingsEndpoints(t *testing.T) {
	t.Parallel()

	var (
		gotPut       ValueRequest
		gotPutPath   string
		gotBatch     BatchRequest
		gotKeys      []string
		gotUserAgent string
		gotAuth      string
		gotRequestID string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/settings":
			_ = json.NewEncoder(w).Encode(SectionListResponse{Sections: []setting.SectionPath{testSection}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/settings/"+string(testSection):
			_, _ = w.Write([]byte(`{"section":"` + string(testSection) + `","settings":[
				{"setting_name":"password.min.length","value":8},
				{"setting_name":"password.require.digits","value":false}]}`))
		case r.Method == http.MethodPut:
			gotPutPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotPut)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/api/settings/batch":
			_ = json.NewDecoder(r.Body).Decode(&gotBatch)
			results := make([]setting.UpdateResult, 0, len(gotBatch.Updates))
			for _, u := range gotBatch.Updates {
				results = append(results, setting.UpdateResult{Section: u.Section, Key: u.Key, Success: true})
			}
			_ = json.NewEncoder(w).Encode(BatchResponse{Results: results})
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/defaults"):
			gotKeys = r.URL.Query()["key"]
			_, _ = w.Write([]byte(`{"defaults":{"password.min.length":8}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithToken(" secret "))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	sections, err := c.ListSections(ctx)
	if err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	if len(sections) != 1 || sections[0] != testSection {
		t.Fatalf("ListSections = %v, want [%s]", sections, testSection)
	}

	settings, err := c.FetchSection(ctx, testSection)
	if err != nil {
		t.Fatalf("FetchSection returned error: %v", err)
	}
	if v, ok := setting.Find(settings, "password.min.length"); !ok || !v.Equal(setting.Int(8)) {
		t.Fatalf("password.min.length = %v (ok=%v), want 8", v, ok)
	}
	if v, ok := setting.Find(settings, "password.require.digits"); !ok || !v.Equal(setting.Bool(false)) {
		t.Fatalf("password.require.digits = %v (ok=%v), want off", v, ok)
	}

	if err := c.UpdateSetting(ctx, testSection, "password.min.length", setting.Int(12)); err != nil {
		t.Fatalf("UpdateSetting returned error: %v", err)
	}
	if gotPutPath != "/api/settings/"+string(testSection)+"/password.min.length" {
		t.Fatalf("PUT path = %q", gotPutPath)
	}
	if !gotPut.Value.Equal(setting.Int(12)) {
		t.Fatalf("PUT value = %v, want 12", gotPut.Value)
	}

	results, err := c.UpdateBatch(ctx, []setting.Update{
		{Section: testSection, Key: "password.min.length", Value: setting.Int(8)},
		{Section: testSection, Key: "password.require.digits", Value: setting.Bool(true)},
	})
	if err != nil {
		t.Fatalf("UpdateBatch returned error: %v", err)
	}
	if len(results) != 2 || !results[1].Success || results[1].Key != "password.require.digits" {
		t.Fatalf("UpdateBatch results = %#v", results)
	}
	if len(gotBatch.Updates) != 2 || !gotBatch.Updates[1].Value.Equal(setting.Bool(true)) {
		t.Fatalf("batch body = %#v", gotBatch)
	}

	defaults, err := c.FetchDefaults(ctx, testSection, []setting.Key{"password.min.length", "password.max.length"})
	if err != nil {
		t.Fatalf("FetchDefaults returned error: %v", err)
	}
	if len(gotKeys) != 2 || gotKeys[0] != "password.min.length" || gotKeys[1] != "password.max.length" {
		t.Fatalf("defaults query keys = %v", gotKeys)
	}
	if !defaults["password.min.length"].Equal(setting.Int(8)) {
		t.Fatalf("defaults = %v", defaults)
	}

	if !strings.HasPrefix(gotUserAgent, "dials/") {
		t.Fatalf("User-Agent = %q, want dials/*", gotUserAgent)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID header missing")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_WithHTTPClientUsesTransport(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SectionListResponse{Sections: []setting.SectionPath{testSection}})
	}))
	t.Cleanup(server.Close)

	var calls atomic.Int32
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return http.DefaultTransport.RoundTrip(r)
	})}
	c, err := NewClient(server.URL, WithHTTPClient(hc), WithHTTPClient(nil))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.ListSections(context.Background()); err != nil {
		t.Fatalf("ListSections returned error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("transport calls = %d, want 1", got)
	}
}

func TestClient_FetchSectionNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.FetchSection(context.Background(), "Missing.Section")
	if !errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("FetchSection error = %v, want ErrSectionNotFound", err)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/settings":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.ListSections(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("ListSections error = %v, want decode response error", err)
	}

	_, err = c.FetchSection(context.Background(), testSection)
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchSection error = %v, want status 500 error", err)
	}
	if errors.Is(err, ErrSectionNotFound) {
		t.Fatalf("FetchSection error = %v, should not be ErrSectionNotFound", err)
	}
}

func TestClient_RegionsEnvelope(t *testing.T) {
	t.Parallel()

	var gotDelete RegionDeleteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"r1","name":"North"}]}`))
		case r.Method == http.MethodPost:
			var body RegionNameRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Name == "" {
				_, _ = w.Write([]byte(`{"success":false,"message":"name required"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"r2","name":"` + body.Name + `"}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/regions/r1":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"r1","name":"Nord"}}`))
		case r.Method == http.MethodDelete:
			_ = json.NewDecoder(r.Body).Decode(&gotDelete)
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	regions, err := c.FetchAllRegions(ctx)
	if err != nil || len(regions) != 1 || regions[0].Name != "North" {
		t.Fatalf("FetchAllRegions = %#v, %v", regions, err)
	}
	created, err := c.CreateRegion(ctx, "South")
	if err != nil || created.ID != "r2" || created.Name != "South" {
		t.Fatalf("CreateRegion = %#v, %v", created, err)
	}
	if _, err := c.CreateRegion(ctx, ""); err == nil || !strings.Contains(err.Error(), "name required") {
		t.Fatalf("CreateRegion(empty) error = %v, want server message", err)
	}
	updated, err := c.UpdateRegion(ctx, Region{ID: "r1", Name: "Nord"})
	if err != nil || updated.Name != "Nord" {
		t.Fatalf("UpdateRegion = %#v, %v", updated, err)
	}
	if _, err := c.UpdateRegion(ctx, Region{Name: "x"}); err == nil {
		t.Fatalf("UpdateRegion without id returned nil error")
	}
	if err := c.DeleteRegions(ctx, []string{"r1", "r2"}); err != nil {
		t.Fatalf("DeleteRegions returned error: %v", err)
	}
	if len(gotDelete.IDs) != 2 {
		t.Fatalf("delete body = %#v, want 2 ids", gotDelete)
	}
}
