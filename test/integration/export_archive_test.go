package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/config"
)

func TestExportArchiveStoresObjectAndPresignsURL(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a docker daemon for the minio container")
	}
	env := newMinIOIntegrationEnv(t)
	ts, closeFn := newTestServerWithOptions(t, testServerOptions{exportStorage: env.storage})
	defer closeFn()

	seedProducts(t, ts, 3)
	ts.provisionOperator(t, "export-editor@example.com", "Valid#Pass1234", "editor")
	ts.login(t, "export-editor@example.com", "Valid#Pass1234")

	req, err := http.NewRequest(http.MethodGet, ts.baseURL+"/admin/product/export?format=csv&archive=1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive export status = %d", resp.StatusCode)
	}

	var payload struct {
		Result string `json:"result"`
		URL    string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode export response: %v", err)
	}
	if payload.Result != "ok" || payload.URL == "" {
		t.Fatalf("unexpected export payload: %+v", payload)
	}
	if !strings.Contains(payload.URL, env.bucket) {
		t.Fatalf("presigned URL %q does not reference bucket %q", payload.URL, env.bucket)
	}

	keys := env.listObjects(t, "exports/product/")
	if len(keys) != 1 {
		t.Fatalf("expected one archived export, found %v", keys)
	}
	info := env.mustStatObject(t, keys[0])
	if info.ContentType != "text/csv" {
		t.Fatalf("archived content type = %q, want text/csv", info.ContentType)
	}
	body := string(env.readObject(t, keys[0]))
	for _, want := range []string{"SKU", "SKU-PAGE-01", "SKU-PAGE-03"} {
		if !strings.Contains(body, want) {
			t.Fatalf("archived csv missing %q", want)
		}
	}

	// The presigned URL must be directly fetchable without console cookies.
	plain := &http.Client{}
	dlResp, err := plain.Get(payload.URL)
	if err != nil {
		t.Fatalf("fetch presigned URL: %v", err)
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode != http.StatusOK {
		t.Fatalf("presigned download status = %d", dlResp.StatusCode)
	}
	downloaded, err := io.ReadAll(dlResp.Body)
	if err != nil {
		t.Fatalf("read presigned download: %v", err)
	}
	if string(downloaded) != body {
		t.Fatal("presigned download does not match the stored object")
	}
}

func TestExportArchiveRedirectsBrowsers(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a docker daemon for the minio container")
	}
	env := newMinIOIntegrationEnv(t)
	ts, closeFn := newTestServerWithOptions(t, testServerOptions{exportStorage: env.storage})
	defer closeFn()

	seedProducts(t, ts, 2)
	ts.provisionOperator(t, "export-browser@example.com", "Valid#Pass1234", "editor")
	ts.login(t, "export-browser@example.com", "Valid#Pass1234")

	noRedirect := &http.Client{
		Jar: ts.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := noRedirect.Get(ts.baseURL + "/admin/product/export?format=json&archive=1")
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("browser archive export status = %d, want 302", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.Contains(location, env.bucket) || !strings.Contains(location, "exports/product/") {
		t.Fatalf("redirect location %q does not point at the archived export", location)
	}
}

func TestExportRowLimitForcesArchive(t *testing.T) {
	if testing.Short() {
		t.Skip("requires a docker daemon for the minio container")
	}
	env := newMinIOIntegrationEnv(t)
	ts, closeFn := newTestServerWithOptions(t, testServerOptions{
		exportStorage: env.storage,
		cfgOverride: func(cfg *config.Config) {
			cfg.ExportArchiveRowLimit = 2
		},
	})
	defer closeFn()

	seedProducts(t, ts, 5)
	ts.provisionOperator(t, "export-bulk@example.com", "Valid#Pass1234", "editor")
	ts.login(t, "export-bulk@example.com", "Valid#Pass1234")

	req, err := http.NewRequest(http.MethodGet, ts.baseURL+"/admin/product/export?format=csv", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	var payload struct {
		Result string `json:"result"`
		URL    string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode export response: %v", err)
	}
	if payload.Result != "ok" || payload.URL == "" {
		t.Fatalf("row limit should have forced archive delivery, got %+v", payload)
	}
	if keys := env.listObjects(t, "exports/product/"); len(keys) != 1 {
		t.Fatalf("expected one archived export, found %v", keys)
	}
}

func TestExportDirectDownloadWithoutStorage(t *testing.T) {
	ts, closeFn := newTestServer(t)
	defer closeFn()

	seedProducts(t, ts, 2)
	ts.provisionOperator(t, "export-direct@example.com", "Valid#Pass1234", "editor")
	ts.login(t, "export-direct@example.com", "Valid#Pass1234")

	resp, body := ts.get(t, "/admin/product/export?format=csv&archive=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("direct export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("content disposition = %q", cd)
	}
	for _, want := range []string{"SKU", "SKU-PAGE-01", "SKU-PAGE-02"} {
		if !strings.Contains(body, want) {
			t.Fatalf("csv body missing %q", want)
		}
	}
}
