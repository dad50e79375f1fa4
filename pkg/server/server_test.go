package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/user/poster/pkg/adapters/logger"
	"github.com/user/poster/pkg/mocks"
	"github.com/user/poster/pkg/orchestrator"
	"github.com/user/poster/pkg/source"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	handler http.Handler
	fs      *mocks.FileSystem
	fetcher *mocks.Fetcher
	qr      *mocks.QRGenerator
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		fs:      mocks.NewFileSystem(),
		fetcher: mocks.NewFetcher(),
		qr:      &mocks.QRGenerator{},
	}
	engine := mocks.NewEngine()
	log := logger.NewNoop()
	resolver := source.NewResolver(f.fs, f.fetcher, engine, log)
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	orch := orchestrator.New(engine, resolver, f.qr, f.fs, mocks.NewDebugSink(false), log, 1,
		orchestrator.WithMaxPixels(maxPixels))
	f.handler = New(orch, engine, f.qr, log, opts).Handler()
	return f
}

func (f *fixture) do(method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestServer_Healthz(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestServer_RenderPoster(t *testing.T) {
	f := newFixture(t, Options{})
	f.fetcher.Files["https://example.com/a.png"] = mocks.ImageData(50, 50)

	recipe := `{"poster": {"width": 300, "height": 200, "format": "jpeg"},
  "layers": [
    {"image": {"source": {"url": "https://example.com/a.png"}, "x": 10, "y": 10}},
    {"text": {"text": "Hi", "x": 10, "y": 100, "size": 20}}
  ],
  "output": "/etc/should-not-be-written"}`

	w := f.do(http.MethodPost, "/v1/posters", recipe)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("unexpected content type %q", got)
	}
	if w.Body.String() != "jpeg:300x200" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if w.Header().Get("X-Poster-Width") != "300" {
		t.Errorf("unexpected width header %q", w.Header().Get("X-Poster-Width"))
	}
	if len(f.fs.Written()) != 0 {
		t.Error("expected no files written by the server")
	}
}

func TestServer_RenderPosterErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", "poster: [", http.StatusBadRequest},
		{"bad layer", `{"layers": [{}]}`, http.StatusBadRequest},
		{"out of bounds", `{"poster": {"width": 300, "height": 300}, "layers": [{"text": {"text": "Hi", "x": 290, "y": 50, "size": 20}}]}`, http.StatusUnprocessableEntity},
		{"local file", `{"background": {"source": {"path": "/etc/passwd"}}}`, http.StatusBadRequest},
		{"fetch failure", `{"background": {"source": {"url": "https://example.com/missing.png"}}}`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			w := f.do(http.MethodPost, "/v1/posters", tt.body)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestServer_RenderPosterLocalFilesAllowed(t *testing.T) {
	f := newFixture(t, Options{AllowLocalFiles: true})
	f.fs.AddFile("/assets/bg.png", mocks.ImageData(80, 60))

	w := f.do(http.MethodPost, "/v1/posters", `{"background": {"source": {"path": "/assets/bg.png"}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "png:80x60" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestServer_RenderPosterTooLarge(t *testing.T) {
	f := newFixture(t, Options{MaxBodyBytes: 16})

	w := f.do(http.MethodPost, "/v1/posters", `{"poster": {"width": 300, "height": 300}}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestServer_RenderPosterCanvasTooLarge(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"poster", `{"poster":{"width":200000,"height":200000},"layers":[]}`},
		{"background", `{"background": {"color": "#fff", "width": 200000, "height": 200000}}`},
		{"image", `{"layers": [{"image": {"source": {"url": "https://example.com/a.png"}, "x": 0, "y": 0, "width": 100000, "height": 100000}}]}`},
		{"qrcode", `{"layers": [{"qrcode": {"content": "x", "x": 0, "y": 0, "size": 100000}}]}`},
		{"text", `{"layers": [{"text": {"text": "x", "x": 0, "y": 0, "size": 1e12}}]}`},
		{"paragraph", `{"layers": [{"paragraph": {"text": "x", "x": 0, "y": 0, "size": 50000, "max_width": 10}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			w := f.do(http.MethodPost, "/v1/posters", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "pixel limit") {
				t.Errorf("unexpected body %s", w.Body.String())
			}
			if len(f.fetcher.Calls) != 0 {
				t.Errorf("expected no fetch, got %v", f.fetcher.Calls)
			}
		})
	}
}

func TestServer_RenderPosterScaledImageTooLarge(t *testing.T) {
	f := newFixture(t, Options{MaxPixels: 10000})
	f.fetcher.Files["https://example.com/strip.png"] = mocks.ImageData(1, 1000)

	body := `{"poster": {"width": 100, "height": 100},
  "layers": [{"image": {"source": {"url": "https://example.com/strip.png"}, "x": 0, "y": 0, "width": 100}}]}`
	w := f.do(http.MethodPost, "/v1/posters", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_RenderPosterPrivateNetwork(t *testing.T) {
	body := `{"poster": {"width": 300, "height": 200},
  "layers": [{"image": {"source": {"url": "http://127.0.0.1/admin.png"}, "x": 0, "y": 0}}]}`

	f := newFixture(t, Options{})
	f.fetcher.Files["http://127.0.0.1/admin.png"] = mocks.ImageData(10, 10)
	w := f.do(http.MethodPost, "/v1/posters", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(f.fetcher.Calls) != 0 {
		t.Errorf("expected no fetch, got %v", f.fetcher.Calls)
	}

	for _, u := range []string{"http://localhost/a.png", "http://169.254.169.254/latest", "file:///etc/passwd"} {
		b := `{"background": {"source": {"url": "` + u + `"}}}`
		if w := f.do(http.MethodPost, "/v1/posters", b); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", u, w.Code)
		}
	}

	f = newFixture(t, Options{AllowPrivateNetworks: true})
	f.fetcher.Files["http://127.0.0.1/admin.png"] = mocks.ImageData(10, 10)
	if w := f.do(http.MethodPost, "/v1/posters", body); w.Code != http.StatusOK {
		t.Errorf("expected 200 with private networks allowed, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_MeasureTooLarge(t *testing.T) {
	f := newFixture(t, Options{MaxBodyBytes: 32})

	w := f.do(http.MethodPost, "/v1/measure", `{"text": "`+strings.Repeat("a", 64)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = f.do(http.MethodPost, "/v1/measure", `{"text": "a", "size": 100000}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_QRCode(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(http.MethodGet, "/v1/qrcode?content=https%3A%2F%2Fexample.com&size=200", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "png:200x200" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if diff := cmp.Diff([]string{"https://example.com"}, f.qr.Contents); diff != "" {
		t.Errorf("unexpected QR contents (-want +got):\n%s", diff)
	}

	for _, target := range []string{"/v1/qrcode", "/v1/qrcode?content=x&size=5", "/v1/qrcode?content=x&margin=-1"} {
		if w := f.do(http.MethodGet, target, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestServer_Measure(t *testing.T) {
	f := newFixture(t, Options{})

	body, _ := json.Marshal(map[string]interface{}{"text": "abcdefgh", "size": 20, "max_width": 35})
	req := httptest.NewRequest(http.MethodPost, "/v1/measure", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp measureResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := measureResponse{
		Width:  80,
		Height: 20,
		Ascent: 16,
		Lines: []lineJSON{
			{Text: "abc", Width: 30, Height: 20},
			{Text: "def", Width: 30, Height: 20},
			{Text: "gh", Width: 20, Height: 20},
		},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestServer_MeasureRequiresText(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(http.MethodPost, "/v1/measure", `{"size": 12}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
