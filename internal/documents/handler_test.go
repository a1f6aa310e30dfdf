package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/JaimeStill/stamper/internal/documents"
	"github.com/JaimeStill/stamper/internal/filestore"
	"github.com/JaimeStill/stamper/internal/stamping"
	"github.com/JaimeStill/stamper/internal/thumbnails"
	"github.com/JaimeStill/stamper/pkg/imaging"
	"github.com/JaimeStill/stamper/pkg/lifecycle"
	"github.com/JaimeStill/stamper/pkg/pdf/pdftest"
	"github.com/JaimeStill/stamper/pkg/routes"
	"github.com/JaimeStill/stamper/pkg/storage"
)

const maxUpload = 1 << 20

type harness struct {
	mux   *http.ServeMux
	codec *pdftest.Codec
	sys   documents.System
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sys := storage.NewWithFs(afero.NewMemMapFs(), "/mem", logger)
	store := filestore.New(sys, logger)
	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("storage Start() error = %v", err)
	}
	if err := store.Start(lc); err != nil {
		t.Fatalf("filestore Start() error = %v", err)
	}
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}

	codec := &pdftest.Codec{Pages: 2}
	cache := thumbnails.New(store, codec, imaging.NewJPEG(0), nil, logger)
	orch := stamping.New(store, codec, cache, nil, logger)
	docs := documents.New(store, cache, orch, logger)

	mux := http.NewServeMux()
	routes.Register(mux, docs.Handler("/api", maxUpload).Routes())

	return &harness{mux: mux, codec: codec, sys: docs}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest("POST", "/files/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)

	rec := h.do(uploadRequest(t, "report.pdf", "application/pdf", pdftest.Document("two pages")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	uploaded := decode[documents.FileLinks](t, rec)
	if uploaded.FileName != "report.pdf" {
		t.Errorf("upload fileName: got %s, want report.pdf", uploaded.FileName)
	}
	if uploaded.FileDownloadURI != "http://example.com/api/files/download/report.pdf" {
		t.Errorf("upload fileDownloadUri: got %s", uploaded.FileDownloadURI)
	}

	rec = h.do(httptest.NewRequest("POST", "/files/stamp/report.pdf?date=2024-01-01&name=Alice&comment=ok", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stamp status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	stamped := decode[documents.FileLinks](t, rec)
	if stamped.FileName != "stamped_report.pdf" {
		t.Errorf("stamp fileName: got %s, want stamped_report.pdf", stamped.FileName)
	}
	if stamped.ThumbnailURI != "http://example.com/api/files/thumbnail/stamped_report.pdf" {
		t.Errorf("stamp thumbnailUri: got %s", stamped.ThumbnailURI)
	}

	rec = h.do(httptest.NewRequest("GET", "/files/download/stamped_report.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("download content-type: got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("download content-disposition: got %s", cd)
	}
	for _, page := range []string{"0", "1"} {
		for _, line := range []string{"Date: 2024-01-01", "Name: Alice", "Comment: ok"} {
			if !bytes.Contains(rec.Body.Bytes(), []byte("% page "+page+": "+line)) {
				t.Errorf("page %s should carry %q", page, line)
			}
		}
	}

	rec = h.do(httptest.NewRequest("GET", "/files/thumbnail/stamped_report.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("thumbnail status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("thumbnail content-type: got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
		t.Errorf("thumbnail content-disposition: got %s", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte{0xFF, 0xD8}) {
		t.Error("thumbnail should be JPEG bytes")
	}
	if got := h.codec.Renders(); got != 1 {
		t.Errorf("renders: got %d, want 1 (generated by stamp, served from cache)", got)
	}

	rec = h.do(httptest.NewRequest("DELETE", "/files/report.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d, want 200", rec.Code)
	}
	if res := decode[documents.DeleteResult](t, rec); !res.Deleted {
		t.Error("delete should report deleted: true")
	}

	rec = h.do(httptest.NewRequest("GET", "/files/download/report.pdf", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("download after delete: got %d, want 404", rec.Code)
	}
}

func TestList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.sys.Upload(ctx, pdftest.Document("b"), "application/pdf", "b.pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := h.sys.Stamp(ctx, documents.StampCommand{Source: "b.pdf", Date: "d", Name: "n", Comment: "c"}); err != nil {
		t.Fatalf("Stamp() error = %v", err)
	}

	rec := h.do(httptest.NewRequest("GET", "/files/list", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	entries := decode[[]documents.ListEntry](t, rec)
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}

	want := []struct {
		name    string
		stamped bool
		source  string
	}{
		{"b.pdf", false, ""},
		{"stamped_b.pdf", true, "b.pdf"},
	}
	for i, w := range want {
		e := entries[i]
		if e.Name != w.name || e.Stamped != w.stamped || e.SourceName != w.source {
			t.Errorf("entry %d: got {%s %v %s}, want {%s %v %s}", i, e.Name, e.Stamped, e.SourceName, w.name, w.stamped, w.source)
		}
		if e.URL != "http://example.com/api/files/download/"+w.name {
			t.Errorf("entry %d url: got %s", i, e.URL)
		}
	}
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest("GET", "/files/list", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body: got %s, want []", body)
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
	}{
		{
			name: "wrong content type",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "report.pdf", "text/plain", []byte("hello"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "wrong extension",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "report.txt", "application/pdf", pdftest.Document("x"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "parent traversal",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "../x.pdf", "application/pdf", pdftest.Document("x"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "nested path",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "a/x.pdf", "application/pdf", pdftest.Document("x"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "absolute path",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/etc/x.pdf", "application/pdf", pdftest.Document("x"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest("POST", "/files/upload", strings.NewReader("raw"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), maxUpload+1))
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			rec := h.do(tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Error("error body should carry a message")
			}

			list := h.do(httptest.NewRequest("GET", "/files/list", nil))
			if got := strings.TrimSpace(list.Body.String()); got != "[]" {
				t.Errorf("rejected upload should store nothing, list: %s", got)
			}
		})
	}
}

func TestUploadDetectsUndeclaredType(t *testing.T) {
	h := newHarness(t)

	rec := h.do(uploadRequest(t, "plain.pdf", "", pdftest.Document("x")))
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestStampRequiresParams(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.sys.Upload(ctx, pdftest.Document("x"), "application/pdf", "x.pdf"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	targets := []string{
		"/files/stamp/x.pdf?name=n&comment=c",
		"/files/stamp/x.pdf?date=d&comment=c",
		"/files/stamp/x.pdf?date=d&name=n",
	}
	for _, target := range targets {
		rec := h.do(httptest.NewRequest("POST", target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", target, rec.Code)
		}
	}

	rec := h.do(httptest.NewRequest("POST", "/files/stamp/x.pdf?date=&name=&comment=", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("empty values should be accepted: got %d", rec.Code)
	}
}

func TestNotFoundAndInvalidNames(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{"GET", "/files/download/ghost.pdf", http.StatusNotFound},
		{"GET", "/files/thumbnail/ghost.pdf", http.StatusNotFound},
		{"POST", "/files/stamp/ghost.pdf?date=d&name=n&comment=c", http.StatusNotFound},
		{"GET", "/files/download/secret.txt", http.StatusBadRequest},
		{"GET", "/files/thumbnail/secret.txt", http.StatusBadRequest},
		{"DELETE", "/files/secret.txt", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := h.do(httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestDeleteMissing(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest("DELETE", "/files/ghost.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if res := decode[documents.DeleteResult](t, rec); res.Deleted {
		t.Error("deleting a missing document should report deleted: false")
	}
}

func TestForwardedProto(t *testing.T) {
	h := newHarness(t)

	req := uploadRequest(t, "secure.pdf", "application/pdf", pdftest.Document("x"))
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := h.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	links := decode[documents.FileLinks](t, rec)
	if !strings.HasPrefix(links.FileDownloadURI, "https://example.com/") {
		t.Errorf("fileDownloadUri: got %s", links.FileDownloadURI)
	}
}

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want documents.Document
	}{
		{"a.pdf", documents.Document{Name: "a.pdf", Origin: documents.OriginUploaded}},
		{"stamped_a.pdf", documents.Document{Name: "stamped_a.pdf", Origin: documents.OriginStamped, SourceName: "a.pdf"}},
	}

	for _, tt := range tests {
		if got := documents.FromName(tt.name); got != tt.want {
			t.Errorf("FromName(%s): got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestOpenAPIPaths(t *testing.T) {
	paths := documents.Paths("/api")

	want := []string{
		"/api/files/list",
		"/api/files/upload",
		"/api/files/download/{name}",
		"/api/files/thumbnail/{name}",
		"/api/files/stamp/{name}",
		"/api/files/{name}",
	}
	if len(paths) != len(want) {
		t.Errorf("paths: got %d, want %d", len(paths), len(want))
	}
	for _, p := range want {
		if _, ok := paths[p]; !ok {
			t.Errorf("missing path %s", p)
		}
	}

	schemas := documents.Schemas()
	for _, name := range []string{"FileLinks", "ListEntry", "DeleteResult", "Upload"} {
		if _, ok := schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}
