// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/meetroom-go/internal/auth"
	"github.com/olegiv/meetroom-go/internal/cache"
	"github.com/olegiv/meetroom-go/internal/records"
	"github.com/olegiv/meetroom-go/internal/service"
	"github.com/olegiv/meetroom-go/internal/session"
	"github.com/olegiv/meetroom-go/internal/store"
	"github.com/olegiv/meetroom-go/internal/transfer"
	"github.com/olegiv/meetroom-go/internal/version"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, content string) string {
	return "**Tóm tắt:** " + content
}

type testServer struct {
	*httptest.Server
	previews *cache.MemoryCache
	records  *records.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	kv := store.NewMemoryKV()
	rs := records.New(kv, nil)
	events := service.NewEventService(kv)

	creds, err := auth.NewAdminCredentials("admin", "admin")
	if err != nil {
		t.Fatalf("NewAdminCredentials: %v", err)
	}
	sm := session.New(nil, true)
	previews := cache.NewMemoryCache(0, 10)

	h := NewHandler(Deps{
		Documents:   service.NewDocumentService(rs, events, stubSummarizer{}, nil),
		Attachments: service.NewAttachmentService(rs, events, nil),
		Events:      events,
		Gate:        auth.NewGate(creds, auth.NewSCSSessions(sm), nil),
		Exporter:    transfer.NewExporter(rs, nil),
		Importer:    transfer.NewImporter(rs, nil),
		Storage:     kv,
		Previews:    previews,
		Version:     version.Info{Version: "v0.0.0-test"},
	})

	r := chi.NewRouter()
	h.Routes(r, sm)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, previews: previews, records: rs}
}

// client returns an HTTP client with its own cookie jar, i.e. its own session.
func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func (s *testServer) login(t *testing.T, username, password string) *http.Client {
	t.Helper()
	c := s.client(t)
	body := strings.NewReader(`{"username":"` + username + `","password":"` + password + `"}`)
	resp, err := c.Post(s.URL+"/api/v1/login", "application/json", body)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	return c
}

type formFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{`form-data; name="` + file.field + `"; filename="` + file.name + `"`}
		hdr["Content-Type"] = []string{file.contentType}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = part.Write(file.data)
	}
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, c *http.Client, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return env.Data
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var env ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return env.Error.Code
}

func createDocument(t *testing.T, s *testServer, c *http.Client, content string, file *formFile) DocumentResponse {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{
		"order":     "1",
		"content":   content,
		"presenter": "Nguyễn An",
	}, file)
	resp := do(t, c, http.MethodPost, s.URL+"/api/v1/documents", body, ct)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	return decodeData[DocumentResponse](t, resp)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestAccess_SignedOut(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s.client(t), http.MethodGet, s.URL+"/api/v1/documents", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLogin_AnyCredentialsSignIn(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		username, password string
		wantEdit           bool
	}{
		{"admin", "admin", true},
		{"Admin", "admin", true},
		{"", "", false},
		{"bob", "secret", false},
		{"admin", "wrong", false},
	}

	for _, tt := range tests {
		t.Run(tt.username+":"+tt.password, func(t *testing.T) {
			c := s.login(t, tt.username, tt.password)
			me := decodeData[SessionResponse](t, do(t, c, http.MethodGet, s.URL+"/api/v1/me", nil, ""))

			if !me.IsAuthenticated {
				t.Fatal("expected signed-in session")
			}
			if me.CanEdit != tt.wantEdit {
				t.Errorf("canEdit = %v, want %v", me.CanEdit, tt.wantEdit)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	c := s.login(t, "admin", "admin")

	do(t, c, http.MethodPost, s.URL+"/api/v1/logout", nil, "")

	me := decodeData[SessionResponse](t, do(t, c, http.MethodGet, s.URL+"/api/v1/me", nil, ""))
	if me.IsAuthenticated {
		t.Error("expected signed-out session after logout")
	}
}

func TestDocuments_GuestCannotMutate(t *testing.T) {
	s := newTestServer(t)
	guest := s.login(t, "bob", "x")

	body, ct := multipartBody(t, map[string]string{"content": "x", "presenter": "y"}, nil)
	resp := do(t, guest, http.MethodPost, s.URL+"/api/v1/documents", body, ct)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "forbidden" {
		t.Errorf("error code = %q", code)
	}

	resp = do(t, guest, http.MethodGet, s.URL+"/api/v1/documents", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("guest list status = %d, want 200", resp.StatusCode)
	}
}

func TestDocuments_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")
	pdf := []byte("%PDF-1.4 agenda")

	created := createDocument(t, s, admin, "Ngân sách quý", &formFile{"file", "Biên bản.pdf", "application/pdf", pdf})
	if created.ID == "" || created.Kind != "document" || created.FileName != "Biên bản.pdf" {
		t.Fatalf("created = %+v", created)
	}

	list := decodeData[[]DocumentResponse](t, do(t, admin, http.MethodGet, s.URL+"/api/v1/documents", nil, ""))
	if len(list) != 1 || list[0].FileData != "" {
		t.Fatalf("list = %+v, want one entry without fileData", list)
	}

	resp := do(t, admin, http.MethodGet, s.URL+"/api/v1/documents/"+created.ID+"/file", nil, "")
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, pdf) {
		t.Errorf("file body = %q", got)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `filename="bien-ban.pdf"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// Edit without a file keeps the stored one.
	body, ct := multipartBody(t, map[string]string{"order": "2", "content": "Ngân sách năm", "presenter": "Bình"}, nil)
	resp = do(t, admin, http.MethodPut, s.URL+"/api/v1/documents/"+created.ID, body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeData[DocumentResponse](t, resp)
	if updated.FileName != created.FileName || updated.Order != 2 || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("updated = %+v", updated)
	}

	resp = do(t, admin, http.MethodGet, s.URL+"/api/v1/documents/"+created.ID+"/preview", nil, "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Errorf("pdf preview status = %d, type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp = do(t, admin, http.MethodDelete, s.URL+"/api/v1/documents/"+created.ID, nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, admin, http.MethodDelete, s.URL+"/api/v1/documents/unknown", nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete unknown status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, admin, http.MethodGet, s.URL+"/api/v1/documents/"+created.ID, nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", resp.StatusCode)
	}
}

func TestDocuments_CreateRequiresFile(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")

	body, ct := multipartBody(t, map[string]string{"content": "x", "presenter": "y"}, nil)
	resp := do(t, admin, http.MethodPost, s.URL+"/api/v1/documents", body, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "validation_error" {
		t.Errorf("error code = %q", code)
	}
}

func TestDocuments_SummaryOnSave(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")

	body, ct := multipartBody(t, map[string]string{
		"content":   "Kế hoạch",
		"presenter": "An",
		"summarize": "true",
	}, &formFile{"file", "a.txt", "text/plain", []byte("a")})
	resp := do(t, admin, http.MethodPost, s.URL+"/api/v1/documents", body, ct)
	doc := decodeData[DocumentResponse](t, resp)

	if doc.AISummary != "**Tóm tắt:** Kế hoạch" {
		t.Errorf("aiSummary = %q", doc.AISummary)
	}
	if !strings.Contains(doc.SummaryHTML, "<strong>") {
		t.Errorf("summary_html = %q", doc.SummaryHTML)
	}
}

func TestPreview_ImageThumbnailIsCached(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")

	doc := createDocument(t, s, admin, "Sơ đồ", &formFile{"file", "map.png", "image/png", pngBytes(t, 800, 400)})
	if doc.Kind != "image" {
		t.Fatalf("kind = %q, want image", doc.Kind)
	}

	for range 2 {
		resp := do(t, admin, http.MethodGet, s.URL+"/api/v1/documents/"+doc.ID+"/preview", nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("preview status = %d", resp.StatusCode)
		}
		img, err := png.Decode(resp.Body)
		if err != nil {
			t.Fatalf("decoding preview: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 160 {
			t.Errorf("thumbnail = %dx%d, want 320x160", b.Dx(), b.Dy())
		}
	}
	if s.previews.Len() != 2 {
		t.Errorf("cached entries = %d, want thumbnail and type", s.previews.Len())
	}

	do(t, admin, http.MethodDelete, s.URL+"/api/v1/documents/"+doc.ID, nil, "")
	if s.previews.Len() != 0 {
		t.Errorf("cached entries after delete = %d, want 0", s.previews.Len())
	}
}

func TestAttachments(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")

	body, ct := multipartBody(t, nil, &formFile{"file", "notes.txt", "text/plain", []byte("ghi chú")})
	resp := do(t, admin, http.MethodPost, s.URL+"/api/v1/attachments", body, ct)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	att := decodeData[AttachmentResponse](t, resp)

	resp = do(t, admin, http.MethodGet, s.URL+"/api/v1/attachments/"+att.ID+"/preview", nil, "")
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("preview status = %d, want 415", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "download_only" {
		t.Errorf("error code = %q", code)
	}

	resp = do(t, admin, http.MethodGet, s.URL+"/api/v1/attachments/"+att.ID+"/file", nil, "")
	if got, _ := io.ReadAll(resp.Body); string(got) != "ghi chú" {
		t.Errorf("file body = %q", got)
	}

	body, ct = multipartBody(t, nil, nil)
	resp = do(t, admin, http.MethodPost, s.URL+"/api/v1/attachments", body, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", resp.StatusCode)
	}

	resp = do(t, admin, http.MethodDelete, s.URL+"/api/v1/attachments/"+att.ID, nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	list := decodeData[[]AttachmentResponse](t, do(t, admin, http.MethodGet, s.URL+"/api/v1/attachments", nil, ""))
	if len(list) != 0 {
		t.Errorf("attachments after delete = %d", len(list))
	}
}

func TestSummaries(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")

	resp := do(t, admin, http.MethodPost, s.URL+"/api/v1/summaries", strings.NewReader(`{"content":"Họp quý"}`), "application/json")
	got := decodeData[SummaryResponse](t, resp)
	if got.Summary != "**Tóm tắt:** Họp quý" {
		t.Errorf("summary = %q", got.Summary)
	}

	resp = do(t, admin, http.MethodPost, s.URL+"/api/v1/summaries", strings.NewReader(`{"content":"  "}`), "application/json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty content status = %d, want 400", resp.StatusCode)
	}

	guest := s.login(t, "bob", "")
	resp = do(t, guest, http.MethodPost, s.URL+"/api/v1/summaries", strings.NewReader(`{"content":"x"}`), "application/json")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("guest status = %d, want 403", resp.StatusCode)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin")
	createDocument(t, s, admin, "Agenda", &formFile{"file", "a.pdf", "application/pdf", []byte("%PDF")})

	resp := do(t, admin, http.MethodGet, s.URL+"/api/v1/export", nil, "")
	exported, _ := io.ReadAll(resp.Body)
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
	}

	target := newTestServer(t)
	targetAdmin := target.login(t, "admin", "admin")

	resp = do(t, targetAdmin, http.MethodPost, target.URL+"/api/v1/import?dry_run=true", bytes.NewReader(exported), "application/json")
	if res := decodeData[transfer.ImportResult](t, resp); !res.DryRun || res.Documents != 1 {
		t.Errorf("dry run result = %+v", res)
	}
	if len(target.records.Documents()) != 0 {
		t.Fatal("dry run wrote documents")
	}

	resp = do(t, targetAdmin, http.MethodPost, target.URL+"/api/v1/import", bytes.NewReader(exported), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", resp.StatusCode)
	}
	if len(target.records.Documents()) != 1 {
		t.Errorf("documents after import = %d, want 1", len(target.records.Documents()))
	}

	resp = do(t, targetAdmin, http.MethodPost, target.URL+"/api/v1/import", strings.NewReader(`{"version":"9"}`), "application/json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid import status = %d, want 400", resp.StatusCode)
	}
}

func TestEvents_RecordLogins(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "bob", "")
	admin := s.login(t, "admin", "admin")

	events := decodeData[[]struct {
		Category string            `json:"category"`
		Message  string            `json:"message"`
		Actor    string            `json:"actor"`
		Metadata map[string]string `json:"metadata"`
	}](t, do(t, admin, http.MethodGet, s.URL+"/api/v1/events?limit=10", nil, ""))

	if len(events) < 2 {
		t.Fatalf("events = %+v, want both logins", events)
	}
	if events[0].Message != "Signed in as administrator" || events[0].Metadata["country"] != "LOCAL" {
		t.Errorf("newest event = %+v", events[0])
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp := do(t, s.client(t), http.MethodGet, s.URL+"/health", nil, "")
	status := decodeData[HealthStatus](t, resp)
	if resp.StatusCode != http.StatusOK || status.Status != "healthy" {
		t.Errorf("health = %d %+v", resp.StatusCode, status)
	}
	if status.Version != nil {
		t.Error("version must not be exposed to anonymous callers")
	}

	admin := s.login(t, "admin", "admin")
	status = decodeData[HealthStatus](t, do(t, admin, http.MethodGet, s.URL+"/health", nil, ""))
	if status.Version == nil || status.Version.Version != "v0.0.0-test" {
		t.Errorf("admin health version = %+v", status.Version)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	resp := do(t, s.client(t), http.MethodGet, s.URL+"/api/v1/nope", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
