package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application"
	appanalysis "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/analysis"
	appusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/application/users"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/auth"
	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
	domusers "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/users"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/infra/localstore"
	"github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/middleware"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, pages []domain.PageImage, lang domain.Language) (*domain.AnalysisResult, error) {
	return &domain.AnalysisResult{
		Title: "Blood Test Analysis",
		Biomarkers: []domain.Biomarker{
			{Name: "WBC", Value: "6.1", Unit: "10*9/л", Status: domain.StatusNormal,
				NormalRange: "4-9", Description: "d", PossibleCauses: "c"},
		},
	}, nil
}

type noopRasterizer struct{}

func (noopRasterizer) Render(ctx context.Context, name string, pdf []byte) ([]domain.PageImage, error) {
	return []domain.PageImage{domain.NewPageImage(name, "image/jpeg", []byte{1})}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	return newTestServerWithHistory(t, nil)
}

func newTestServerWithHistory(t *testing.T, history domain.Repository) *httptest.Server {
	t.Helper()

	store, err := localstore.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if history == nil {
		history = localstore.NewHistoryRepository(store)
	}
	tokens := auth.NewManager("test-secret", time.Hour)

	analysisSvc := &appanalysis.Service{
		Repo:       history,
		Rasterizer: noopRasterizer{},
		Extractor:  stubExtractor{},
		Clock:      application.SystemClock{},
	}
	usersSvc := &appusers.Service{
		Creds:  localstore.NewCredentialRepository(store),
		Prefs:  localstore.NewPreferenceRepository(store),
		Tokens: tokens,
		Clock:  application.SystemClock{},
	}

	handler := NewRouter(analysisSvc, usersSvc, Options{
		Tokens:  tokens,
		Limiter: middleware.NewRateLimiter(100, 100),
		Health:  nil,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func registerAndToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/v1/auth/register", map[string]string{
		"name": "Alice", "email": "a@x.com", "password": "secret1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	var out struct {
		Token string         `json:"token"`
		User  *domusers.User `json:"user"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Token == "" || out.User.ID != "a@x.com" {
		t.Fatalf("unexpected auth response: %+v", out)
	}
	return out.Token
}

func uploadFile(t *testing.T, srv *httptest.Server, token, filename, mimeType string, data []byte) *http.Response {
	return uploadFileLang(t, srv, token, filename, mimeType, "uz", data)
}

func uploadFileLang(t *testing.T, srv *httptest.Server, token, filename, mimeType, lang string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.WriteField("language", lang)
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/analyses", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	registerAndToken(t, srv)

	// correct password
	resp := postJSON(t, srv.URL+"/v1/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status %d", resp.StatusCode)
	}

	// wrong password
	resp = postJSON(t, srv.URL+"/v1/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status %d", resp.StatusCode)
	}

	// duplicate registration
	resp = postJSON(t, srv.URL+"/v1/auth/register", map[string]string{"name": "A", "email": "a@x.com", "password": "secret2"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register status %d", resp.StatusCode)
	}

	// protected route without token
	resp, err := http.Get(srv.URL + "/v1/analyses")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated history status %d", resp.StatusCode)
	}
}

func TestAnalyzeAndHistory(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndToken(t, srv)

	resp := uploadFile(t, srv, token, "scan.jpg", "image/jpeg", []byte{0xFF, 0xD8})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("analyze status %d", resp.StatusCode)
	}
	var rec domain.AnalysisRecord
	json.NewDecoder(resp.Body).Decode(&rec)
	if rec.ID == "" || rec.Result.Title == "" || len(rec.Result.Biomarkers) == 0 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Language != domain.LanguageUzbek {
		t.Errorf("language not honored: %q", rec.Language)
	}

	// history lists the new record first
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	hresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer hresp.Body.Close()
	var list []*domain.AnalysisRecord
	json.NewDecoder(hresp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("unexpected history: %+v", list)
	}

	// lookup by id
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v1/analyses/"+string(rec.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	gresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	gresp.Body.Close()
	if gresp.StatusCode != http.StatusOK {
		t.Errorf("get record status %d", gresp.StatusCode)
	}
}

type brokenHistory struct{}

func (brokenHistory) Append(ctx context.Context, userID string, rec *domain.AnalysisRecord) error {
	return errors.New("disk full")
}

func (brokenHistory) List(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error) {
	return nil, errors.New("disk full")
}

func (brokenHistory) Get(ctx context.Context, userID string, id domain.RecordID) (*domain.AnalysisRecord, error) {
	return nil, domain.ErrNotFound
}

func TestAnalyzeReturnsRecordWhenPersistFails(t *testing.T) {
	srv := newTestServerWithHistory(t, brokenHistory{})
	token := registerAndToken(t, srv)

	resp := uploadFile(t, srv, token, "scan.jpg", "image/jpeg", []byte{0xFF, 0xD8})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 despite persist failure, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-History-Saved") != "false" {
		t.Error("response should flag the record as unsaved")
	}
	var rec domain.AnalysisRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" || rec.Result.Title == "" {
		t.Fatalf("record should still carry the extraction: %+v", rec)
	}
}

func TestAnalyzeRejectsUnknownLanguage(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndToken(t, srv)

	resp := uploadFileLang(t, srv, token, "scan.jpg", "image/jpeg", "xx", []byte{0xFF, 0xD8})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndToken(t, srv)

	resp := uploadFile(t, srv, token, "notes.txt", "text/plain", []byte("hello"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", resp.StatusCode)
	}
}

func TestLanguagePreferenceEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndToken(t, srv)

	body, _ := json.Marshal(map[string]string{"language": "uz"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/preferences/language", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set language status %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v1/preferences/language", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]domain.Language
	json.NewDecoder(resp.Body).Decode(&out)
	if out["language"] != domain.LanguageUzbek {
		t.Errorf("expected uz, got %q", out["language"])
	}
}
