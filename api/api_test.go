package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/ledger"
	"github.com/raushankrgupta/fitly-tryon/models"
	"github.com/raushankrgupta/fitly-tryon/storage"
	"github.com/raushankrgupta/fitly-tryon/telemetry"
	"github.com/raushankrgupta/fitly-tryon/uploads"
	"github.com/raushankrgupta/fitly-tryon/utils"
)

const testSecret = "test-secret"

type stubInvoker struct {
	calls         int
	authorization string
	body          string
	resp          *models.TryOnResponse
	err           error
}

func (s *stubInvoker) Invoke(ctx context.Context, authorization string, body []byte, logger *utils.RequestLog) (*models.TryOnResponse, error) {
	s.calls++
	s.authorization = authorization
	s.body = string(body)
	return s.resp, s.err
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	return []byte("garment-bytes"), "image/jpeg", nil
}

type testServer struct {
	srv     *httptest.Server
	invoker *stubInvoker
	ledger  *ledger.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	verifier, err := auth.NewJWTVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	store, err := storage.NewLocalStore(t.TempDir(), "http://files.test/files")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	orchestrator := uploads.NewOrchestrator(store, 1<<20)
	orchestrator.Now = func() time.Time { return time.UnixMilli(1700000000123) }
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ts := &testServer{
		invoker: &stubInvoker{resp: &models.TryOnResponse{ResultImage: "https://store/results/alice/999.jpg", Message: "ok"}},
		ledger:  ledger.NewMemoryStore(),
	}
	h := NewHandler(Deps{
		TryOn:    ts.invoker,
		Uploader: orchestrator,
		Ledger:   ts.ledger,
		Fetcher:  stubFetcher{},
		Scrape: func(ctx context.Context, url string) (*models.Garment, error) {
			if strings.Contains(url, "broken") {
				return nil, errors.New("no garment image found")
			}
			return &models.Garment{SourceURL: url, Title: "Shirt", ImageURL: "https://cdn.example.com/img/shirt.jpg"}, nil
		},
		Verifier:     verifier,
		Metrics:      metrics,
		ProviderName: "pixelcut",
	})
	ts.srv = httptest.NewServer(NewRouter(h, RouterOptions{Files: store.Handler()}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return "Bearer " + token
}

func (ts *testServer) do(t *testing.T, method, path, authorization, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestTryOnPreflight(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodOptions, "/try-on", "", "", nil)

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
		"Access-Control-Max-Age":       "86400",
	}
	for k, v := range want {
		if got := resp.Header.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if ts.invoker.calls != 0 {
		t.Error("pre-flight reached the try-on service")
	}
}

func TestTryOnHandler(t *testing.T) {
	ts := newTestServer(t)
	body := `{"image1":"https://store/alice/1.jpg","image2":"https://store/alice/2.jpg"}`
	resp := ts.do(t, http.MethodPost, "/try-on", "Bearer abc", "application/json", strings.NewReader(body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing on POST")
	}
	var got models.TryOnResponse
	decode(t, resp, &got)
	if got.ResultImage != "https://store/results/alice/999.jpg" {
		t.Errorf("resultImage = %q", got.ResultImage)
	}
	if ts.invoker.authorization != "Bearer abc" || ts.invoker.body != body {
		t.Errorf("service got auth=%q body=%q", ts.invoker.authorization, ts.invoker.body)
	}
}

func TestTryOnHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   models.ErrorResponse
	}{
		{"unauthenticated", apperrors.New(apperrors.KindUnauthenticated, "No valid authentication token provided"), 401, models.ErrorResponse{Error: "No valid authentication token provided"}},
		{"bad json", apperrors.WithDetails(apperrors.KindBadRequest, "Invalid JSON in request body", "unexpected EOF"), 400, models.ErrorResponse{Error: "Invalid JSON in request body", Details: "unexpected EOF"}},
		{"missing images", apperrors.New(apperrors.KindMissingImages, "Both image URLs are required"), 400, models.ErrorResponse{Error: "Both image URLs are required"}},
		{"provider", apperrors.New(apperrors.KindProviderError, "Pixelcut API error: bad"), 500, models.ErrorResponse{Error: "Pixelcut API error: bad"}},
		{"fetch", apperrors.New(apperrors.KindResultFetchFailed, "Failed to download result image"), 500, models.ErrorResponse{Error: "Failed to download result image"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.invoker.resp, ts.invoker.err = nil, tt.err

			resp := ts.do(t, http.MethodPost, "/try-on", "", "application/json", strings.NewReader(`{}`))
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var got models.ErrorResponse
			decode(t, resp, &got)
			if got != tt.wantBody {
				t.Errorf("body = %+v, want %+v", got, tt.wantBody)
			}
		})
	}
}

func TestTryOnRejectsOtherMethods(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/try-on", "", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		method, path, authorization string
		wantStatus                  int
	}{
		{http.MethodGet, "/outfits", "", 401},
		{http.MethodGet, "/outfits", "Bearer not-a-jwt", 401},
		{http.MethodPost, "/uploads", "", 401},
		{http.MethodPost, "/garments/import", "Basic abc", 401},
		{http.MethodOptions, "/uploads", "", 204},
		{http.MethodOptions, "/outfits", "", 204},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := ts.do(t, tt.method, tt.path, tt.authorization, "", nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestOutfitsHandler(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, user := range []string{"alice", "alice", "bob"} {
		ts.ledger.Insert(ctx, models.OutfitRecord{
			UserID:           user,
			PersonImagePath:  "p",
			GarmentImagePath: string(rune('a' + i)),
			ResultImagePath:  "r" + string(rune('0'+i)),
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		})
	}

	resp := ts.do(t, http.MethodGet, "/outfits", bearer(t, "alice"), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var page models.OutfitPage
	decode(t, resp, &page)
	if page.Total != 2 || len(page.Outfits) != 2 {
		t.Fatalf("page = %+v, want alice's 2 rows", page)
	}
	if page.Outfits[0].ResultImagePath != "r1" {
		t.Errorf("first row = %q, want newest r1", page.Outfits[0].ResultImagePath)
	}

	paged := ts.do(t, http.MethodGet, "/outfits?page=2&limit=1", bearer(t, "alice"), "", nil)
	var second models.OutfitPage
	decode(t, paged, &second)
	if second.CurrentPage != 2 || second.TotalPages != 2 || len(second.Outfits) != 1 || second.Outfits[0].ResultImagePath != "r0" {
		t.Errorf("page 2 = %+v", second)
	}

	for _, query := range []string{
		"/outfits?page=4611686018427387905&limit=3",
		"/outfits?page=9223372036854775807&limit=9223372036854775807",
	} {
		resp := ts.do(t, http.MethodGet, query, bearer(t, "alice"), "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", query, resp.StatusCode)
		}
		var far models.OutfitPage
		decode(t, resp, &far)
		if len(far.Outfits) != 0 || far.Total != 2 || far.CurrentPage < 2 {
			t.Errorf("%s = %+v, want empty page", query, far)
		}
	}
}

func multipartBody(t *testing.T, files map[string]string, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write([]byte(files[name]))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadsHandlerPair(t *testing.T) {
	ts := newTestServer(t)
	body, contentType := multipartBody(t, map[string]string{"me.png": "person", "shirt.jpg": "garment"}, []string{"me.png", "shirt.jpg"})

	resp := ts.do(t, http.MethodPost, "/uploads", bearer(t, "alice"), contentType, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Assets []models.AssetReference `json:"assets"`
	}
	decode(t, resp, &out)
	if len(out.Assets) != 2 {
		t.Fatalf("assets = %+v", out.Assets)
	}
	if out.Assets[0].StoragePath != "alice/1700000000123-1.png" || out.Assets[1].StoragePath != "alice/1700000000123-2.jpg" {
		t.Errorf("paths = %q, %q", out.Assets[0].StoragePath, out.Assets[1].StoragePath)
	}
	if out.Assets[1].PublicURL != "http://files.test/files/alice/1700000000123-2.jpg" {
		t.Errorf("publicUrl = %q", out.Assets[1].PublicURL)
	}

	// Stored objects are served under /files/.
	served := ts.do(t, http.MethodGet, "/files/alice/1700000000123-2.jpg", "", "", nil)
	data, _ := io.ReadAll(served.Body)
	if served.StatusCode != http.StatusOK || string(data) != "garment" {
		t.Errorf("GET /files = %d %q", served.StatusCode, data)
	}
}

func TestUploadsHandlerRejectsEmptyForm(t *testing.T) {
	ts := newTestServer(t)
	body, contentType := multipartBody(t, nil, nil)
	resp := ts.do(t, http.MethodPost, "/uploads", bearer(t, "alice"), contentType, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestImportGarmentHandler(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/garments/import", bearer(t, "alice"), "application/json",
		strings.NewReader(`{"url":"https://shop.example.com/p/1"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out GarmentImportResponse
	decode(t, resp, &out)
	if out.Garment.Title != "Shirt" {
		t.Errorf("garment = %+v", out.Garment)
	}
	if out.Asset.StoragePath != "alice/1700000000123.jpg" {
		t.Errorf("storagePath = %q, want single upload without index", out.Asset.StoragePath)
	}

	missing := ts.do(t, http.MethodPost, "/garments/import", bearer(t, "alice"), "application/json", strings.NewReader(`{}`))
	if missing.StatusCode != http.StatusBadRequest {
		t.Errorf("missing url status = %d, want 400", missing.StatusCode)
	}
	broken := ts.do(t, http.MethodPost, "/garments/import?url=https://broken.example.com", bearer(t, "alice"), "", nil)
	if broken.StatusCode != http.StatusBadGateway {
		t.Errorf("scrape failure status = %d, want 502", broken.StatusCode)
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/healthz", "", "", nil)
	var out map[string]any
	decode(t, resp, &out)
	if out["status"] != "ok" || out["provider"] != "pixelcut" || out["ledger_write_failures"] != float64(0) {
		t.Errorf("health = %v", out)
	}
}

func TestImageFilename(t *testing.T) {
	tests := map[string]string{
		"https://cdn.example.com/img/shirt.jpg?w=800": "shirt.jpg",
		"https://cdn.example.com/":                    "",
		"::bad":                                       "",
	}
	for in, want := range tests {
		if got := imageFilename(in); got != want {
			t.Errorf("imageFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
