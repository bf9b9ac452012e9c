package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/models"
)

type mockStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failOn  func(key string) bool
}

func newMockStore() *mockStore {
	return &mockStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.failOn != nil && m.failOn(key) {
		return errors.New("quota exceeded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return fmt.Errorf("duplicate key %s", key)
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *mockStore) URL(ctx context.Context, key string) (string, error) {
	return "https://store/" + key, nil
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000123)
}

func createTestPNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return buf.Bytes()
}

func TestOrchestratorUploadPair(t *testing.T) {
	store := newMockStore()
	o := NewOrchestrator(store, 0)
	o.Now = fixedClock

	refs, err := o.Upload(context.Background(), "alice", []models.UploadPayload{
		{Filename: "me.JPG", Data: []byte("person")},
		{Filename: "shirt.png", Data: []byte("garment")},
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}

	want := []string{"alice/1700000000123-1.jpg", "alice/1700000000123-2.png"}
	for i, ref := range refs {
		if ref.StoragePath != want[i] {
			t.Errorf("refs[%d].StoragePath = %q, want %q", i, ref.StoragePath, want[i])
		}
		if ref.PublicURL != "https://store/"+want[i] {
			t.Errorf("refs[%d].PublicURL = %q", i, ref.PublicURL)
		}
	}
}

func TestOrchestratorSingleUploadHasNoIndex(t *testing.T) {
	store := newMockStore()
	o := NewOrchestrator(store, 0)
	o.Now = fixedClock

	refs, err := o.Upload(context.Background(), "alice", []models.UploadPayload{
		{Filename: "profile.jpeg", Data: []byte("face")},
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if refs[0].StoragePath != "alice/1700000000123.jpeg" {
		t.Fatalf("StoragePath = %q", refs[0].StoragePath)
	}
}

func TestOrchestratorFailsWholeBatch(t *testing.T) {
	store := newMockStore()
	store.failOn = func(key string) bool { return strings.HasSuffix(key, "-2.jpg") }
	o := NewOrchestrator(store, 0)
	o.Now = fixedClock

	refs, err := o.Upload(context.Background(), "alice", []models.UploadPayload{
		{Filename: "a.jpg", Data: []byte("person")},
		{Filename: "b.jpg", Data: []byte("garment")},
	})
	if err == nil {
		t.Fatal("expected error when second upload fails")
	}
	if refs != nil {
		t.Fatalf("expected no references on failure, got %+v", refs)
	}

	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.KindUploadFailed {
		t.Fatalf("expected UploadFailed, got %v", err)
	}
	if appErr.Index != 2 {
		t.Fatalf("Index = %d, want 2", appErr.Index)
	}
}

func TestOrchestratorValidation(t *testing.T) {
	o := NewOrchestrator(newMockStore(), 4)

	tests := []struct {
		name     string
		caller   string
		payloads []models.UploadPayload
		wantKind apperrors.Kind
	}{
		{"missing caller", "", []models.UploadPayload{{Data: []byte("x")}}, apperrors.KindUnauthenticated},
		{"no payloads", "alice", nil, apperrors.KindBadRequest},
		{"empty image", "alice", []models.UploadPayload{{Filename: "a.jpg"}}, apperrors.KindUploadFailed},
		{"too large", "alice", []models.UploadPayload{{Filename: "a.jpg", Data: []byte("12345")}}, apperrors.KindUploadFailed},
		{"caller escapes namespace", "..", []models.UploadPayload{{Filename: "a.jpg", Data: []byte("x")}}, apperrors.KindUploadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Upload(context.Background(), tt.caller, tt.payloads)
			if got := apperrors.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %s, want %s (err=%v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestSniff(t *testing.T) {
	pngData := createTestPNG(t)

	tests := []struct {
		name     string
		filename string
		declared string
		data     []byte
		wantExt  string
		wantType string
	}{
		{"filename extension wins", "photo.JPG", "", pngData, "jpg", "image/png"},
		{"format fills missing extension", "blob", "", pngData, "png", "image/png"},
		{"declared type for unknown bytes", "", "image/heic", []byte("not an image"), "bin", "image/heic"},
		{"detected type as last resort", "", "", []byte("plain text"), "bin", "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ct := sniff(tt.filename, tt.declared, tt.data)
			if ext != tt.wantExt || ct != tt.wantType {
				t.Errorf("sniff() = (%q, %q), want (%q, %q)", ext, ct, tt.wantExt, tt.wantType)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	ts := time.UnixMilli(999)
	for contentType, want := range map[string]string{
		"image/jpeg":               "results/alice/999.jpg",
		"image/png":                "results/alice/999.png",
		"image/webp; charset=x":    "results/alice/999.webp",
		"":                         "results/alice/999.jpg",
		"application/octet-stream": "results/alice/999.jpg",
	} {
		if got := ResultPath("alice", ts, 0, contentType); got != want {
			t.Errorf("ResultPath(%q) = %q, want %q", contentType, got, want)
		}
	}
	if got := ResultPath("alice", ts, 3, "image/png"); got != "results/alice/999-3.png" {
		t.Errorf("ResultPath() with index = %q", got)
	}
	if got := OriginalPath("alice", ts, 0, ".png"); got != "alice/999.png" {
		t.Errorf("OriginalPath() = %q", got)
	}
	if got := OriginalPath("alice", ts, 2, "jpg"); got != "alice/999-2.jpg" {
		t.Errorf("OriginalPath() = %q", got)
	}
}
