package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPhotoKey(t *testing.T) {
	key := PhotoKey(42, ".jpg")
	pattern := regexp.MustCompile(`^inventory/42/[0-9a-f-]{36}\.jpg$`)
	if !pattern.MatchString(key) {
		t.Errorf("unexpected key %q", key)
	}
	if PhotoKey(42, ".jpg") == key {
		t.Error("expected unique keys")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }

	if err := m.Put(ctx, "inventory/1/a.jpg", []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ct, ok := m.Get("inventory/1/a.jpg")
	if !ok || string(data) != "jpeg" || ct != "image/jpeg" {
		t.Errorf("unexpected object %q %q %v", data, ct, ok)
	}

	link, err := m.PresignGet(ctx, "inventory/1/a.jpg", 0)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(link, "expires=2026-01-01T13%3A00%3A00Z") {
		t.Errorf("expected a one hour expiry, got %s", link)
	}

	m.Delete(ctx, "inventory/1/a.jpg")
	if _, err := m.PresignGet(ctx, "inventory/1/a.jpg", time.Minute); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type s3Request struct {
	Method string
	Path   string
	Body   string
}

func fakeS3(t *testing.T) (*httptest.Server, *[]s3Request) {
	t.Helper()
	var mu sync.Mutex
	reqs := &[]s3Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		*reqs = append(*reqs, s3Request{r.Method, r.URL.Path, string(body)})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestS3PutAndDelete(t *testing.T) {
	srv, reqs := fakeS3(t)
	ctx := context.Background()

	store, err := NewS3(ctx, S3Config{
		Bucket: "photos", Region: "eu-central-1", Endpoint: srv.URL,
		AccessKey: "AKIDEXAMPLE", SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	if err := store.Put(ctx, "inventory/7/x.jpg", []byte("jpeg-bytes"), "image/jpeg"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "inventory/7/x.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(*reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*reqs))
	}
	put := (*reqs)[0]
	if put.Method != http.MethodPut || put.Path != "/photos/inventory/7/x.jpg" {
		t.Errorf("unexpected put %s %s", put.Method, put.Path)
	}
	if !strings.Contains(put.Body, "jpeg-bytes") {
		t.Errorf("expected object body to be uploaded, got %q", put.Body)
	}
	if del := (*reqs)[1]; del.Method != http.MethodDelete || del.Path != "/photos/inventory/7/x.jpg" {
		t.Errorf("unexpected delete %s %s", del.Method, del.Path)
	}
}

func TestS3PresignGet(t *testing.T) {
	store, err := NewS3(context.Background(), S3Config{
		Bucket: "photos", Region: "eu-central-1", Endpoint: "https://objects.example.com",
		AccessKey: "AKIDEXAMPLE", SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}

	link, err := store.PresignGet(context.Background(), "inventory/7/x.jpg", 0)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parsing link: %v", err)
	}
	if u.Host != "objects.example.com" || u.Path != "/photos/inventory/7/x.jpg" {
		t.Errorf("unexpected link target %s", link)
	}
	if got := u.Query().Get("X-Amz-Expires"); got != "3600" {
		t.Errorf("expected 3600 second expiry, got %q", got)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{Region: "eu-central-1", AccessKey: "a", SecretKey: "b"}); err == nil {
		t.Error("expected missing bucket to fail")
	}
}
