package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"ironready/coach-api/internal/config"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", true, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"http://localhost:9000", true, "http://localhost:9000"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.endpoint, tt.useSSL); got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, want %q", tt.endpoint, tt.useSSL, got, tt.want)
		}
	}
}

// fakeS3 serves path-style requests for one bucket from memory.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			_, _ = io.Copy(io.Discard, r.Body)
			objects[r.URL.Path] = "uploaded"
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			body, ok := objects[r.URL.Path]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
				return
			}
			_, _ = io.WriteString(w, body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func newTestStorage(t *testing.T, url string) ObjectStore {
	t.Helper()
	store, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        url,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		BucketName:      "indexes",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewS3Storage() error = %v", err)
	}
	return store
}

func TestS3GetObject(t *testing.T) {
	srv := fakeS3(t, map[string]string{"/indexes/exercises.json": `{"version":"1"}`})
	defer srv.Close()
	store := newTestStorage(t, srv.URL)

	data, err := store.GetObject(context.Background(), "exercises.json")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	if string(data) != `{"version":"1"}` {
		t.Errorf("GetObject() = %s", data)
	}
}

func TestS3GetObjectNotFound(t *testing.T) {
	srv := fakeS3(t, map[string]string{})
	defer srv.Close()
	store := newTestStorage(t, srv.URL)

	_, err := store.GetObject(context.Background(), "missing.json")
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("err = %v, want ErrObjectNotFound", err)
	}
}

func TestS3PutObject(t *testing.T) {
	objects := map[string]string{}
	srv := fakeS3(t, objects)
	defer srv.Close()
	store := newTestStorage(t, srv.URL)

	if err := store.PutObject(context.Background(), "snap.json", []byte(`{}`), "application/json"); err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if _, ok := objects["/indexes/snap.json"]; !ok {
		t.Errorf("object not stored, got keys %v", objects)
	}
}
