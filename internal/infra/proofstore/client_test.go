package proofstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "credlink-verifier/") {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Write([]byte(`{"generator":"gen"}`))
	}))
	defer srv.Close()

	body, err := NewClient(time.Second, 1024).Fetch(context.Background(), srv.URL+"/manifests/abc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != `{"generator":"gen"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFetch_NotFoundIsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	body, err := NewClient(time.Second, 1024).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != nil {
		t.Fatalf("expected nil body for 404, got %q", body)
	}
}

func TestFetch_ServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(time.Second, 1024).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500")
	}
}

func TestFetch_OversizedBodyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	if _, err := NewClient(time.Second, 1024).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestFetch_EmptyURI(t *testing.T) {
	if _, err := NewClient(time.Second, 1024).Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty uri")
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewClient(time.Minute, 1024).Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected context deadline error")
	}
}
