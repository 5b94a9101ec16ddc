package images

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpegdata"))
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)

	data, err := f.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "jpegdata" {
		t.Errorf("Unexpected data %q", data)
	}

	for _, u := range []string{srv.URL + "/page.html", srv.URL + "/missing.jpg", "ftp://example.com/a.jpg", "not a url"} {
		if _, err := f.Fetch(context.Background(), u); err == nil {
			t.Errorf("Expected error for %s", u)
		}
	}
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte("x"), MaxImageBytes+10))
	}))
	defer srv.Close()

	_, err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL+"/big.jpg")
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected too large error, got %v", err)
	}
}

func TestFetchCoverByISBN(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "image/jpeg")
		if strings.Contains(r.URL.Path, "0000000000") {
			_, _ = w.Write([]byte("tiny"))
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte("x"), 2000))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	f.CoversURL = srv.URL

	data, err := f.FetchCoverByISBN(context.Background(), "978-965-19-0000-1")
	if err != nil {
		t.Fatalf("FetchCoverByISBN failed: %v", err)
	}
	if len(data) != 2000 {
		t.Errorf("Expected 2000 bytes, got %d", len(data))
	}
	if path != "/b/isbn/9789651900001-L.jpg" {
		t.Errorf("Unexpected path %q", path)
	}

	if _, err := f.FetchCoverByISBN(context.Background(), "0000000000"); err == nil {
		t.Error("Expected placeholder error")
	}
	if _, err := f.FetchCoverByISBN(context.Background(), " "); err == nil {
		t.Error("Expected error for empty isbn")
	}
}
