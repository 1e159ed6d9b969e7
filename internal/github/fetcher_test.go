package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{in: "acme/handbook/docs/policy.pdf", want: Source{Owner: "acme", Repo: "handbook", Path: "docs/policy.pdf"}},
		{in: "acme/handbook/README.md@v1.2.0", want: Source{Owner: "acme", Repo: "handbook", Path: "README.md", Ref: "v1.2.0"}},
		{in: "/acme/handbook/a.txt/", want: Source{Owner: "acme", Repo: "handbook", Path: "a.txt"}},
		{in: "acme/handbook", wantErr: true},
		{in: "acme//a.txt", wantErr: true},
		{in: "acme/handbook/a.txt@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_StringAndFilename(t *testing.T) {
	src := Source{Owner: "acme", Repo: "handbook", Path: "docs/policy.pdf", Ref: "main"}
	assert.Equal(t, "acme/handbook/docs/policy.pdf@main", src.String())
	assert.Equal(t, "policy.pdf", src.Filename())
}

func TestFetcher_FetchFile(t *testing.T) {
	const body = "Hello from GitHub"
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/api/repos/acme/handbook/contents/docs/guide.txt", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v1", r.URL.Query().Get("ref"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":         "file",
			"name":         "guide.txt",
			"path":         "docs/guide.txt",
			"encoding":     "base64",
			"content":      base64.StdEncoding.EncodeToString([]byte(body)),
			"download_url": srv.URL + "/raw/guide.txt",
		})
	})
	mux.HandleFunc("/api/repos/acme/handbook/contents/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"type":         "file",
			"name":         "guide.txt",
			"path":         "docs/guide.txt",
			"download_url": srv.URL + "/raw/guide.txt",
		}})
	})
	mux.HandleFunc("/raw/guide.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	gh := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/api/")
	require.NoError(t, err)
	gh.BaseURL = base

	fetcher := NewFetcher(&Client{Client: gh})
	src := Source{Owner: "acme", Repo: "handbook", Path: "docs/guide.txt", Ref: "v1"}

	doc, err := fetcher.FetchFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, body, string(doc.Content))
	assert.Equal(t, "https://github.com/acme/handbook/blob/v1/docs/guide.txt", doc.URL)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient("")
	require.NoError(t, err)
	assert.NotNil(t, client.Repositories)
}
