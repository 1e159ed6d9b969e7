// Package github fetches documents to ingest from GitHub repositories.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

var ErrInvalidSource = errors.New("invalid github source")

// Source identifies one file in a repository, written as owner/repo/path[@ref].
type Source struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Branch, tag or commit; empty means the default branch
}

func (s Source) String() string {
	out := s.Owner + "/" + s.Repo + "/" + s.Path
	if s.Ref != "" {
		out += "@" + s.Ref
	}
	return out
}

// Filename is the base name of the file, used as the job's filename.
func (s Source) Filename() string {
	return path.Base(s.Path)
}

// ParseSource parses "owner/repo/path/to/file[@ref]".
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	var src Source
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		src.Ref = raw[at+1:]
		raw = raw[:at]
		if src.Ref == "" {
			return Source{}, fmt.Errorf("%w: empty ref", ErrInvalidSource)
		}
	}

	parts := strings.SplitN(strings.Trim(raw, "/"), "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Source{}, fmt.Errorf("%w: want owner/repo/path, got %q", ErrInvalidSource, raw)
	}
	src.Owner, src.Repo, src.Path = parts[0], parts[1], parts[2]
	return src, nil
}

// FetchedDoc represents a document fetched from GitHub
type FetchedDoc struct {
	Source  Source
	Content []byte
	URL     string // github.com blob URL
}

// Fetcher handles fetching documents from GitHub repositories
type Fetcher struct {
	client *Client
}

// NewFetcher creates a new document fetcher
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchFile downloads the raw bytes of a single file. Files too large for the
// contents API are fetched through their download URL.
func (f *Fetcher) FetchFile(ctx context.Context, src Source) (*FetchedDoc, error) {
	var opts *github.RepositoryContentGetOptions
	if src.Ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: src.Ref}
	}

	rc, _, err := f.client.Repositories.DownloadContents(ctx, src.Owner, src.Repo, src.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", src, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}

	ref := src.Ref
	if ref == "" {
		ref = "HEAD"
	}
	return &FetchedDoc{
		Source:  src,
		Content: content,
		URL:     fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", src.Owner, src.Repo, ref, src.Path),
	}, nil
}

// LatestCommitSHA retrieves the SHA of the most recent commit affecting the file.
func (f *Fetcher) LatestCommitSHA(ctx context.Context, src Source) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(
		ctx,
		src.Owner,
		src.Repo,
		&github.CommitsListOptions{
			SHA:  src.Ref,
			Path: src.Path,
			ListOptions: github.ListOptions{
				PerPage: 1,
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}

	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", src.Path)
	}

	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}

	return *commits[0].SHA, nil
}
