package scraper

import (
	"bytes"
	"context"
	"io"
	"net/http"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
)

// SourceRemote is the catalog source name of RemoteSource.
const SourceRemote = "remote"

// RemoteSource downloads the catalog CSV from a URL, optionally with a
// bearer token. It implements catalog.Source.
type RemoteSource struct {
	Client *Client
	URL    string
	Token  string
}

// Name implements catalog.Source.
func (s *RemoteSource) Name() string { return SourceRemote }

// Open implements catalog.Source.
func (s *RemoteSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.URL == "" {
		return nil, apperrors.ErrNotFound
	}
	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}
	data, err := s.Client.Get(ctx, s.URL, header)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
