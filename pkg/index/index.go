// Package index fetches and queries the Zig download index, the JSON
// document published at ziglang.org mapping release channels and
// platform keys to downloadable artifacts.
package index

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/zig-tools/zigup/pkg/fetch"
	"github.com/zig-tools/zigup/pkg/platform"
)

// DefaultURL is the canonical download index location.
const DefaultURL = "https://ziglang.org/download/index.json"

// MasterChannel is the rolling channel containing the latest
// development build. It is the only channel zigup consults.
const MasterChannel = "master"

var (
	// ErrMalformed is returned when the index document does not parse.
	ErrMalformed = errors.New("malformed release index")

	// ErrArtifactNotFound is returned when the index has no usable
	// artifact for a channel/platform pair.
	ErrArtifactNotFound = errors.New("no artifact for platform")
)

// Artifact describes one downloadable build within a channel.
type Artifact struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum"`
	Size    string `json:"size"`
}

// Filename returns the artifact's local filename, derived from the
// tarball URL's final path segment.
func (a Artifact) Filename() (string, error) {
	return fetch.Filename(a.Tarball)
}

// Index is a parsed download index. Channel entries mix platform keys
// with scalar metadata ("version", "date", ...), so values stay raw
// until a specific key is queried.
type Index struct {
	channels map[string]map[string]json.RawMessage
}

// Fetch retrieves and parses the index at url. It is fetched fresh on
// every run; master builds change too often for caching to pay off.
func Fetch(ctx context.Context, client *http.Client, url string) (*Index, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(fetch.ErrDownload, "fetching index %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(fetch.ErrDownload, "fetching index %s: unexpected status %d", url, resp.StatusCode)
	}

	var channels map[string]map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&channels); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "parsing index from %s: %v", url, err)
	}

	return &Index{channels: channels}, nil
}

// Parse builds an Index from a raw document, for callers that already
// hold the bytes.
func Parse(data []byte) (*Index, error) {
	var channels map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &channels); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "parsing index: %v", err)
	}
	return &Index{channels: channels}, nil
}

// Artifact looks up the build for key in the given channel. A missing
// channel, a missing platform entry, or a tarball that is empty or
// JSON null all fail with ErrArtifactNotFound naming the key.
func (ix *Index) Artifact(channel string, key platform.Key) (Artifact, error) {
	entries, ok := ix.channels[channel]
	if !ok {
		return Artifact{}, errors.Wrapf(ErrArtifactNotFound, "channel %q not in index", channel)
	}

	raw, ok := entries[key.String()]
	if !ok {
		return Artifact{}, errors.Wrapf(ErrArtifactNotFound, "platform %s in channel %q", key, channel)
	}

	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return Artifact{}, errors.Wrapf(ErrMalformed, "artifact entry for %s: %v", key, err)
	}
	if art.Tarball == "" || art.Tarball == "null" {
		return Artifact{}, errors.Wrapf(ErrArtifactNotFound, "platform %s has no tarball URL", key)
	}

	return art, nil
}

// Version returns the channel's "version" metadata field, or "" if
// absent. Master builds carry their dev version here rather than in
// the channel name.
func (ix *Index) Version(channel string) string {
	entries, ok := ix.channels[channel]
	if !ok {
		return ""
	}
	raw, ok := entries["version"]
	if !ok {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v
}
