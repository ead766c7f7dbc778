package index

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zig-tools/zigup/pkg/fetch"
	"github.com/zig-tools/zigup/pkg/platform"
)

const sampleIndex = `{
	"master": {
		"version": "0.15.0-dev.123+abcdef",
		"date": "2025-08-01",
		"x86_64-linux": {
			"tarball": "https://example.com/zig-x86_64-linux-0.15.0-dev.123.tar.xz",
			"shasum": "deadbeef",
			"size": "45000000"
		},
		"aarch64-macos": {
			"tarball": "https://example.com/zig-aarch64-macos-0.15.0-dev.123.tar.xz",
			"shasum": "cafebabe",
			"size": "44000000"
		}
	},
	"0.14.0": {
		"date": "2025-03-05",
		"x86_64-linux": {
			"tarball": "https://example.com/zig-x86_64-linux-0.14.0.tar.xz",
			"shasum": "00ff00ff",
			"size": "46000000"
		}
	}
}`

func mustKey(t *testing.T, arch, os string) platform.Key {
	t.Helper()
	key, err := platform.ResolveFrom(arch, os)
	require.NoError(t, err)
	return key
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantErr     error
		wantVersion string
	}{
		{
			name: "valid index",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, sampleIndex)
			},
			wantVersion: "0.15.0-dev.123+abcdef",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: fetch.ErrDownload,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: fetch.ErrDownload,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>not json</html>")
			},
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			ix, err := Fetch(context.Background(), server.Client(), server.URL)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, ix.Version(MasterChannel))
		})
	}
}

func TestArtifact(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	t.Run("resolves master tarball", func(t *testing.T) {
		art, err := ix.Artifact(MasterChannel, mustKey(t, "x86_64", "linux"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/zig-x86_64-linux-0.15.0-dev.123.tar.xz", art.Tarball)

		name, err := art.Filename()
		require.NoError(t, err)
		assert.Equal(t, "zig-x86_64-linux-0.15.0-dev.123.tar.xz", name)
	})

	t.Run("missing platform", func(t *testing.T) {
		_, err := ix.Artifact(MasterChannel, mustKey(t, "armv7l", "linux"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
		assert.Contains(t, err.Error(), "armv7a-linux")
	})

	t.Run("missing channel", func(t *testing.T) {
		_, err := ix.Artifact("0.2.0", mustKey(t, "x86_64", "linux"))
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("null tarball", func(t *testing.T) {
		doc := `{"master": {"x86_64-linux": {"tarball": null}}}`
		ix, err := Parse([]byte(doc))
		require.NoError(t, err)

		_, err = ix.Artifact(MasterChannel, mustKey(t, "x86_64", "linux"))
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("empty tarball", func(t *testing.T) {
		doc := `{"master": {"x86_64-linux": {"tarball": ""}}}`
		ix, err := Parse([]byte(doc))
		require.NoError(t, err)

		_, err = ix.Artifact(MasterChannel, mustKey(t, "x86_64", "linux"))
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})
}

func TestVersion(t *testing.T) {
	ix, err := Parse([]byte(sampleIndex))
	require.NoError(t, err)

	assert.Equal(t, "0.15.0-dev.123+abcdef", ix.Version("master"))
	assert.Equal(t, "", ix.Version("0.14.0"), "stable channels have no version field")
	assert.Equal(t, "", ix.Version("nonexistent"))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`["an", "array"]`))
	assert.ErrorIs(t, err, ErrMalformed)
}
