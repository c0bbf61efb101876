package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
)

func TestLocalSaveAndRead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ls, err := NewLocalStorage(filepath.Join(dir, "audio"))
	require.NoError(t, err)

	ref, err := ls.SaveAudio("abc", ".WAV", strings.NewReader("RIFF"))
	require.NoError(t, err)
	require.Equal(t, "local://abc.wav", ref)

	_, err = os.Stat(filepath.Join(ls.Dir(), "abc.wav"+PartialSuffix))
	require.True(t, os.IsNotExist(err), "partial file must be renamed")

	data, err := ls.Read(ref)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data))
}

func TestLocalReadRejectsBadRefs(t *testing.T) {
	t.Parallel()

	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"local://", "local://../etc/passwd", "file:///tmp/x", "local://a/b.wav"} {
		_, err := ls.Read(ref)
		require.True(t, apperr.IsKind(err, apperr.KindValidation), ref)
	}

	_, err = ls.Read("local://missing.wav")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	require.Equal(t, "b.wav", sanitizeFilename("../a/b.wav"))
	require.Equal(t, "a_b", sanitizeFilename("a:b"))
	require.Len(t, sanitizeFilename(strings.Repeat("x", 300)), 100)
}

func TestFetcherDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.mp3" {
			_, _ = w.Write([]byte("ID3"))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ref, err := ls.SaveAudio("s1", ".webm", strings.NewReader("webm-bytes"))
	require.NoError(t, err)

	f := NewFetcher(5*time.Second, ls, nil)
	ctx := context.Background()

	data, err := f.Download(ctx, srv.URL+"/ok.mp3")
	require.NoError(t, err)
	require.Equal(t, "ID3", string(data))

	_, err = f.Download(ctx, srv.URL+"/expired.mp3")
	require.True(t, apperr.IsKind(err, apperr.KindTransport))

	data, err = f.Download(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, "webm-bytes", string(data))

	_, err = f.Download(ctx, "ftp://x/y")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = NewFetcher(time.Second, nil, nil).Download(ctx, ref)
	require.True(t, apperr.IsKind(err, apperr.KindConfiguration))
}
