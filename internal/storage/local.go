package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
)

// LocalScheme prefixes audio references served from LocalStorage.
const LocalScheme = "local://"

// PartialSuffix marks an audio file still being written.
const PartialSuffix = ".part"

// LocalStorage keeps uploaded audio on the local filesystem
type LocalStorage struct {
	audioDir string
}

// NewLocalStorage creates the audio directory if needed
func NewLocalStorage(audioDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}
	return &LocalStorage{audioDir: audioDir}, nil
}

// Dir returns the directory audio is stored in.
func (ls *LocalStorage) Dir() string {
	return ls.audioDir
}

// SaveAudio streams r to <sessionID><ext> and returns its local:// reference.
// Data lands in a .part file first and is renamed once complete, so readers
// never see a truncated recording.
func (ls *LocalStorage) SaveAudio(sessionID, ext string, r io.Reader) (string, error) {
	name := sanitizeFilename(sessionID) + strings.ToLower(ext)
	finalPath := filepath.Join(ls.audioDir, name)
	partPath := finalPath + PartialSuffix

	f, err := os.Create(partPath)
	if err != nil {
		return "", apperr.Internal("failed to create audio file", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(partPath)
		return "", apperr.Internal("failed to write audio file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(partPath)
		return "", apperr.Internal("failed to write audio file", err)
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return "", apperr.Internal("failed to finalize audio file", err)
	}

	return LocalScheme + name, nil
}

// Read returns the bytes behind a local:// reference.
func (ls *LocalStorage) Read(ref string) ([]byte, error) {
	path, err := ls.resolve(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, apperr.NotFound("audio", ref)
	}
	if err != nil {
		return nil, apperr.Internal("failed to read audio file", err)
	}
	return data, nil
}

func (ls *LocalStorage) resolve(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, LocalScheme)
	if !ok || name == "" {
		return "", apperr.Validation("not a local audio reference: %q", ref)
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", apperr.Validation("invalid local audio reference: %q", ref)
	}
	return filepath.Join(ls.audioDir, name), nil
}

// sanitizeFilename strips path components and characters unsafe in filenames
func sanitizeFilename(name string) string {
	result := filepath.Base(name)
	result = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, result)
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
