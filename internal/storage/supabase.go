package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// SupabaseConfig holds the PostgREST connection settings.
type SupabaseConfig struct {
	// URL is the project URL (e.g., https://xyz.supabase.co).
	URL string
	// ServiceKey is sent both as apikey and as Bearer token.
	ServiceKey string
	// Schema is selected with Accept-Profile / Content-Profile.
	Schema  string
	Table   string
	Timeout time.Duration
}

// SupabaseSessionStore implements SessionStore over the Supabase REST API.
type SupabaseSessionStore struct {
	baseURL    string
	serviceKey string
	schema     string
	table      string
	httpClient *http.Client
}

// supabaseSession mirrors a row of the sessions table.
type supabaseSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	InputMode string    `json:"input_mode"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status"`
	FileURL   *string   `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

type transcriptPatch struct {
	Transcript         string          `json:"transcript"`
	TranscriptSegments []types.Segment `json:"transcript_segments"`
	TranscriptWords    int             `json:"transcript_words"`
	Status             string          `json:"status"`
}

// NewSupabaseSessionStore creates a REST-backed session store.
func NewSupabaseSessionStore(cfg SupabaseConfig) (*SupabaseSessionStore, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, apperr.Configuration("supabase url and service key are required")
	}
	if cfg.Table == "" {
		cfg.Table = "sessions"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SupabaseSessionStore{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		serviceKey: cfg.ServiceKey,
		schema:     cfg.Schema,
		table:      cfg.Table,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// GetSession fetches one row by id.
func (s *SupabaseSessionStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	var rows []supabaseSession
	if err := s.do(ctx, http.MethodGet, s.rowURL(id), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("session", id)
	}

	row := rows[0]
	session := &types.Session{
		ID:        row.ID,
		Title:     row.Title,
		InputMode: row.InputMode,
		Duration:  row.Duration,
		Status:    row.Status,
		CreatedAt: row.CreatedAt,
	}
	if row.FileURL != nil {
		session.FileURL = *row.FileURL
	}
	return session, nil
}

// SetTranscript patches transcript fields and status in a single request.
func (s *SupabaseSessionStore) SetTranscript(ctx context.Context, id string, result *types.TranscriptionResult) error {
	segments := result.Segments
	if segments == nil {
		segments = []types.Segment{}
	}
	patch := transcriptPatch{
		Transcript:         result.Text,
		TranscriptSegments: segments,
		TranscriptWords:    result.WordCount,
		Status:             types.SessionTranscribed,
	}

	var updated []supabaseSession
	if err := s.do(ctx, http.MethodPatch, s.rowURL(id), patch, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return apperr.NotFound("session", id)
	}
	return nil
}

// CreateSession inserts a row.
func (s *SupabaseSessionStore) CreateSession(ctx context.Context, session types.Session) error {
	row := supabaseSession{
		ID:        session.ID,
		Title:     session.Title,
		InputMode: session.InputMode,
		Duration:  session.Duration,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if session.FileURL != "" {
		row.FileURL = &session.FileURL
	}
	return s.do(ctx, http.MethodPost, s.baseURL+"/"+s.table, row, nil)
}

func (s *SupabaseSessionStore) rowURL(id string) string {
	return fmt.Sprintf("%s/%s?id=eq.%s", s.baseURL, s.table, url.QueryEscape(id))
}

func (s *SupabaseSessionStore) do(ctx context.Context, method, u string, body, out any) error {
	operation := "supabase " + strings.ToLower(method) + " " + s.table

	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal("supabase marshal request", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return apperr.Internal("supabase create request", err)
	}
	s.setHeaders(req, body != nil, out != nil)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(operation, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Transport(operation, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))).
			WithDetail("status", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Transport(operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (s *SupabaseSessionStore) setHeaders(req *http.Request, hasBody, wantRows bool) {
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")
	if s.schema != "" {
		req.Header.Set("Accept-Profile", s.schema)
		req.Header.Set("Content-Profile", s.schema)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
		if wantRows {
			req.Header.Set("Prefer", "return=representation")
		} else {
			req.Header.Set("Prefer", "return=minimal")
		}
	}
}
