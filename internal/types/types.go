package types

import "time"

// JobStatus is the lifecycle state of a transcription job
type JobStatus string

// Job status constants
const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// EngineID identifies a transcription backend
type EngineID string

// Engine identifiers accepted by the dispatcher
const (
	EngineAuto      EngineID = "auto"
	EngineGroqTurbo EngineID = "groq-turbo"
	EngineGroqLarge EngineID = "groq-large"
	EngineDeepgram  EngineID = "deepgram"
	EngineWynona    EngineID = "wynona"
)

// KnownEngines is the fixed set of identifiers a caller may request
var KnownEngines = []EngineID{
	EngineAuto,
	EngineGroqTurbo,
	EngineGroqLarge,
	EngineDeepgram,
	EngineWynona,
}

// ParseEngineID returns the engine for raw, or false if raw is not in KnownEngines
func ParseEngineID(raw string) (EngineID, bool) {
	for _, id := range KnownEngines {
		if string(id) == raw {
			return id, true
		}
	}
	return "", false
}

// Availability is the on-demand reachability of an engine
type Availability string

const (
	Online  Availability = "online"
	Offline Availability = "offline"
)

// Session status values written by this service
const (
	SessionUploaded    = "uploaded"
	SessionTranscribed = "transcribed"
)

// Input modes for sessions created by the intake handlers
const (
	InputUpload = "upload"
	InputStream = "stream"
)

// Job represents one transcription attempt
type Job struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Engine         EngineID  `json:"engine"`
	ResolvedEngine EngineID  `json:"resolved_engine"`
	Status         JobStatus `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EngineDescriptor is one catalog entry
type EngineDescriptor struct {
	ID           EngineID     `json:"id"`
	DisplayName  string       `json:"name"`
	CostPerHour  float64      `json:"cost_per_hour"`
	Availability Availability `json:"status"`
}

// TranscriptionResult is the output of an engine
type TranscriptionResult struct {
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Segments  []Segment `json:"segments"`
	WordCount int       `json:"word_count"`
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// Session is the subset of a recording session the core needs
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	InputMode string    `json:"input_mode,omitempty"`
	Duration  int       `json:"duration"`
	Status    string    `json:"status,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// HasAudio reports whether the session references an audio file
func (s Session) HasAudio() bool {
	return s.FileURL != ""
}
