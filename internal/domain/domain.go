package domain

import (
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the two generation pipelines.
type Kind string

const (
	KindImage Kind = "IMAGE"
	KindVideo Kind = "VIDEO"
)

// PromptStatus is the lifecycle of a generation request record. Transitions
// are monotonic: PENDING -> PROCESSING -> {COMPLETED, FAILED}, with
// PENDING -> {COMPLETED, FAILED} allowed for the synchronous image pipeline.
type PromptStatus string

const (
	PromptPending    PromptStatus = "PENDING"
	PromptProcessing PromptStatus = "PROCESSING"
	PromptCompleted  PromptStatus = "COMPLETED"
	PromptFailed     PromptStatus = "FAILED"
)

// Terminal reports whether no further transition is permitted.
func (s PromptStatus) Terminal() bool {
	return s == PromptCompleted || s == PromptFailed
}

// VideoStatus is the lifecycle of an asynchronous video task. Monotonic:
// QUEUED -> RUNNING -> {SUCCEEDED, FAILED, CANCELLED}.
type VideoStatus string

const (
	VideoQueued    VideoStatus = "QUEUED"
	VideoRunning   VideoStatus = "RUNNING"
	VideoSucceeded VideoStatus = "SUCCEEDED"
	VideoFailed    VideoStatus = "FAILED"
	VideoCancelled VideoStatus = "CANCELLED"
)

// Terminal reports whether polling must stop for this status.
func (s VideoStatus) Terminal() bool {
	return s == VideoSucceeded || s == VideoFailed || s == VideoCancelled
}

// ParseVideoStatus normalizes provider status strings into the domain enum.
func ParseVideoStatus(raw string) (VideoStatus, bool) {
	switch VideoStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case VideoQueued:
		return VideoQueued, true
	case VideoRunning:
		return VideoRunning, true
	case VideoSucceeded:
		return VideoSucceeded, true
	case VideoFailed:
		return VideoFailed, true
	case VideoCancelled:
		return VideoCancelled, true
	default:
		return "", false
	}
}

// Prompt is a user's generation request record, independent of its eventual
// media output. Status writes are owned exclusively by the orchestrators and
// the video worker; a terminal Prompt is never mutated again.
type Prompt struct {
	ID        string
	OwnerID   string
	Text      string
	Kind      Kind
	Model     string
	Size      string // image: "1024x1024" etc.
	Duration  int    // video: seconds
	Aspect    string // video: "16:9" etc.
	Status    PromptStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SizeOrDuration renders the settings summary shown in history listings.
func (p Prompt) SizeOrDuration() string {
	if p.Kind == KindVideo {
		return videoSummary(p.Duration, p.Aspect)
	}
	return p.Size
}

// Media is one generated artifact produced from a Prompt. OwnedURL is set at
// most once, after a verified transfer into owned storage; until then
// ExternalURL is the only valid source of the bytes.
type Media struct {
	ID          string
	PromptID    string
	OwnerID     string
	Kind        Kind
	ExternalURL string
	OwnedURL    string
	StorageKey  string
	MIME        string
	Size        string
	Duration    int
	CreatedAt   time.Time

	// Video-only fields; zero values for images.
	Status       VideoStatus
	ExternalTask string
	ErrorMessage string
}

// URL returns the preferred location of the media bytes.
func (m Media) URL() string {
	if m.OwnedURL != "" {
		return m.OwnedURL
	}
	return m.ExternalURL
}

// User is the projection of the external identity record. The core only
// reads the id to scope ownership; credits and tier are owned elsewhere.
type User struct {
	ID      string
	Email   string
	Credits int
	Tier    string
}

func videoSummary(duration int, aspect string) string {
	var parts []string
	if duration > 0 {
		parts = append(parts, strconv.Itoa(duration)+"s")
	}
	if aspect != "" {
		parts = append(parts, aspect)
	}
	return strings.Join(parts, " ")
}
