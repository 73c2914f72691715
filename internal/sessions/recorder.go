// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package sessions provides the session registry and session recording.
//
// Recording is explicit process-wide state with a defined lifecycle: off at
// startup, toggled via StartRecording/StopRecording. The event store holds
// a Recorder handle and feeds it every ingested event; ingestion never
// reaches into global state.
package sessions

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRecordingNotFound indicates no recording exists for the session.
	ErrRecordingNotFound = errors.New("recording not found")
)

// DefaultBufferCap bounds each session's recording buffer. Beyond the cap
// the oldest events are evicted, keeping memory use finite.
const DefaultBufferCap = 10000

// Config configures the recorder.
type Config struct {
	// BufferCap is the per-session recording buffer capacity.
	// Default: DefaultBufferCap.
	BufferCap int
}

// sessionState holds one session plus its recording buffer. The buffer is
// circular: start is the logical head, count the number of live entries.
// Each session has its own lock so concurrent events for different
// sessions never contend.
type sessionState struct {
	mu      sync.Mutex
	session models.Session
	started bool
	buffer  []models.Event
	start   int
	count   int
}

// Recorder is the session registry and recording engine. It implements
// eventstore.Observer so the store can feed it ingested events.
type Recorder struct {
	mu        sync.RWMutex
	sessions  map[string]*sessionState
	bufferCap int

	// recording is the process-wide toggle, off initially.
	recording atomic.Bool
}

// NewRecorder creates a recorder with recording off.
func NewRecorder(cfg Config) *Recorder {
	cap := cfg.BufferCap
	if cap <= 0 {
		cap = DefaultBufferCap
	}
	return &Recorder{
		sessions:  make(map[string]*sessionState),
		bufferCap: cap,
	}
}

// StartOptions carries optional identity for a new session.
type StartOptions struct {
	UserID     string
	VisitorID  string
	DeviceType string
}

// StartSession opens a new session and returns it. A visitor id is
// generated when none is supplied.
func (r *Recorder) StartSession(opts StartOptions) models.Session {
	visitorID := opts.VisitorID
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	session := models.Session{
		ID:         uuid.NewString(),
		UserID:     opts.UserID,
		VisitorID:  visitorID,
		StartTime:  time.Now(),
		DeviceType: opts.DeviceType,
	}

	r.mu.Lock()
	r.sessions[session.ID] = &sessionState{session: session, started: true}
	r.mu.Unlock()

	metrics.ActiveSessions.Inc()
	return session
}

// EndSession closes a session. Ending an already-ended session is a no-op,
// not an error; an unknown id returns ErrSessionNotFound.
func (r *Recorder) EndSession(id string) error {
	state := r.lookup(id)
	if state == nil {
		return ErrSessionNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.session.EndTime != nil {
		return nil
	}

	end := time.Now()
	if end.Before(state.session.StartTime) {
		end = state.session.StartTime
	}
	state.session.EndTime = &end

	if state.started {
		metrics.ActiveSessions.Dec()
	}
	return nil
}

// GetSession returns a copy of the session, or ErrSessionNotFound.
func (r *Recorder) GetSession(id string) (models.Session, error) {
	state := r.lookup(id)
	if state == nil {
		return models.Session{}, ErrSessionNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.session, nil
}

// StartRecording turns the global recording toggle on.
func (r *Recorder) StartRecording() {
	r.recording.Store(true)
}

// StopRecording turns the global recording toggle off. Existing buffers
// are retained and stay retrievable.
func (r *Recorder) StopRecording() {
	r.recording.Store(false)
}

// Recording reports the toggle state.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// ObserveEvent appends the event to its session's recording buffer while
// recording is on. Events without a session id are ignored. Buffers are
// created lazily, so events for sessions opened elsewhere are still
// captured.
func (r *Recorder) ObserveEvent(e models.Event) {
	if !r.recording.Load() || e.SessionID == "" {
		return
	}

	state := r.lookup(e.SessionID)
	if state == nil {
		state = r.createBufferOnly(e.SessionID)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.buffer == nil {
		state.buffer = make([]models.Event, r.bufferCap)
	}

	if state.count == len(state.buffer) {
		// Full: overwrite the oldest entry.
		state.buffer[state.start] = e
		state.start = (state.start + 1) % len(state.buffer)
		metrics.RecordingEvictions.Inc()
		return
	}

	idx := (state.start + state.count) % len(state.buffer)
	state.buffer[idx] = e
	state.count++
}

// GetRecording returns the ordered event stream captured for a session, or
// ErrRecordingNotFound when nothing was captured.
func (r *Recorder) GetRecording(sessionID string) ([]models.Event, error) {
	state := r.lookup(sessionID)
	if state == nil {
		return nil, ErrRecordingNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.count == 0 {
		return nil, ErrRecordingNotFound
	}

	out := make([]models.Event, state.count)
	for i := 0; i < state.count; i++ {
		out[i] = state.buffer[(state.start+i)%len(state.buffer)]
	}
	return out, nil
}

func (r *Recorder) lookup(id string) *sessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// createBufferOnly registers a state for a session id seen only through
// events. The embedded session carries just the id; it was never started
// through this registry.
func (r *Recorder) createBufferOnly(id string) *sessionState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[id]; ok {
		return existing
	}
	state := &sessionState{session: models.Session{ID: id, StartTime: time.Now()}}
	r.sessions[id] = state
	return state
}
