// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package sessions

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tomtom215/attributus/internal/models"
)

func TestStartAndEndSession(t *testing.T) {
	r := NewRecorder(Config{})

	session := r.StartSession(StartOptions{UserID: "u1", DeviceType: "mobile"})
	if session.ID == "" {
		t.Fatal("expected session id to be assigned")
	}
	if session.VisitorID == "" {
		t.Error("expected visitor id to be generated")
	}
	if session.Ended() {
		t.Error("new session must not be ended")
	}

	if err := r.EndSession(session.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	got, err := r.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Ended() {
		t.Fatal("session must be ended")
	}
	if got.EndTime.Before(got.StartTime) {
		t.Error("end time must not precede start time")
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	r := NewRecorder(Config{})
	session := r.StartSession(StartOptions{})

	if err := r.EndSession(session.ID); err != nil {
		t.Fatalf("first end: %v", err)
	}

	first, _ := r.GetSession(session.ID)

	// Ending again is a no-op, not an error, and must not move the end time.
	if err := r.EndSession(session.ID); err != nil {
		t.Fatalf("second end: %v", err)
	}

	second, _ := r.GetSession(session.ID)
	if !second.EndTime.Equal(*first.EndTime) {
		t.Error("repeated end must not change the end time")
	}
}

func TestEndSessionUnknown(t *testing.T) {
	r := NewRecorder(Config{})
	if err := r.EndSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRecordingToggleGatesCapture(t *testing.T) {
	r := NewRecorder(Config{})
	session := r.StartSession(StartOptions{})

	// Off initially: nothing captured.
	r.ObserveEvent(models.Event{Name: "page_view", SessionID: session.ID})
	if _, err := r.GetRecording(session.ID); !errors.Is(err, ErrRecordingNotFound) {
		t.Errorf("expected ErrRecordingNotFound before recording, got %v", err)
	}

	r.StartRecording()
	if !r.Recording() {
		t.Fatal("expected recording on")
	}
	r.ObserveEvent(models.Event{Name: "click", SessionID: session.ID})
	r.ObserveEvent(models.Event{Name: "scroll", SessionID: session.ID})
	r.StopRecording()

	// Off again: further events ignored, captured stream retained.
	r.ObserveEvent(models.Event{Name: "page_view", SessionID: session.ID})

	events, err := r.GetRecording(session.ID)
	if err != nil {
		t.Fatalf("get recording: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 captured events, got %d", len(events))
	}
	if events[0].Name != "click" || events[1].Name != "scroll" {
		t.Errorf("expected ordered [click scroll], got [%s %s]", events[0].Name, events[1].Name)
	}
}

func TestRecordingIgnoresSessionlessEvents(t *testing.T) {
	r := NewRecorder(Config{})
	r.StartRecording()
	r.ObserveEvent(models.Event{Name: "page_view"})
	// Nothing to assert beyond no panic and no stray buffers; a lookup on
	// the empty id must miss.
	if _, err := r.GetRecording(""); !errors.Is(err, ErrRecordingNotFound) {
		t.Errorf("expected ErrRecordingNotFound, got %v", err)
	}
}

func TestRecordingBufferEvictsOldest(t *testing.T) {
	r := NewRecorder(Config{BufferCap: 3})
	session := r.StartSession(StartOptions{})
	r.StartRecording()

	for i := 0; i < 5; i++ {
		r.ObserveEvent(models.Event{Name: fmt.Sprintf("e%d", i), SessionID: session.ID})
	}

	events, err := r.GetRecording(session.ID)
	if err != nil {
		t.Fatalf("get recording: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected buffer capped at 3, got %d", len(events))
	}
	for i, want := range []string{"e2", "e3", "e4"} {
		if events[i].Name != want {
			t.Errorf("events[%d] = %s, want %s (oldest evicted first)", i, events[i].Name, want)
		}
	}
}

func TestRecordingCapturesUnregisteredSessions(t *testing.T) {
	r := NewRecorder(Config{})
	r.StartRecording()

	r.ObserveEvent(models.Event{Name: "page_view", SessionID: "external-1"})

	events, err := r.GetRecording("external-1")
	if err != nil {
		t.Fatalf("get recording: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event for externally-opened session, got %d", len(events))
	}
}

func TestConcurrentObserve(t *testing.T) {
	r := NewRecorder(Config{BufferCap: 100})
	session := r.StartSession(StartOptions{})
	r.StartRecording()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.ObserveEvent(models.Event{Name: "click", SessionID: session.ID})
			}
		}()
	}
	wg.Wait()

	events, err := r.GetRecording(session.ID)
	if err != nil {
		t.Fatalf("get recording: %v", err)
	}
	if len(events) != 100 {
		t.Errorf("expected buffer full at 100 after 400 concurrent events, got %d", len(events))
	}
}
