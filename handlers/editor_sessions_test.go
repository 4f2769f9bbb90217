package handlers

import (
	"errors"
	"testing"
	"time"

	"invoicedesk/services"
)

func TestEditorSessions_OpenGetClose(t *testing.T) {
	sessions := NewEditorSessions(time.Hour)
	sess := sessions.Open("agency1", services.NewEditorState())
	if sess.ID == "" {
		t.Fatal("expected a session id")
	}

	got, err := sessions.Get("agency1", sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get = %v, %v", got, err)
	}

	// sessions are scoped to the agency that opened them
	if _, err := sessions.Get("agency2", sess.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("other agency: expected ErrNotFound, got %v", err)
	}

	sessions.Close(sess.ID)
	if _, err := sessions.Get("agency1", sess.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("closed session: expected ErrNotFound, got %v", err)
	}
}

func TestEditorSessions_Expiry(t *testing.T) {
	sessions := NewEditorSessions(200 * time.Millisecond)
	idle := sessions.Open("agency1", services.NewEditorState())
	active := sessions.Open("agency1", services.NewEditorState())

	for i := 0; i < 6; i++ {
		time.Sleep(50 * time.Millisecond)
		if _, err := sessions.Get("agency1", active.ID); err != nil {
			t.Fatalf("active session expired: %v", err)
		}
	}

	if n := sessions.Purge(); n != 1 {
		t.Errorf("Purge removed %d sessions, want 1", n)
	}
	if _, err := sessions.Get("agency1", idle.ID); err == nil {
		t.Error("idle session should have expired")
	}
}

func TestEditorSession_Do(t *testing.T) {
	sess := NewEditorSessions(0).Open("agency1", services.NewEditorState())

	err := sess.Do(func(s *services.EditorState) error {
		s.InsertRow(false)
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	sess.Do(func(s *services.EditorState) error {
		if s.Rows != services.DefaultRows+1 {
			t.Errorf("rows = %d", s.Rows)
		}
		return nil
	})

	wantErr := errors.New("boom")
	if err := sess.Do(func(*services.EditorState) error { return wantErr }); err != wantErr {
		t.Errorf("Do should return fn's error, got %v", err)
	}
}
