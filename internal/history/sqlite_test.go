package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dude613/avoda-desktop/internal/capture"
	"github.com/dude613/avoda-desktop/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "avoda.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestOpenCreatesNestedDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "db", "avoda.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	startedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := s.SessionStarted(ctx, "sess-1", startedAt); err != nil {
		t.Fatalf("SessionStarted: %v", err)
	}

	sum := session.Summary{
		ID:          "sess-1",
		StartedAt:   startedAt,
		EndedAt:     startedAt.Add(45 * time.Minute),
		Duration:    40 * time.Minute,
		KeyPresses:  812,
		MouseClicks: 143,
	}
	if err := s.SessionEnded(ctx, sum); err != nil {
		t.Fatalf("SessionEnded: %v", err)
	}

	sums, err := s.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sums))
	}

	got := sums[0]
	if got.ID != "sess-1" {
		t.Errorf("id = %q, want sess-1", got.ID)
	}
	if got.StartedAt.Unix() != startedAt.Unix() {
		t.Errorf("startedAt = %v, want %v", got.StartedAt, startedAt)
	}
	if got.EndedAt.Unix() != sum.EndedAt.Unix() {
		t.Errorf("endedAt = %v, want %v", got.EndedAt, sum.EndedAt)
	}
	if got.Duration != 40*time.Minute {
		t.Errorf("duration = %v, want 40m", got.Duration)
	}
	if got.KeyPresses != 812 || got.MouseClicks != 143 {
		t.Errorf("counts = (%d, %d), want (812, 143)", got.KeyPresses, got.MouseClicks)
	}
}

func TestSessionEndedUnknownID(t *testing.T) {
	s := openTestStore(t)

	// An unmatched update is logged, not returned as an error.
	err := s.SessionEnded(context.Background(), session.Summary{ID: "ghost", EndedAt: time.Now()})
	if err != nil {
		t.Fatalf("SessionEnded: %v", err)
	}
}

func TestRecentSessionsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.SessionStarted(ctx, id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("SessionStarted(%s): %v", id, err)
		}
	}

	sums, err := s.RecentSessions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sums))
	}
	if sums[0].ID != "new" || sums[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [new mid]", sums[0].ID, sums[1].ID)
	}
	// Open sessions have no end timestamp yet.
	if !sums[0].EndedAt.IsZero() {
		t.Errorf("endedAt = %v, want zero for open session", sums[0].EndedAt)
	}
}

func TestCaptureSaved(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := capture.Capture{
		ID:         "cap-1",
		SessionID:  "sess-1",
		Payload:    "data:image/png;base64,AAAA",
		CapturedAt: time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC),
		Apps:       []string{"editor", "terminal"},
	}
	if err := s.CaptureSaved(ctx, c); err != nil {
		t.Fatalf("CaptureSaved: %v", err)
	}

	var sessionID, data string
	var appsJSON sql.NullString
	row := s.db.QueryRowContext(ctx, `SELECT session_id, data, apps_json FROM screenshots WHERE id = ?`, "cap-1")
	if err := row.Scan(&sessionID, &data, &appsJSON); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sessionID != "sess-1" || data != c.Payload {
		t.Errorf("row = (%q, %q)", sessionID, data)
	}
	if !appsJSON.Valid || appsJSON.String != `["editor","terminal"]` {
		t.Errorf("apps_json = %+v, want [\"editor\",\"terminal\"]", appsJSON)
	}
}

func TestCaptureSavedWithoutApps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := capture.Capture{
		ID:         "cap-2",
		SessionID:  "sess-1",
		Payload:    "data:image/png;base64,BBBB",
		CapturedAt: time.Now(),
	}
	if err := s.CaptureSaved(ctx, c); err != nil {
		t.Fatalf("CaptureSaved: %v", err)
	}

	var appsJSON sql.NullString
	row := s.db.QueryRowContext(ctx, `SELECT apps_json FROM screenshots WHERE id = ?`, "cap-2")
	if err := row.Scan(&appsJSON); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if appsJSON.Valid {
		t.Errorf("apps_json = %q, want NULL", appsJSON.String)
	}
}
