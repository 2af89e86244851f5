package attendance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DDS3579/attendance-manager/internal/store"
)

func storeOpen(dir string) (*store.Store, error) {
	return store.New(filepath.Join(dir, "test.db"))
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc, err := NewService(context.Background(), st, filepath.Join(dir, "exports"))
	if err != nil {
		t.Fatalf("Failed to build service: %v", err)
	}
	return svc
}

func TestAddStudent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	st, err := svc.AddStudent(ctx, "  Alice  ")
	if err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if st.Name != "Alice" {
		t.Errorf("Expected trimmed name %q, got %q", "Alice", st.Name)
	}

	snap := svc.Snapshot()
	if len(snap.Students) != 1 || snap.Students[0].Name != "Alice" {
		t.Fatalf("Snapshot after add = %+v", snap.Students)
	}
	if snap.Loading {
		t.Error("Snapshot should be ready after add")
	}
}

func TestAddStudentValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddStudent(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName for blank name, got %v", err)
	}

	if _, err := svc.AddStudent(ctx, "Alice"); err != nil {
		t.Fatalf("AddStudent: %v", err)
	}
	if _, err := svc.AddStudent(ctx, "Alice"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Expected ErrDuplicateName, got %v", err)
	}

	if n := len(svc.Snapshot().Students); n != 1 {
		t.Errorf("Expected exactly 1 student after duplicate attempt, got %d", n)
	}
}

func TestMarkAttendance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SelectDate(ctx, "2024-01-10"); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	alice, err := svc.AddStudent(ctx, "Alice")
	if err != nil {
		t.Fatalf("AddStudent: %v", err)
	}

	if err := svc.MarkAttendance(ctx, alice.ID, true); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}
	snap := svc.Snapshot()
	if present, ok := snap.AttendanceMap[alice.ID]; !ok || !present {
		t.Fatalf("Expected Alice present in map, got %+v", snap.AttendanceMap)
	}

	// Overwrite back to absent; no second row, map reflects it.
	if err := svc.MarkAttendance(ctx, alice.ID, false); err != nil {
		t.Fatalf("MarkAttendance(overwrite): %v", err)
	}
	snap = svc.Snapshot()
	if present, ok := snap.AttendanceMap[alice.ID]; !ok || present {
		t.Fatalf("Expected overwritten absent mark, got %+v", snap.AttendanceMap)
	}
}

func TestSelectDateIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SelectDate(ctx, "2024-01-10"); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	alice, _ := svc.AddStudent(ctx, "Alice")
	if err := svc.MarkAttendance(ctx, alice.ID, true); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	if err := svc.SelectDate(ctx, "2024-01-11"); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	snap := svc.Snapshot()
	if snap.SelectedDate != "2024-01-11" {
		t.Errorf("SelectedDate = %q", snap.SelectedDate)
	}
	if len(snap.AttendanceMap) != 0 {
		t.Errorf("Expected empty map for fresh date, got %+v", snap.AttendanceMap)
	}

	// The mark for the previous day is still there.
	if err := svc.SelectDate(ctx, "2024-01-10"); err != nil {
		t.Fatalf("SelectDate(back): %v", err)
	}
	if present := svc.Snapshot().AttendanceMap[alice.ID]; !present {
		t.Error("Mark for 2024-01-10 should persist across date changes")
	}
}

func TestSelectDateBounds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		date string
	}{
		{"malformed", "10/01/2024"},
		{"before epoch", "1999-12-31"},
		{"too far ahead", "2999-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.SelectDate(ctx, tt.date); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("SelectDate(%q) = %v, want ErrInvalidDate", tt.date, err)
			}
		})
	}
}

func TestRemoveStudentCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.SelectDate(ctx, "2024-01-10"); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	alice, _ := svc.AddStudent(ctx, "Alice")
	if err := svc.MarkAttendance(ctx, alice.ID, true); err != nil {
		t.Fatalf("MarkAttendance: %v", err)
	}

	if err := svc.RemoveStudent(ctx, alice.ID); err != nil {
		t.Fatalf("RemoveStudent: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Students) != 0 {
		t.Errorf("Expected empty roster, got %+v", snap.Students)
	}
	if len(snap.AttendanceMap) != 0 {
		t.Errorf("Expected attendance cascade, got %+v", snap.AttendanceMap)
	}
}
