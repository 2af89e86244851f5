package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DDS3579/attendance-manager/internal/metrics"
	"github.com/DDS3579/attendance-manager/internal/model"
	"github.com/DDS3579/attendance-manager/internal/store"
)

// DateLayout is the ISO day format used everywhere a date crosses a
// boundary: the attendance table, the API, and export filenames.
const DateLayout = "2006-01-02"

var (
	// ErrEmptyName rejects a student name that is empty after trimming.
	ErrEmptyName = errors.New("student name is empty")
	// ErrDuplicateName rejects a name already on the roster.
	ErrDuplicateName = errors.New("student name already exists")
	// ErrInvalidDate rejects a date that is malformed or outside the
	// accepted range.
	ErrInvalidDate = errors.New("invalid date")
	// ErrExport wraps any I/O failure while writing a report.
	ErrExport = errors.New("export failed")
)

// minDate is the lower bound for selectable dates. The upper bound is one
// year past now, computed per call.
var minDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Service is the attendance façade. It owns the selected date and the
// cached snapshot; both change only through its operations. A mutex
// serializes operations so each mutation completes and reloads before the
// next begins.
type Service struct {
	store     *store.Store
	exportDir string

	mu   sync.Mutex
	date string
	snap model.Snapshot
}

// NewService builds the service, selects today, and loads the initial
// snapshot.
func NewService(ctx context.Context, st *store.Store, exportDir string) (*Service, error) {
	s := &Service{
		store:     st,
		exportDir: exportDir,
		date:      time.Now().Format(DateLayout),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return s, nil
}

// Snapshot returns a copy of the current view. The attendance map is
// shared read-only; it is replaced wholesale on every reload, never
// mutated in place.
func (s *Service) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// AddStudent validates, inserts, and reloads. The duplicate pre-check can
// race a concurrent insert; the store's uniqueness constraint catches that
// and it is reported the same way.
func (s *Service) AddStudent(ctx context.Context, name string) (model.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Student{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.FindStudentByName(ctx, name)
	if err != nil {
		return model.Student{}, err
	}
	if existing != nil {
		return model.Student{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	st := model.Student{Name: name, CreatedAt: time.Now().UTC()}
	st.ID, err = s.store.InsertStudent(ctx, st.Name, st.CreatedAt)
	if err != nil {
		if errors.Is(err, store.ErrConstraint) {
			return model.Student{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		return model.Student{}, err
	}
	metrics.StudentMutations.WithLabelValues("add").Inc()
	return st, s.reload(ctx)
}

// RemoveStudent deletes the student and, atomically, every attendance row
// referencing it, then reloads. Confirmation is the caller's concern.
func (s *Service) RemoveStudent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	metrics.StudentMutations.WithLabelValues("remove").Inc()
	return s.reload(ctx)
}

// MarkAttendance upserts the mark for the selected date and reloads.
// Re-marking the same student overwrites; the row count for the
// (student, date) pair stays at one.
func (s *Service) MarkAttendance(ctx context.Context, studentID int64, isPresent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpsertAttendance(ctx, studentID, s.date, isPresent); err != nil {
		return err
	}
	metrics.MarksRecorded.Inc()
	return s.reload(ctx)
}

// SelectDate switches the active date and reloads attendance for it.
func (s *Service) SelectDate(ctx context.Context, date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if t.Before(minDate) || t.After(time.Now().AddDate(1, 0, 0)) {
		return fmt.Errorf("%w: %s out of range", ErrInvalidDate, date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = t.Format(DateLayout)
	return s.reload(ctx)
}

// SelectedDate returns the active date.
func (s *Service) SelectedDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// reload replaces the cached snapshot from the store. Callers hold the
// mutex.
func (s *Service) reload(ctx context.Context) error {
	s.snap.Loading = true

	students, err := s.store.ListStudents(ctx)
	if err != nil {
		s.snap.Loading = false
		return err
	}
	records, err := s.store.QueryAttendance(ctx, s.date)
	if err != nil {
		s.snap.Loading = false
		return err
	}

	m := make(map[int64]bool, len(records))
	for _, r := range records {
		m[r.StudentID] = r.IsPresent
	}
	s.snap = model.Snapshot{
		Students:      students,
		AttendanceMap: m,
		SelectedDate:  s.date,
	}
	return nil
}
