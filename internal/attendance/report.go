package attendance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DDS3579/attendance-manager/internal/metrics"
)

// WriteReport writes the attendance report for a day:
//
//	Attendance Report - January 10, 2024
//
//	Name,Status
//	Alice,Present
//	Bob,Absent
//
//	Summary
//	Total Students,2
//	Present,1
//	Absent,1
//
// Students with no mark for the day count as absent; no absent row is ever
// written back to the store for them.
func (s *Service) WriteReport(ctx context.Context, w io.Writer, date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	records, err := s.store.QueryAttendance(ctx, date)
	if err != nil {
		return err
	}
	marks := make(map[int64]bool, len(records))
	for _, r := range records {
		marks[r.StudentID] = r.IsPresent
	}

	// Title line is written raw; csv.Writer would quote the comma in the
	// human-readable date.
	if _, err := fmt.Fprintf(w, "Attendance Report - %s\n\n", t.Format("January 2, 2006")); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Status"}); err != nil {
		return err
	}
	present := 0
	for _, st := range students {
		status := "Absent"
		if marks[st.ID] {
			status = "Present"
			present++
		}
		if err := cw.Write([]string{st.Name, status}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	cw = csv.NewWriter(w)
	total := len(students)
	for _, row := range [][]string{
		{"Summary"},
		{"Total Students", strconv.Itoa(total)},
		{"Present", strconv.Itoa(present)},
		{"Absent", strconv.Itoa(total - present)},
	} {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the day's report to the export directory as
// attendance_<date>.csv and returns the file path. A failed export leaves
// no partial file behind and changes no application state.
func (s *Service) ExportCSV(ctx context.Context, date string) (string, error) {
	path, err := s.exportCSV(ctx, date)
	if err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.Exports.WithLabelValues("ok").Inc()
	return path, nil
}

func (s *Service) exportCSV(ctx context.Context, date string) (string, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export dir: %v", ErrExport, err)
	}

	path := filepath.Join(s.exportDir, "attendance_"+date+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrExport, path, err)
	}

	if err := s.WriteReport(ctx, f, date); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %v", ErrExport, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %v", ErrExport, path, err)
	}
	return path, nil
}
