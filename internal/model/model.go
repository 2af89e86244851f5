package model

import "time"

// Student represents a registered student.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AttendanceRecord represents the mark for one student on one day.
// At most one record exists per (student, date) pair.
type AttendanceRecord struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"` // ISO day, "2006-01-02"
	IsPresent bool   `json:"is_present"`
}

// Snapshot is the current view served to the presentation layer: the
// student roster plus the marks for the selected date. A student missing
// from the map is unmarked and renders as absent by default.
type Snapshot struct {
	Students      []Student      `json:"students"`
	AttendanceMap map[int64]bool `json:"attendance_map"`
	SelectedDate  string         `json:"selected_date"`
	Loading       bool           `json:"loading"`
}
