package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StudentMutations counts roster changes by operation ("add", "remove").
	StudentMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_student_mutations_total",
		Help: "Roster mutations by operation.",
	}, []string{"op"})

	// MarksRecorded counts attendance upserts, including overwrites.
	MarksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_marks_recorded_total",
		Help: "Attendance marks recorded.",
	})

	// Exports counts CSV exports by outcome ("ok", "error").
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_exports_total",
		Help: "CSV exports by outcome.",
	}, []string{"status"})
)
