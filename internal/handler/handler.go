package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DDS3579/attendance-manager/internal/attendance"
)

type Handler struct {
	svc *attendance.Service
}

func New(svc *attendance.Service) *Handler {
	return &Handler{svc: svc}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- State ----------

// GetState returns the current snapshot: roster, attendance map for the
// selected date, the date itself, and the loading flag.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Snapshot())
}

// ---------- Students ----------

type addStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) AddStudent(c *gin.Context) {
	var req addStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.svc.AddStudent(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) RemoveStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}

	if err := h.svc.RemoveStudent(c.Request.Context(), id); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- Attendance ----------

type markRequest struct {
	StudentID int64 `json:"student_id" binding:"required"`
	IsPresent *bool `json:"is_present" binding:"required"`
}

// MarkAttendance upserts a mark for the selected date. Both present and
// absent marks are accepted; a repeat overwrites.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.MarkAttendance(c.Request.Context(), req.StudentID, *req.IsPresent); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot())
}

type selectDateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h *Handler) SelectDate(c *gin.Context) {
	var req selectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SelectDate(c.Request.Context(), req.Date); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Snapshot())
}

// ---------- Export ----------

// ExportCSV writes the day's report into the export directory and streams
// it back as a download. Defaults to the selected date.
func (h *Handler) ExportCSV(c *gin.Context) {
	date := c.DefaultQuery("date", h.svc.SelectedDate())

	path, err := h.svc.ExportCSV(c.Request.Context(), date)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, attendance.ErrEmptyName),
		errors.Is(err, attendance.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, attendance.ErrDuplicateName):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
