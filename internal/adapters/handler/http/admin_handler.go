package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syaqirshaq/fasting-tracker/internal/adapters/handler/http/middleware"
	"github.com/syaqirshaq/fasting-tracker/internal/core/workers"
)

type AdminHandler struct {
	reminders *workers.ReminderWorker
}

func NewAdminHandler(reminders *workers.ReminderWorker) *AdminHandler {
	return &AdminHandler{reminders: reminders}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.POST("/reminders/run", h.RunReminders)
	}
}

// RunReminders queues the reminder jobs on the worker. The jobs still apply
// their own time checks, so outside a check-in window nothing is sent.
func (h *AdminHandler) RunReminders(c *gin.Context) {
	job := workers.ReminderJob(c.DefaultQuery("job", string(workers.JobAll)))
	switch job {
	case workers.JobAll, workers.JobCheckin, workers.JobSummary:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "job must be one of all, checkin, summary"})
		return
	}

	if !h.reminders.Enqueue(job) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reminder queue is full, try again later"})
		return
	}

	operator, _ := middleware.GetOperator(c)
	log.Printf("[ADMIN] %s queued %s reminder job", operator, job)
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "job": job})
}
