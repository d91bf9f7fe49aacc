package deletion

import (
	"fmt"
	"log"
	"time"

	"github.com/studyhub/studyhub-api/internal/mailer"
	"github.com/studyhub/studyhub-api/internal/models"

	"gorm.io/gorm"
)

// RequestsNeedingReminder selects confirmed requests whose deadline falls
// inside the look-ahead window (ReminderLead plus a buffer for scheduler
// drift) and that have not been reminded yet. The owning user is loaded in
// the same pass; an earlier version of this job fetched each user one query
// at a time.
func RequestsNeedingReminder(db *gorm.DB) ([]models.DeletionRequest, error) {
	now := time.Now()
	horizon := now.Add(settings.ReminderLead + settings.ReminderBuffer)

	var reqs []models.DeletionRequest
	err := db.Preload("User").
		Where("status = ? AND reminder_sent_at IS NULL", models.DeletionStatusConfirmed).
		Where("scheduled_deletion_at > ? AND scheduled_deletion_at <= ?", now, horizon).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// DispatchReminders sends the reminder email for every eligible request and
// stamps reminder_sent_at afterwards, so a crash between send and stamp can
// only ever repeat a send (at-least-once). Re-running within the same
// window sends nothing.
func DispatchReminders(db *gorm.DB) (int, error) {
	reqs, err := RequestsNeedingReminder(db)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range reqs {
		req := &reqs[i]
		if req.User == nil || req.ScheduledDeletionAt == nil {
			continue
		}

		html, err := mailer.RenderDeletionReminder(mailer.ReminderEmailData{
			Name:        req.User.Name,
			ScheduledAt: *req.ScheduledDeletionAt,
			CancelURL:   fmt.Sprintf("%s/account/deletion/cancel", settings.AppBaseURL),
		})
		if err != nil {
			log.Printf("⚠️  Failed to render reminder for request %d: %v", req.ID, err)
			continue
		}

		if err := mailer.Send(req.User.Email, "Your StudyHub account will be deleted soon", html); err != nil {
			log.Printf("⚠️  Failed to send reminder for request %d: %v", req.ID, err)
			continue
		}

		now := time.Now()
		if err := db.Model(req).Update("reminder_sent_at", now).Error; err != nil {
			return sent, err
		}
		sent++
	}

	return sent, nil
}
