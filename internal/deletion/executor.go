package deletion

import (
	"log"
	"time"

	"github.com/studyhub/studyhub-api/internal/models"

	"gorm.io/gorm"
)

// ExecuteDueDeletions runs the cascade for every confirmed request whose
// grace period has elapsed. Each request runs in its own transaction: study
// data, refresh tokens and the user row go, then the request flips to
// completed with user_id nulled out. The request row itself is never
// deleted; it is the audit record that outlives the account.
func ExecuteDueDeletions(db *gorm.DB) (int, error) {
	var due []models.DeletionRequest
	err := db.Where("status = ? AND scheduled_deletion_at <= ?", models.DeletionStatusConfirmed, time.Now()).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	executed := 0
	for i := range due {
		req := &due[i]
		if err := executeDeletion(db, req); err != nil {
			log.Printf("⚠️  Failed to execute deletion for request %d: %v", req.ID, err)
			continue
		}
		executed++
	}

	return executed, nil
}

func executeDeletion(db *gorm.DB, req *models.DeletionRequest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if req.UserID != nil {
			userID := *req.UserID

			var studentIDs []uint
			if err := tx.Model(&models.Student{}).Where("user_id = ?", userID).Pluck("id", &studentIDs).Error; err != nil {
				return err
			}

			if len(studentIDs) > 0 {
				if err := tx.Where("student_id IN ?", studentIDs).Delete(&models.Note{}).Error; err != nil {
					return err
				}
				if err := tx.Where("student_id IN ?", studentIDs).Delete(&models.Flashcard{}).Error; err != nil {
					return err
				}
				if err := tx.Where("student_id IN ?", studentIDs).Delete(&models.StudySession{}).Error; err != nil {
					return err
				}
				if err := tx.Where("student_id IN ?", studentIDs).Delete(&models.AIInteraction{}).Error; err != nil {
					return err
				}
			}

			if err := tx.Where("user_id = ?", userID).Delete(&models.Student{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&models.User{}, userID).Error; err != nil {
				return err
			}
		}

		req.Status = models.DeletionStatusCompleted
		req.UserID = nil
		return tx.Save(req).Error
	})
}
