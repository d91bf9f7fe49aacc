package deletion_test

import (
	"testing"
	"time"

	"github.com/studyhub/studyhub-api/internal/deletion"
	"github.com/studyhub/studyhub-api/internal/mailer"
	"github.com/studyhub/studyhub-api/internal/models"
	"github.com/studyhub/studyhub-api/internal/testutils"
	"github.com/studyhub/studyhub-api/internal/utils"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// ========== DELETION LIFECYCLE SERVICE TESTS ==========

func setupService(t *testing.T) (*gorm.DB, *mailer.Capture) {
	db := testutils.TestDB(t)
	capture := &mailer.Capture{}
	mailer.Use(capture)
	deletion.Configure(testutils.TestConfig())
	return db, capture
}

func seedRequest(t *testing.T, db *gorm.DB, userID uint, token, status string, expiresAt time.Time, scheduledAt, remindedAt *time.Time) *models.DeletionRequest {
	req := &models.DeletionRequest{
		UserID:              &userID,
		TokenHash:           utils.HashToken(token),
		TokenExpiresAt:      expiresAt,
		Status:              status,
		ScheduledDeletionAt: scheduledAt,
		ReminderSentAt:      remindedAt,
	}
	assert.NoError(t, db.Create(req).Error)
	return req
}

func TestIssueToken(t *testing.T) {
	db, capture := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")

	t.Run("Success - Creates pending request with 24h token", func(t *testing.T) {
		req, plain, err := deletion.IssueToken(db, user.ID, "moving to another platform")
		assert.NoError(t, err)
		assert.NotEmpty(t, plain)
		assert.Equal(t, models.DeletionStatusPending, req.Status)
		assert.Equal(t, user.ID, *req.UserID)
		assert.Nil(t, req.ScheduledDeletionAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), req.TokenExpiresAt, 5*time.Second)

		// Token stored hashed, never plain
		assert.Equal(t, utils.HashToken(plain), req.TokenHash)
		assert.NotContains(t, req.TokenHash, plain)

		// Confirmation email went out to the account owner
		assert.Len(t, capture.Sent, 1)
		assert.Equal(t, user.Email, capture.Sent[0].To)
		assert.Contains(t, capture.Sent[0].Body, plain)
	})

	t.Run("Error - Second request while one is active", func(t *testing.T) {
		_, _, err := deletion.IssueToken(db, user.ID, "")
		assert.ErrorIs(t, err, deletion.ErrActiveRequest)
	})

	t.Run("Sanitizes markup out of the reason", func(t *testing.T) {
		other := testutils.CreateTestUser(t, db, "other@test.com", "password")
		req, _, err := deletion.IssueToken(db, other.ID, `<script>alert(1)</script>too many emails`)
		assert.NoError(t, err)
		assert.NotContains(t, req.Reason, "<script>")
		assert.Contains(t, req.Reason, "too many emails")
	})
}

func TestConfirmDeletion(t *testing.T) {
	db, _ := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")

	t.Run("Error - Unknown token", func(t *testing.T) {
		_, err := deletion.ConfirmDeletion(db, "no-such-token")
		assert.ErrorIs(t, err, deletion.ErrTokenNotFound)
	})

	t.Run("Error - Expired token leaves the request untouched", func(t *testing.T) {
		seedRequest(t, db, user.ID, "expired-token", models.DeletionStatusPending,
			time.Now().Add(-1*time.Minute), nil, nil)

		_, err := deletion.ConfirmDeletion(db, "expired-token")
		assert.ErrorIs(t, err, deletion.ErrTokenExpired)

		var stored models.DeletionRequest
		db.Where("token_hash = ?", utils.HashToken("expired-token")).First(&stored)
		assert.Equal(t, models.DeletionStatusPending, stored.Status)
		assert.Nil(t, stored.ScheduledDeletionAt)
	})

	t.Run("Success - Just inside the expiry window", func(t *testing.T) {
		other := testutils.CreateTestUser(t, db, "other@test.com", "password")
		seedRequest(t, db, other.ID, "fresh-token", models.DeletionStatusPending,
			time.Now().Add(1*time.Minute), nil, nil)

		req, err := deletion.ConfirmDeletion(db, "fresh-token")
		assert.NoError(t, err)
		assert.Equal(t, models.DeletionStatusConfirmed, req.Status)
		assert.NotNil(t, req.ScheduledDeletionAt)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *req.ScheduledDeletionAt, 5*time.Second)
		assert.NotEmpty(t, req.DataSnapshot)
	})

	t.Run("Error - Confirmed token cannot be replayed", func(t *testing.T) {
		_, err := deletion.ConfirmDeletion(db, "fresh-token")
		assert.ErrorIs(t, err, deletion.ErrTokenNotFound)
	})
}

func TestIsTokenExpired(t *testing.T) {
	req := &models.DeletionRequest{TokenExpiresAt: time.Now().Add(1 * time.Hour)}
	assert.False(t, deletion.IsTokenExpired(req))

	req.TokenExpiresAt = time.Now().Add(-1 * time.Second)
	assert.True(t, deletion.IsTokenExpired(req))
}

func TestCancelDeletion(t *testing.T) {
	db, _ := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")

	t.Run("Error - Nothing to cancel", func(t *testing.T) {
		_, err := deletion.CancelDeletion(db, user.ID)
		assert.ErrorIs(t, err, deletion.ErrNoActiveRequest)
	})

	t.Run("Success - Confirmed request is cancellable before the deadline", func(t *testing.T) {
		sched := time.Now().Add(3 * 24 * time.Hour)
		seedRequest(t, db, user.ID, "cancel-me", models.DeletionStatusConfirmed,
			time.Now().Add(-2*time.Hour), &sched, nil)

		req, err := deletion.CancelDeletion(db, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.DeletionStatusCancelled, req.Status)

		_, err = deletion.ActiveRequest(db, user.ID)
		assert.ErrorIs(t, err, deletion.ErrNoActiveRequest)
	})
}

func TestCountUserData(t *testing.T) {
	db, _ := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")

	t.Run("Zero counts for a user with no data", func(t *testing.T) {
		counts, err := deletion.CountUserData(db, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), counts.Students)
		assert.Equal(t, int64(0), counts.Notes)
		assert.Equal(t, int64(0), counts.Flashcards)
		assert.Equal(t, int64(0), counts.Sessions)
		assert.Equal(t, int64(0), counts.AIInteractions)
	})

	t.Run("3 students, 5 notes, nothing else", func(t *testing.T) {
		students := make([]models.Student, 3)
		for i := range students {
			students[i] = models.Student{UserID: user.ID, Name: "Student", GradeYear: 5 + i}
			assert.NoError(t, db.Create(&students[i]).Error)
		}
		for i := 0; i < 5; i++ {
			note := models.Note{StudentID: students[i%3].ID, Subject: "Math", Title: "Fractions"}
			assert.NoError(t, db.Create(&note).Error)
		}

		counts, err := deletion.CountUserData(db, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), counts.Students)
		assert.Equal(t, int64(5), counts.Notes)
		assert.Equal(t, int64(0), counts.Flashcards)
		assert.Equal(t, int64(0), counts.Sessions)
		assert.Equal(t, int64(0), counts.AIInteractions)
	})

	t.Run("Join fan-out does not inflate counts", func(t *testing.T) {
		var student models.Student
		db.Where("user_id = ?", user.ID).First(&student)

		// Multiple rows in several relations for the same student: the
		// cross product would multiply naive counts.
		for i := 0; i < 3; i++ {
			assert.NoError(t, db.Create(&models.Flashcard{StudentID: student.ID, Front: "Q", Back: "A", Deck: "bio"}).Error)
		}
		for i := 0; i < 2; i++ {
			assert.NoError(t, db.Create(&models.StudySession{StudentID: student.ID, Subject: "Biology", StartedAt: time.Now()}).Error)
		}
		assert.NoError(t, db.Create(&models.AIInteraction{StudentID: student.ID, Prompt: "explain osmosis", Response: "..."}).Error)

		counts, err := deletion.CountUserData(db, user.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), counts.Students)
		assert.Equal(t, int64(5), counts.Notes)
		assert.Equal(t, int64(3), counts.Flashcards)
		assert.Equal(t, int64(2), counts.Sessions)
		assert.Equal(t, int64(1), counts.AIInteractions)
	})

	t.Run("Counts are scoped to the owning user", func(t *testing.T) {
		other := testutils.CreateTestUser(t, db, "other@test.com", "password")
		counts, err := deletion.CountUserData(db, other.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), counts.Students)
		assert.Equal(t, int64(0), counts.Notes)
	})
}

func TestReminderSelection(t *testing.T) {
	db, capture := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")
	farUser := testutils.CreateTestUser(t, db, "far@test.com", "password")
	pendingUser := testutils.CreateTestUser(t, db, "pending@test.com", "password")

	dueSoon := time.Now().Add(23 * time.Hour)
	farOut := time.Now().Add(5 * 24 * time.Hour)

	seedRequest(t, db, user.ID, "due-soon", models.DeletionStatusConfirmed,
		time.Now().Add(-2*time.Hour), &dueSoon, nil)
	seedRequest(t, db, farUser.ID, "far-out", models.DeletionStatusConfirmed,
		time.Now().Add(-2*time.Hour), &farOut, nil)
	seedRequest(t, db, pendingUser.ID, "still-pending", models.DeletionStatusPending,
		time.Now().Add(2*time.Hour), nil, nil)

	t.Run("Selects only confirmed requests inside the window", func(t *testing.T) {
		reqs, err := deletion.RequestsNeedingReminder(db)
		assert.NoError(t, err)
		assert.Len(t, reqs, 1)
		assert.Equal(t, user.ID, *reqs[0].UserID)
		// Contact info is eager-loaded with the selection
		assert.NotNil(t, reqs[0].User)
		assert.Equal(t, user.Email, reqs[0].User.Email)
	})

	t.Run("Dispatch sends once and marks the request", func(t *testing.T) {
		sent, err := deletion.DispatchReminders(db)
		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, capture.Sent, 1)
		assert.Equal(t, user.Email, capture.Sent[0].To)
		assert.Contains(t, capture.Sent[0].Body, "/account/deletion/cancel")

		var stored models.DeletionRequest
		db.Where("token_hash = ?", utils.HashToken("due-soon")).First(&stored)
		assert.NotNil(t, stored.ReminderSentAt)
	})

	t.Run("Second run is a no-op", func(t *testing.T) {
		capture.Reset()
		sent, err := deletion.DispatchReminders(db)
		assert.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.Empty(t, capture.Sent)
	})
}

func TestExecuteDueDeletions(t *testing.T) {
	db, _ := setupService(t)
	user := testutils.CreateTestUser(t, db, "parent@test.com", "password")

	student := models.Student{UserID: user.ID, Name: "Student", GradeYear: 7}
	assert.NoError(t, db.Create(&student).Error)
	assert.NoError(t, db.Create(&models.Note{StudentID: student.ID, Subject: "History", Title: "Rome"}).Error)
	assert.NoError(t, db.Create(&models.AIInteraction{StudentID: student.ID, Prompt: "quiz me", Response: "..."}).Error)
	assert.NoError(t, db.Create(&models.RefreshToken{UserID: user.ID, TokenHash: "abc", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	overdue := time.Now().Add(-1 * time.Hour)
	req := seedRequest(t, db, user.ID, "run-me", models.DeletionStatusConfirmed,
		time.Now().Add(-48*time.Hour), &overdue, nil)

	t.Run("Cascade runs and the audit row survives", func(t *testing.T) {
		executed, err := deletion.ExecuteDueDeletions(db)
		assert.NoError(t, err)
		assert.Equal(t, 1, executed)

		var stored models.DeletionRequest
		assert.NoError(t, db.First(&stored, req.ID).Error)
		assert.Equal(t, models.DeletionStatusCompleted, stored.Status)
		assert.Nil(t, stored.UserID)

		var userCount, studentCount, noteCount, aiCount, tokenCount int64
		db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&userCount)
		db.Model(&models.Student{}).Where("user_id = ?", user.ID).Count(&studentCount)
		db.Model(&models.Note{}).Where("student_id = ?", student.ID).Count(&noteCount)
		db.Model(&models.AIInteraction{}).Where("student_id = ?", student.ID).Count(&aiCount)
		db.Unscoped().Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&tokenCount)
		assert.Zero(t, userCount)
		assert.Zero(t, studentCount)
		assert.Zero(t, noteCount)
		assert.Zero(t, aiCount)
		assert.Zero(t, tokenCount)
	})

	t.Run("Completed requests are not picked up again", func(t *testing.T) {
		executed, err := deletion.ExecuteDueDeletions(db)
		assert.NoError(t, err)
		assert.Zero(t, executed)
	})
}
