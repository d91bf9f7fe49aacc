package deletion

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/studyhub/studyhub-api/internal/config"
	"github.com/studyhub/studyhub-api/internal/mailer"
	"github.com/studyhub/studyhub-api/internal/models"
	"github.com/studyhub/studyhub-api/internal/utils"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound   = errors.New("deletion token not found")
	ErrTokenExpired    = errors.New("deletion token expired")
	ErrActiveRequest   = errors.New("an active deletion request already exists")
	ErrNoActiveRequest = errors.New("no active deletion request")
)

// Settings holds the externally configured lifecycle durations. Nothing in
// the workflow is hardcoded; Configure is called once at startup and again
// by tests that need tighter windows.
type Settings struct {
	TokenTTL       time.Duration
	GracePeriod    time.Duration
	ReminderLead   time.Duration
	ReminderBuffer time.Duration
	AppBaseURL     string
}

var settings = Settings{
	TokenTTL:       24 * time.Hour,
	GracePeriod:    7 * 24 * time.Hour,
	ReminderLead:   24 * time.Hour,
	ReminderBuffer: 2 * time.Hour,
	AppBaseURL:     "http://localhost:3000",
}

func Configure(cfg *config.Config) {
	settings = Settings{
		TokenTTL:       cfg.TokenTTL,
		GracePeriod:    cfg.GracePeriod,
		ReminderLead:   cfg.ReminderLead,
		ReminderBuffer: cfg.ReminderBuffer,
		AppBaseURL:     cfg.AppBaseURL,
	}
}

var reasonPolicy = bluemonday.StrictPolicy()

var activeStatuses = []string{models.DeletionStatusPending, models.DeletionStatusConfirmed}

// IssueToken opens a deletion request for the user: a pending row with a
// hashed confirmation token valid for TokenTTL, and a confirmation email
// carrying the plain token. Returns ErrActiveRequest if the user already
// has a pending or confirmed request; the emailed token for that request
// stays valid, so replacing it would silently break the first email.
func IssueToken(db *gorm.DB, userID uint, reason string) (*models.DeletionRequest, string, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, "", err
	}

	var existing models.DeletionRequest
	if err := db.Where("user_id = ? AND status IN ?", userID, activeStatuses).First(&existing).Error; err == nil {
		return nil, "", ErrActiveRequest
	}

	plain, hash, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, "", err
	}

	req := models.DeletionRequest{
		UserID:         &user.ID,
		TokenHash:      hash,
		TokenExpiresAt: time.Now().Add(settings.TokenTTL),
		Status:         models.DeletionStatusPending,
		Reason:         reasonPolicy.Sanitize(reason),
	}

	if err := db.Create(&req).Error; err != nil {
		return nil, "", err
	}

	confirmURL := fmt.Sprintf("%s/account/deletion/confirm?token=%s", settings.AppBaseURL, plain)
	html, err := mailer.RenderDeletionConfirm(mailer.ConfirmEmailData{
		Name:       user.Name,
		ConfirmURL: confirmURL,
		ExpiresAt:  req.TokenExpiresAt,
	})
	if err != nil {
		log.Printf("⚠️  Failed to render deletion confirmation email: %v", err)
		return &req, plain, nil
	}
	if err := mailer.Send(user.Email, "Confirm your StudyHub account deletion", html); err != nil {
		log.Printf("⚠️  Failed to send deletion confirmation email to user %d: %v", user.ID, err)
	}

	return &req, plain, nil
}

// IsTokenExpired reports whether the confirmation token is past its expiry.
// The boundary instant itself still counts as valid.
func IsTokenExpired(req *models.DeletionRequest) bool {
	return isExpiredAt(req, time.Now())
}

func isExpiredAt(req *models.DeletionRequest, now time.Time) bool {
	return now.After(req.TokenExpiresAt)
}

// ConfirmDeletion resolves a plain confirmation token and moves the request
// from pending to confirmed, scheduling the deletion GracePeriod from now.
// The expiry check runs before any mutation; a failed attempt leaves the
// request untouched and the token unconsumed.
func ConfirmDeletion(db *gorm.DB, token string) (*models.DeletionRequest, error) {
	hash := utils.HashToken(token)

	var req models.DeletionRequest
	err := db.Where("token_hash = ? AND status = ?", hash, models.DeletionStatusPending).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if IsTokenExpired(&req) {
		return nil, ErrTokenExpired
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		snapshot, err := snapshotCounts(tx, *req.UserID)
		if err != nil {
			return err
		}

		deadline := time.Now().Add(settings.GracePeriod)
		req.Status = models.DeletionStatusConfirmed
		req.ScheduledDeletionAt = &deadline
		req.DataSnapshot = snapshot
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}

	return &req, nil
}

func snapshotCounts(db *gorm.DB, userID uint) (datatypes.JSON, error) {
	counts, err := CountUserData(db, userID)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ActiveRequest returns the user's pending or confirmed request, if any.
func ActiveRequest(db *gorm.DB, userID uint) (*models.DeletionRequest, error) {
	var req models.DeletionRequest
	err := db.Where("user_id = ? AND status IN ?", userID, activeStatuses).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRequest
		}
		return nil, err
	}
	return &req, nil
}

// CancelDeletion moves the user's active request to cancelled. Cancellation
// is terminal: reminder bookkeeping is never reset, a later deletion request
// starts a fresh row.
func CancelDeletion(db *gorm.DB, userID uint) (*models.DeletionRequest, error) {
	req, err := ActiveRequest(db, userID)
	if err != nil {
		return nil, err
	}

	req.Status = models.DeletionStatusCancelled
	if err := db.Save(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}
