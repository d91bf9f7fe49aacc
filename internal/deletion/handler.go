package deletion

import (
	"errors"

	"github.com/studyhub/studyhub-api/internal/database"
	"github.com/studyhub/studyhub-api/internal/response"

	"github.com/gofiber/fiber/v2"
)

// Token-invalid responses deliberately share one message so callers cannot
// probe which tokens ever existed.
const invalidTokenMessage = "Invalid or expired token"

func RequestDeletionHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	req, _, err := IssueToken(database.DB, userID, body.Reason)
	if err != nil {
		if errors.Is(err, ErrActiveRequest) {
			return response.Conflict(c, "A deletion request is already in progress")
		}
		return response.InternalError(c, "Failed to create deletion request")
	}

	return response.Created(c, req, "Check your email to confirm account deletion")
}

func DeletionStatusHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	req, err := ActiveRequest(database.DB, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveRequest) {
			return response.NotFound(c, "Deletion request")
		}
		return response.InternalError(c, "Failed to load deletion request")
	}

	return response.Success(c, req, "")
}

func ConfirmDeletionHandler(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Token == "" {
		return response.ValidationError(c, map[string]string{
			"token": "token is required",
		})
	}

	req, err := ConfirmDeletion(database.DB, body.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenNotFound):
			return response.Error(c, fiber.StatusNotFound, "NOT_FOUND", invalidTokenMessage, nil)
		case errors.Is(err, ErrTokenExpired):
			return response.Gone(c, invalidTokenMessage)
		default:
			return response.InternalError(c, "Failed to confirm deletion")
		}
	}

	return response.Success(c, req, "Account deletion confirmed")
}

func CancelDeletionHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	req, err := CancelDeletion(database.DB, userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveRequest) {
			return response.NotFound(c, "Deletion request")
		}
		return response.InternalError(c, "Failed to cancel deletion request")
	}

	return response.Success(c, req, "Account deletion cancelled")
}

func DataSummaryHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	counts, err := CountUserData(database.DB, userID)
	if err != nil {
		return response.InternalError(c, "Failed to count user data")
	}

	return response.Success(c, counts, "")
}

// DispatchRemindersHandler is the operator-triggered reminder job, invoked
// daily by an external scheduler through the admin-key guard.
func DispatchRemindersHandler(c *fiber.Ctx) error {
	sent, err := DispatchReminders(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to dispatch reminders")
	}

	return response.Success(c, fiber.Map{"reminders_sent": sent}, "Reminders dispatched")
}

func ProcessDeletionsHandler(c *fiber.Ctx) error {
	executed, err := ExecuteDueDeletions(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to execute due deletions")
	}

	return response.Success(c, fiber.Map{"deletions_executed": executed}, "Due deletions processed")
}
