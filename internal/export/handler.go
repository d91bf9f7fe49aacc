package export

import (
	"github.com/studyhub/studyhub-api/internal/database"
	"github.com/studyhub/studyhub-api/internal/response"

	"github.com/gofiber/fiber/v2"
)

func CreateExportHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	archive, err := BuildArchive(database.DB, userID)
	if err != nil {
		return response.InternalError(c, "Failed to build data export")
	}

	url, err := StoreArchive(archive)
	if err != nil {
		return response.InternalError(c, "Failed to store data export")
	}

	return response.Created(c, fiber.Map{
		"url":          url,
		"generated_at": archive.GeneratedAt,
	}, "Data export ready")
}
