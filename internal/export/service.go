package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyhub/studyhub-api/internal/models"
	"github.com/studyhub/studyhub-api/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Archive is the JSON document handed to a user who wants a copy of their
// data before (or instead of) deleting the account.
type Archive struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	User           models.User            `json:"user"`
	Students       []models.Student       `json:"students"`
	Notes          []models.Note          `json:"notes"`
	Flashcards     []models.Flashcard     `json:"flashcards"`
	Sessions       []models.StudySession  `json:"sessions"`
	AIInteractions []models.AIInteraction `json:"ai_interactions"`
}

func BuildArchive(db *gorm.DB, userID uint) (*Archive, error) {
	archive := &Archive{
		GeneratedAt:    time.Now(),
		Students:       []models.Student{},
		Notes:          []models.Note{},
		Flashcards:     []models.Flashcard{},
		Sessions:       []models.StudySession{},
		AIInteractions: []models.AIInteraction{},
	}

	if err := db.First(&archive.User, userID).Error; err != nil {
		return nil, err
	}

	if err := db.Where("user_id = ?", userID).Find(&archive.Students).Error; err != nil {
		return nil, err
	}

	studentIDs := make([]uint, 0, len(archive.Students))
	for _, s := range archive.Students {
		studentIDs = append(studentIDs, s.ID)
	}
	if len(studentIDs) == 0 {
		return archive, nil
	}

	if err := db.Where("student_id IN ?", studentIDs).Find(&archive.Notes).Error; err != nil {
		return nil, err
	}
	if err := db.Where("student_id IN ?", studentIDs).Find(&archive.Flashcards).Error; err != nil {
		return nil, err
	}
	if err := db.Where("student_id IN ?", studentIDs).Find(&archive.Sessions).Error; err != nil {
		return nil, err
	}
	if err := db.Where("student_id IN ?", studentIDs).Find(&archive.AIInteractions).Error; err != nil {
		return nil, err
	}

	return archive, nil
}

// StoreArchive serializes and persists the archive, returning its download
// URL. Archive names are random so URLs are not guessable in local mode.
func StoreArchive(archive *Archive) (string, error) {
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("studyhub-export-%s.json", uuid.New().String())
	return utils.StoreArchive(name, data)
}
