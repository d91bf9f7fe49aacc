package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/studyhub/studyhub-api/internal/config"
	"github.com/studyhub/studyhub-api/internal/database"
	"github.com/studyhub/studyhub-api/internal/deletion"
	"github.com/studyhub/studyhub-api/internal/mailer"
	"github.com/studyhub/studyhub-api/internal/models"
	"github.com/studyhub/studyhub-api/internal/server"
	"github.com/studyhub/studyhub-api/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const TestAdminKey = "test-admin-key-for-local-runs"

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	err = db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Note{},
		&models.Flashcard{},
		&models.StudySession{},
		&models.AIInteraction{},
		&models.DeletionRequest{},
		&models.RefreshToken{},
	)
	assert.NoError(t, err, "Failed to migrate test database")

	return db
}

func TestConfig() *config.Config {
	cfg := config.Load()
	cfg.AdminAPIKey = TestAdminKey
	return cfg
}

// SetupTestApp boots the full app against an in-memory database with a
// capturing mailer. Returns the app and the mail capture.
func SetupTestApp(t *testing.T) (*fiber.App, *mailer.Capture) {
	db := TestDB(t)
	database.DB = db

	capture := &mailer.Capture{}
	mailer.Use(capture)

	cfg := TestConfig()
	deletion.Configure(cfg)
	utils.SetStorageMode(true)
	err := utils.InitLocalStorage()
	assert.NoError(t, err, "Failed to initialize storage")

	app := server.New(db, cfg)
	return app, capture
}

func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	hashedPassword, _ := utils.HashPassword(password)

	user := &models.User{
		Name:     "Test Parent",
		Email:    email,
		Password: hashedPassword,
		Provider: "local",
		Role:     models.RoleParent,
		Status:   "active",
	}

	err := db.Create(user).Error
	assert.NoError(t, err, "Failed to create test user")

	return user
}

func GetAuthToken(t *testing.T, userID uint, role string) string {
	token, err := utils.GenerateJWT(userID, role)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	return MakeRequestWithHeaders(app, method, url, body, token, nil)
}

func MakeRequestWithHeaders(app *fiber.App, method, url string, body interface{}, token string, headers map[string]string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	if result.Error != nil {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
