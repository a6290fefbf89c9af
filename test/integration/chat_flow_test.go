package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"ai-chat-be/internal/bootstrap"
	"ai-chat-be/internal/config"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/server"
	"ai-chat-be/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupApp boots the full HTTP stack against the real database. Tests are
// skipped when DB_CONNECTION_STRING is not set.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}

	// The completion backend is not under test; point the factory at an
	// unreachable local ollama so failed completions degrade gracefully.
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://localhost:1")
	t.Setenv("JWT_SECRET", "integration-test-secret")
	t.Setenv("NATS_URL", "nats://localhost:1")

	cfg := config.Load()
	if cfg.Database.Connection == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	require.NoError(t, err, "Failed to connect to DB")

	require.NoError(t, model.Migrate(db))

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	return srv.GetApp(), db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req, 30000)
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *http.Response, out *T) {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", string(raw))
}

func registerAndLogin(t *testing.T, app *fiber.App, db *gorm.DB) (uuid.UUID, string) {
	t.Helper()
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	username := "it_" + suffix
	email := username + "@example.com"

	res := doJSON(t, app, "POST", "/api/users/", "", dto.RegisterRequest{
		Username: username, Email: email, Password: "secret123",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var created serverutils.BaseResponse[dto.UserResponse]
	decode(t, res, &created)

	t.Cleanup(func() {
		db.Exec("DELETE FROM messages WHERE chat_id IN (SELECT id FROM chats WHERE user_id = ?)", created.Data.Id)
		db.Exec("DELETE FROM chats WHERE user_id = ?", created.Data.Id)
		db.Exec("DELETE FROM user_refresh_tokens WHERE user_id = ?", created.Data.Id)
		db.Exec("DELETE FROM users WHERE id = ?", created.Data.Id)
	})

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", "secret123")
	req := httptest.NewRequest("POST", "/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenRes, err := app.Test(req, 30000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, tokenRes.StatusCode)

	var tokens dto.TokenResponse
	decode(t, tokenRes, &tokens)
	require.NotEmpty(t, tokens.AccessToken)

	return created.Data.Id, tokens.AccessToken
}

func TestChatLifecycle(t *testing.T) {
	app, db := setupApp(t)
	_, token := registerAndLogin(t, app, db)

	// Create with default title.
	res := doJSON(t, app, "POST", "/api/chats/", token, dto.CreateChatRequest{})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	var created serverutils.BaseResponse[dto.ChatResponse]
	decode(t, res, &created)
	assert.Equal(t, "New chat", created.Data.Title)
	assert.Nil(t, created.Data.LastMessageAt)
	chatId := created.Data.Id

	// Append a user message. The completion backend is down, so only the
	// user message lands; the request itself must still succeed.
	res = doJSON(t, app, "POST", fmt.Sprintf("/api/chats/%s/messages", chatId), token,
		dto.AppendMessageRequest{Role: "user", Content: "hello"})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	// Fetch detail: the message is there, last_message_at matches it.
	res = doJSON(t, app, "GET", fmt.Sprintf("/api/chats/%s", chatId), token, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	var detail serverutils.BaseResponse[dto.ChatDetailResponse]
	decode(t, res, &detail)
	require.NotEmpty(t, detail.Data.Messages)
	assert.Equal(t, "hello", detail.Data.Messages[0].Content)
	require.NotNil(t, detail.Data.LastMessageAt)
	last := detail.Data.Messages[len(detail.Data.Messages)-1]
	assert.True(t, detail.Data.LastMessageAt.Equal(last.CreatedAt))

	// Delete and observe 404 afterwards.
	res = doJSON(t, app, "DELETE", fmt.Sprintf("/api/chats/%s", chatId), token, nil)
	require.Equal(t, fiber.StatusNoContent, res.StatusCode)

	res = doJSON(t, app, "GET", fmt.Sprintf("/api/chats/%s", chatId), token, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
}

func TestChatOwnershipIsolation(t *testing.T) {
	app, db := setupApp(t)
	_, aliceToken := registerAndLogin(t, app, db)
	_, bobToken := registerAndLogin(t, app, db)

	res := doJSON(t, app, "POST", "/api/chats/", aliceToken, dto.CreateChatRequest{Title: "private"})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	var created serverutils.BaseResponse[dto.ChatResponse]
	decode(t, res, &created)
	chatId := created.Data.Id

	// Bob cannot see, message into, or delete Alice's chat; every route
	// answers 404, never 403.
	res = doJSON(t, app, "GET", fmt.Sprintf("/api/chats/%s", chatId), bobToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res = doJSON(t, app, "POST", fmt.Sprintf("/api/chats/%s/messages", chatId), bobToken,
		dto.AppendMessageRequest{Role: "user", Content: "intrusion"})
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res = doJSON(t, app, "DELETE", fmt.Sprintf("/api/chats/%s", chatId), bobToken, nil)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	// Bob's chat list stays empty.
	res = doJSON(t, app, "GET", "/api/chats/", bobToken, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	var list serverutils.BaseResponse[[]dto.ChatResponse]
	decode(t, res, &list)
	assert.Empty(t, list.Data)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	app, db := setupApp(t)

	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	username := "it_" + suffix
	email := username + "@example.com"

	res := doJSON(t, app, "POST", "/api/users/", "", dto.RegisterRequest{
		Username: username, Email: email, Password: "secret123",
	})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	var created serverutils.BaseResponse[dto.UserResponse]
	decode(t, res, &created)
	t.Cleanup(func() {
		db.Exec("DELETE FROM users WHERE id = ?", created.Data.Id)
	})

	// Same username, fresh email.
	res = doJSON(t, app, "POST", "/api/users/", "", dto.RegisterRequest{
		Username: username, Email: "other_" + email, Password: "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
	var conflict serverutils.BaseResponse[any]
	decode(t, res, &conflict)
	assert.Contains(t, conflict.Message, "username")

	// Fresh username, same email.
	res = doJSON(t, app, "POST", "/api/users/", "", dto.RegisterRequest{
		Username: username + "2", Email: email, Password: "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, res.StatusCode)
}

func TestUserDeleteCascadesAndInvalidatesToken(t *testing.T) {
	app, db := setupApp(t)
	userId, token := registerAndLogin(t, app, db)

	res := doJSON(t, app, "POST", "/api/chats/", token, dto.CreateChatRequest{Title: "doomed"})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)
	var created serverutils.BaseResponse[dto.ChatResponse]
	decode(t, res, &created)

	res = doJSON(t, app, "POST", fmt.Sprintf("/api/chats/%s/messages", created.Data.Id), token,
		dto.AppendMessageRequest{Role: "user", Content: "bye"})
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	res = doJSON(t, app, "DELETE", fmt.Sprintf("/api/users/%s", userId), token, nil)
	require.Equal(t, fiber.StatusNoContent, res.StatusCode)

	// Nothing is left behind.
	var chatCount, msgCount int64
	db.Table("chats").Where("user_id = ?", userId).Count(&chatCount)
	db.Table("messages").Where("chat_id = ?", created.Data.Id).Count(&msgCount)
	assert.Zero(t, chatCount)
	assert.Zero(t, msgCount)

	// The still-unexpired access token no longer resolves.
	res = doJSON(t, app, "GET", "/api/chats/", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestUpdateOtherUserForbidden(t *testing.T) {
	app, db := setupApp(t)
	_, aliceToken := registerAndLogin(t, app, db)
	bobId, _ := registerAndLogin(t, app, db)

	res := doJSON(t, app, "PUT", fmt.Sprintf("/api/users/%s", bobId), aliceToken, dto.UpdateUserRequest{
		Username: "hijacked", Email: "hijacked@example.com", Password: "secret123",
	})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
}
