package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/db"
	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/i18n"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/services"
)

const testSecretKey = "test-secret-key-with-at-least-32-bytes"

type testApp struct {
	app      *fiber.App
	handler  *Handler
	provider *identity.Provider
	moods    *services.MoodService
	feed     *docstore.MemoryChangeFeed
	sqlDB    *sql.DB
}

func newTestApp(t *testing.T) testApp {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "comoestou-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	feed := docstore.NewMemoryChangeFeed()
	store := docstore.NewGormStore(database, feed)
	provider, err := identity.NewProvider(identity.ProviderConfig{
		SecretKey: []byte(testSecretKey),
		Users:     db.NewUserRepository(database),
		Profiles:  store,
	})
	if err != nil {
		t.Fatalf("init provider: %v", err)
	}

	i18nManager, err := i18n.NewManager(i18n.LangPT)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	moods := services.NewMoodService(store, time.UTC)
	handler, err := NewHandler(HandlerConfig{
		Provider:        provider,
		Moods:           moods,
		I18n:            i18nManager,
		StreamHeartbeat: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}
	t.Cleanup(handler.CloseStreams)

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return testApp{app: app, handler: handler, provider: provider, moods: moods, feed: feed, sqlDB: sqlDB}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(request *http.Request) {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func withLanguage(language string) requestOption {
	return func(request *http.Request) {
		request.Header.Set("Accept-Language", language)
	}
}

func (env testApp) do(t *testing.T, method string, path string, body any, options ...requestOption) *http.Response {
	t.Helper()

	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(value)
	default:
		payload, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	request := httptest.NewRequest(method, path, reader)
	if reader != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for _, option := range options {
		option(request)
	}

	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func (env testApp) register(t *testing.T, email string) sessionResponse {
	t.Helper()

	response := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Ana Souza",
		"email":    email,
		"password": "segredo123",
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d", response.StatusCode)
	}
	session := sessionResponse{}
	decodeJSON(t, response, &session)
	if session.Token == "" || session.User.UID == "" {
		t.Fatalf("expected token and uid in register response, got %#v", session)
	}
	return session
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		t.Fatalf("decode response body %q: %v", string(payload), err)
	}
}

type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func readAPIError(t *testing.T, response *http.Response) apiErrorBody {
	t.Helper()
	body := apiErrorBody{}
	decodeJSON(t, response, &body)
	return body
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

// lockedBuffer lets a test read what a stream goroutine has written so far.
type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (buffer *lockedBuffer) Write(p []byte) (int, error) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	return buffer.buffer.Write(p)
}

func (buffer *lockedBuffer) String() string {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	return buffer.buffer.String()
}

func waitForOutput(t *testing.T, buffer *lockedBuffer, fragment string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buffer.String(), fragment) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in stream output:\n%s", fragment, buffer.String())
}
