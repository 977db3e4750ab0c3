package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestRegisterMeAndLogout(t *testing.T) {
	env := newTestApp(t)

	response := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":        "Ana Souza",
		"email":       "Ana@Example.com",
		"password":    "segredo123",
		"remember_me": true,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}
	authCookie := responseCookie(response.Cookies(), authCookieName)
	if authCookie == nil || authCookie.Value == "" {
		t.Fatal("expected auth cookie after register")
	}
	if !authCookie.HttpOnly {
		t.Fatal("expected auth cookie to be http only")
	}
	if authCookie.Expires.IsZero() {
		t.Fatal("expected remember me cookie to carry an expiry")
	}

	session := sessionResponse{}
	decodeJSON(t, response, &session)
	if session.User.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", session.User.Email)
	}
	if session.User.Initials != "AS" {
		t.Fatalf("expected initials AS, got %q", session.User.Initials)
	}

	meResponse := env.do(t, http.MethodGet, "/api/auth/me", nil, withToken(session.Token))
	if meResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected me status 200, got %d", meResponse.StatusCode)
	}
	me := struct {
		User userResponse `json:"user"`
	}{}
	decodeJSON(t, meResponse, &me)
	if me.User.UID != session.User.UID {
		t.Fatalf("expected uid %q, got %q", session.User.UID, me.User.UID)
	}

	logoutResponse := env.do(t, http.MethodPost, "/api/auth/logout", nil, withToken(session.Token))
	if logoutResponse.StatusCode != http.StatusOK {
		t.Fatalf("expected logout status 200, got %d", logoutResponse.StatusCode)
	}
	cleared := responseCookie(logoutResponse.Cookies(), authCookieName)
	if cleared == nil || cleared.Value != "" {
		t.Fatal("expected logout to clear auth cookie")
	}

	afterLogout := env.do(t, http.MethodGet, "/api/auth/me", nil, withToken(session.Token))
	if afterLogout.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", afterLogout.StatusCode)
	}
}

func TestAuthRequiredAcceptsCookie(t *testing.T) {
	env := newTestApp(t)
	session := env.register(t, "cookie@example.com")

	request := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: authCookieName, Value: session.Token})
	}
	response := env.do(t, http.MethodGet, "/api/auth/me", nil, request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie session to be accepted, got %d", response.StatusCode)
	}

	missing := env.do(t, http.MethodGet, "/api/auth/me", nil)
	if missing.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", missing.StatusCode)
	}
	if body := readAPIError(t, missing); body.Error != codeUnauthorized {
		t.Fatalf("expected unauthorized code, got %q", body.Error)
	}

	garbage := env.do(t, http.MethodGet, "/api/auth/me", nil, withToken("not-a-token"))
	if garbage.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", garbage.StatusCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestApp(t)
	env.register(t, "taken@example.com")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "duplicate email",
			body:   map[string]any{"name": "Outra", "email": "TAKEN@example.com", "password": "segredo123"},
			status: http.StatusConflict,
			code:   codeEmailInUse,
		},
		{
			name:   "weak password",
			body:   map[string]any{"name": "Ana", "email": "weak@example.com", "password": "12345"},
			status: http.StatusBadRequest,
			code:   codeWeakPassword,
		},
		{
			name:   "invalid email",
			body:   map[string]any{"name": "Ana", "email": "not-an-email", "password": "segredo123"},
			status: http.StatusBadRequest,
			code:   codeInvalidEmail,
		},
		{
			name:   "missing name",
			body:   map[string]any{"name": "  ", "email": "noname@example.com", "password": "segredo123"},
			status: http.StatusBadRequest,
			code:   codeNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := env.do(t, http.MethodPost, "/api/auth/register", tt.body)
			if response.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, response.StatusCode)
			}
			if body := readAPIError(t, response); body.Error != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, body.Error)
			}
		})
	}
}

func TestLoginChecksCredentialsAndLocalizesErrors(t *testing.T) {
	env := newTestApp(t)
	env.register(t, "login@example.com")

	wrong := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "login@example.com",
		"password": "errada123",
	})
	if wrong.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", wrong.StatusCode)
	}
	body := readAPIError(t, wrong)
	if body.Error != codeInvalidCredentials {
		t.Fatalf("expected invalid credentials code, got %q", body.Error)
	}
	if body.Message != "Email ou senha incorretos" {
		t.Fatalf("expected portuguese message by default, got %q", body.Message)
	}

	english := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "login@example.com",
		"password": "errada123",
	}, withLanguage("en-US,en;q=0.9"))
	if body := readAPIError(t, english); body.Message != "Wrong email or password" {
		t.Fatalf("expected english message, got %q", body.Message)
	}

	ok := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    " LOGIN@example.com ",
		"password": "segredo123",
	})
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("expected login status 200, got %d", ok.StatusCode)
	}
	cookie := responseCookie(ok.Cookies(), authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie after login")
	}
	if !cookie.Expires.IsZero() {
		t.Fatal("expected session cookie without remember me")
	}
}

func TestLoginRateLimitsFailedAttempts(t *testing.T) {
	env := newTestApp(t)

	for attempt := 0; attempt < loginAttemptsLimit; attempt++ {
		response := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "segredo123",
		})
		if response.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", attempt+1, response.StatusCode)
		}
	}

	blocked := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "segredo123",
	})
	if blocked.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after %d failures, got %d", loginAttemptsLimit, blocked.StatusCode)
	}
	if blocked.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if body := readAPIError(t, blocked); body.Error != codeTooManyAttempts {
		t.Fatalf("expected too many attempts code, got %q", body.Error)
	}
}

func TestGoogleLoginWithoutVerifier(t *testing.T) {
	env := newTestApp(t)

	missing := env.do(t, http.MethodPost, "/api/auth/google", map[string]any{})
	if missing.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without id token, got %d", missing.StatusCode)
	}

	response := env.do(t, http.MethodPost, "/api/auth/google", map[string]any{"id_token": "header.payload.signature"})
	if response.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without google config, got %d", response.StatusCode)
	}
	if body := readAPIError(t, response); body.Error != codeGoogleUnavailable {
		t.Fatalf("expected google unavailable code, got %q", body.Error)
	}
}

func TestMalformedBodyIsInvalidInput(t *testing.T) {
	env := newTestApp(t)

	response := env.do(t, http.MethodPost, "/api/auth/login", "{")
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", response.StatusCode)
	}
	if body := readAPIError(t, response); body.Error != codeInvalidInput {
		t.Fatalf("expected invalid input code, got %q", body.Error)
	}
}

func TestLanguageCookieIsSetFromAcceptLanguage(t *testing.T) {
	env := newTestApp(t)

	response := env.do(t, http.MethodGet, "/healthz", nil, withLanguage("en"))
	cookie := responseCookie(response.Cookies(), languageCookieName)
	if cookie == nil || !strings.EqualFold(cookie.Value, "en") {
		t.Fatalf("expected language cookie en, got %#v", cookie)
	}
}
