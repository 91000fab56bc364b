package authcore_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gorilla/mux"

	"github.com/easytrans/authcore"
	"github.com/easytrans/authcore/stores"
)

// recorderMailer captures outbound mail so tests can pull the reset code out
// of the delivered body.
type recorderMailer struct {
	sent     []sentMail
	failWith error
}

type sentMail struct {
	to, subject, body string
}

func (m *recorderMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

var codePattern = regexp.MustCompile(`>(\d{6})<`)

func (m *recorderMailer) lastCode(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("no mail delivered")
	}
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].body)
	if match == nil {
		t.Fatal("no reset code found in mail body")
	}
	return match[1]
}

type testApp struct {
	router *mux.Router
	store  *stores.FSUserStore
	mailer *recorderMailer
	tokens *authcore.TokenIssuer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := stores.NewFSUserStore(t.TempDir())
	tokens := authcore.NewTokenIssuer("test-secret", false)
	mailer := &recorderMailer{}

	auth := &authcore.AuthController{
		Store:       store,
		Tokens:      tokens,
		Codes:       authcore.NewResetCodeManager(store),
		Resolver:    authcore.NewOAuthIdentityResolver(store, nil),
		Mailer:      mailer,
		FrontendURL: "https://app.example.com",
	}
	users := &authcore.UserController{Store: store}
	mw := &authcore.Middleware{Tokens: tokens}

	router := mux.NewRouter()
	authcore.AddAuthRoutes(router, auth, mw, nil, nil)
	authcore.AddUserRoutes(router, users, mw)
	return &testApp{router: router, store: store, mailer: mailer, tokens: tokens}
}

func (app *testApp) postJSON(t *testing.T, method, path string, payload map[string]any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return body
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == authcore.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestRegisterLoginFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.postJSON(t, "POST", "/register", map[string]any{
		"name": "Ann", "email": "Ann@Example.com", "password": "pw12345",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == authcore.SessionCookieName {
			t.Error("register must not start a session")
		}
	}

	// Same email again, any casing, is a conflict.
	w = app.postJSON(t, "POST", "/register", map[string]any{
		"name": "Ann2", "email": "ann@example.com", "password": "other",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", w.Code)
	}

	// Unknown email and wrong password are indistinguishable.
	for _, payload := range []map[string]any{
		{"email": "nobody@example.com", "password": "pw12345"},
		{"email": "ann@example.com", "password": "wrong"},
	} {
		w = app.postJSON(t, "POST", "/login", payload)
		if w.Code != http.StatusNotFound {
			t.Errorf("bad login: status %d, want 404", w.Code)
		}
		if msg := decodeBody(t, w)["message"]; msg != "Invalid login credentials." {
			t.Errorf("bad login message = %v", msg)
		}
	}

	w = app.postJSON(t, "POST", "/login", map[string]any{"email": "ann@example.com", "password": "pw12345"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d: %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("session cookie must be httpOnly")
	}
	claims, err := app.tokens.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("session cookie does not verify: %v", err)
	}
	if claims.Email != "ann@example.com" {
		t.Errorf("claims email = %q", claims.Email)
	}

	body := decodeBody(t, w)
	user, _ := body["user"].(map[string]any)
	if user == nil {
		t.Fatal("login response has no user")
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash leaked in response")
	}

	// Logout requires the session and clears the cookie.
	w = app.postJSON(t, "GET", "/logout", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous logout: status %d, want 401", w.Code)
	}
	w = app.postJSON(t, "GET", "/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status %d", w.Code)
	}
	if cleared := sessionCookie(t, w); cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("logout should expire the cookie: %+v", cleared)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	w := app.postJSON(t, "POST", "/register", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "pw12345",
	})
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}

	w = app.postJSON(t, "POST", "/forgotPassword", map[string]any{"email": "nobody@example.com"})
	if w.Code != http.StatusNotFound {
		t.Errorf("forgot for unknown email: status %d, want 404", w.Code)
	}

	w = app.postJSON(t, "POST", "/forgotPassword", map[string]any{"email": "ann@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot: status %d: %s", w.Code, w.Body.String())
	}
	code := app.mailer.lastCode(t)

	// Resetting before verifying the code is rejected.
	w = app.postJSON(t, "PUT", "/resetPassword", map[string]any{"email": "ann@example.com", "newPassword": "newpass99"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("reset before verify: status %d, want 400", w.Code)
	}
	if w := app.postJSON(t, "POST", "/login", map[string]any{"email": "ann@example.com", "password": "pw12345"}); w.Code != http.StatusOK {
		t.Error("rejected reset must leave the password untouched")
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	w = app.postJSON(t, "POST", "/verifyResetCode", map[string]any{"resetCode": wrong})
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong code: status %d, want 400", w.Code)
	}

	w = app.postJSON(t, "POST", "/verifyResetCode", map[string]any{"resetCode": code})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", w.Code, w.Body.String())
	}

	w = app.postJSON(t, "PUT", "/resetPassword", map[string]any{"email": "ann@example.com", "newPassword": "newpass99"})
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("reset response has no session token")
	}
	if _, err := app.tokens.Verify(token); err != nil {
		t.Errorf("reset token does not verify: %v", err)
	}

	// The challenge is consumed; the same code cannot be replayed.
	w = app.postJSON(t, "POST", "/verifyResetCode", map[string]any{"resetCode": code})
	if w.Code != http.StatusBadRequest {
		t.Errorf("replayed code: status %d, want 400", w.Code)
	}

	w = app.postJSON(t, "POST", "/login", map[string]any{"email": "ann@example.com", "password": "pw12345"})
	if w.Code != http.StatusNotFound {
		t.Errorf("old password still works: status %d", w.Code)
	}
	w = app.postJSON(t, "POST", "/login", map[string]any{"email": "ann@example.com", "password": "newpass99"})
	if w.Code != http.StatusOK {
		t.Errorf("new password rejected: status %d: %s", w.Code, w.Body.String())
	}

	user, err := app.store.GetUserByEmail(ctx, "ann@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.Reset != nil {
		t.Error("reset challenge not cleared from the store")
	}
}

func TestForgotPasswordDeliveryFailureRollsBack(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	w := app.postJSON(t, "POST", "/register", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "pw12345",
	})
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}

	app.mailer.failWith = errors.New("smtp down")
	w = app.postJSON(t, "POST", "/forgotPassword", map[string]any{"email": "ann@example.com"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("forgot with broken mail: status %d, want 500", w.Code)
	}

	user, err := app.store.GetUserByEmail(ctx, "ann@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if user.Reset != nil {
		t.Error("undeliverable challenge must be rolled back")
	}
}

func TestGoogleLoginPayload(t *testing.T) {
	app := newTestApp(t)

	w := app.postJSON(t, "POST", "/google-login", map[string]any{
		"name": "Ann", "email": "ann@example.com", "avatar": "https://g.example.com/p.png",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("google login: status %d: %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(t, w)
	claims, err := app.tokens.Verify(cookie.Value)
	if err != nil {
		t.Fatal(err)
	}
	firstID := claims.Subject

	// Same identity logging in again resolves to the same account.
	w = app.postJSON(t, "POST", "/google-login", map[string]any{
		"name": "Different Display Name", "email": "ann@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatal(w.Body.String())
	}
	claims, err = app.tokens.Verify(sessionCookie(t, w).Value)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != firstID {
		t.Errorf("second login resolved to %q, want %q", claims.Subject, firstID)
	}
	if claims.Name != "Ann" {
		t.Errorf("existing account name was overwritten: %q", claims.Name)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)
	cases := []map[string]any{
		{"email": "a@b.com", "password": "pw"},
		{"name": "Ann", "password": "pw"},
		{"name": "Ann", "email": "a@b.com"},
	}
	for i, payload := range cases {
		w := app.postJSON(t, "POST", "/register", payload)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status %d, want 400", i, w.Code)
		}
	}

	r := httptest.NewRequest("POST", "/register", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d, want 400", w.Code)
	}
}

func registerMany(t *testing.T, app *testApp, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		w := app.postJSON(t, "POST", "/register", map[string]any{
			"name":     fmt.Sprintf("User %d", i),
			"email":    fmt.Sprintf("user%d@example.com", i),
			"password": "pw12345",
		})
		if w.Code != http.StatusOK {
			t.Fatal(w.Body.String())
		}
	}
}
