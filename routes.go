package authcore

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AddAuthRoutes mounts the credential and session endpoints. The Google
// redirect pair is passed in as plain handlers so the OAuth protocol package
// stays independent of the router.
func AddAuthRoutes(r *mux.Router, auth *AuthController, mw *Middleware, googleStart, googleCallback http.Handler) {
	r.HandleFunc("/register", auth.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", auth.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/google-login", auth.HandleGoogleLogin).Methods(http.MethodPost)
	r.Handle("/logout", mw.EnsureUser(http.HandlerFunc(auth.HandleLogout))).Methods(http.MethodGet)

	r.HandleFunc("/forgotPassword", auth.HandleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/verifyResetCode", auth.HandleVerifyResetCode).Methods(http.MethodPost)
	r.HandleFunc("/resetPassword", auth.HandleResetPassword).Methods(http.MethodPut)

	if googleStart != nil {
		r.Handle("/google", googleStart).Methods(http.MethodGet)
	}
	if googleCallback != nil {
		r.Handle("/google/callback", googleCallback).Methods(http.MethodGet)
	}
}

// AddUserRoutes mounts the user-record endpoints. Reads are open; writes
// require a logged-in caller.
func AddUserRoutes(r *mux.Router, users *UserController, mw *Middleware) {
	r.HandleFunc("/users", users.HandleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/user/{userid}", users.HandleGetUser).Methods(http.MethodGet)
	r.Handle("/user/{userid}", mw.EnsureUser(http.HandlerFunc(users.HandleUpdateUser))).Methods(http.MethodPut)
	r.Handle("/user/{id}", mw.EnsureUser(http.HandlerFunc(users.HandleDeleteUser))).Methods(http.MethodDelete)
}
