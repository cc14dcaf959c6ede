package api

import (
	"log/slog"
	"net/http"
	"time"
)

// minPasswordLen is the minimum password length accepted at registration.
// Short passwords give bcrypt nothing to work with.
const minPasswordLen = 8

// Register handles POST /users.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	user, err := a.svc.Register(req.Email, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.logEvent(AuditRegister, r, user.ID)
	writeJSON(w, http.StatusCreated, RegisterResponse{Email: user.Email, Message: "user created"})
}

// Login handles POST /sessions.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := a.svc.Login(req.Email, req.Password)
	if err != nil {
		a.audit.logFailure(AuditLoginFailure, r, "invalid credentials",
			slog.String("email", req.Email))
		mapError(w, err)
		return
	}

	a.writeSessionCookie(w, r, token)
	a.audit.log(AuditLoginSuccess, r, slog.String("email", req.Email))
	writeJSON(w, http.StatusOK, LoginResponse{Email: req.Email, Message: "logged in"})
}

// Logout handles DELETE /sessions.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	token := a.sessionToken(r)
	if token == "" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if !a.svc.Logout(token) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	a.clearSessionCookie(w, r)
	a.audit.log(AuditLogout, r)
	writeJSON(w, http.StatusOK, struct{}{})
}

// Profile handles GET /profile.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Email: user.Email})
}

// Me handles GET /users/me.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// ResetPasswordToken handles POST /reset_password.
func (a *API) ResetPasswordToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[ResetTokenRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	token, err := a.svc.ResetPasswordToken(req.Email)
	if err != nil {
		a.audit.logFailure(AuditResetRequested, r, "unknown email")
		mapError(w, err)
		return
	}
	a.audit.log(AuditResetRequested, r, slog.String("email", req.Email))
	writeJSON(w, http.StatusOK, ResetTokenResponse{Email: req.Email, ResetToken: token})
}

// UpdatePassword handles PUT /reset_password.
func (a *API) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[UpdatePasswordRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	if err := a.svc.UpdatePassword(req.ResetToken, req.NewPassword); err != nil {
		a.audit.logFailure(AuditPasswordChanged, r, "invalid reset token")
		mapError(w, err)
		return
	}
	a.audit.log(AuditPasswordChanged, r, slog.String("email", req.Email))
	writeJSON(w, http.StatusOK, UpdatePasswordResponse{Email: req.Email, Message: "Password updated"})
}
