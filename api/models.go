package api

// RegisterRequest is the JSON body for POST /users.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned from POST /users.
type RegisterResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// LoginRequest is the JSON body for POST /sessions.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /sessions.
type LoginResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ProfileResponse is returned from GET /profile.
type ProfileResponse struct {
	Email string `json:"email"`
}

// UserResponse is returned from GET /users/me.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// ResetTokenRequest is the JSON body for POST /reset_password.
type ResetTokenRequest struct {
	Email string `json:"email"`
}

// ResetTokenResponse is returned from POST /reset_password.
type ResetTokenResponse struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// UpdatePasswordRequest is the JSON body for PUT /reset_password.
type UpdatePasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// UpdatePasswordResponse is returned from PUT /reset_password.
type UpdatePasswordResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// StatusResponse is returned from GET /status.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
