package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/dmitrijs2005/pennyplan/internal/server/services"
)

// UserService is the account API the handlers need.
type UserService interface {
	TokenVerifier
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ExternalLogin(ctx context.Context, rawToken string) (*services.AuthResult, error)
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error registering user")
		return
	}

	s.logger.Info(ctx, "Registration request")

	res, err := s.users.Register(ctx, services.RegisterInput{
		UserName: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error registering user")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    toUserDTO(res.User),
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error logging in")
		return
	}

	res, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error logging in")
		return
	}

	user := toUserDTO(res.User)
	user.Picture = ""
	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    user,
	})
}

func (s *HTTPServer) googleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GoogleVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error verifying Google token")
		return
	}

	res, err := s.users.ExternalLogin(ctx, req.Token)
	if err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error verifying Google token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: res.Token, User: toUserDTO(res.User)})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.users.CurrentUser(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, s.logger, err, "Error loading user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: toUserDTO(user)})
}

func (s *HTTPServer) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Error(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
