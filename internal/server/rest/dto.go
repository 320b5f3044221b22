package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/dmitrijs2005/pennyplan/internal/server/password"
)

const maxBodyBytes = 1 << 20

// validationError carries a message that is safe to return to the client.
type validationError string

func (e validationError) Error() string { return string(e) }
func (e validationError) Unwrap() error { return common.ErrorValidation }

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if r.Username == "" {
		return validationError("username is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)

	if r.Email == "" {
		return validationError("email is required")
	}
	if r.Password == "" {
		return validationError("password is required")
	}
	if len(r.Password) > password.MaxLength {
		return validationError(fmt.Sprintf("password must be at most %d bytes", password.MaxLength))
	}
	return nil
}

type GoogleVerifyRequest struct {
	Token string `json:"token"`
}

func (r *GoogleVerifyRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return validationError("No token provided")
	}
	return nil
}

type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
}

func toUserDTO(u *models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.UserName, Email: u.Email, Picture: u.Picture}
}

type AuthResponse struct {
	Message string  `json:"message,omitempty"`
	Token   string  `json:"token"`
	User    UserDTO `json:"user"`
}

type UserResponse struct {
	User UserDTO `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func validateEmail(email string) error {
	if email == "" {
		return validationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("email is invalid")
	}
	return nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return validationError("password is required")
	}
	if len(pw) > password.MaxLength {
		return validationError(fmt.Sprintf("password must be at most %d bytes", password.MaxLength))
	}
	return nil
}

type validator interface {
	Validate() error
}

// decodeJSON reads exactly one JSON object with only known fields into dst
// and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst validator) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return validationError("request body too large")
		}
		return validationError("invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return validationError("request body must contain a single JSON object")
	}

	return dst.Validate()
}
