// Package services holds the account resolution logic behind the HTTP API.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/logging"
	"github.com/dmitrijs2005/pennyplan/internal/server/identity"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/dmitrijs2005/pennyplan/internal/server/notify"
	"github.com/dmitrijs2005/pennyplan/internal/server/password"
	"github.com/dmitrijs2005/pennyplan/internal/server/repositories/users"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/pennyplan/internal/server/services")

// TokenIssuer mints and checks bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

type RegisterInput struct {
	UserName string
	Email    string
	Password string
}

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	Token   string
	User    *models.User
	Created bool
	Linked  bool
}

type UserService struct {
	users    users.Repository
	hasher   password.Hasher
	tokens   TokenIssuer
	verifier identity.Verifier
	notifier notify.Notifier
	log      logging.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewUserService wires the service. verifier may be nil when Google sign-in
// is not configured; ExternalLogin then rejects every token.
func NewUserService(
	repo users.Repository,
	hasher password.Hasher,
	tokens TokenIssuer,
	verifier identity.Verifier,
	notifier notify.Notifier,
	log logging.Logger,
) *UserService {
	return &UserService{
		users:    repo,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
		notifier: notifier,
		log:      log.With("module", "users"),
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer func() { endSpan(span, err) }()

	if len(in.Password) > password.MaxLength {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, password.MaxLength)
	}

	// fast path, the unique indexes below are authoritative
	_, err = s.users.GetUserByEmailOrUsername(ctx, in.Email, in.UserName)
	switch {
	case err == nil:
		return nil, common.ErrAccountExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.storeError(ctx, "lookup user", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user, err := s.users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		UserName:     in.UserName,
		Email:        in.Email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateKey) {
			return nil, common.ErrAccountExists
		}
		return nil, s.storeError(ctx, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "method", notify.MethodPassword)
	s.notifier.NotifyWelcome(ctx, user.Email, user.UserName, notify.MethodPassword)

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return &AuthResult{Token: token, User: user, Created: true}, nil
}

// Login fails with common.ErrInvalidCredentials for an unknown email, an
// account without a local password and a wrong password alike.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (res *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer func() { endSpan(span, err) }()

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(plaintext)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.storeError(ctx, "lookup user", err)
	}

	if !user.HasPassword() || len(plaintext) > password.MaxLength {
		s.burnVerify(plaintext)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password digest unusable", "user_id", user.ID, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// ExternalLogin signs in with a Google ID token. An unseen email creates an
// account, a local account gets the identity linked, a linked account is a
// repeat login.
func (s *UserService) ExternalLogin(ctx context.Context, rawToken string) (res *AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "UserService.ExternalLogin")
	defer func() { endSpan(span, err) }()

	if s.verifier == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", common.ErrInvalidExternalToken)
	}

	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		s.log.Debug(ctx, "external token rejected", "error", err)
		if !errors.Is(err, common.ErrInvalidExternalToken) {
			err = fmt.Errorf("%w: %v", common.ErrInvalidExternalToken, err)
		}
		return nil, err
	}

	res = &AuthResult{}

	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		user, res.Created, err = s.createExternal(ctx, claims)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, s.storeError(ctx, "lookup user", err)
	}

	if !res.Created {
		switch {
		case !user.HasExternalIdentity():
			if user, err = s.link(ctx, user, claims); err != nil {
				return nil, err
			}
			res.Linked = true
		case user.GoogleID != claims.Subject:
			s.log.Warn(ctx, "google subject changed for linked account",
				"user_id", user.ID, "stored_subject", user.GoogleID, "token_subject", claims.Subject)
		}
	}

	res.User = user
	if res.Token, err = s.issue(user); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("account.created", res.Created),
		attribute.Bool("account.linked", res.Linked),
	)
	return res, nil
}

// createExternal inserts a Google-only account. When a concurrent request
// wins the insert, the winner's record is returned with created=false. A
// username collision with a different account is retried once with the
// email as username.
func (s *UserService) createExternal(ctx context.Context, claims *identity.Claims) (*models.User, bool, error) {
	names := []string{claims.Name}
	if claims.Name == "" {
		names[0] = claims.Email
	} else if claims.Name != claims.Email {
		names = append(names, claims.Email)
	}

	for _, name := range names {
		user, err := s.users.Create(ctx, &models.User{
			ID:       uuid.NewString(),
			UserName: name,
			Email:    claims.Email,
			GoogleID: claims.Subject,
			Picture:  claims.Picture,
		})
		if err == nil {
			s.log.Info(ctx, "user registered", "user_id", user.ID, "method", notify.MethodGoogle)
			s.notifier.NotifyWelcome(ctx, user.Email, user.UserName, notify.MethodGoogle)
			return user, true, nil
		}
		if !errors.Is(err, common.ErrorDuplicateKey) {
			return nil, false, s.storeError(ctx, "create user", err)
		}

		existing, err := s.users.GetUserByEmail(ctx, claims.Email)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, false, s.storeError(ctx, "lookup user", err)
		}
		s.log.Debug(ctx, "username taken, retrying", "username", name)
	}

	return nil, false, fmt.Errorf("%w: username already taken", common.ErrAccountExists)
}

// link attaches the Google identity to a local account, leaving the
// password untouched.
func (s *UserService) link(ctx context.Context, user *models.User, claims *identity.Claims) (*models.User, error) {
	linked := user.Clone()
	linked.GoogleID = claims.Subject
	linked.Picture = claims.Picture

	updated, err := s.users.Update(ctx, linked)
	if err != nil {
		return nil, s.storeError(ctx, "link google identity", err)
	}

	s.log.Info(ctx, "google identity linked", "user_id", updated.ID)
	return updated, nil
}

// CurrentUser loads the profile behind a verified token.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (user *models.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.CurrentUser")
	defer func() { endSpan(span, err) }()

	user, err = s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.storeError(ctx, "lookup user", err)
	}
	return user, nil
}

// VerifyToken returns the user id a bearer token was issued for.
func (s *UserService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *UserService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}
	return token, nil
}

// burnVerify runs one verification against a throwaway digest, matching the
// cost of a real password check.
func (s *UserService) burnVerify(plaintext string) {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash(uuid.NewString())
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(plaintext, s.dummyDigest)
	}
}

func (s *UserService) storeError(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, "store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrStoreUnavailable, op, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !common.IsRejection(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
