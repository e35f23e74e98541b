package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"go-med-predict/internal/auth"
	"go-med-predict/internal/event"
	"go-med-predict/internal/model"
	"go-med-predict/pkg/apierror"
)

const (
	// bcrypt only looks at the first 72 bytes of a password.
	maxPasswordBytes = 72
	maxUsernameLen   = 80
)

type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	UpdatePassword(ctx context.Context, u model.User) error
	List(ctx context.Context) ([]model.User, error)
}

type AuthService struct {
	users  UserStore
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	bus    event.Bus
	now    func() time.Time
}

func NewAuthService(users UserStore, hasher *auth.PasswordHasher, tokens *auth.TokenService, bus event.Bus) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		bus:    bus,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.User, error) {
	username := strings.TrimSpace(req.Username)
	role := strings.ToLower(strings.TrimSpace(req.UserType))

	switch {
	case username == "":
		return model.User{}, apierror.MissingField("username")
	case req.Password == "":
		return model.User{}, apierror.MissingField("password")
	case strings.TrimSpace(req.DOB) == "":
		return model.User{}, apierror.MissingField("dob")
	}

	if utf8.RuneCountInString(username) > maxUsernameLen {
		return model.User{}, apierror.BadRequest("username is too long", fmt.Sprintf("at most %d characters", maxUsernameLen))
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return model.User{}, err
	}

	dob, err := parseDOB(req.DOB)
	if err != nil {
		return model.User{}, err
	}

	if role == "" {
		role = model.RoleUser
	}
	if !model.IsValidRole(role) {
		return model.User{}, apierror.BadRequest("invalid user_type", role)
	}

	user, err := s.createUser(ctx, username, req.Password, role, dob)
	if err != nil {
		return model.User{}, err
	}

	s.publish(event.TypeUserSignedUp, user.ID, map[string]any{"username": user.Username, "role": user.Role})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.LoginResult{}, apierror.MissingField("username")
	}
	if req.Password == "" {
		return model.LoginResult{}, apierror.MissingField("password")
	}

	user, err := s.verifyCredentials(ctx, username, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) || errors.Is(err, model.ErrInvalidCredentials) {
			s.publish(event.TypeLoginFailed, "", map[string]any{"username": username})
			return model.LoginResult{}, apierror.Unauthorized("invalid credentials", "")
		}
		return model.LoginResult{}, err
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return model.LoginResult{}, err
	}

	s.publish(event.TypeLoginSucceeded, user.ID, map[string]any{"username": user.Username})

	return model.LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user.View(),
	}, nil
}

// verifyCredentials distinguishes an unknown user from a wrong password for
// callers; the dummy compare keeps both paths equally slow.
func (s *AuthService) verifyCredentials(ctx context.Context, username string, password string) (model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		s.hasher.VerifyDummy(password)
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		return apierror.MissingField("username")
	case req.OldPassword == "":
		return apierror.MissingField("old_password")
	case req.NewPassword == "":
		return apierror.MissingField("new_password")
	}

	if err := checkPasswordLength(req.NewPassword); err != nil {
		return err
	}

	user, err := s.verifyCredentials(ctx, username, req.OldPassword)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("user not found", username)
	case errors.Is(err, model.ErrInvalidCredentials):
		return apierror.Unauthorized("invalid old password", "")
	case err != nil:
		return err
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

// SetPassword replaces a password without checking the old one. It backs
// the admin CLI.
func (s *AuthService) SetPassword(ctx context.Context, username string, password string) error {
	if password == "" {
		return apierror.MissingField("password")
	}
	if err := checkPasswordLength(password); err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("user not found", username)
	}
	if err != nil {
		return err
	}

	return s.setPassword(ctx, user, password)
}

func (s *AuthService) setPassword(ctx context.Context, user model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.users.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.NotFound("user not found", user.Username)
		}
		return err
	}

	s.publish(event.TypePasswordReset, user.ID, map[string]any{"username": user.Username})
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.User{}, apierror.NotFound("user not found", id)
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user not found", id)
	}
	return user, err
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

// Authenticate verifies a raw Authorization value and resolves the user it
// names. Every rejection is a *auth.TokenError.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.AuthClaims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		s.publishRejection(err, "")
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		err = &auth.TokenError{Reason: auth.ReasonInvalid, Err: model.ErrUserNotFound}
		s.publishRejection(err, claims.UserID)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token user: %w", err)
	}

	claims.Username = user.Username
	claims.Role = user.Role
	return claims, nil
}

// SeedDefaultAdmin creates the admin account on first boot. An existing
// user with that name is left untouched.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context, username string, password string, dob string) error {
	if strings.TrimSpace(username) == "" {
		return nil
	}

	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	date, err := parseDOB(dob)
	if err != nil {
		return fmt.Errorf("default admin dob: %w", err)
	}

	user, err := s.createUser(ctx, username, password, model.RoleAdmin, date)
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.CodeAlreadyExists {
			return nil
		}
		return err
	}

	slog.Info("default admin created", "username", user.Username)
	return nil
}

// CreateUser is the admin CLI entry point; it accepts any valid role.
func (s *AuthService) CreateUser(ctx context.Context, username string, password string, role string, dob string) (model.User, error) {
	return s.Signup(ctx, model.SignupRequest{Username: username, Password: password, DOB: dob, UserType: role})
}

func (s *AuthService) createUser(ctx context.Context, username string, password string, role string, dob time.Time) (model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		DateOfBirth:  dob,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return model.User{}, apierror.New(apierror.CodeAlreadyExists, "username already exists", username, http.StatusBadRequest)
	}
	if err != nil {
		return model.User{}, err
	}

	return created, nil
}

func (s *AuthService) publishRejection(err error, actorID string) {
	s.publish(event.TypeTokenRejected, actorID, map[string]any{"reason": string(auth.ReasonOf(err))})
}

func (s *AuthService) publish(t event.Type, actorID string, payload map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(t, actorID, payload))
}

func parseDOB(raw string) (time.Time, error) {
	dob, err := time.Parse(model.DateOfBirthLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apierror.BadRequest("invalid date format, expected DD-MM-YYYY", raw)
	}
	return dob, nil
}

func checkPasswordLength(password string) error {
	if len(password) > maxPasswordBytes {
		return apierror.BadRequest("password is too long", fmt.Sprintf("at most %d bytes", maxPasswordBytes))
	}
	return nil
}
