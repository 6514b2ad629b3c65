package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Mojahedhu/Mojahed-Store/internal/auth"
	"github.com/Mojahedhu/Mojahed-Store/internal/domain"
)

// UserService manages accounts and credential checks. Token minting stays in
// the HTTP layer; this service only proves who the caller is.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// RegisterInput is a new-account request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an account with a hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case in.Username == "":
		return nil, domain.Validation("username is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, domain.Validation("a valid email is required")
	case len(in.Password) < 6:
		return nil, domain.Validation("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials. Wrong email and wrong password produce the
// same error so the endpoint does not leak which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Unauthorized("invalid email or password")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.Unauthorized("invalid email or password")
	}
	return user, nil
}

// GetProfile returns the principal's own account.
func (s *UserService) GetProfile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.users.FindByID(ctx, p.UserID)
}

// UpdateProfileInput carries the fields a user may change on their own
// account. Empty fields are left untouched.
type UpdateProfileInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfile updates the principal's own account.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		if !strings.Contains(email, "@") {
			return nil, domain.Validation("a valid email is required")
		}
		user.Email = email
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, domain.Validation("password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, p domain.Principal) ([]domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.users.FindAll(ctx)
}

// GetUser returns one account. Admin only.
func (s *UserService) GetUser(ctx context.Context, p domain.Principal, id string) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// UpdateUserInput carries the fields an admin may change on any account.
type UpdateUserInput struct {
	Username string
	Email    string
	IsAdmin  *bool
}

// UpdateUser updates any account. Admin only.
func (s *UserService) UpdateUser(ctx context.Context, p domain.Principal, id string, in UpdateUserInput) (*domain.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		if !strings.Contains(email, "@") {
			return nil, domain.Validation("a valid email is required")
		}
		user.Email = email
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Admin only; admin accounts themselves
// cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, p domain.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return domain.Validation("cannot delete admin user")
	}
	return s.users.Delete(ctx, user.ID)
}
