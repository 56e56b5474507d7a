package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/models"
	"marketplace-api/internal/util"

	"go.uber.org/zap"
)

// UserStore is the slice of the store the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// UserService handles registration and login.
type UserService struct {
	store  UserStore
	tokens *auth.TokenIssuer
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store UserStore, tokens *auth.TokenIssuer) *UserService {
	return &UserService{
		store:  store,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Type      string `json:"type"`
}

// Register creates a user account with a bcrypt password hash. Account
// type defaults to buyer.
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	fieldErrs := FieldErrors{}
	if req.Email == "" {
		fieldErrs["email"] = "This field is required"
	}
	if req.Password == "" {
		fieldErrs["password"] = "This field is required"
	}
	if req.Type != "" && req.Type != models.UserTypeBuyer && req.Type != models.UserTypeShop {
		fieldErrs["type"] = "Incorrect type of user"
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	if existing, err := s.store.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%s: %w", req.Email, ErrEmailExists)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userType := req.Type
	if userType == "" {
		userType = models.UserTypeBuyer
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		Position:     req.Position,
		Type:         userType,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("type", user.Type))
	return user, nil
}

// Login checks credentials and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	fieldErrs := FieldErrors{}
	if email == "" {
		fieldErrs["email"] = "This field is required"
	}
	if password == "" {
		fieldErrs["password"] = "This field is required"
	}
	if len(fieldErrs) > 0 {
		return "", fieldErrs
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// GetUser loads a user by ID, used by the auth middleware to attach the
// caller to the request.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}
