// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and profile lookup.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/cryptox"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/auth"
	"github.com/dmitrijs2005/wellkeeper/internal/server/config"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/dmitrijs2005/wellkeeper/internal/server/repositories/repomanager"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token string
	User  *models.User
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint access tokens
// - Profile: look up the authenticated user
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      logger.With("module", "users"),
	}
}

// Register validates in and creates a new user. An email that is already
// registered yields common.ErrDuplicateEmail and nothing is written.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	verr := validateStruct(in)
	var dob time.Time
	if in.DateOfBirth != "" {
		d, err := parseDate(in.DateOfBirth)
		if err != nil {
			verr.Add("dateOfBirth", err.Error())
		}
		dob = d
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		DateOfBirth:  dob,
		Gender:       in.Gender,
		PasswordHash: hash,
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies email and password and returns a signed access token.
// Unknown email and wrong password are reported identically.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateStruct(in).OrNil(); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep response time independent of whether the email exists
			cryptox.CheckPassword(dummyHash(), in.Password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, in.Password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Profile returns the user identified by userID.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

var (
	dummyHashOnce  sync.Once
	dummyHashValue string
)

func dummyHash() string {
	dummyHashOnce.Do(func() {
		h, err := cryptox.HashPassword("not-a-real-password")
		if err == nil {
			dummyHashValue = h
		}
	})
	return dummyHashValue
}
