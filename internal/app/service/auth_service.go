package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/storage"
	"github.com/viznest/viznest-backend/pkg/logger"
	"github.com/viznest/viznest-backend/pkg/util"
	"gorm.io/gorm"
)

const avatarFolder = "avatars"

// TokenRevoker remembers revoked token IDs until they would have expired anyway.
// RevokeOnce is atomic: it reports false if the id was already revoked.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error
	RevokeOnce(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// ProfileInput holds optional profile changes; nil fields are left alone
type ProfileInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Password *string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, access *util.Claims, refreshToken string) error
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, input ProfileInput) (*model.User, error)
	UploadAvatar(ctx context.Context, userID uint, upload FileUpload) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	revoker       TokenRevoker
	store         storage.Storage
	maxUpload     int64
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the account service. revoker may be nil, in which case
// logout is stateless and refresh tokens are not rotated out.
func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	store storage.Storage,
	maxUpload int64,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		revoker:       revoker,
		store:         store,
		maxUpload:     maxUpload,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	return util.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.jwtSecret, s.accessExpiry, s.refreshExpiry)
}

func (s *authService) emailTaken(email string, exceptID uint) (bool, error) {
	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != exceptID, nil
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := normalizeEmail(input.Email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
		"name":  input.Name,
	})

	if err := util.CheckPassword(input.Password); err != nil {
		return nil, nil, err
	}

	taken, err := s.emailTaken(email, 0)
	if err != nil {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if taken {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hashed,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		logger.Error("Failed to create user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	logger.Info("Attempting user login", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// Refresh trades a refresh token for a new pair. The used refresh token is revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	// claiming the token id is the rotation; of two concurrent refreshes only one wins
	if s.revoker != nil {
		claimed, err := s.revoker.RevokeOnce(ctx, claims.ID, claims.RemainingTTL())
		if err != nil {
			return nil, err
		}
		if !claimed {
			logger.Warn("Refresh rejected: token revoked", map[string]interface{}{
				"user_id": claims.UserID,
			})
			return nil, ErrInvalidRefreshToken
		}
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout revokes the access token and, when given, the refresh token
func (s *authService) Logout(ctx context.Context, access *util.Claims, refreshToken string) error {
	if s.revoker == nil || access == nil {
		return nil
	}

	if err := s.revoker.BlacklistToken(ctx, access.ID, access.RemainingTTL()); err != nil {
		logger.Error("Failed to blacklist access token", err, map[string]interface{}{
			"user_id": access.UserID,
		})
		return err
	}

	if refreshToken != "" {
		refresh, err := util.ValidateToken(refreshToken, s.jwtSecret)
		if err == nil && refresh.UserID == access.UserID && refresh.TokenType == util.TokenTypeRefresh {
			if err := s.revoker.BlacklistToken(ctx, refresh.ID, refresh.RemainingTTL()); err != nil {
				return err
			}
		}
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": access.UserID,
	})
	return nil
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByIDWithAddresses(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input ProfileInput) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != "" && email != user.Email {
			taken, err := s.emailTaken(email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}
	if input.Password != nil && *input.Password != "" {
		if err := util.CheckPassword(*input.Password); err != nil {
			return nil, err
		}
		hashed, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return s.GetProfile(userID)
}

func (s *authService) UploadAvatar(ctx context.Context, userID uint, upload FileUpload) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	url, err := saveImage(ctx, s.store, avatarFolder, upload, s.maxUpload)
	if err != nil {
		logger.Warn("Avatar upload rejected", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	user.Avatar = url
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Avatar updated", map[string]interface{}{
		"user_id": userID,
	})
	return s.GetProfile(userID)
}
