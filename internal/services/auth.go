package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/knowledgepathways/backend/internal/pkg/ctxutil"
	"github.com/knowledgepathways/backend/internal/pkg/logger"
	"github.com/knowledgepathways/backend/internal/platform/apierr"
	"github.com/knowledgepathways/backend/internal/repos"
	"github.com/knowledgepathways/backend/internal/types"
)

const (
	maxFailedLogins = 5
	lockoutWindow   = 15 * time.Minute
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	email := normalizeEmail(input.Email)
	if vErr := validateRegistration(email, input.Password, input.FullName); vErr != nil {
		return nil, vErr
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		as.log.Error("Failed to hash password", "error", err)
		return nil, apierr.Internal(err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		FullName: input.FullName,
		Role:     types.RoleStudent,
		IsActive: true,
	}

	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, eErr := as.userRepo.EmailExists(ctx, tx, email)
		if eErr != nil {
			return apierr.Internal(fmt.Errorf("check email: %w", eErr))
		}
		if exists {
			return apierr.Conflict("email_taken", fmt.Errorf("email %s is already registered", email))
		}
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return apierr.Internal(fmt.Errorf("create user: %w", cErr))
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = normalizeEmail(email)

	users, uErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if uErr != nil {
		return "", "", apierr.Internal(fmt.Errorf("load user by email: %w", uErr))
	}
	if len(users) == 0 {
		return "", "", apierr.Unauthorized("invalid_credentials", fmt.Errorf("unknown email or wrong password"))
	}
	user := users[0]

	now := time.Now()
	if !user.IsActive {
		return "", "", apierr.Unauthorized("account_deactivated", fmt.Errorf("account is deactivated"))
	}
	if user.IsLocked(now) {
		return "", "", apierr.Unauthorized("account_locked", fmt.Errorf("account is locked until %s", user.LockedUntil.Format(time.RFC3339)))
	}

	if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); hErr != nil {
		as.recordFailedLogin(ctx, user, now)
		return "", "", apierr.Unauthorized("invalid_credentials", fmt.Errorf("unknown email or wrong password"))
	}

	var accessToken string
	var refreshToken string
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Any previous session for this user is invalidated on login.
		if dErr := as.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("drop old tokens: %w", dErr))
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return apierr.Internal(fmt.Errorf("generate access token: %w", genErr))
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    now.Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); cErr != nil {
			return apierr.Internal(fmt.Errorf("create user token: %w", cErr))
		}
		updates := map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_login_at":         now,
		}
		if upErr := as.userRepo.UpdateFields(ctx, tx, user.ID, updates); upErr != nil {
			return apierr.Internal(fmt.Errorf("reset login counters: %w", upErr))
		}
		return nil
	})
	if txErr != nil {
		return "", "", txErr
	}
	return accessToken, refreshToken, nil
}

// recordFailedLogin bumps the failure counter and locks the account
// after maxFailedLogins consecutive misses. Best effort: a write
// failure here must not mask the credential error.
func (as *authService) recordFailedLogin(ctx context.Context, user *types.User, now time.Time) {
	attempts := user.FailedLoginAttempts + 1
	updates := map[string]interface{}{
		"failed_login_attempts": attempts,
	}
	if attempts >= maxFailedLogins {
		updates["locked_until"] = now.Add(lockoutWindow)
	}
	if err := as.userRepo.UpdateFields(ctx, nil, user.ID, updates); err != nil {
		as.log.Warn("Failed to record failed login attempt", "error", err, "user_id", user.ID)
	}
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", apierr.Unauthorized("missing_refresh_token", fmt.Errorf("no refresh token in request context"))
	}

	var accessToken string
	var newRefreshToken string
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, ftErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if ftErr != nil {
			return apierr.Internal(fmt.Errorf("load refresh token: %w", ftErr))
		}
		if len(foundTokens) == 0 {
			return apierr.Unauthorized("invalid_refresh_token", fmt.Errorf("refresh token not recognized"))
		}
		existing := foundTokens[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
				return apierr.Internal(fmt.Errorf("delete expired token: %w", dErr))
			}
			return apierr.Unauthorized("refresh_token_expired", fmt.Errorf("refresh token expired"))
		}
		users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
		if uErr != nil {
			return apierr.Internal(fmt.Errorf("load user for refresh: %w", uErr))
		}
		if len(users) == 0 || !users[0].IsActive {
			return apierr.Unauthorized("account_deactivated", fmt.Errorf("account is deactivated"))
		}
		user := users[0]

		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return apierr.Internal(fmt.Errorf("generate access token: %w", genErr))
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		newToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{newToken}); cErr != nil {
			return apierr.Internal(fmt.Errorf("create rotated token: %w", cErr))
		}
		if dErr := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("delete rotated-out token: %w", dErr))
		}
		return nil
	})
	if txErr != nil {
		return "", "", txErr
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("missing_token", fmt.Errorf("no access token in request context"))
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
		if ftErr != nil {
			return apierr.Internal(fmt.Errorf("find token: %w", ftErr))
		}
		if len(foundTokens) == 0 {
			return nil
		}
		if dErr := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{foundTokens[0].ID}); dErr != nil {
			return apierr.Internal(fmt.Errorf("delete token: %w", dErr))
		}
		return nil
	})
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			// Claims have second precision. The unique ID keeps two
			// tokens minted in the same second from colliding.
			ID: uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// parseAccessToken verifies signature and expiry without touching the
// database.
func (as *authService) parseAccessToken(tokenString string) (*JWTClaims, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return nil, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid or expired token"))
	}
	return claims, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing_token", fmt.Errorf("missing bearer token"))
	}
	claims, err := as.parseAccessToken(tokenString)
	if err != nil {
		return ctx, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}

	foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if ftErr != nil {
		return ctx, apierr.Internal(fmt.Errorf("load token row: %w", ftErr))
	}
	if len(foundTokens) == 0 {
		// Signature is fine but the session was logged out or rotated.
		return ctx, apierr.Unauthorized("session_revoked", fmt.Errorf("token no longer active"))
	}

	users, uErr := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if uErr != nil {
		return ctx, apierr.Internal(fmt.Errorf("load user: %w", uErr))
	}
	if len(users) == 0 || !users[0].IsActive {
		return ctx, apierr.Unauthorized("account_deactivated", fmt.Errorf("account is deactivated"))
	}

	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: foundTokens[0].RefreshToken,
		UserID:       userID,
		Role:         claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
