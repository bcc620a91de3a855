package services

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/ruralpay/ledger/internal/validators"
)

// Argon2Params are the argon2id cost parameters used for password hashes.
type Argon2Params struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength uint32
}

type AuthConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	Argon2    Argon2Params
}

// AuthService issues and resolves bearer tokens and manages the users
// behind them.
type AuthService struct {
	users  store.UserStore
	ledger *LedgerService
	redis  *redis.Client
	cfg    AuthConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users store.UserStore, ledger *LedgerService, redisClient *redis.Client, cfg AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		ledger: ledger,
		redis:  redisClient,
		cfg:    cfg,
		logger: logger.Named("auth"),
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Balance  models.Money
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a client user together with its account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validators.ValidateCredentials(in.Username, in.Password); err != nil {
		return nil, err
	}
	account, err := s.ledger.NewAccount(in.Name, in.Balance)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:       in.Username,
		HashedPassword: hashed,
		Role:           models.RoleClient,
		IsActive:       true,
	}
	if err := s.users.CreateUserWithAccount(ctx, user, account); err != nil {
		s.logger.Info("registration rejected", zap.String("username", in.Username), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.Int64("account_id", account.ID))

	return s.authResult(user)
}

// EnsureAdmin creates the admin user when no user with that name exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if err := validators.ValidateCredentials(username, password); err != nil {
		return err
	}
	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return err
	}

	hashed, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Username:       username,
		HashedPassword: hashed,
		Role:           models.RoleAdmin,
		IsActive:       true,
	}
	if err := s.users.CreateUserWithAccount(ctx, admin, nil); err != nil && !errors.IsAlreadyExists(err) {
		return err
	}
	s.logger.Info("admin user ensured", zap.String("username", username))
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Info("login for unknown user", zap.String("username", username))
			return nil, errors.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive || !s.verifyPassword(password, user.HashedPassword) {
		s.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, errors.ErrUnauthenticated
	}
	return s.authResult(user)
}

// Logout blacklists token for the token lifetime. Without Redis it is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.redis == nil || token == "" {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(token), "1", s.cfg.TokenTTL).Err(); err != nil {
		s.logger.Warn("failed to blacklist token", zap.Error(err))
	}
	return nil
}

// ResolvePrincipal verifies token and loads the active user it names.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, errors.ErrUnauthenticated
	}

	if s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistKey(token)).Result()
		if err != nil {
			s.logger.Warn("blacklist lookup failed", zap.Error(err))
		} else if n > 0 {
			return nil, errors.ErrUnauthenticated
		}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, errors.ErrUnauthenticated
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.ErrUnauthenticated
	}
	return models.PrincipalFor(user), nil
}

// Me returns the stored user behind principal.
func (s *AuthService) Me(ctx context.Context, principal *models.Principal) (*models.User, error) {
	if principal == nil {
		return nil, errors.ErrUnauthenticated
	}
	return s.users.GetUser(ctx, principal.UserID)
}

func (s *AuthService) ListUsers(ctx context.Context, principal *models.Principal) ([]*models.User, error) {
	if err := RequireAdmin(principal); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// DeleteUser removes username and, for clients, their account. Admins may
// delete any client; clients only themselves. Admin users are never deleted.
func (s *AuthService) DeleteUser(ctx context.Context, principal *models.Principal, username string) error {
	if principal == nil {
		return errors.ErrUnauthenticated
	}
	target, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() && principal.UserID != target.ID {
		return errors.ErrForbidden
	}
	if target.Role == models.RoleAdmin {
		return errors.ErrForbidden
	}

	if target.AccountID != nil {
		if err := s.ledger.DeleteAccount(ctx, *target.AccountID); err != nil && !errors.IsNotFound(err) {
			return err
		}
	}
	if err := s.users.DeleteUser(ctx, target.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", target.ID), zap.String("by", principal.Username))
	return nil
}

func (s *AuthService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func (s *AuthService) generateJWT(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
}

func (s *AuthService) hashPassword(password string) (string, error) {
	p := s.cfg.Argon2
	salt := make([]byte, p.SaltLength)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLength)
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func (s *AuthService) verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	p := s.cfg.Argon2
	computed := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}
