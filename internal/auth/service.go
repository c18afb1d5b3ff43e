package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redmonkez12/beauty-assistant-api/internal/email"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/ratelimit"
	"github.com/redmonkez12/beauty-assistant-api/internal/user"
)

const minPasswordLength = 8

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, please try again later")
	// ErrConflict is returned when email or username is already taken.
	ErrConflict = user.ErrAlreadyExists
	// ErrInvalidUsername is returned when the trimmed username is outside 3-50 characters.
	ErrInvalidUsername = user.ErrInvalidUsername
)

// notificationTimeout bounds the fire-and-forget emails.
const notificationTimeout = 30 * time.Second

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Email           string
	Username        string
	FullName        *string
	Password        string
	ConfirmPassword string
}

// LoginResult is returned on successful login
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        user.Public `json:"user"`
}

// Service handles authentication business logic
type Service struct {
	store               user.Store
	hasher              *PasswordHasher
	tokens              TokenService
	revocations         RevocationStore
	limiter             ratelimit.Limiter
	mailer              email.Sender
	logger              *logging.Logger
	accessTokenDuration time.Duration
}

func NewService(
	store user.Store,
	hasher *PasswordHasher,
	tokens TokenService,
	revocations RevocationStore,
	limiter ratelimit.Limiter,
	mailer email.Sender,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
) *Service {
	return &Service{
		store:               store,
		hasher:              hasher,
		tokens:              tokens,
		revocations:         revocations,
		limiter:             limiter,
		mailer:              mailer,
		logger:              logger,
		accessTokenDuration: accessTokenDuration,
	}
}

// Register creates a new user account and sends a welcome email.
// The password check runs before anything else so a mismatch is reported
// even when other fields are also invalid.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	username, err := user.NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}

	nu := user.NewUser{
		Email:    strings.TrimSpace(in.Email),
		Username: username,
		FullName: in.FullName,
	}

	// Hash outside the transaction so the connection is not held during argon2.
	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	nu.PasswordHash = passwordHash

	var created *user.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx user.Store) error {
		taken, err := tx.ExistsByEmailOrUsername(ctx, nu.Email, nu.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		// A concurrent registration can still win between the check and the
		// insert; the unique constraints report that as ErrAlreadyExists too.
		created, err = tx.Insert(ctx, nu)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.notify(func(ctx context.Context) error {
		return s.mailer.SendWelcomeEmail(ctx, created.Email, created.Username)
	}, "welcome", created.ID)

	return created, nil
}

// Login authenticates by email or username and issues an access token.
// Unknown identifiers, inactive accounts and wrong passwords all yield ErrInvalidCredentials.
// Failures count against the account, whichever identifier was used, and
// against the identifier itself when it matches no account.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	unknownKey := unknownIdentifierKey(identifier)
	if s.lockedOut(ctx, unknownKey) {
		return nil, ErrTooManyAttempts
	}

	existingUser, err := s.store.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		s.hasher.VerifyDummy(password)
		s.recordFailure(ctx, unknownKey)
		return nil, ErrInvalidCredentials
	}

	userKey := accountKey(existingUser.ID)
	if s.lockedOut(ctx, userKey) {
		return nil, ErrTooManyAttempts
	}

	ok, needsRehash := s.hasher.Verify(existingUser.PasswordHash, password)
	if !ok || !existingUser.IsActive {
		s.recordFailure(ctx, userKey)
		return nil, ErrInvalidCredentials
	}

	if err := s.limiter.ResetLoginFailures(ctx, userKey); err != nil {
		s.logger.Warn("failed to reset login failures", "error", err)
	}

	if needsRehash {
		s.rehash(ctx, existingUser.ID, password)
	}

	token, _, err := s.tokens.CreateToken(TokenSubject{
		UserID:   existingUser.ID,
		Username: existingUser.Username,
		Email:    existingUser.Email,
	}, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.accessTokenDuration / time.Second),
		User:        existingUser.Public(),
	}, nil
}

// Authenticate verifies a presented token, checks it has not been revoked and
// that its account still exists and is active.
func (s *Service) Authenticate(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	account, err := s.store.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrRevokedToken)
		}
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrRevokedToken)
	}

	return claims, nil
}

// Logout revokes the token described by claims until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *TokenClaims) error {
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword replaces the caller's password after checking the current one.
// Every token issued before the change stops working.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	existingUser, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if ok, _ := s.hasher.Verify(existingUser.PasswordHash, currentPassword); !ok {
		return ErrInvalidCredentials
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Tokens carry second precision; a token minted later in this same second survives.
	if err := s.revocations.RevokeAllForUser(ctx, userID, time.Now(), s.accessTokenDuration); err != nil {
		s.logger.Warn("failed to revoke tokens after password change", "user_id", userID, "error", err)
	}

	s.notify(func(ctx context.Context) error {
		return s.mailer.SendPasswordChangedEmail(ctx, existingUser.Email, existingUser.Username)
	}, "password_changed", userID)

	return nil
}

// Failure counters for accounts and for identifiers that match no account
// live in separate namespaces so one can never lock the other.
func accountKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func unknownIdentifierKey(identifier string) string {
	return "identifier:" + identifier
}

// lockedOut fails open: a limiter error is logged and the attempt proceeds.
func (s *Service) lockedOut(ctx context.Context, key string) bool {
	locked, err := s.limiter.CheckLoginFailures(ctx, key)
	if err != nil {
		s.logger.Error("failed to check login failures", "error", err)
		return false
	}
	return locked
}

func (s *Service) recordFailure(ctx context.Context, key string) {
	if err := s.limiter.RecordLoginFailure(ctx, key); err != nil {
		s.logger.Warn("failed to record login failure", "error", err)
	}
}

// rehash upgrades a legacy or outdated hash. Failure leaves the old hash in place.
func (s *Service) rehash(ctx context.Context, userID int64, password string) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", userID, "error", err)
		return
	}
	if err := s.store.UpdatePassword(ctx, userID, passwordHash); err != nil {
		s.logger.Warn("failed to store rehashed password", "user_id", userID, "error", err)
		return
	}
	s.logger.Info("password hash upgraded", "user_id", userID)
}

// notify sends an email in the background; errors are logged and never reach the caller.
func (s *Service) notify(send func(ctx context.Context) error, kind string, userID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), s.logger), notificationTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Warn("failed to send notification email", "kind", kind, "user_id", userID, "error", err)
		}
	}()
}
