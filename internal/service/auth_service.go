package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userhub/api/internal/config"
	"userhub/api/internal/ids"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
	"userhub/api/internal/security"
)

// CodeRedeemer is the slice of CodeService the orchestrator needs.
type CodeRedeemer interface {
	Redeem(ctx context.Context, email, code string, purpose models.CodePurpose) error
}

// AuthService drives the login/register/refresh/logout state transitions.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	codes    CodeRedeemer
	logs     LoginLogStore
	failures FailureCounter
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	codes CodeRedeemer,
	logs LoginLogStore,
	failures FailureCounter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		codes:    codes,
		logs:     logs,
		failures: failures,
		cfg:      cfg,
		log:      log,
	}
}

type ClientMeta struct {
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

type LoginInput struct {
	Email string
	Code  string
	ClientMeta
}

// Login redeems a login code and issues a token pair. An unknown email with
// a valid code is provisioned on the spot: code-gated login doubles as
// registration. Every failure surfaces as ErrUnauthorized so callers cannot
// probe which emails exist.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := NormalizeEmail(input.Email)

	if s.blocked(ctx, email) {
		s.audit(ctx, nil, input.ClientMeta, models.LoginStatusBlocked)
		return AuthResult{}, ErrUnauthorized
	}

	if err := s.codes.Redeem(ctx, email, input.Code, models.CodePurposeLogin); err != nil {
		s.recordFailure(ctx, email)
		s.audit(ctx, nil, input.ClientMeta, models.LoginStatusFailed)
		return AuthResult{}, ErrUnauthorized
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.audit(ctx, nil, input.ClientMeta, models.LoginStatusFailed)
			return AuthResult{}, ErrUnauthorized
		}
		user, err = s.provision(ctx, email, localPart(email), nil)
		if err != nil {
			s.audit(ctx, nil, input.ClientMeta, models.LoginStatusFailed)
			return AuthResult{}, ErrUnauthorized
		}
		s.log.Info().Str("email", email).Msg("user auto-provisioned via login")
	} else if user.Status != models.UserStatusActive {
		s.audit(ctx, &user.ID, input.ClientMeta, models.LoginStatusFailed)
		return AuthResult{}, ErrUnauthorized
	}

	result, err := s.establishSession(ctx, user, input.ClientMeta)
	if err != nil {
		s.audit(ctx, &user.ID, input.ClientMeta, models.LoginStatusFailed)
		return AuthResult{}, ErrUnauthorized
	}

	s.clearFailures(ctx, email)
	s.audit(ctx, &user.ID, input.ClientMeta, models.LoginStatusSuccess)
	s.log.Info().Str("email", email).Msg("user logged in")
	return result, nil
}

type RegisterInput struct {
	Email string
	Code  string
	Name  string
	Phone string
	ClientMeta
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	email := NormalizeEmail(input.Email)

	if err := s.codes.Redeem(ctx, email, input.Code, models.CodePurposeRegister); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	var phone *string
	if input.Phone != "" {
		phone = &input.Phone
	}
	user, err := s.provision(ctx, email, input.Name, phone)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, err
	}

	result, err := s.establishSession(ctx, user, input.ClientMeta)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit(ctx, &user.ID, input.ClientMeta, models.LoginStatusSuccess)
	s.log.Info().Str("email", email).Msg("user registered")
	return result, nil
}

// Refresh rotates the session bound to refreshToken. The presented token is
// dead afterwards whether or not rotation succeeds; only the stored row is
// the source of truth for revocation, a valid signature alone proves
// nothing.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := security.ParseToken(refreshToken, s.cfg.Security.JWTRefreshSecret)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}

	oldHash := security.HashToken(refreshToken)
	session, err := s.sessions.FindByTokenHash(ctx, oldHash)
	if err != nil {
		return AuthResult{}, ErrUnauthorized
	}
	if session.UserID != claims.Subject {
		return AuthResult{}, ErrUnauthorized
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.DeleteByTokenHash(ctx, oldHash)
		return AuthResult{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user.Status != models.UserStatusActive {
		return AuthResult{}, ErrUnauthorized
	}

	accessToken, newRefresh, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}

	expiresAt := time.Now().Add(s.cfg.Security.JWTRefreshTTL)
	if err := s.sessions.Rotate(ctx, oldHash, security.HashToken(newRefresh), expiresAt); err != nil {
		// A concurrent refresh already rotated this token away.
		return AuthResult{}, ErrUnauthorized
	}

	return AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

// Logout revokes the session holding refreshToken. Unknown tokens are not
// an error; logging out twice succeeds twice.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.DeleteByTokenHash(ctx, security.HashToken(refreshToken))
}

func (s *AuthService) provision(ctx context.Context, email, name string, phone *string) (models.User, error) {
	user := models.User{
		ID:     ids.New(),
		Email:  email,
		Name:   name,
		Phone:  phone,
		Status: models.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, user.ID)
}

func (s *AuthService) establishSession(ctx context.Context, user models.User, meta ClientMeta) (AuthResult, error) {
	accessToken, refreshToken, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}

	session := models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		RefreshTokenHash: security.HashToken(refreshToken),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.JWTRefreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) issueTokens(user models.User) (access string, refresh string, err error) {
	sec := s.cfg.Security
	access, err = security.GenerateToken(sec.JWTAccessSecret, user.ID, user.Email, user.RoleName(), sec.JWTAccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = security.GenerateToken(sec.JWTRefreshSecret, user.ID, user.Email, user.RoleName(), sec.JWTRefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// audit is best-effort: a broken login_logs write never fails the login.
func (s *AuthService) audit(ctx context.Context, userID *string, meta ClientMeta, status models.LoginStatus) {
	entry := models.LoginLog{
		ID:        ids.New(),
		UserID:    userID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Status:    status,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("login audit write failed")
	}
}

func (s *AuthService) failureKey(email string) string {
	return fmt.Sprintf("auth:failures:%s", email)
}

func (s *AuthService) blocked(ctx context.Context, email string) bool {
	if s.failures == nil {
		return false
	}
	count, err := s.failures.Count(ctx, s.failureKey(email))
	if err != nil {
		return false
	}
	return count >= s.cfg.Security.MaxLoginFailures
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.failures == nil {
		return
	}
	if err := s.failures.Increment(ctx, s.failureKey(email), s.cfg.Security.LoginBlockWindow); err != nil {
		s.log.Warn().Err(err).Msg("failure counter incr failed")
	}
}

func (s *AuthService) clearFailures(ctx context.Context, email string) {
	if s.failures == nil {
		return
	}
	if err := s.failures.Reset(ctx, s.failureKey(email)); err != nil {
		s.log.Warn().Err(err).Msg("failure counter reset failed")
	}
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
