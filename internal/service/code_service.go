package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userhub/api/internal/config"
	"userhub/api/internal/ids"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
	"userhub/api/internal/security"
)

// CodeService owns the verification-code lifecycle: eligibility checks,
// rate-limited creation, delivery, single-use redemption.
type CodeService struct {
	codes    CodeStore
	users    UserStore
	notifier Notifier
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewCodeService(codes CodeStore, users UserStore, notifier Notifier, cfg *config.AppConfig, log zerolog.Logger) *CodeService {
	return &CodeService{
		codes:    codes,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Send generates and delivers a code for (email, purpose). A login code
// requires an existing active account, a register code requires none, a
// reset code requires an existing account. Delivery failure does not void
// the stored code.
func (s *CodeService) Send(ctx context.Context, email string, purpose models.CodePurpose) error {
	email = NormalizeEmail(email)

	switch purpose {
	case models.CodePurposeLogin:
		user, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrEmailNotRegistered
			}
			return err
		}
		if user.Status != models.UserStatusActive {
			return ErrAccountDisabled
		}
	case models.CodePurposeRegister:
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return err
		}
	case models.CodePurposeReset:
		if _, err := s.users.FindByEmail(ctx, email); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrEmailNotRegistered
			}
			return err
		}
	}

	code, err := security.GenerateCode()
	if err != nil {
		return err
	}

	record := models.EmailCode{
		ID:        ids.New(),
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.cfg.Security.CodeTTL),
	}

	if err := s.codes.CreateIfNotRecent(ctx, record, s.cfg.Security.CodeResendWindow); err != nil {
		if errors.Is(err, repository.ErrCodeThrottled) {
			return ErrRateLimited
		}
		return err
	}

	// The code stays valid even if delivery fails; a retry inside the
	// resend window would be throttled with nothing to redeem otherwise.
	if err := s.notifier.Send(ctx, email, code, string(purpose)); err != nil {
		s.log.Warn().Err(err).Str("email", email).Str("purpose", string(purpose)).
			Msg("verification code delivery failed")
	}

	return nil
}

// Redeem consumes the newest unused code matching (email, code, purpose).
// Exactly one of N concurrent redemptions succeeds.
func (s *CodeService) Redeem(ctx context.Context, email, code string, purpose models.CodePurpose) error {
	email = NormalizeEmail(email)

	record, err := s.codes.FindLatestUnused(ctx, email, code, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if record.Expired(time.Now()) {
		return ErrCodeExpired
	}

	if err := s.codes.MarkUsed(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrCodeAlreadyUsed) {
			// Lost a redemption race; indistinguishable from a wrong code.
			return ErrInvalidCode
		}
		return err
	}

	return nil
}
