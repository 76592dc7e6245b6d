package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub/api/internal/models"
	"userhub/api/internal/security"
)

func newAuthFixture() (*AuthService, *fakeCodeStore, *fakeUserStore, *fakeSessionStore, *fakeLoginLogStore) {
	auth, codes, users, sessions, logs, _ := newThrottledAuthFixture()
	return auth, codes, users, sessions, logs
}

func newThrottledAuthFixture() (*AuthService, *fakeCodeStore, *fakeUserStore, *fakeSessionStore, *fakeLoginLogStore, *fakeFailureCounter) {
	codes := &fakeCodeStore{}
	users := newFakeUserStore()
	sessions := newFakeSessionStore()
	logs := &fakeLoginLogStore{}
	failures := newFakeFailureCounter()
	cfg := testConfig()
	codeSvc := NewCodeService(codes, users, &fakeNotifier{}, cfg, zerolog.Nop())
	auth := NewAuthService(users, sessions, codeSvc, logs, failures, cfg, zerolog.Nop())
	return auth, codes, users, sessions, logs, failures
}

func seedCode(codes *fakeCodeStore, email, code string, purpose models.CodePurpose) {
	codes.codes = append(codes.codes, models.EmailCode{
		ID:        "code_" + code,
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(5 * time.Minute),
		CreatedAt: time.Now(),
	})
}

func meta() ClientMeta {
	return ClientMeta{IPAddress: "203.0.113.9", UserAgent: "go-test"}
}

func TestLoginSuccess(t *testing.T) {
	auth, codes, users, sessions, logs := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)

	result, err := auth.Login(context.Background(), LoginInput{
		Email:      "alice@example.com",
		Code:       "123456",
		ClientMeta: meta(),
	})
	require.NoError(t, err)
	assert.Equal(t, "usr_1", result.User.ID)
	assert.Equal(t, 1, sessions.count())

	claims, err := security.ParseToken(result.AccessToken, "test-access-secret")
	require.NoError(t, err)
	assert.Equal(t, "usr_1", claims.Subject)

	// refresh token must not verify as an access token
	_, err = security.ParseToken(result.RefreshToken, "test-access-secret")
	assert.Error(t, err)
	_, err = security.ParseToken(result.RefreshToken, "test-refresh-secret")
	assert.NoError(t, err)

	entry := logs.last()
	assert.Equal(t, models.LoginStatusSuccess, entry.Status)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "usr_1", *entry.UserID)
	assert.Equal(t, "203.0.113.9", entry.IPAddress)
}

func TestLoginAutoProvision(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	seedCode(codes, "new.user@example.com", "123456", models.CodePurposeLogin)

	result, err := auth.Login(context.Background(), LoginInput{
		Email:      "new.user@example.com",
		Code:       "123456",
		ClientMeta: meta(),
	})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", result.User.Email)
	assert.Equal(t, "new.user", result.User.Name)
	assert.Equal(t, models.UserStatusActive, result.User.Status)

	stored, err := users.FindByEmail(context.Background(), "new.user@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, stored.ID)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	auth, codes, users, _, logs := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)

	// wrong code for a real account and any code for a missing account must
	// be indistinguishable
	_, errKnown := auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "654321", ClientMeta: meta(),
	})
	_, errUnknown := auth.Login(context.Background(), LoginInput{
		Email: "ghost@example.com", Code: "654321", ClientMeta: meta(),
	})
	assert.ErrorIs(t, errKnown, ErrUnauthorized)
	assert.ErrorIs(t, errUnknown, ErrUnauthorized)
	assert.Equal(t, errKnown.Error(), errUnknown.Error())
	assert.Equal(t, models.LoginStatusFailed, logs.last().Status)
}

func TestLoginDisabledAccount(t *testing.T) {
	auth, codes, users, sessions, logs := newAuthFixture()
	user := activeUser("usr_1", "alice@example.com")
	user.Status = models.UserStatusSuspended
	users.put(user)
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)

	_, err := auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "123456", ClientMeta: meta(),
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, sessions.count())
	assert.Equal(t, models.LoginStatusFailed, logs.last().Status)
}

func TestLoginCodeSingleUseAcrossAttempts(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)

	_, err := auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "123456", ClientMeta: meta(),
	})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "123456", ClientMeta: meta(),
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterSuccess(t *testing.T) {
	auth, codes, users, sessions, _ := newAuthFixture()
	seedCode(codes, "bob@example.com", "123456", models.CodePurposeRegister)

	result, err := auth.Register(context.Background(), RegisterInput{
		Email:      "bob@example.com",
		Code:       "123456",
		Name:       "Bob",
		Phone:      "555-0101",
		ClientMeta: meta(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob", result.User.Name)
	require.NotNil(t, result.User.Phone)
	assert.Equal(t, "555-0101", *result.User.Phone)
	assert.Equal(t, 1, sessions.count())

	_, err = users.FindByEmail(context.Background(), "bob@example.com")
	assert.NoError(t, err)
}

func TestRegisterEmailTaken(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeRegister)

	_, err := auth.Register(context.Background(), RegisterInput{
		Email: "alice@example.com", Code: "123456", Name: "Alice", ClientMeta: meta(),
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterInvalidCode(t *testing.T) {
	auth, _, _, _, _ := newAuthFixture()

	_, err := auth.Register(context.Background(), RegisterInput{
		Email: "bob@example.com", Code: "123456", Name: "Bob", ClientMeta: meta(),
	})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func login(t *testing.T, auth *AuthService, codes *fakeCodeStore, email string) AuthResult {
	t.Helper()
	seedCode(codes, email, "123456", models.CodePurposeLogin)
	result, err := auth.Login(context.Background(), LoginInput{
		Email: email, Code: "123456", ClientMeta: meta(),
	})
	require.NoError(t, err)
	return result
}

func TestRefreshRotation(t *testing.T) {
	auth, codes, users, sessions, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	first := login(t, auth, codes, "alice@example.com")

	second, err := auth.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, sessions.count())

	// the presented token died in the rotation
	_, err = auth.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the replacement is live
	_, err = auth.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshImmediatelyAfterLogin(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	first := login(t, auth, codes, "alice@example.com")

	// no wall-clock time passes between issuance and rotation; the
	// replacement must still differ and the presented token must die
	second, err := auth.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = auth.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	auth, codes, users, sessions, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	result := login(t, auth, codes, "alice@example.com")

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := auth.Refresh(context.Background(), result.RefreshToken); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, sessions.count())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	result := login(t, auth, codes, "alice@example.com")

	_, err := auth.Refresh(context.Background(), result.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshUnknownSession(t *testing.T) {
	auth, _, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))

	// validly signed but never stored; a signature alone proves nothing
	orphan, err := security.GenerateToken("test-refresh-secret", "usr_1", "alice@example.com", "", time.Hour)
	require.NoError(t, err)

	_, err = auth.Refresh(context.Background(), orphan)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshExpiredSession(t *testing.T) {
	auth, _, users, sessions, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))

	token, err := security.GenerateToken("test-refresh-secret", "usr_1", "alice@example.com", "", time.Hour)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(context.Background(), models.Session{
		ID:               "ses_1",
		UserID:           "usr_1",
		RefreshTokenHash: security.HashToken(token),
		ExpiresAt:        time.Now().Add(-time.Minute),
	}))

	_, err = auth.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, sessions.count())
}

func TestRefreshSuspendedUser(t *testing.T) {
	auth, codes, users, _, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	result := login(t, auth, codes, "alice@example.com")

	require.NoError(t, users.UpdateStatus(context.Background(), "usr_1", models.UserStatusSuspended))

	_, err := auth.Refresh(context.Background(), result.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func failLogin(t *testing.T, auth *AuthService, email string) {
	t.Helper()
	_, err := auth.Login(context.Background(), LoginInput{
		Email: email, Code: "000000", ClientMeta: meta(),
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginBlockedAfterMaxFailures(t *testing.T) {
	auth, codes, users, _, logs, failures := newThrottledAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))

	for i := 0; i < testConfig().Security.MaxLoginFailures; i++ {
		failLogin(t, auth, "alice@example.com")
		assert.Equal(t, models.LoginStatusFailed, logs.last().Status)
	}

	// at the threshold even a correct code is refused before redemption
	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)
	_, err := auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "123456", ClientMeta: meta(),
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, models.LoginStatusBlocked, logs.last().Status)

	// the untouched code survives the blocked attempt
	assert.False(t, codes.latest("alice@example.com").IsUsed)

	count, err := failures.Count(context.Background(), "auth:failures:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testConfig().Security.MaxLoginFailures, count)
}

func TestLoginFailureWindowAnchoredToFirst(t *testing.T) {
	auth, _, users, _, _, failures := newThrottledAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))

	failLogin(t, auth, "alice@example.com")
	failLogin(t, auth, "alice@example.com")
	failLogin(t, auth, "alice@example.com")

	// repeated failures count up but never restart the block window
	assert.Equal(t,
		testConfig().Security.LoginBlockWindow,
		failures.windows["auth:failures:alice@example.com"])
	assert.Len(t, failures.windows, 1)
	assert.Equal(t, 3, failures.counts["auth:failures:alice@example.com"])
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	auth, codes, users, _, _, failures := newThrottledAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))

	failLogin(t, auth, "alice@example.com")
	failLogin(t, auth, "alice@example.com")

	seedCode(codes, "alice@example.com", "123456", models.CodePurposeLogin)
	_, err := auth.Login(context.Background(), LoginInput{
		Email: "alice@example.com", Code: "123456", ClientMeta: meta(),
	})
	require.NoError(t, err)

	count, err := failures.Count(context.Background(), "auth:failures:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLogoutIdempotent(t *testing.T) {
	auth, codes, users, sessions, _ := newAuthFixture()
	users.put(activeUser("usr_1", "alice@example.com"))
	result := login(t, auth, codes, "alice@example.com")

	require.NoError(t, auth.Logout(context.Background(), result.RefreshToken))
	assert.Equal(t, 0, sessions.count())

	// logging out an already-dead token still succeeds
	assert.NoError(t, auth.Logout(context.Background(), result.RefreshToken))

	_, err := auth.Refresh(context.Background(), result.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
