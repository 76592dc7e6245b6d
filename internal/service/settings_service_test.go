package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsFixture() (*SettingsService, *fakeSettingStore) {
	store := newFakeSettingStore()
	return NewSettingsService(store, zerolog.Nop()), store
}

func TestSettingsGetDefaults(t *testing.T) {
	svc, _ := newSettingsFixture()

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 587, settings.Email.Port)
	assert.Equal(t, 900, settings.Security.JWTAccessExpiration)
	assert.Equal(t, 300, settings.Security.VerificationCodeExpiration)
	assert.Equal(t, "UserHub", settings.System.SystemName)
	assert.True(t, settings.System.AllowUserRegistration)
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	svc, _ := newSettingsFixture()

	updated, err := svc.Update(context.Background(), UpdateSettingsInput{
		System: &SystemSettings{
			SystemName:            "Ops Portal",
			AllowUserRegistration: false,
			MaintenanceMode:       true,
			MaintenanceMessage:    "back soon",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ops Portal", updated.System.SystemName)
	assert.False(t, updated.System.AllowUserRegistration)
	assert.True(t, updated.System.MaintenanceMode)
	assert.Equal(t, "back soon", updated.System.MaintenanceMessage)

	// untouched groups keep their defaults
	assert.Equal(t, 587, updated.Email.Port)
}

func TestSettingsUpdateRejectsNonPositiveExpirations(t *testing.T) {
	svc, _ := newSettingsFixture()

	_, err := svc.Update(context.Background(), UpdateSettingsInput{
		Security: &SecuritySettings{
			JWTAccessExpiration:        0,
			JWTRefreshExpiration:       604800,
			VerificationCodeExpiration: 300,
		},
	})
	assert.Error(t, err)
}

func TestSettingsPasswordNeverReturned(t *testing.T) {
	svc, store := newSettingsFixture()

	_, err := svc.Update(context.Background(), UpdateSettingsInput{
		Email: &EmailSettings{
			Host:     "smtp.example.com",
			Port:     465,
			Secure:   true,
			Username: "mailer",
			Password: "hunter2",
			From:     "noreply@example.com",
		},
	})
	require.NoError(t, err)

	// stored, but absent from every read
	assert.Equal(t, "hunter2", store.rows["email.password"].Value)
	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, settings.Email.Password)
}
