package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"userhub/api/internal/ids"
	"userhub/api/internal/models"
)

// SettingsService exposes grouped system settings. Secrets (the mail
// password) are write-only: they are stored but never returned.
type SettingsService struct {
	settings SettingStore
	log      zerolog.Logger
}

func NewSettingsService(settings SettingStore, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		settings: settings,
		log:      log,
	}
}

type EmailSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Secure   bool   `json:"secure"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	From     string `json:"from"`
}

type SecuritySettings struct {
	JWTAccessExpiration        int `json:"jwtAccessExpiration"`
	JWTRefreshExpiration       int `json:"jwtRefreshExpiration"`
	VerificationCodeExpiration int `json:"verificationCodeExpiration"`
	MaxLoginAttempts           int `json:"maxLoginAttempts"`
	AccountLockoutDuration     int `json:"accountLockoutDuration"`
}

type SystemSettings struct {
	SystemName            string  `json:"systemName"`
	SystemDescription     string  `json:"systemDescription"`
	AllowUserRegistration bool    `json:"allowUserRegistration"`
	DefaultUserRoleID     *string `json:"defaultUserRoleId"`
	MaintenanceMode       bool    `json:"maintenanceMode"`
	MaintenanceMessage    string  `json:"maintenanceMessage"`
}

type Settings struct {
	Email    EmailSettings    `json:"emailConfig"`
	Security SecuritySettings `json:"securityConfig"`
	System   SystemSettings   `json:"systemConfig"`
}

func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	rows, err := s.settings.List(ctx)
	if err != nil {
		return Settings{}, err
	}

	values := make(map[string]any, len(rows))
	for _, row := range rows {
		values[row.Key] = row.ParsedValue()
	}

	out := Settings{
		Email: EmailSettings{
			Host:     str(values, "email.host", "localhost"),
			Port:     num(values, "email.port", 587),
			Secure:   boolean(values, "email.secure", false),
			Username: str(values, "email.username", ""),
			From:     str(values, "email.from", "noreply@example.com"),
		},
		Security: SecuritySettings{
			JWTAccessExpiration:        num(values, "security.jwt_access_expiration", 900),
			JWTRefreshExpiration:       num(values, "security.jwt_refresh_expiration", 604800),
			VerificationCodeExpiration: num(values, "security.verification_code_expiration", 300),
			MaxLoginAttempts:           num(values, "security.max_login_attempts", 5),
			AccountLockoutDuration:     num(values, "security.account_lockout_duration", 900),
		},
		System: SystemSettings{
			SystemName:            str(values, "system.name", "UserHub"),
			SystemDescription:     str(values, "system.description", ""),
			AllowUserRegistration: boolean(values, "system.allow_user_registration", true),
			MaintenanceMode:       boolean(values, "system.maintenance_mode", false),
			MaintenanceMessage:    str(values, "system.maintenance_message", ""),
		},
	}
	if id := str(values, "system.default_user_role_id", ""); id != "" {
		out.System.DefaultUserRoleID = &id
	}
	return out, nil
}

type UpdateSettingsInput struct {
	Email    *EmailSettings    `json:"emailConfig"`
	Security *SecuritySettings `json:"securityConfig"`
	System   *SystemSettings   `json:"systemConfig"`
}

func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (Settings, error) {
	type entry struct {
		key   string
		value string
		typ   models.SettingType
	}
	var updates []entry

	if input.Email != nil {
		e := input.Email
		updates = append(updates,
			entry{"email.host", e.Host, models.SettingTypeString},
			entry{"email.port", strconv.Itoa(e.Port), models.SettingTypeNumber},
			entry{"email.secure", strconv.FormatBool(e.Secure), models.SettingTypeBoolean},
			entry{"email.username", e.Username, models.SettingTypeString},
			entry{"email.from", e.From, models.SettingTypeString},
		)
		if e.Password != "" {
			updates = append(updates, entry{"email.password", e.Password, models.SettingTypeString})
		}
	}

	if input.Security != nil {
		sec := input.Security
		if sec.JWTAccessExpiration <= 0 || sec.JWTRefreshExpiration <= 0 {
			return Settings{}, fmt.Errorf("token expirations must be positive")
		}
		if sec.VerificationCodeExpiration <= 0 {
			return Settings{}, fmt.Errorf("verification code expiration must be positive")
		}
		updates = append(updates,
			entry{"security.jwt_access_expiration", strconv.Itoa(sec.JWTAccessExpiration), models.SettingTypeNumber},
			entry{"security.jwt_refresh_expiration", strconv.Itoa(sec.JWTRefreshExpiration), models.SettingTypeNumber},
			entry{"security.verification_code_expiration", strconv.Itoa(sec.VerificationCodeExpiration), models.SettingTypeNumber},
			entry{"security.max_login_attempts", strconv.Itoa(sec.MaxLoginAttempts), models.SettingTypeNumber},
			entry{"security.account_lockout_duration", strconv.Itoa(sec.AccountLockoutDuration), models.SettingTypeNumber},
		)
	}

	if input.System != nil {
		sys := input.System
		roleID := ""
		if sys.DefaultUserRoleID != nil {
			roleID = *sys.DefaultUserRoleID
		}
		updates = append(updates,
			entry{"system.name", sys.SystemName, models.SettingTypeString},
			entry{"system.description", sys.SystemDescription, models.SettingTypeString},
			entry{"system.allow_user_registration", strconv.FormatBool(sys.AllowUserRegistration), models.SettingTypeBoolean},
			entry{"system.default_user_role_id", roleID, models.SettingTypeString},
			entry{"system.maintenance_mode", strconv.FormatBool(sys.MaintenanceMode), models.SettingTypeBoolean},
			entry{"system.maintenance_message", sys.MaintenanceMessage, models.SettingTypeString},
		)
	}

	for _, u := range updates {
		if err := s.settings.Upsert(ctx, ids.New(), u.key, u.value, u.typ); err != nil {
			return Settings{}, fmt.Errorf("update setting %s: %w", u.key, err)
		}
	}

	s.log.Info().Int("updated", len(updates)).Msg("settings updated")
	return s.Get(ctx)
}

func str(values map[string]any, key, fallback string) string {
	if v, ok := values[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func num(values map[string]any, key string, fallback int) int {
	if v, ok := values[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func boolean(values map[string]any, key string, fallback bool) bool {
	if v, ok := values[key].(bool); ok {
		return v
	}
	return fallback
}
