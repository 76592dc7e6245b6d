package service

import (
	"context"
	"sync"
	"time"

	"userhub/api/internal/config"
	"userhub/api/internal/models"
	"userhub/api/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:  "test-access-secret",
			JWTRefreshSecret: "test-refresh-secret",
			JWTAccessTTL:     15 * time.Minute,
			JWTRefreshTTL:    7 * 24 * time.Hour,
			CodeTTL:          5 * time.Minute,
			CodeResendWindow: 5 * time.Minute,
			LoginBlockWindow: 15 * time.Minute,
			MaxLoginFailures: 5,
		},
	}
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (f *fakeUserStore) put(user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *fakeUserStore) Create(ctx context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeUserStore) Update(ctx context.Context, id string, upd repository.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = upd.AvatarURL
	}
	if upd.RoleID != nil {
		u.RoleID = upd.RoleID
	}
	if upd.ClearRole {
		u.RoleID = nil
		u.Role = nil
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) UpdateStatus(ctx context.Context, id string, status models.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) SoftDelete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) CountByRole(ctx context.Context, roleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, u := range f.users {
		if u.RoleID != nil && *u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserStore) Stats(ctx context.Context) (repository.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return repository.UserStats{Total: len(f.users)}, nil
}

type fakeRoleStore struct {
	mu    sync.Mutex
	roles map[string]models.Role
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{roles: map[string]models.Role{}}
}

func (f *fakeRoleStore) Create(ctx context.Context, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.Name == role.Name {
			return repository.ErrRoleNameTaken
		}
	}
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoleStore) GetByID(ctx context.Context, id string) (models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return models.Role{}, repository.ErrRoleNotFound
	}
	return r, nil
}

func (f *fakeRoleStore) FindByName(ctx context.Context, name string) (models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return models.Role{}, repository.ErrRoleNotFound
}

func (f *fakeRoleStore) List(ctx context.Context, activeOnly bool) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Role, 0, len(f.roles))
	for _, r := range f.roles {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoleStore) Update(ctx context.Context, id string, upd repository.RoleUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return repository.ErrRoleNotFound
	}
	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.Description != nil {
		r.Description = upd.Description
	}
	if upd.Permissions != nil {
		r.Permissions = *upd.Permissions
	}
	if upd.IsActive != nil {
		r.IsActive = *upd.IsActive
	}
	f.roles[id] = r
	return nil
}

func (f *fakeRoleStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roles[id]; !ok {
		return repository.ErrRoleNotFound
	}
	delete(f.roles, id)
	return nil
}

type fakeCodeStore struct {
	mu    sync.Mutex
	codes []models.EmailCode
}

func (f *fakeCodeStore) CreateIfNotRecent(ctx context.Context, code models.EmailCode, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Email == code.Email && c.Purpose == code.Purpose && time.Since(c.CreatedAt) < window {
			return repository.ErrCodeThrottled
		}
	}
	code.CreatedAt = time.Now()
	f.codes = append(f.codes, code)
	return nil
}

func (f *fakeCodeStore) FindLatestUnused(ctx context.Context, email, code string, purpose models.CodePurpose) (models.EmailCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		c := f.codes[i]
		if c.Email == email && c.Code == code && c.Purpose == purpose && !c.IsUsed {
			return c, nil
		}
	}
	return models.EmailCode{}, repository.ErrCodeNotFound
}

func (f *fakeCodeStore) MarkUsed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.codes {
		if c.ID == id {
			if c.IsUsed {
				return repository.ErrCodeAlreadyUsed
			}
			f.codes[i].IsUsed = true
			return nil
		}
	}
	return repository.ErrCodeNotFound
}

// latest returns the newest stored code for an address, used where a test
// needs the secret a real caller would read from their inbox.
func (f *fakeCodeStore) latest(email string) models.EmailCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		if f.codes[i].Email == email {
			return f.codes[i]
		}
	}
	return models.EmailCode{}
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.Session{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, session models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.CreatedAt = time.Now()
	f.sessions[string(session.RefreshTokenHash)] = session
	return nil
}

func (f *fakeSessionStore) FindByTokenHash(ctx context.Context, hash []byte) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[string(hash)]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) Rotate(ctx context.Context, oldHash, newHash []byte, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[string(oldHash)]
	if !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.sessions, string(oldHash))
	s.RefreshTokenHash = newHash
	s.ExpiresAt = expiresAt
	f.sessions[string(newHash)] = s
	return nil
}

func (f *fakeSessionStore) DeleteByTokenHash(ctx context.Context, hash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, string(hash))
	return nil
}

func (f *fakeSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, k)
		}
	}
	return nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeLoginLogStore struct {
	mu      sync.Mutex
	entries []models.LoginLog
}

func (f *fakeLoginLogStore) Append(ctx context.Context, entry models.LoginLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLoginLogStore) last() models.LoginLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return models.LoginLog{}
	}
	return f.entries[len(f.entries)-1]
}

// fakeFailureCounter mirrors the redis throttle contract: the window is set
// once, on the first increment, and later increments never touch it.
type fakeFailureCounter struct {
	mu      sync.Mutex
	counts  map[string]int
	windows map[string]time.Duration
}

func newFakeFailureCounter() *fakeFailureCounter {
	return &fakeFailureCounter{
		counts:  map[string]int{},
		windows: map[string]time.Duration{},
	}
}

func (f *fakeFailureCounter) Count(ctx context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key], nil
}

func (f *fakeFailureCounter) Increment(ctx context.Context, key string, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	if _, ok := f.windows[key]; !ok {
		f.windows[key] = window
	}
	return nil
}

func (f *fakeFailureCounter) Reset(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, key)
	delete(f.windows, key)
	return nil
}

type fakeSettingStore struct {
	mu   sync.Mutex
	rows map[string]models.Setting
}

func newFakeSettingStore() *fakeSettingStore {
	return &fakeSettingStore{rows: map[string]models.Setting{}}
}

func (f *fakeSettingStore) List(ctx context.Context) ([]models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Setting, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSettingStore) Upsert(ctx context.Context, id, key, value string, typ models.SettingType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		row = models.Setting{ID: id, Key: key}
	}
	row.Value = value
	row.Type = typ
	f.rows[key] = row
	return nil
}

type sentMail struct {
	Email   string
	Code    string
	Purpose string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, email, code, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{Email: email, Code: code, Purpose: purpose})
	return nil
}
