package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/internal/token"
	"github.com/altenshop/backend/usecase/activation"
)

type fakeUsers struct {
	byID   map[int64]*domain.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]*domain.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	for _, u := range f.byID {
		if u.Email == user.Email {
			return domain.ErrUserAlreadyExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	clone := *user
	f.byID[user.ID] = &clone
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsers) SetEnabled(_ context.Context, id int64, enabled bool) error {
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Enabled = enabled
	return nil
}

type fakeCodes struct {
	byUser map[int64]*domain.ActivationCode
	nextID int64
	users  *fakeUsers
}

func newFakeCodes(users *fakeUsers) *fakeCodes {
	return &fakeCodes{byUser: make(map[int64]*domain.ActivationCode), users: users}
}

func (f *fakeCodes) GetByUser(_ context.Context, userID int64) (*domain.ActivationCode, error) {
	if c, ok := f.byUser[userID]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrActivationNotFound
}

func (f *fakeCodes) GetByCode(_ context.Context, value string) (*domain.ActivationCode, error) {
	for _, c := range f.byUser {
		if c.Code == value {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrActivationNotFound
}

func (f *fakeCodes) ExistsByCode(_ context.Context, value string) (bool, error) {
	for _, c := range f.byUser {
		if c.Code == value {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCodes) Upsert(_ context.Context, code *domain.ActivationCode) error {
	if existing, ok := f.byUser[code.UserID]; ok {
		code.ID = existing.ID
	} else {
		f.nextID++
		code.ID = f.nextID
	}
	code.CreatedAt = time.Now()
	clone := *code
	f.byUser[code.UserID] = &clone
	return nil
}

func (f *fakeCodes) MarkValidated(_ context.Context, id int64, at time.Time) error {
	for _, c := range f.byUser {
		if c.ID == id && c.ValidatedAt == nil {
			c.ValidatedAt = &at
			return nil
		}
	}
	return domain.TokenError("activation code already used")
}

func (f *fakeCodes) InvalidateAllForUser(_ context.Context, userID int64, at time.Time) error {
	if c, ok := f.byUser[userID]; ok && c.ValidatedAt == nil {
		c.ValidatedAt = &at
	}
	return nil
}

func (f *fakeCodes) ConsumeAndEnable(ctx context.Context, codeID, userID int64, at time.Time) error {
	if err := f.MarkValidated(ctx, codeID, at); err != nil {
		return err
	}
	return f.users.SetEnabled(ctx, userID, true)
}

type sentMail struct {
	kind   string
	email  string
	code   string
	token  string
	locale string
}

type fakeMailer struct {
	sent []sentMail
}

func (f *fakeMailer) SendAccountActivation(_ context.Context, user *domain.User, locale, code string) error {
	f.sent = append(f.sent, sentMail{kind: "activation", email: user.Email, code: code, locale: locale})
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, email, tok, locale string) error {
	f.sent = append(f.sent, sentMail{kind: "reset", email: email, token: tok, locale: locale})
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers, *fakeCodes, *fakeMailer) {
	t.Helper()
	users := newFakeUsers()
	codes := newFakeCodes(users)
	manager := activation.NewManager(codes, users, 15*time.Minute, nil)
	mail := &fakeMailer{}
	svc := NewService(users, manager, token.NewService("test-secret", time.Hour), mail, nil)
	return svc, users, codes, mail
}

func register(t *testing.T, svc *Service) RegistrationInput {
	t.Helper()
	in := RegistrationInput{
		Firstname: "Jane",
		Lastname:  "Doe",
		Email:     "jane@x.com",
		Password:  "secret-password",
	}
	require.NoError(t, svc.Register(context.Background(), in, "en"))
	return in
}

func TestRegisterCreatesDisabledUserAndEmailsCode(t *testing.T) {
	svc, users, _, mail := newTestService(t)
	register(t, svc)

	user, err := users.GetByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.False(t, user.Enabled)
	assert.Equal(t, []string{domain.RoleUser}, user.Roles)
	// Stored hash, never the raw password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret-password")))

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "activation", mail.sent[0].kind)
	assert.Len(t, mail.sent[0].code, 6)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	in := register(t, svc)

	err := svc.Register(context.Background(), in, "en")
	assert.True(t, domain.IsCode(err, domain.CodeUserAlreadyExists))
}

func TestAuthenticate(t *testing.T) {
	svc, users, _, _ := newTestService(t)
	register(t, svc)

	// Disabled until activation.
	_, err := svc.Authenticate(context.Background(), "jane@x.com", "secret-password")
	assert.True(t, domain.IsCode(err, domain.CodeAccountDisabled))

	require.NoError(t, users.SetEnabled(context.Background(), 1, true))

	tok, err := svc.Authenticate(context.Background(), "jane@x.com", "secret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	_, err = svc.Authenticate(context.Background(), "jane@x.com", "wrong")
	assert.True(t, domain.IsCode(err, domain.CodeBadCredentials))

	_, err = svc.Authenticate(context.Background(), "nobody@x.com", "whatever")
	assert.True(t, domain.IsCode(err, domain.CodeBadCredentials))
}

func TestActivateAccountHappyPath(t *testing.T) {
	svc, users, _, mail := newTestService(t)
	register(t, svc)

	code := mail.sent[0].code
	require.NoError(t, svc.ActivateAccount(context.Background(), code, "en"))

	user, err := users.GetByEmail(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.True(t, user.Enabled)

	// Second activation by the now-enabled owner is a no-op success.
	assert.NoError(t, svc.ActivateAccount(context.Background(), code, "en"))
}

func TestActivateAccountUnknownCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.ActivateAccount(context.Background(), "000000", "en")
	assert.True(t, domain.IsCode(err, domain.CodeTokenInvalid))
}

func TestActivateAccountExpiredCodeRegenerates(t *testing.T) {
	svc, _, codes, mail := newTestService(t)
	register(t, svc)

	// Force expiry of the issued code.
	first := mail.sent[0].code
	for _, c := range codes.byUser {
		c.ExpiresAt = time.Now().Add(-time.Minute)
	}

	err := svc.ActivateAccount(context.Background(), first, "fr")
	assert.True(t, domain.IsCode(err, domain.CodeTokenInvalid))

	// The failure still committed a regeneration and a fresh email.
	require.Len(t, mail.sent, 2)
	assert.Equal(t, "activation", mail.sent[1].kind)
	assert.NotEqual(t, first, mail.sent[1].code)
	assert.Equal(t, "fr", mail.sent[1].locale)

	// The regenerated code works.
	require.NoError(t, svc.ActivateAccount(context.Background(), mail.sent[1].code, "fr"))
}

func TestPasswordResetRoundTrip(t *testing.T) {
	svc, users, _, mail := newTestService(t)
	register(t, svc)
	require.NoError(t, users.SetEnabled(context.Background(), 1, true))

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "jane@x.com", "en"))
	require.Len(t, mail.sent, 2)
	resetToken := mail.sent[1].token
	require.NotEmpty(t, resetToken)

	require.NoError(t, svc.ChangePassword(context.Background(), resetToken, "new-password-123"))

	_, err := svc.Authenticate(context.Background(), "jane@x.com", "new-password-123")
	assert.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "jane@x.com", "secret-password")
	assert.True(t, domain.IsCode(err, domain.CodeBadCredentials))
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.RequestPasswordReset(context.Background(), "nobody@x.com", "en")
	assert.True(t, domain.IsCode(err, domain.CodeUserNotFound))
}

func TestChangePasswordInvalidToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	register(t, svc)

	err := svc.ChangePassword(context.Background(), "not-a-token", "new-password-123")
	assert.True(t, domain.IsCode(err, domain.CodeTokenInvalid))

	// A well-formed token for an unknown subject is also rejected.
	other := token.NewService("test-secret", time.Hour)
	tok, err := other.Issue("ghost@x.com", nil)
	require.NoError(t, err)
	err = svc.ChangePassword(context.Background(), tok, "new-password-123")
	assert.True(t, domain.IsCode(err, domain.CodeTokenInvalid))
}
