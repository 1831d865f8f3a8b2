package activation

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altenshop/backend/domain"
)

type fakeCodeRepo struct {
	byUser    map[int64]*domain.ActivationCode
	nextID    int64
	taken     map[string]bool
	consumed  []int64
	enabled   []int64
	enableErr error
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{
		byUser: make(map[int64]*domain.ActivationCode),
		taken:  make(map[string]bool),
	}
}

func (f *fakeCodeRepo) GetByUser(_ context.Context, userID int64) (*domain.ActivationCode, error) {
	if code, ok := f.byUser[userID]; ok {
		clone := *code
		return &clone, nil
	}
	return nil, domain.ErrActivationNotFound
}

func (f *fakeCodeRepo) GetByCode(_ context.Context, value string) (*domain.ActivationCode, error) {
	for _, code := range f.byUser {
		if code.Code == value {
			clone := *code
			return &clone, nil
		}
	}
	return nil, domain.ErrActivationNotFound
}

func (f *fakeCodeRepo) ExistsByCode(_ context.Context, value string) (bool, error) {
	return f.taken[value], nil
}

func (f *fakeCodeRepo) Upsert(_ context.Context, code *domain.ActivationCode) error {
	if existing, ok := f.byUser[code.UserID]; ok {
		code.ID = existing.ID
	} else {
		f.nextID++
		code.ID = f.nextID
	}
	code.CreatedAt = time.Now()
	clone := *code
	f.byUser[code.UserID] = &clone
	f.taken[code.Code] = true
	return nil
}

func (f *fakeCodeRepo) MarkValidated(_ context.Context, id int64, at time.Time) error {
	for _, code := range f.byUser {
		if code.ID == id && code.ValidatedAt == nil {
			code.ValidatedAt = &at
			return nil
		}
	}
	return domain.TokenError("activation code already used")
}

func (f *fakeCodeRepo) InvalidateAllForUser(_ context.Context, userID int64, at time.Time) error {
	if code, ok := f.byUser[userID]; ok && code.ValidatedAt == nil {
		code.ValidatedAt = &at
	}
	return nil
}

func (f *fakeCodeRepo) ConsumeAndEnable(ctx context.Context, codeID, userID int64, at time.Time) error {
	if f.enableErr != nil {
		return f.enableErr
	}
	if err := f.MarkValidated(ctx, codeID, at); err != nil {
		return err
	}
	f.consumed = append(f.consumed, codeID)
	f.enabled = append(f.enabled, userID)
	return nil
}

type fakeUserRepo struct {
	byID map[int64]*domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, _ *domain.User) error            { return nil }
func (f *fakeUserRepo) UpdatePassword(_ context.Context, _ int64, _ string) error { return nil }
func (f *fakeUserRepo) SetEnabled(_ context.Context, _ int64, _ bool) error       { return nil }

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func newTestManager(t *testing.T) (*Manager, *fakeCodeRepo, *fakeUserRepo) {
	t.Helper()
	codes := newFakeCodeRepo()
	users := &fakeUserRepo{byID: map[int64]*domain.User{
		1: {ID: 1, Email: "a@x.com", Enabled: false},
	}}
	return NewManager(codes, users, 15*time.Minute, nil), codes, users
}

func TestIssueOrRetrieveIsIdempotent(t *testing.T) {
	m, _, users := newTestManager(t)
	user := users.byID[1]

	first, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, first.Code)

	second, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.ID, second.ID)
}

func TestIssueOrRetrieveRegeneratesExpired(t *testing.T) {
	m, codes, users := newTestManager(t)
	user := users.byID[1]

	first, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)

	// Move the clock past the expiry.
	m.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	second, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)
	// Overwritten in place, not inserted as a second row.
	assert.Len(t, codes.byUser, 1)
}

func TestValidateOutcomes(t *testing.T) {
	m, codes, users := newTestManager(t)
	user := users.byID[1]

	_, _, outcome, err := m.Validate(context.Background(), "000000")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, outcome)

	issued, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)

	got, code, outcome, err := m.Validate(context.Background(), issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, issued.ID, code.ID)

	// Consumption is terminal and enables the owner.
	require.NoError(t, m.Consume(context.Background(), code))
	assert.Equal(t, []int64{user.ID}, codes.enabled)

	users.byID[1].Enabled = true
	_, _, outcome, err = m.Validate(context.Background(), issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyActivated, outcome)

	// A consumed code owned by a still-disabled user reads as expired/used.
	users.byID[1].Enabled = false
	_, _, outcome, err = m.Validate(context.Background(), issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredOrUsed, outcome)
}

func TestConsumeTwiceFails(t *testing.T) {
	m, _, users := newTestManager(t)
	user := users.byID[1]

	issued, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, m.Consume(context.Background(), issued))
	err = m.Consume(context.Background(), issued)
	assert.True(t, domain.IsCode(err, domain.CodeTokenInvalid))
}

func TestInvalidateAllRetiresOutstandingCode(t *testing.T) {
	m, _, users := newTestManager(t)
	user := users.byID[1]

	issued, err := m.IssueOrRetrieve(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, m.InvalidateAll(context.Background(), user.ID))

	_, _, outcome, err := m.Validate(context.Background(), issued.Code)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpiredOrUsed, outcome)
}

func TestGenerateCodeAcceptsLastCandidateOnExhaustion(t *testing.T) {
	m, codes, _ := newTestManager(t)

	// Every candidate reads as taken, forcing the retry loop to give up.
	m.codes = &allTakenRepo{fakeCodeRepo: codes}

	value, err := m.generateCode(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, value)
}

type allTakenRepo struct {
	*fakeCodeRepo
}

func (a *allTakenRepo) ExistsByCode(_ context.Context, _ string) (bool, error) {
	return true, nil
}
