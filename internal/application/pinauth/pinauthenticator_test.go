package pinauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heya-pos/heya/internal/domain/audit"
	"github.com/heya-pos/heya/internal/domain/auth"
	"github.com/heya-pos/heya/internal/domain/session"
	"github.com/heya-pos/heya/internal/domain/staff"
	"github.com/heya-pos/heya/internal/infrastructure/ratelimit"
	"github.com/heya-pos/heya/internal/infrastructure/sessionstore"
	apperrors "github.com/heya-pos/heya/internal/shared/errors"
	"github.com/heya-pos/heya/internal/shared/logger"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	auth     *PinAuthenticator
	repo     *fakeStaffRepository
	attempts *ratelimit.MemoryAttemptTracker
	sessions *sessionstore.MemoryStore
	tokens   *fakeTokenSigner
	sink     *recordingAuditSink
	clock    *testClock
}

func credential(id, first string, level staff.AccessLevel, pin string, locations ...string) *staff.Credential {
	hash := ""
	if pin != "" {
		hash, _ = plainHasher{}.Hash(pin)
	}
	return &staff.Credential{
		ID:          id,
		MerchantID:  "m1",
		FirstName:   first,
		LastName:    "Tester",
		PinHash:     hash,
		Status:      staff.StatusActive,
		AccessLevel: level,
		LocationIDs: locations,
	}
}

func newFixture(t *testing.T, creds ...*staff.Credential) *fixture {
	t.Helper()

	clock := &testClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	log := logger.NewNop()
	repo := newFakeStaffRepository(creds...)
	for _, loc := range []string{"l1", "l2", "l9"} {
		require.NoError(t, repo.CreateLocation(context.Background(), &staff.Location{ID: loc, MerchantID: "m1", IsActive: true}))
	}
	attempts := ratelimit.NewMemoryAttemptTracker(auth.DefaultLockoutPolicy(), clock.now)
	sessions := sessionstore.NewMemoryStore(session.DefaultConfig(), clock.now, log)
	tokens := newFakeTokenSigner(clock.now)
	sink := &recordingAuditSink{}

	a := NewPinAuthenticator(repo, plainHasher{}, attempts, sessions, tokens,
		audit.NewLogger(sink, clock.now, log), clock.now, log)

	return &fixture{
		auth:     a,
		repo:     repo,
		attempts: attempts,
		sessions: sessions,
		tokens:   tokens,
		sink:     sink,
		clock:    clock,
	}
}

func defaultStaff() []*staff.Credential {
	return []*staff.Credential{
		credential("s-owner", "Olive", staff.AccessLevelOwner, "123456"),
		credential("s-manager", "Mia", staff.AccessLevelManager, "5678", "l1"),
		credential("s-staff", "Sam", staff.AccessLevelStaff, "9012", "l1"),
		credential("s-far", "Finn", staff.AccessLevelStaff, "4321", "l2"),
	}
}

func requireAuthError(t *testing.T, err error, errType apperrors.ErrorType) *apperrors.AuthError {
	t.Helper()
	require.Error(t, err)
	authErr := apperrors.GetAuthError(err)
	require.NotNil(t, authErr, "expected auth error, got %v", err)
	assert.Equal(t, errType, authErr.Type)
	return authErr
}

func TestAuthenticate_Success(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	result, err := f.auth.Authenticate(ctx, AuthenticateCommand{
		MerchantID: "m1", LocationID: "l1", PIN: "5678", IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)

	assert.Equal(t, "s-manager", result.Staff.ID)
	assert.Equal(t, staff.RoleManager, result.Staff.Role)
	assert.Equal(t, "l1", result.LocationID)
	assert.Equal(t, staff.PermissionsFor(staff.AccessLevelManager), result.Permissions)
	assert.Equal(t, 1, f.repo.lastLogins["s-manager"])

	entry := f.sink.last()
	assert.Equal(t, audit.ActionStaffLogin, entry.Action)
	assert.Equal(t, "s-manager", entry.StaffID)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)
	assert.Equal(t, "l1", entry.Details["locationId"])
	assert.Equal(t, "Mia Tester", entry.Details["staffName"])
}

func TestAuthenticate_WrongPinReportsRemainingAttempts(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	cmd := AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "1299"}

	_, err := f.auth.Authenticate(context.Background(), cmd)
	authErr := requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
	require.NotNil(t, authErr.RemainingAttempts)
	assert.Equal(t, 2, *authErr.RemainingAttempts)
	assert.Equal(t, "Invalid PIN. 2 attempts remaining.", authErr.Message)

	_, err = f.auth.Authenticate(context.Background(), cmd)
	authErr = requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
	assert.Equal(t, 1, *authErr.RemainingAttempts)
	assert.Equal(t, "Invalid PIN. 1 attempt remaining.", authErr.Message)
}

func TestAuthenticate_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()
	wrong := AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "1299"}

	for i := 0; i < 2; i++ {
		_, err := f.auth.Authenticate(ctx, wrong)
		requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
	}

	_, err := f.auth.Authenticate(ctx, wrong)
	authErr := requireAuthError(t, err, apperrors.ErrorTypeAccountLocked)
	require.NotNil(t, authErr.MinutesUntilUnlock)
	assert.Equal(t, 15, *authErr.MinutesUntilUnlock)

	// The owner's PIN shares the "12" prefix and is locked out too.
	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "123456"})
	requireAuthError(t, err, apperrors.ErrorTypeAccountLocked)

	// Other prefixes and locations keep their own counters.
	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l9", PIN: "123456"})
	require.NoError(t, err)

	f.clock.advance(14*time.Minute + 30*time.Second)
	_, err = f.auth.Authenticate(ctx, wrong)
	authErr = requireAuthError(t, err, apperrors.ErrorTypeAccountLocked)
	assert.Equal(t, 1, *authErr.MinutesUntilUnlock)

	f.clock.advance(time.Minute)
	result, err := f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "s-owner", result.Staff.ID)
}

func TestAuthenticate_SuccessClearsFailures(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	_, err := f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9099"})
	require.Error(t, err)

	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.NoError(t, err)

	assert.Equal(t, 3, f.attempts.RemainingAttempts(auth.LoginIdentifier("m1", "l1", "9012")))
}

func TestAuthenticate_LocationNotAssignedIsForbiddenWithoutAttempt(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	identifier := auth.LoginIdentifier("m1", "l1", "4321")
	before := f.attempts.RemainingAttempts(identifier)

	_, err := f.auth.Authenticate(context.Background(), AuthenticateCommand{
		MerchantID: "m1", LocationID: "l1", PIN: "4321",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsForbiddenError(err))
	assert.Nil(t, apperrors.GetAuthError(err))
	assert.Equal(t, before, f.attempts.RemainingAttempts(identifier))
	assert.False(t, f.attempts.IsLocked(identifier))
	assert.Empty(t, f.sink.actions())
}

func TestAuthenticate_UnknownLocationCannotResetLockout(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	wrong := AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "1299"}
	for i := 0; i < 3; i++ {
		_, err := f.auth.Authenticate(ctx, wrong)
		require.Error(t, err)
	}
	require.True(t, f.attempts.IsLocked(auth.LoginIdentifier("m1", "l1", "1299")))

	// Invented locations and other merchants' locations are refused before
	// any PIN comparison, so they neither match nor count.
	for _, loc := range []string{"l-fake-1", "l-fake-2"} {
		_, err := f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: loc, PIN: "123456"})
		require.Error(t, err)
		assert.True(t, apperrors.IsForbiddenError(err))
		assert.Equal(t, 3, f.attempts.RemainingAttempts(auth.LoginIdentifier("m1", loc, "123456")))
	}
	require.NoError(t, f.repo.CreateLocation(ctx, &staff.Location{ID: "l-other", MerchantID: "m2", IsActive: true}))
	_, err := f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l-other", PIN: "123456"})
	assert.True(t, apperrors.IsForbiddenError(err))

	assert.Zero(t, f.repo.lastLogins["s-owner"])
	assert.Empty(t, f.sink.actions())
}

func TestAuthenticate_LocationLookupFailureIsInternal(t *testing.T) {
	repo := new(mockStaffRepository)
	repo.On("HasLocation", mock.Anything, "m1", "l1").Return(false, errors.New("connection refused"))

	log := logger.NewNop()
	a := NewPinAuthenticator(repo, plainHasher{},
		ratelimit.NewMemoryAttemptTracker(auth.DefaultLockoutPolicy(), nil),
		sessionstore.NewMemoryStore(session.DefaultConfig(), nil, log),
		newFakeTokenSigner(time.Now),
		audit.NewLogger(&recordingAuditSink{}, nil, log), nil, log)

	_, err := a.Authenticate(context.Background(), AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "1234"})
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
	repo.AssertNotCalled(t, "FindActiveByMerchant", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthenticate_IgnoresInactiveStaffAndOtherMerchants(t *testing.T) {
	inactive := credential("s-gone", "Gail", staff.AccessLevelOwner, "7777")
	inactive.Status = staff.StatusInactive
	other := credential("s-other", "Otto", staff.AccessLevelOwner, "8888")
	other.MerchantID = "m2"
	f := newFixture(t, inactive, other)

	for _, pin := range []string{"7777", "8888"} {
		_, err := f.auth.Authenticate(context.Background(), AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: pin})
		requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
	}
}

func TestAuthenticate_FirstMatchInStoreOrderWins(t *testing.T) {
	first := credential("s-first", "Ada", staff.AccessLevelStaff, "2468")
	second := credential("s-second", "Bea", staff.AccessLevelOwner, "2468")
	f := newFixture(t, first, second)

	result, err := f.auth.Authenticate(context.Background(), AuthenticateCommand{MerchantID: "m1", PIN: "2468"})
	require.NoError(t, err)
	assert.Equal(t, "s-first", result.Staff.ID)
}

func TestAuthenticate_RepositoryFailureIsInternal(t *testing.T) {
	repo := new(mockStaffRepository)
	repo.On("HasLocation", mock.Anything, "m1", "l1").Return(true, nil)
	repo.On("FindActiveByMerchant", mock.Anything, "m1", "").Return(nil, errors.New("connection refused"))

	log := logger.NewNop()
	a := NewPinAuthenticator(repo, plainHasher{},
		ratelimit.NewMemoryAttemptTracker(auth.DefaultLockoutPolicy(), nil),
		sessionstore.NewMemoryStore(session.DefaultConfig(), nil, log),
		newFakeTokenSigner(time.Now),
		audit.NewLogger(&recordingAuditSink{}, nil, log), nil, log)

	_, err := a.Authenticate(context.Background(), AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "1234"})
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeInternal, appErr.Type)
	repo.AssertExpectations(t)
}

func TestLogin_CreatesSession(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	result, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.NoError(t, err)

	assert.Equal(t, "s-staff", result.Staff.ID)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, f.clock.now().Add(24*time.Hour), result.ExpiresAt)

	sess, err := f.auth.GetSession(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "s-staff", sess.Subject.StaffID)
	assert.Equal(t, "s-staff", sess.Subject.UserID)
	assert.Equal(t, "m1", sess.Subject.MerchantID)
	assert.Equal(t, "l1", sess.Subject.LocationID)
	assert.Equal(t, staff.RoleStaff, sess.Subject.Role)
	assert.Equal(t, session.TypeStaffPin, sess.Subject.Type)
	assert.Equal(t, staff.PermissionsFor(staff.AccessLevelStaff), sess.Subject.Permissions)

	n, err := f.auth.CountActiveSessions(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateSession_RejectsInactiveAndForeignLocation(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	_, err := f.auth.CreateSession(ctx, "s-far", "m1", "l1")
	assert.True(t, apperrors.IsForbiddenError(err))

	f.repo.setStatus("s-staff", staff.StatusInactive)
	_, err = f.auth.CreateSession(ctx, "s-staff", "m1", "l1")
	requireAuthError(t, err, apperrors.ErrorTypeAccountInactive)

	_, err = f.auth.CreateSession(ctx, "s-owner", "m2", "l1")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestGetSession_UnknownTokenIsSessionExpired(t *testing.T) {
	f := newFixture(t, defaultStaff()...)

	_, err := f.auth.GetSession(context.Background(), "nope")
	requireAuthError(t, err, apperrors.ErrorTypeSessionExpired)
}

func TestRefresh_RotatesSession(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	first, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "5678"})
	require.NoError(t, err)

	f.clock.advance(time.Hour)
	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, "s-manager", second.Staff.ID)
	assert.Equal(t, staff.PermissionsFor(staff.AccessLevelManager), second.Session.Subject.Permissions)
	assert.Equal(t, "l1", second.Session.Subject.LocationID)
}

func TestRefresh_Failures(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	_, err := f.auth.Refresh(ctx, "garbage")
	requireAuthError(t, err, apperrors.ErrorTypeTokenInvalid)

	login, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.NoError(t, err)

	f.repo.setStatus("s-staff", staff.StatusInactive)
	_, err = f.auth.Refresh(ctx, login.RefreshToken)
	requireAuthError(t, err, apperrors.ErrorTypeAccountInactive)

	f.tokens.expire(login.RefreshToken)
	_, err = f.auth.Refresh(ctx, login.RefreshToken)
	requireAuthError(t, err, apperrors.ErrorTypeTokenExpired)
}

func TestLogout(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	login, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, login.AccessToken, "10.0.0.2"))

	_, err = f.auth.GetSession(ctx, login.AccessToken)
	requireAuthError(t, err, apperrors.ErrorTypeSessionExpired)

	entry := f.sink.last()
	assert.Equal(t, audit.ActionStaffLogout, entry.Action)
	assert.Equal(t, "s-staff", entry.StaffID)

	// Logging out twice is harmless and not audited again.
	count := len(f.sink.actions())
	require.NoError(t, f.auth.Logout(ctx, login.AccessToken, "10.0.0.2"))
	assert.Len(t, f.sink.actions(), count)
}

func TestLogout_MerchantSessionIsAuditedAsMerchant(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()
	require.NoError(t, f.sessions.Create(ctx, "merchant-token", session.Session{
		Subject: session.Subject{
			UserID:      "acct_1",
			MerchantID:  "m1",
			Role:        staff.RoleMerchant,
			Permissions: staff.MerchantPermissions(),
			Type:        session.TypeMerchant,
		},
		IssuedAt:  f.clock.now(),
		ExpiresAt: f.clock.now().Add(time.Hour),
	}))

	require.NoError(t, f.auth.Logout(ctx, "merchant-token", "10.0.0.3"))

	entry := f.sink.last()
	assert.Equal(t, audit.ActionMerchantLogout, entry.Action)
	assert.Equal(t, audit.EntityTypeMerchant, entry.EntityType)
	assert.Equal(t, "m1", entry.EntityID)
	assert.Empty(t, entry.StaffID)
	assert.Contains(t, entry.Details, "logoutAt")
}

func TestRefresh_RejectsMerchantToken(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	pair, err := f.tokens.Generate(session.Subject{
		UserID:     "acct_1",
		MerchantID: "m1",
		Role:       staff.RoleMerchant,
		Type:       session.TypeMerchant,
	})
	require.NoError(t, err)

	_, err = f.auth.Refresh(context.Background(), pair.RefreshToken)

	requireAuthError(t, err, apperrors.ErrorTypeTokenInvalid)
}

func TestRevokeSessions(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
		require.NoError(t, err)
	}
	_, err := f.auth.Login(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "5678"})
	require.NoError(t, err)

	n, err := f.auth.RevokeStaffSessions(ctx, "m1", "s-staff")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.auth.RevokeStaffSessions(ctx, "m2", "s-manager")
	assert.True(t, apperrors.IsNotFoundError(err))

	n, err = f.auth.RevokeMerchantSessions(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := f.auth.CountActiveSessions(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVerifyPinForAction(t *testing.T) {
	tests := []struct {
		name        string
		staffID     string
		pin         string
		action      string
		wantErr     func(t *testing.T, err error)
		wantAudit   string
		wantStaffID string
	}{
		{
			name:        "allowed at level",
			staffID:     "s-manager",
			pin:         "5678",
			action:      staff.ActionRefundPayment,
			wantAudit:   "action." + staff.ActionRefundPayment,
			wantStaffID: "s-manager",
		},
		{
			name:    "insufficient level",
			staffID: "s-staff",
			pin:     "9012",
			action:  staff.ActionRefundPayment,
			wantErr: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsForbiddenError(err))
			},
			wantAudit:   audit.ActionUnauthorized,
			wantStaffID: "s-staff",
		},
		{
			name:    "unknown action needs owner",
			staffID: "s-manager",
			pin:     "5678",
			action:  "launch_rockets",
			wantErr: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsForbiddenError(err))
			},
			wantAudit:   audit.ActionUnauthorized,
			wantStaffID: "s-manager",
		},
		{
			name:    "wrong pin",
			staffID: "s-owner",
			pin:     "000000",
			action:  staff.ActionModifySettings,
			wantErr: func(t *testing.T, err error) {
				requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
			},
			wantAudit: audit.ActionPinVerifyFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, defaultStaff()...)

			summary, err := f.auth.VerifyPinForAction(context.Background(), VerifyActionCommand{
				MerchantID: "m1",
				StaffID:    tt.staffID,
				PIN:        tt.pin,
				Action:     tt.action,
				ResourceID: "r-42",
			})

			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Nil(t, summary)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.staffID, summary.ID)
			}

			entry := f.sink.last()
			assert.Equal(t, tt.wantAudit, entry.Action)
			assert.Equal(t, tt.wantStaffID, entry.StaffID)
			assert.Equal(t, "r-42", entry.EntityID)
		})
	}
}

func TestVerifyPinForAction_StepUpLockout(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()
	cmd := VerifyActionCommand{MerchantID: "m1", StaffID: "s-manager", PIN: "5600", Action: staff.ActionCancelBooking}

	for i := 0; i < 3; i++ {
		_, err := f.auth.VerifyPinForAction(ctx, cmd)
		require.Error(t, err)
	}
	assert.True(t, f.attempts.IsLocked(auth.StepUpIdentifier("m1", "5678")))

	// Correct PIN with the same prefix is refused while locked.
	cmd.PIN = "5678"
	_, err := f.auth.VerifyPinForAction(ctx, cmd)
	requireAuthError(t, err, apperrors.ErrorTypeAccountLocked)

	// Login counters are scoped separately.
	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "5678"})
	require.NoError(t, err)
}

func TestVerifyPinForAction_UnknownStaff(t *testing.T) {
	f := newFixture(t, defaultStaff()...)

	_, err := f.auth.VerifyPinForAction(context.Background(), VerifyActionCommand{
		MerchantID: "m2", StaffID: "s-owner", PIN: "123456", Action: staff.ActionViewReports,
	})
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.Empty(t, f.sink.actions())
}

func TestChangePin(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	err := f.auth.ChangePin(ctx, ChangePinCommand{MerchantID: "m1", StaffID: "s-staff", CurrentPIN: "9012", NewPIN: "3579"})
	require.NoError(t, err)
	assert.Equal(t, audit.ActionPinChanged, f.sink.last().Action)

	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "3579"})
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, AuthenticateCommand{MerchantID: "m1", LocationID: "l1", PIN: "9012"})
	require.Error(t, err)
}

func TestChangePin_Rejections(t *testing.T) {
	noPin := credential("s-nopin", "Nia", staff.AccessLevelStaff, "")

	tests := []struct {
		name      string
		cmd       ChangePinCommand
		check     func(t *testing.T, err error)
		wantAudit string
	}{
		{
			name: "malformed new pin",
			cmd:  ChangePinCommand{StaffID: "s-staff", CurrentPIN: "9012", NewPIN: "12ab"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsValidationError(err))
			},
		},
		{
			name: "same pin",
			cmd:  ChangePinCommand{StaffID: "s-staff", CurrentPIN: "9012", NewPIN: "9012"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsValidationError(err))
			},
		},
		{
			name: "no pin set",
			cmd:  ChangePinCommand{StaffID: "s-nopin", CurrentPIN: "0000", NewPIN: "1357"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsValidationError(err))
			},
		},
		{
			name: "wrong current pin",
			cmd:  ChangePinCommand{StaffID: "s-staff", CurrentPIN: "9999", NewPIN: "1357"},
			check: func(t *testing.T, err error) {
				requireAuthError(t, err, apperrors.ErrorTypeInvalidCredentials)
			},
			wantAudit: audit.ActionPinChangeFailed,
		},
		{
			name: "pin held by another staff member",
			cmd:  ChangePinCommand{StaffID: "s-staff", CurrentPIN: "9012", NewPIN: "5678"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsConflictError(err))
			},
			wantAudit: audit.ActionPinChangeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, append(defaultStaff(), noPin)...)
			tt.cmd.MerchantID = "m1"

			err := f.auth.ChangePin(context.Background(), tt.cmd)
			require.Error(t, err)
			tt.check(t, err)

			if tt.wantAudit == "" {
				assert.False(t, f.sink.has(audit.ActionPinChangeFailed))
			} else {
				assert.Equal(t, tt.wantAudit, f.sink.last().Action)
			}
			assert.False(t, f.sink.has(audit.ActionPinChanged))
		})
	}
}

func TestUnlockByPin(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	summary, err := f.auth.UnlockByPin(ctx, UnlockCommand{MerchantID: "m1", PIN: "4321"})
	require.NoError(t, err)
	assert.Equal(t, "s-far", summary.ID)
	assert.Equal(t, audit.ActionStaffUnlock, f.sink.last().Action)

	n, err := f.auth.CountActiveSessions(ctx, "m1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnlockByPin_SharedMerchantCounter(t *testing.T) {
	f := newFixture(t, defaultStaff()...)
	ctx := context.Background()

	for _, pin := range []string{"1111", "2222", "3333"} {
		_, err := f.auth.UnlockByPin(ctx, UnlockCommand{MerchantID: "m1", PIN: pin})
		require.Error(t, err)
	}

	_, err := f.auth.UnlockByPin(ctx, UnlockCommand{MerchantID: "m1", PIN: "9012"})
	requireAuthError(t, err, apperrors.ErrorTypeAccountLocked)
}

func TestPinStatus(t *testing.T) {
	noPin := credential("s-nopin", "Nia", staff.AccessLevelStaff, "", "l1")
	f := newFixture(t, append(defaultStaff(), noPin)...)
	ctx := context.Background()

	status, err := f.auth.PinStatus(ctx, "m1", "")
	require.NoError(t, err)
	assert.True(t, status.HasPins)
	assert.Equal(t, 4, status.StaffCount)
	assert.False(t, status.HasDuplicates)

	status, err = f.auth.PinStatus(ctx, "m1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 2, status.StaffCount)

	status, err = f.auth.PinStatus(ctx, "m9", "")
	require.NoError(t, err)
	assert.False(t, status.HasPins)
	assert.Zero(t, status.StaffCount)
}
