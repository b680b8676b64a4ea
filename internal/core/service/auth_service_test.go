package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/infrastructure/resetstore"
	"github.com/vetapi/clinic-api/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type stubAccountRepo struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	nextID     int
	findErr    error
	updateErr  error
	lastAccess map[string]time.Time
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{
		accounts:   make(map[string]*domain.Account),
		lastAccess: make(map[string]time.Time),
	}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if a, ok := r.accounts[email]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return nil, domain.ErrAccountExists
	}
	r.nextID++
	stored := cloneAccount(account)
	stored.ID = string(rune('0' + r.nextID))
	r.accounts[stored.Email] = stored
	return cloneAccount(stored), nil
}

func (r *stubAccountRepo) UpdateLastAccess(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, a := range r.accounts {
		if a.ID == id {
			a.LastAccess = &at
			r.lastAccess[id] = at
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id string, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			a.PasswordHash = hash
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

type recordingNotifier struct {
	mu     sync.Mutex
	emails []string
	tokens []string
}

func (n *recordingNotifier) NotifyPasswordReset(_ context.Context, email, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
	n.tokens = append(n.tokens, token)
}

type fixture struct {
	repo     *stubAccountRepo
	hasher   *security.BcryptHasher
	codec    *security.JWTCodec
	store    *resetstore.MemoryStore
	notifier *recordingNotifier
	svc      *AuthService
}

func newFixture(t *testing.T, opts ...AuthOption) *fixture {
	t.Helper()
	codec, err := security.NewJWTCodec(testSecret, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	f := &fixture{
		repo:     newStubAccountRepo(),
		hasher:   security.NewBcryptHasher(bcrypt.MinCost),
		codec:    codec,
		store:    resetstore.NewMemoryStore(time.Hour),
		notifier: &recordingNotifier{},
	}
	opts = append([]AuthOption{WithNotifier(f.notifier)}, opts...)
	f.svc = NewAuthService(f.repo, f.hasher, f.codec, f.store, opts...)
	return f
}

func (f *fixture) seed(t *testing.T, email, password, role string) *domain.Account {
	t.Helper()
	accounts := NewAccountService(f.repo, f.hasher)
	a, err := accounts.Create(context.Background(), createInput(email, password, role))
	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return a
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Login(context.Background(), "unknown@x.com", "anything")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Success || res.Message != domain.MsgUserNotFound {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.AccessToken != "" || res.RefreshToken != "" {
		t.Fatalf("failed login must not carry tokens")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	res, err := f.svc.Login(context.Background(), "vet@clinic.test", "wrong-pass")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Success || res.Message != domain.MsgInvalidCredentials {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	issuedAt := time.Now()
	res, err := f.svc.Login(context.Background(), "vet@clinic.test", "s3cret!")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !res.Success || res.Message != domain.MsgLoginSuccessful {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if !res.ExpiresAt.After(issuedAt) {
		t.Fatalf("expiry %v not after issuance", res.ExpiresAt)
	}
	if res.AccountID != seeded.ID || res.Email != seeded.Email || res.Role != domain.RoleVeterinarian {
		t.Fatalf("unexpected identity in result: %+v", res)
	}
	if _, ok := f.repo.lastAccess[seeded.ID]; !ok {
		t.Fatalf("expected last access to be recorded")
	}

	role, err := f.codec.ExtractRole(res.AccessToken)
	if err != nil || role != domain.RoleVeterinarian {
		t.Fatalf("access token role = %q, %v", role, err)
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = errors.New("connection reset")

	if _, err := f.svc.Login(context.Background(), "vet@clinic.test", "pw"); err == nil {
		t.Fatalf("expected error when the account store fails")
	}
}

func TestAuthService_Login_LastAccessFailureIssuesNoTokens(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)
	storeErr := errors.New("write timeout")
	f.repo.updateErr = storeErr

	res, err := f.svc.Login(context.Background(), "vet@clinic.test", "s3cret!")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if res != nil {
		t.Fatalf("no result may be returned when last access is not recorded: %+v", res)
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "desk@clinic.test", "s3cret!", domain.RoleReceptionist)

	login, err := f.svc.Login(context.Background(), "desk@clinic.test", "s3cret!")
	if err != nil || !login.Success {
		t.Fatalf("login failed: %+v %v", login, err)
	}

	// Promote the account; the new access token must carry the current role.
	f.repo.accounts["desk@clinic.test"].Role = domain.RoleAdmin

	res := f.svc.Refresh(context.Background(), login.RefreshToken)
	if !res.Success || res.Message != domain.MsgTokenRenewed {
		t.Fatalf("unexpected result: %+v", res)
	}
	role, err := f.codec.ExtractRole(res.AccessToken)
	if err != nil || role != domain.RoleAdmin {
		t.Fatalf("refreshed role = %q, %v", role, err)
	}
	if res.RefreshToken == "" || res.ExpiresAt.IsZero() {
		t.Fatalf("expected a full token pair: %+v", res)
	}
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	past, err := security.NewJWTCodec(testSecret, time.Hour, 24*time.Hour,
		security.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	expired, err := past.IssueRefreshToken("vet@clinic.test")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	res := f.svc.Refresh(context.Background(), expired)
	if res.Success || res.Message != domain.MsgInvalidRefreshToken {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	access, err := f.codec.IssueAccessToken(seeded.Email, seeded.ID, seeded.Role)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	res := f.svc.Refresh(context.Background(), access)
	if res.Success || res.Message != domain.MsgInvalidRefreshToken {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Refresh_UnknownAccount(t *testing.T) {
	f := newFixture(t)
	token, err := f.codec.IssueRefreshToken("gone@clinic.test")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	res := f.svc.Refresh(context.Background(), token)
	if res.Success || res.Message != domain.MsgUserNotFound {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Refresh_UnexpectedErrorIsContained(t *testing.T) {
	f := newFixture(t)
	token, err := f.codec.IssueRefreshToken("vet@clinic.test")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	f.repo.findErr = errors.New("connection reset")

	res := f.svc.Refresh(context.Background(), token)
	if res.Success || res.Message != domain.MsgRefreshError {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_Refresh_Garbage(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Refresh(context.Background(), "not-a-token")
	if res.Success || res.Message != domain.MsgInvalidRefreshToken {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_ForgotPassword_IdenticalAcknowledgement(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	known, err := f.svc.ForgotPassword(context.Background(), "vet@clinic.test")
	if err != nil {
		t.Fatalf("ForgotPassword(known): %v", err)
	}
	unknown, err := f.svc.ForgotPassword(context.Background(), "nobody@clinic.test")
	if err != nil {
		t.Fatalf("ForgotPassword(unknown): %v", err)
	}
	if *known != *unknown {
		t.Fatalf("acknowledgements differ: %+v vs %+v", known, unknown)
	}
	if !known.Success || known.Message != domain.MsgResetRequested || known.ResetToken != "" {
		t.Fatalf("unexpected acknowledgement: %+v", known)
	}

	if len(f.notifier.emails) != 1 || f.notifier.emails[0] != "vet@clinic.test" {
		t.Fatalf("expected a single notification for the known account, got %v", f.notifier.emails)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected one reset entry, got %d", f.store.Len())
	}
}

func TestAuthService_ForgotPassword_ExposesTokenWhenEnabled(t *testing.T) {
	f := newFixture(t, WithResetTokenExposure(true))
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	res, err := f.svc.ForgotPassword(context.Background(), "vet@clinic.test")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if res.ResetToken == "" || res.ResetToken != f.notifier.tokens[0] {
		t.Fatalf("expected echoed token to match delivered token: %+v", res)
	}

	unknown, _ := f.svc.ForgotPassword(context.Background(), "nobody@clinic.test")
	if unknown.ResetToken != "" {
		t.Fatalf("no token must be echoed for unknown emails")
	}
}

func TestAuthService_ResetPassword_MismatchKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	token, err := f.store.Create(context.Background(), "vet@clinic.test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := f.svc.ResetPassword(context.Background(), token, "abc", "xyz")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if res.Success || res.Message != domain.MsgPasswordsMismatch {
		t.Fatalf("unexpected result: %+v", res)
	}

	email, err := f.store.Consume(context.Background(), token)
	if err != nil || email != "vet@clinic.test" {
		t.Fatalf("token should still resolve after a mismatch: %q, %v", email, err)
	}
}

func TestAuthService_ResetPassword_OverlongPasswordKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "s3cret!", domain.RoleVeterinarian)

	token, err := f.store.Create(context.Background(), "vet@clinic.test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	long := strings.Repeat("a", domain.MaxPasswordBytes+8)
	res, err := f.svc.ResetPassword(context.Background(), token, long, long)
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if res.Success || res.Message != domain.MsgPasswordTooLong {
		t.Fatalf("unexpected result: %+v", res)
	}

	email, err := f.store.Consume(context.Background(), token)
	if err != nil || email != "vet@clinic.test" {
		t.Fatalf("token should still resolve after a rejected password: %q, %v", email, err)
	}
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "vet@clinic.test", "old-pass", domain.RoleVeterinarian)

	if _, err := f.svc.ForgotPassword(context.Background(), "vet@clinic.test"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	token := f.notifier.tokens[0]

	res, err := f.svc.ResetPassword(context.Background(), token, "new-pass", "new-pass")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if !res.Success || res.Message != domain.MsgPasswordReset {
		t.Fatalf("unexpected result: %+v", res)
	}

	if login, _ := f.svc.Login(context.Background(), "vet@clinic.test", "old-pass"); login.Success {
		t.Fatalf("old password must no longer work")
	}
	if login, _ := f.svc.Login(context.Background(), "vet@clinic.test", "new-pass"); !login.Success {
		t.Fatalf("new password must work: %+v", login)
	}

	again, err := f.svc.ResetPassword(context.Background(), token, "other-pass", "other-pass")
	if err != nil {
		t.Fatalf("ResetPassword (reuse): %v", err)
	}
	if again.Success || again.Message != domain.MsgInvalidResetToken {
		t.Fatalf("token must be single use: %+v", again)
	}
}

func TestAuthService_ResetPassword_InvalidToken(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.ResetPassword(context.Background(), "missing", "pw1234", "pw1234")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if res.Success || res.Message != domain.MsgInvalidResetToken {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAuthService_ResetPassword_AccountGone(t *testing.T) {
	f := newFixture(t)
	token, _ := f.store.Create(context.Background(), "ghost@clinic.test")

	res, err := f.svc.ResetPassword(context.Background(), token, "pw1234", "pw1234")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if res.Success || res.Message != domain.MsgUserNotFound {
		t.Fatalf("unexpected result: %+v", res)
	}
}
