package users

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
)

// --- Mock Repository ---

// mockRepo implements Repository for testing.
type mockRepo struct {
	createFn               func(ctx context.Context, user *User) error
	updateFn               func(ctx context.Context, user *User) error
	deleteFn               func(ctx context.Context, id string) error
	findByIDFn             func(ctx context.Context, id string) (*User, error)
	findByEmailFn          func(ctx context.Context, email string) (*User, error)
	emailExistsFn          func(ctx context.Context, email string) (bool, error)
	updateLastLoginFn      func(ctx context.Context, id string) error
	updatePasswordFn       func(ctx context.Context, id, passwordHash string) error
	updateProfileFn        func(ctx context.Context, id, firstname, lastname string) error
	adjustHolidayBalanceFn func(ctx context.Context, id string, deltaDays float64) error
	listByMarketFn         func(ctx context.Context, market string) ([]User, error)
	listAllFn              func(ctx context.Context) ([]User, error)
	listManagersFn         func(ctx context.Context, market string) ([]User, error)
}

func (m *mockRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockRepo) Update(ctx context.Context, user *User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash)
	}
	return nil
}

func (m *mockRepo) UpdateProfile(ctx context.Context, id, firstname, lastname string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, firstname, lastname)
	}
	return nil
}

func (m *mockRepo) AdjustHolidayBalance(ctx context.Context, id string, deltaDays float64) error {
	if m.adjustHolidayBalanceFn != nil {
		return m.adjustHolidayBalanceFn(ctx, id, deltaDays)
	}
	return nil
}

func (m *mockRepo) ListByMarket(ctx context.Context, market string) ([]User, error) {
	if m.listByMarketFn != nil {
		return m.listByMarketFn(ctx, market)
	}
	return nil, nil
}

func (m *mockRepo) ListAll(ctx context.Context) ([]User, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) ListManagers(ctx context.Context, market string) ([]User, error) {
	if m.listManagersFn != nil {
		return m.listManagersFn(ctx, market)
	}
	return nil, nil
}

// --- Mock Mailer ---

// mockMailer implements notify.Mailer for testing.
type mockMailer struct {
	sendFn func(ctx context.Context, to []string, subject, body string) error
	// Capture fields for assertions.
	lastTo      []string
	lastSubject string
	lastBody    string
	sendCount   int
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.lastBody = body
	m.sendCount++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, subject, body)
	}
	return nil
}

func (m *mockMailer) IsConfigured() bool { return true }

// --- Test Helpers ---

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func testAdmin() *User {
	return &User{ID: "admin-1", Email: "admin@example.com", Level: LevelAdmin, Market: "BK"}
}

func validEditInput() EditInput {
	return EditInput{
		Email:        "new@example.com",
		Firstname:    "Ada",
		Lastname:     "Barnes",
		Level:        LevelUser,
		Market:       "BK",
		Process:      "AP",
		StartDate:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		BreakMinutes: 30,
		ShiftMinutes: 465,
	}
}

// --- Level Tests ---

func TestLevelOrdering(t *testing.T) {
	if !LevelSuper.AtLeast(LevelAdmin) {
		t.Error("super should outrank admin")
	}
	if !LevelAdmin.AtLeast(LevelTeamLeader) {
		t.Error("admin should outrank team leader")
	}
	if LevelUser.AtLeast(LevelTeamLeader) {
		t.Error("regular user should not outrank team leader")
	}
}

func TestParseLevel(t *testing.T) {
	for code, want := range map[string]Level{
		"RUSER": LevelUser,
		"TEAML": LevelTeamLeader,
		"ADMIN": LevelAdmin,
		"SUPER": LevelSuper,
	} {
		got, err := ParseLevel(code)
		if err != nil {
			t.Errorf("ParseLevel(%q) returned error: %v", code, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", code, got, want)
		}
	}

	if _, err := ParseLevel("WIZARD"); err == nil {
		t.Error("expected error for unknown level code")
	}
}

func TestCanSee(t *testing.T) {
	admin := &User{ID: "a", Level: LevelAdmin, Market: "BK"}
	sameMarket := &User{ID: "b", Level: LevelUser, Market: "BK"}
	otherMarket := &User{ID: "c", Level: LevelUser, Market: "CZ"}
	super := &User{ID: "d", Level: LevelSuper, Market: "BK"}

	if !admin.CanSee(sameMarket) {
		t.Error("admin should see users in their market")
	}
	if admin.CanSee(otherMarket) {
		t.Error("admin should not see users in other markets")
	}
	if !super.CanSee(otherMarket) {
		t.Error("super should see everyone")
	}
	if sameMarket.CanSee(otherMarket) {
		t.Error("regular user should only see themselves")
	}
	if !sameMarket.CanSee(sameMarket) {
		t.Error("user should see themselves")
	}
}

// --- Password Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash not in PHC format: %s", hash)
	}
	if !VerifyPassword("correct horse battery", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("correct horse battery", "not-a-hash") {
		t.Error("malformed hash accepted")
	}
}

func TestGeneratePassword(t *testing.T) {
	p, err := GeneratePassword(12)
	if err != nil {
		t.Fatalf("GeneratePassword returned error: %v", err)
	}
	if len(p) != 12 {
		t.Errorf("password length = %d, want 12", len(p))
	}
	for _, r := range p {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Errorf("password contains unexpected character %q", r)
		}
	}
}

// --- Edit Tests ---

func TestEdit_CreateSendsCredentialMail(t *testing.T) {
	var created *User
	repo := &mockRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	mailer := &mockMailer{}
	svc := NewService(repo, mailer)

	_, err := svc.Edit(context.Background(), testAdmin(), validEditInput())
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if created == nil {
		t.Fatal("user was not persisted")
	}
	if created.Email != "new@example.com" {
		t.Errorf("email = %q, want new@example.com", created.Email)
	}
	if created.PasswordHash == "" {
		t.Error("generated password was not hashed")
	}
	if mailer.sendCount != 1 {
		t.Fatalf("sendCount = %d, want 1", mailer.sendCount)
	}
	if mailer.lastSubject != "Your timetracker account." {
		t.Errorf("mail subject = %q", mailer.lastSubject)
	}
	if len(mailer.lastTo) != 1 || mailer.lastTo[0] != "new@example.com" {
		t.Errorf("mail recipients = %v", mailer.lastTo)
	}
}

func TestEdit_CreateDuplicateEmail(t *testing.T) {
	repo := &mockRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	_, err := svc.Edit(context.Background(), testAdmin(), validEditInput())
	assertAppError(t, err, 409)
}

func TestEdit_RequiresAdmin(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})
	actor := &User{ID: "u-1", Level: LevelTeamLeader, Market: "BK"}

	_, err := svc.Edit(context.Background(), actor, validEditInput())
	assertAppError(t, err, 403)
}

func TestEdit_InvalidEmail(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})

	input := validEditInput()
	input.Email = "not-an-email"
	_, err := svc.Edit(context.Background(), testAdmin(), input)
	assertAppError(t, err, 422)
}

func TestEdit_UpdateOtherMarketForbidden(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelUser, Market: "CZ"}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	input := validEditInput()
	input.ID = "u-2"
	_, err := svc.Edit(context.Background(), testAdmin(), input)
	assertAppError(t, err, 403)
}

func TestEdit_CreateAtOwnLevelForbidden(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})

	input := validEditInput()
	input.Level = LevelAdmin
	_, err := svc.Edit(context.Background(), testAdmin(), input)
	assertAppError(t, err, 403)
}

func TestEdit_RaiseToOwnLevelForbidden(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelTeamLeader, Market: "BK"}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	input := validEditInput()
	input.ID = "u-2"
	input.Level = LevelAdmin
	_, err := svc.Edit(context.Background(), testAdmin(), input)
	assertAppError(t, err, 403)
}

func TestEdit_SuperLevelImmutable(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelSuper, Market: "BK"}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})
	actor := &User{ID: "super-1", Level: LevelSuper, Market: "BK"}

	input := validEditInput()
	input.ID = "u-2"
	input.Level = LevelAdmin
	_, err := svc.Edit(context.Background(), actor, input)
	assertAppError(t, err, 403)
}

func TestEdit_DisableSelfRejected(t *testing.T) {
	admin := testAdmin()
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			clone := *admin
			return &clone, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	input := validEditInput()
	input.ID = admin.ID
	input.Level = admin.Level
	input.Disabled = true
	_, err := svc.Edit(context.Background(), admin, input)
	assertAppError(t, err, 400)
}

func TestEdit_UpdateKeepsPasswordWhenEmpty(t *testing.T) {
	var updated *User
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelUser, Market: "BK", PasswordHash: "$argon2id$existing"}, nil
		},
		updateFn: func(ctx context.Context, user *User) error {
			updated = user
			return nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	input := validEditInput()
	input.ID = "u-2"
	_, err := svc.Edit(context.Background(), testAdmin(), input)
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}
	if updated.PasswordHash != "$argon2id$existing" {
		t.Errorf("password hash changed: %q", updated.PasswordHash)
	}
}

// --- Delete Tests ---

func TestDelete_Self(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})
	admin := testAdmin()

	err := svc.Delete(context.Background(), admin, admin.ID)
	assertAppError(t, err, 400)
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})

	err := svc.Delete(context.Background(), testAdmin(), "missing")
	assertAppError(t, err, 404)
}

func TestDelete_OK(t *testing.T) {
	var deletedID string
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelUser, Market: "BK"}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	if err := svc.Delete(context.Background(), testAdmin(), "u-2"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deletedID != "u-2" {
		t.Errorf("deleted %q, want u-2", deletedID)
	}
}

// --- Authenticate Tests ---

func TestAuthenticate_OK(t *testing.T) {
	hash, _ := HashPassword("secret-password")
	repo := &mockRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "u-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	user, err := svc.Authenticate(context.Background(), "User@Example.com", "secret-password")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	hash, _ := HashPassword("secret-password")
	repo := &mockRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "u-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	_, err := svc.Authenticate(context.Background(), "user@example.com", "wrong")
	assertAppError(t, err, 401)
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockMailer{})

	_, err := svc.Authenticate(context.Background(), "missing@example.com", "whatever")
	assertAppError(t, err, 401)
}

func TestAuthenticate_DisabledAccount(t *testing.T) {
	hash, _ := HashPassword("secret-password")
	repo := &mockRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "u-1", Email: email, PasswordHash: hash, Disabled: true}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	_, err := svc.Authenticate(context.Background(), "user@example.com", "secret-password")
	assertAppError(t, err, 401)
}

// --- Visible Tests ---

func TestVisible_AdminSeesMarket(t *testing.T) {
	var askedMarket string
	repo := &mockRepo{
		listByMarketFn: func(ctx context.Context, market string) ([]User, error) {
			askedMarket = market
			return []User{{ID: "u-1"}, {ID: "u-2"}}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	list, err := svc.Visible(context.Background(), testAdmin())
	if err != nil {
		t.Fatalf("Visible returned error: %v", err)
	}
	if askedMarket != "BK" {
		t.Errorf("listed market %q, want BK", askedMarket)
	}
	if len(list) != 2 {
		t.Errorf("got %d users, want 2", len(list))
	}
}

func TestVisible_SuperSeesAll(t *testing.T) {
	called := false
	repo := &mockRepo{
		listAllFn: func(ctx context.Context) ([]User, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	if _, err := svc.Visible(context.Background(), &User{ID: "s", Level: LevelSuper}); err != nil {
		t.Fatalf("Visible returned error: %v", err)
	}
	if !called {
		t.Error("super did not list all users")
	}
}

func TestVisible_RegularUserSeesSelf(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Level: LevelUser}, nil
		},
	}
	svc := NewService(repo, &mockMailer{})

	list, err := svc.Visible(context.Background(), &User{ID: "u-1", Level: LevelUser})
	if err != nil {
		t.Fatalf("Visible returned error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "u-1" {
		t.Errorf("got %v, want just u-1", list)
	}
}
