package entries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// --- Mock Repository ---

// mockRepo implements Repository for testing.
type mockRepo struct {
	createFn            func(ctx context.Context, entry *Entry) (int64, error)
	updateFn            func(ctx context.Context, entry *Entry) error
	deleteFn            func(ctx context.Context, id int64) error
	findByIDFn          func(ctx context.Context, id int64) (*Entry, error)
	findByUserAndDateFn func(ctx context.Context, userID, entryDate string) (*Entry, error)
	listMonthFn         func(ctx context.Context, userID string, year, month int) ([]Entry, error)
	listRangeFn         func(ctx context.Context, userID, from, to string) ([]Entry, error)
	updateCommentsFn    func(ctx context.Context, id int64, comments string) error
}

func (m *mockRepo) Create(ctx context.Context, entry *Entry) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	return 1, nil
}

func (m *mockRepo) Update(ctx context.Context, entry *Entry) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, entry)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*Entry, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("entry not found")
}

func (m *mockRepo) FindByUserAndDate(ctx context.Context, userID, entryDate string) (*Entry, error) {
	if m.findByUserAndDateFn != nil {
		return m.findByUserAndDateFn(ctx, userID, entryDate)
	}
	return nil, apperror.NewNotFound("entry not found")
}

func (m *mockRepo) ListMonth(ctx context.Context, userID string, year, month int) ([]Entry, error) {
	if m.listMonthFn != nil {
		return m.listMonthFn(ctx, userID, year, month)
	}
	return nil, nil
}

func (m *mockRepo) ListRange(ctx context.Context, userID, from, to string) ([]Entry, error) {
	if m.listRangeFn != nil {
		return m.listRangeFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockRepo) UpdateComments(ctx context.Context, id int64, comments string) error {
	if m.updateCommentsFn != nil {
		return m.updateCommentsFn(ctx, id, comments)
	}
	return nil
}

// --- Mock collaborators ---

// mockUsers implements users.Service; only Managers is used here.
type mockUsers struct {
	users.Service
	managersFn func(ctx context.Context, market string) ([]users.User, error)
}

func (m *mockUsers) Managers(ctx context.Context, market string) ([]users.User, error) {
	if m.managersFn != nil {
		return m.managersFn(ctx, market)
	}
	return nil, nil
}

// mockMailer implements notify.Mailer for testing.
type mockMailer struct {
	lastTo      []string
	lastSubject string
	sendCount   int
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.sendCount++
	return nil
}

func (m *mockMailer) IsConfigured() bool { return true }

// mockApprovals implements ApprovalOpener.
type mockApprovals struct {
	opened []Daytype
}

func (m *mockApprovals) Open(ctx context.Context, userID string, entryID int64, daytype Daytype) error {
	m.opened = append(m.opened, daytype)
	return nil
}

// --- Helpers ---

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

func testActor() *users.User {
	return &users.User{
		ID:        "u-1",
		Email:     "user@example.com",
		Firstname: "Ada",
		Lastname:  "Barnes",
		Level:     users.LevelUser,
		Market:    "BK",
	}
}

func newTestService(repo Repository, usersSvc users.Service, mailer *mockMailer, approvals ApprovalOpener) Service {
	if usersSvc == nil {
		usersSvc = &mockUsers{}
	}
	if mailer == nil {
		mailer = &mockMailer{}
	}
	return NewService(repo, usersSvc, mailer, approvals, nil, 60*24*time.Hour)
}

// mockInvalidator records which user-months had their cached holiday
// rows dropped.
type mockInvalidator struct {
	dropped []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, userID string, year, month int) {
	m.dropped = append(m.dropped, fmt.Sprintf("%s:%d-%02d", userID, year, month))
}

func workdaySubmission() Submission {
	return Submission{
		FormType:  FormAdd,
		EntryDate: "2026-03-04",
		StartTime: "09:00",
		EndTime:   "17:30",
		Breaks:    "00:30",
		Daytype:   DaytypeWorkday,
	}
}

// --- Add Tests ---

func TestAdd_ReturnsCalendarFragment(t *testing.T) {
	var created *Entry
	repo := &mockRepo{
		createFn: func(ctx context.Context, entry *Entry) (int64, error) {
			created = entry
			return 7, nil
		},
		listMonthFn: func(ctx context.Context, userID string, year, month int) ([]Entry, error) {
			if created == nil {
				return nil, nil
			}
			e := *created
			e.ID = 7
			return []Entry{e}, nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	calendar, err := svc.Add(context.Background(), testActor(), workdaySubmission())
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if created.UserID != "u-1" {
		t.Errorf("entry user = %q, want u-1", created.UserID)
	}
	if !strings.Contains(calendar, `<table id="calendar"`) {
		t.Error("response does not carry the calendar fragment")
	}
	if !strings.Contains(calendar, "id=7") {
		t.Error("fragment does not include the new entry")
	}
}

func TestAdd_DuplicateDate(t *testing.T) {
	repo := &mockRepo{
		findByUserAndDateFn: func(ctx context.Context, userID, entryDate string) (*Entry, error) {
			return &Entry{ID: 3, UserID: userID, EntryDate: entryDate}, nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	_, err := svc.Add(context.Background(), testActor(), workdaySubmission())
	assertAppError(t, err, 409)
}

func TestAdd_BackwardsInterval(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	sub := workdaySubmission()
	sub.StartTime, sub.EndTime = "17:30", "09:00"
	_, err := svc.Add(context.Background(), testActor(), sub)
	assertAppError(t, err, 422)
}

func TestAdd_UnknownDaytype(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	sub := workdaySubmission()
	sub.Daytype = "NOPE!"
	_, err := svc.Add(context.Background(), testActor(), sub)
	assertAppError(t, err, 422)
}

func TestAdd_BadDate(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	sub := workdaySubmission()
	sub.EntryDate = "04/03/2026"
	_, err := svc.Add(context.Background(), testActor(), sub)
	assertAppError(t, err, 422)
}

func TestAdd_SickDayForcesSentinelAndMailsManagers(t *testing.T) {
	var created *Entry
	repo := &mockRepo{
		createFn: func(ctx context.Context, entry *Entry) (int64, error) {
			created = entry
			return 7, nil
		},
	}
	usersSvc := &mockUsers{
		managersFn: func(ctx context.Context, market string) ([]users.User, error) {
			if market != "BK" {
				t.Errorf("asked managers of %q, want BK", market)
			}
			return []users.User{{Email: "lead@example.com"}}, nil
		},
	}
	mailer := &mockMailer{}
	svc := newTestService(repo, usersSvc, mailer, nil)

	sub := workdaySubmission()
	sub.Daytype = DaytypeSick
	// Posted times are ignored for timeless day types.
	sub.StartTime, sub.EndTime = "13:00", "14:00"

	if _, err := svc.Add(context.Background(), testActor(), sub); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if created.StartTime != SentinelStart || created.EndTime != SentinelEnd {
		t.Errorf("stored times %s-%s, want sentinel pair", created.StartTime, created.EndTime)
	}
	if mailer.sendCount != 1 {
		t.Fatalf("sendCount = %d, want 1", mailer.sendCount)
	}
	if mailer.lastTo[0] != "lead@example.com" {
		t.Errorf("mail went to %v", mailer.lastTo)
	}
}

func TestAdd_PendingOpensApproval(t *testing.T) {
	approvals := &mockApprovals{}
	svc := newTestService(&mockRepo{}, nil, nil, approvals)

	sub := workdaySubmission()
	sub.Daytype = DaytypePending
	if _, err := svc.Add(context.Background(), testActor(), sub); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if len(approvals.opened) != 1 || approvals.opened[0] != DaytypePending {
		t.Errorf("approvals opened = %v, want one PENDI", approvals.opened)
	}
}

// --- Change Tests ---

func TestChange_RequiresHiddenID(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	sub := workdaySubmission()
	sub.FormType = FormChange
	_, err := svc.Change(context.Background(), testActor(), sub)
	assertAppError(t, err, 400)
}

func TestChange_OtherUsersEntry(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Entry, error) {
			return &Entry{ID: id, UserID: "someone-else", EntryDate: "2026-03-04",
				StartTime: "09:00", EndTime: "17:00", Daytype: DaytypeWorkday}, nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	sub := workdaySubmission()
	sub.FormType = FormChange
	sub.HiddenID = "5"
	_, err := svc.Change(context.Background(), testActor(), sub)
	assertAppError(t, err, 403)
}

func TestChange_UpdatesEntry(t *testing.T) {
	var updated *Entry
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Entry, error) {
			return &Entry{ID: id, UserID: "u-1", EntryDate: "2026-03-04",
				StartTime: "09:00", EndTime: "17:00", Daytype: DaytypeWorkday,
				Comments: "kept"}, nil
		},
		updateFn: func(ctx context.Context, entry *Entry) error {
			updated = entry
			return nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	sub := workdaySubmission()
	sub.FormType = FormChange
	sub.HiddenID = "5"
	sub.EndTime = "18:00"
	if _, err := svc.Change(context.Background(), testActor(), sub); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}
	if updated.ID != 5 || updated.EndTime != "18:00" {
		t.Errorf("unexpected update: %+v", updated)
	}
	if updated.Comments != "kept" {
		t.Error("change dropped the existing comment")
	}
}

// --- Delete Tests ---

func TestDelete_RemovesOwnedEntry(t *testing.T) {
	var deletedID int64
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Entry, error) {
			return &Entry{ID: id, UserID: "u-1", EntryDate: "2026-03-04",
				StartTime: "09:00", EndTime: "17:00", Daytype: DaytypeWorkday}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)

	sub := Submission{FormType: FormDelete, HiddenID: "5"}
	calendar, err := svc.DeleteEntry(context.Background(), testActor(), sub)
	if err != nil {
		t.Fatalf("DeleteEntry returned error: %v", err)
	}
	if deletedID != 5 {
		t.Errorf("deleted id = %d, want 5", deletedID)
	}
	if !strings.Contains(calendar, "March 2026") {
		t.Error("fragment should cover the deleted entry's month")
	}
}

func TestMutations_DropCachedHolidayRows(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id int64) (*Entry, error) {
			return &Entry{ID: id, UserID: "u-1", EntryDate: "2026-03-04",
				StartTime: "09:00", EndTime: "17:00", Daytype: DaytypeWorkday}, nil
		},
	}
	inv := &mockInvalidator{}
	svc := NewService(repo, &mockUsers{}, &mockMailer{}, nil, inv, 60*24*time.Hour)
	ctx := context.Background()

	if _, err := svc.Add(ctx, testActor(), workdaySubmission()); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	sub := workdaySubmission()
	sub.FormType = FormChange
	sub.HiddenID = "5"
	sub.EntryDate = "2026-04-02"
	if _, err := svc.Change(ctx, testActor(), sub); err != nil {
		t.Fatalf("Change returned error: %v", err)
	}

	del := Submission{FormType: FormDelete, HiddenID: "5"}
	if _, err := svc.DeleteEntry(ctx, testActor(), del); err != nil {
		t.Fatalf("DeleteEntry returned error: %v", err)
	}

	// Add drops March; the move drops March and April; delete drops March.
	want := []string{"u-1:2026-03", "u-1:2026-03", "u-1:2026-04", "u-1:2026-03"}
	if len(inv.dropped) != len(want) {
		t.Fatalf("dropped = %v, want %v", inv.dropped, want)
	}
	for i := range want {
		if inv.dropped[i] != want[i] {
			t.Errorf("dropped[%d] = %q, want %q", i, inv.dropped[i], want[i])
		}
	}
}

func TestDelete_MissingEntry(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	sub := Submission{FormType: FormDelete, HiddenID: "999"}
	_, err := svc.DeleteEntry(context.Background(), testActor(), sub)
	assertAppError(t, err, 404)
}

// --- Comment Tests ---

func TestSetComment_RequiresAdmin(t *testing.T) {
	svc := newTestService(&mockRepo{}, nil, nil, nil)

	err := svc.SetComment(context.Background(), testActor(), "u-2", "2026-03-04", "hello")
	assertAppError(t, err, 403)
}

func TestSetComment_SanitizesMarkup(t *testing.T) {
	var stored string
	repo := &mockRepo{
		findByUserAndDateFn: func(ctx context.Context, userID, entryDate string) (*Entry, error) {
			return &Entry{ID: 5, UserID: userID, EntryDate: entryDate}, nil
		},
		updateCommentsFn: func(ctx context.Context, id int64, comments string) error {
			stored = comments
			return nil
		},
	}
	svc := newTestService(repo, nil, nil, nil)
	admin := testActor()
	admin.Level = users.LevelAdmin

	err := svc.SetComment(context.Background(), admin, "u-2", "2026-03-04",
		`<script>alert(1)</script>late again`)
	if err != nil {
		t.Fatalf("SetComment returned error: %v", err)
	}
	if strings.Contains(stored, "<script>") {
		t.Errorf("markup survived sanitization: %q", stored)
	}
	if !strings.Contains(stored, "late again") {
		t.Errorf("comment text lost: %q", stored)
	}
}
