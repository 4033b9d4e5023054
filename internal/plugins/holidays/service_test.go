package holidays

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veliry/timeclerk/internal/apperror"
	"github.com/veliry/timeclerk/internal/plugins/entries"
	"github.com/veliry/timeclerk/internal/plugins/users"
)

// --- Mocks ---

// mockEntries implements entries.Repository for testing.
type mockEntries struct {
	store     map[string]*entries.Entry // "userID|date" -> entry
	nextID    int64
	deleted   []int64
	created   []*entries.Entry
	updated   []*entries.Entry
	listCalls int
}

func newMockEntries() *mockEntries {
	return &mockEntries{store: map[string]*entries.Entry{}, nextID: 100}
}

func (m *mockEntries) key(userID, date string) string { return userID + "|" + date }

func (m *mockEntries) Create(ctx context.Context, entry *entries.Entry) (int64, error) {
	m.nextID++
	e := *entry
	e.ID = m.nextID
	m.store[m.key(entry.UserID, entry.EntryDate)] = &e
	m.created = append(m.created, &e)
	return e.ID, nil
}

func (m *mockEntries) Update(ctx context.Context, entry *entries.Entry) error {
	m.store[m.key(entry.UserID, entry.EntryDate)] = entry
	m.updated = append(m.updated, entry)
	return nil
}

func (m *mockEntries) Delete(ctx context.Context, id int64) error {
	for k, e := range m.store {
		if e.ID == id {
			delete(m.store, k)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return apperror.NewNotFound("entry not found")
}

func (m *mockEntries) FindByID(ctx context.Context, id int64) (*entries.Entry, error) {
	for _, e := range m.store {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("entry not found")
}

func (m *mockEntries) FindByUserAndDate(ctx context.Context, userID, date string) (*entries.Entry, error) {
	if e, ok := m.store[m.key(userID, date)]; ok {
		return e, nil
	}
	return nil, apperror.NewNotFound("entry not found")
}

func (m *mockEntries) ListMonth(ctx context.Context, userID string, year, month int) ([]entries.Entry, error) {
	m.listCalls++
	var result []entries.Entry
	for _, e := range m.store {
		if e.UserID == userID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEntries) ListRange(ctx context.Context, userID, from, to string) ([]entries.Entry, error) {
	return nil, nil
}

func (m *mockEntries) UpdateComments(ctx context.Context, id int64, comments string) error {
	return nil
}

// mockUsers implements users.Service for testing.
type mockUsers struct {
	users.Service
	team     []users.User
	managers []users.User
}

func (m *mockUsers) Visible(ctx context.Context, actor *users.User) ([]users.User, error) {
	return m.team, nil
}

func (m *mockUsers) ByID(ctx context.Context, id string) (*users.User, error) {
	for i := range m.team {
		if m.team[i].ID == id {
			return &m.team[i], nil
		}
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUsers) Managers(ctx context.Context, market string) ([]users.User, error) {
	return m.managers, nil
}

// mockMailer implements notify.Mailer for testing.
type mockMailer struct {
	sendCount   int
	lastSubject string
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.sendCount++
	m.lastSubject = subject
	return nil
}

func (m *mockMailer) IsConfigured() bool { return true }

// --- Helpers ---

func testCache(t *testing.T) (*RowCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRowCache(rdb), mr
}

func testAdmin() *users.User {
	return &users.User{ID: "admin-1", Level: users.LevelAdmin, Market: "BK"}
}

func testTeam() []users.User {
	return []users.User{
		{ID: "u-1", Firstname: "Ada", Lastname: "Barnes", Level: users.LevelUser,
			Market: "BK", HolidayBalance: 20, JobCode: "A1",
			ShiftMinutes: 450, BreakMinutes: 30},
	}
}

// --- Table Tests ---

func TestTableRendersRows(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	repo.store["u-1|2026-03-04"] = &entries.Entry{
		ID: 1, UserID: "u-1", EntryDate: "2026-03-04", Daytype: entries.DaytypeHoliday,
		StartTime: "00:00", EndTime: "00:01",
	}
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	table, err := svc.Table(context.Background(), testAdmin(), 2026, 3)
	if err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if !strings.Contains(table, "Ada Barnes") {
		t.Error("table missing user row")
	}
	if !strings.Contains(table, `class="HOLIS"`) {
		t.Error("holiday day missing daytype class")
	}
	if !strings.Contains(table, `id="holiday_month"`) || !strings.Contains(table, `id="holiday_year"`) {
		t.Error("table missing footer selectors")
	}
}

func TestTableCachesRows(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	if _, err := svc.Table(context.Background(), testAdmin(), 2026, 3); err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if _, err := svc.Table(context.Background(), testAdmin(), 2026, 3); err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Errorf("second render hit the repository %d times, want cached row", repo.listCalls)
	}
}

func TestTableRequiresTeamLeader(t *testing.T) {
	cache, _ := testCache(t)
	svc := NewService(newMockEntries(), &mockUsers{}, &mockMailer{}, cache)

	_, err := svc.Table(context.Background(),
		&users.User{ID: "u-1", Level: users.LevelUser}, 2026, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperror.SafeCode(err) != 403 {
		t.Errorf("code = %d, want 403", apperror.SafeCode(err))
	}
}

// --- MassAssign Tests ---

func TestMassAssignCreatesWithShiftDefaults(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	// Day 2 becomes a holiday, day 3 a working day.
	mass := `{"u-1": ["", "HOLIS", "WKDAY"]}`
	if _, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, mass); err != nil {
		t.Fatalf("MassAssign returned error: %v", err)
	}

	holiday := repo.store["u-1|2026-03-02"]
	if holiday == nil || holiday.Daytype != entries.DaytypeHoliday {
		t.Fatalf("holiday not created: %+v", holiday)
	}
	if holiday.StartTime != "00:00" || holiday.EndTime != "00:01" {
		t.Errorf("holiday times %s-%s, want sentinel pair", holiday.StartTime, holiday.EndTime)
	}

	workday := repo.store["u-1|2026-03-03"]
	if workday == nil || workday.Daytype != entries.DaytypeWorkday {
		t.Fatalf("workday not created: %+v", workday)
	}
	// 09:00 anchor + 450 shift + 30 break minutes.
	if workday.StartTime != "09:00" || workday.EndTime != "17:00" || workday.Breaks != "00:30" {
		t.Errorf("workday defaults %s-%s/%s", workday.StartTime, workday.EndTime, workday.Breaks)
	}
}

func TestMassAssignEmptyDeletes(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	repo.store["u-1|2026-03-02"] = &entries.Entry{ID: 50, UserID: "u-1",
		EntryDate: "2026-03-02", Daytype: entries.DaytypeHoliday}
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	mass := `{"u-1": ["", "empty"]}`
	if _, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, mass); err != nil {
		t.Fatalf("MassAssign returned error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 50 {
		t.Errorf("deleted = %v, want [50]", repo.deleted)
	}
}

func TestMassAssignSkipsLinkedAndUnknown(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	mass := `{"u-1": ["LINKD", "NOPE!", ""]}`
	if _, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, mass); err != nil {
		t.Fatalf("MassAssign returned error: %v", err)
	}
	if len(repo.created) != 0 || len(repo.updated) != 0 {
		t.Errorf("linked/unknown values mutated entries: created=%d updated=%d",
			len(repo.created), len(repo.updated))
	}
}

func TestMassAssignSickMailsOnce(t *testing.T) {
	cache, _ := testCache(t)
	repo := newMockEntries()
	mailer := &mockMailer{}
	usersSvc := &mockUsers{team: testTeam(), managers: []users.User{{Email: "lead@example.com"}}}
	svc := NewService(repo, usersSvc, mailer, cache)

	mass := `{"u-1": ["SICKD", "SICKD"]}`
	if _, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, mass); err != nil {
		t.Fatalf("MassAssign returned error: %v", err)
	}
	if mailer.sendCount != 1 {
		t.Errorf("sendCount = %d, want exactly one sick-day mail", mailer.sendCount)
	}
}

func TestMassAssignRequiresAdmin(t *testing.T) {
	cache, _ := testCache(t)
	svc := NewService(newMockEntries(), &mockUsers{}, &mockMailer{}, cache)

	_, err := svc.MassAssign(context.Background(),
		&users.User{ID: "u-1", Level: users.LevelTeamLeader}, 2026, 3, `{}`)
	if apperror.SafeCode(err) != 403 {
		t.Errorf("code = %d, want 403", apperror.SafeCode(err))
	}
}

func TestMassAssignBadJSON(t *testing.T) {
	cache, _ := testCache(t)
	svc := NewService(newMockEntries(), &mockUsers{}, &mockMailer{}, cache)

	_, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, `{not json`)
	if apperror.SafeCode(err) != 400 {
		t.Errorf("code = %d, want 400", apperror.SafeCode(err))
	}
}

func TestMassAssignInvalidatesCache(t *testing.T) {
	cache, mr := testCache(t)
	repo := newMockEntries()
	svc := NewService(repo, &mockUsers{team: testTeam()}, &mockMailer{}, cache)

	// Warm the cache, then mutate.
	if _, err := svc.Table(context.Background(), testAdmin(), 2026, 3); err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if !mr.Exists("holiday_row:u-1:2026-03") {
		t.Fatal("cache not warmed")
	}

	mass := `{"u-1": ["HOLIS"]}`
	if _, err := svc.MassAssign(context.Background(), testAdmin(), 2026, 3, mass); err != nil {
		t.Fatalf("MassAssign returned error: %v", err)
	}

	table, err := svc.Table(context.Background(), testAdmin(), 2026, 3)
	if err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if !strings.Contains(table, `class="HOLIS"`) {
		t.Error("table still serving the stale cached row")
	}
}
