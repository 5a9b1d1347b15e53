package habit

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/store"
	"github.com/lifeboard/lifeboard/internal/streak"
)

var fixedNow = time.Date(2026, 10, 16, 21, 30, 0, 0, time.UTC)

func setupTracker(t *testing.T, policy Policy) (*Tracker, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	alice, err := us.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := us.Create("bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	tr := NewTracker(db, policy)
	tr.now = func() time.Time { return fixedNow }
	return tr, alice.ID, bob.ID
}

func mustCreate(t *testing.T, tr *Tracker, userID int64, name string) int64 {
	t.Helper()
	h, err := tr.Create(userID, CreateInput{Name: name})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return h.ID
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())

	h, err := tr.Create(alice, CreateInput{Name: "  Read  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.Name != "Read" {
		t.Errorf("name = %q, want %q", h.Name, "Read")
	}
	if h.Icon != DefaultIcon || h.Color != DefaultColor {
		t.Errorf("icon, color = %q, %q, want defaults", h.Icon, h.Color)
	}

	_, err = tr.Create(alice, CreateInput{Name: "   "})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if ve.Field != "name" {
		t.Errorf("field = %q, want name", ve.Field)
	}
}

// A new habit's first completion starts a one-day streak.
func TestToggleTodayFirstCompletion(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")

	res, err := tr.ToggleToday(alice, id)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !res.Done || res.Message != "" {
		t.Errorf("result = %+v, want done without message", res)
	}
	want := streak.Stats{TodayDone: true, CurrentStreak: 1, LongestStreak: 1}
	if diff := cmp.Diff(want, res.Stats.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if res.Day != day.Of(fixedNow) {
		t.Errorf("day = %v, want %v", res.Day, day.Of(fixedNow))
	}
}

// One-way mode never undoes today.
func TestToggleTodayOneWayIsIdempotent(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")

	tr.ToggleToday(alice, id)
	res, err := tr.ToggleToday(alice, id)
	if err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	if !res.Done {
		t.Error("expected done to stay true")
	}
	if res.Message != "already done for today" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Stats.TotalDays != 1 {
		t.Errorf("total days = %d, want 1", res.Stats.TotalDays)
	}
}

func TestToggleTodayToggleModeRemoves(t *testing.T) {
	tr, alice, _ := setupTracker(t, Policy{Mode: ModeToggle})
	id := mustCreate(t, tr, alice, "Read")

	tr.ToggleToday(alice, id)
	res, err := tr.ToggleToday(alice, id)
	if err != nil {
		t.Fatalf("toggle again: %v", err)
	}
	if res.Done {
		t.Error("expected toggle mode to remove today's completion")
	}
	if res.Stats.TodayDone || res.Stats.TotalDays != 0 {
		t.Errorf("stats = %+v, want empty", res.Stats)
	}
}

// Backfilling yesterday extends the current streak.
func TestToggleDateBackfill(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")
	today := tr.Today()

	tr.ToggleToday(alice, id)
	res, err := tr.ToggleDate(alice, id, today.AddDays(-1))
	if err != nil {
		t.Fatalf("toggle date: %v", err)
	}
	if !res.Done {
		t.Error("expected yesterday to be done")
	}
	if res.Stats.CurrentStreak != 2 {
		t.Errorf("current = %d, want 2", res.Stats.CurrentStreak)
	}

	// Past days toggle off even in one-way mode.
	res, err = tr.ToggleDate(alice, id, today.AddDays(-1))
	if err != nil {
		t.Fatalf("toggle date off: %v", err)
	}
	if res.Done {
		t.Error("expected yesterday to be removed")
	}
	if res.Stats.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1", res.Stats.CurrentStreak)
	}
}

func TestToggleDateTodayFollowsOneWay(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")

	tr.ToggleToday(alice, id)
	res, err := tr.ToggleDate(alice, id, tr.Today())
	if err != nil {
		t.Fatalf("toggle date: %v", err)
	}
	if !res.Done || res.Message != "already done for today" {
		t.Errorf("result = %+v, want already done", res)
	}
}

func TestToggleDateFuture(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")
	tomorrow := tr.Today().AddDays(1)

	_, err := tr.ToggleDate(alice, id, tomorrow)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	allowing, alice2, _ := setupTracker(t, Policy{Mode: ModeOneWay, AllowFuture: true})
	id2 := mustCreate(t, allowing, alice2, "Read")
	res, err := allowing.ToggleDate(alice2, id2, tomorrow)
	if err != nil {
		t.Fatalf("toggle future: %v", err)
	}
	if !res.Done {
		t.Error("expected future completion to be recorded")
	}
	if res.Stats.TodayDone || res.Stats.CurrentStreak != 0 {
		t.Errorf("stats = %+v, future day must not count toward current streak", res.Stats)
	}
}

// Another user's habit looks absent.
func TestToggleOtherUsersHabit(t *testing.T) {
	tr, alice, bob := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")

	if _, err := tr.ToggleToday(bob, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle today err = %v, want ErrNotFound", err)
	}
	if _, err := tr.ToggleDate(bob, id, tr.Today().AddDays(-1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle date err = %v, want ErrNotFound", err)
	}
	if _, err := tr.Detail(bob, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("detail err = %v, want ErrNotFound", err)
	}
	if err := tr.Delete(bob, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
	if _, err := tr.ToggleToday(alice, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing habit err = %v, want ErrNotFound", err)
	}
}

func TestListSummariesAndPagination(t *testing.T) {
	tr, alice, bob := setupTracker(t, DefaultPolicy())
	read := mustCreate(t, tr, alice, "Read")
	mustCreate(t, tr, alice, "Run")
	mustCreate(t, tr, alice, "Meditate")
	mustCreate(t, tr, bob, "Swim")
	today := tr.Today()

	for _, off := range []int{-2, -1, 0} {
		if _, err := tr.ToggleDate(alice, read, today.AddDays(off)); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	res, err := tr.List(alice, store.HabitQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := Pagination{Total: 3, Page: 1, Limit: 2, TotalPages: 2}
	if diff := cmp.Diff(want, res.Pagination); diff != "" {
		t.Errorf("pagination mismatch (-want +got):\n%s", diff)
	}
	if res.Today != today {
		t.Errorf("today = %v, want %v", res.Today, today)
	}
	if len(res.Habits) != 2 {
		t.Fatalf("habits = %d, want 2", len(res.Habits))
	}
	first := res.Habits[0]
	if first.ID != read {
		t.Fatalf("first habit = %d, want %d", first.ID, read)
	}
	if first.CurrentStreak != 3 || first.TotalDays != 3 || !first.TodayDone {
		t.Errorf("summary = %+v", first.Summary)
	}
	if res.Habits[1].TotalDays != 0 || res.Habits[1].LastDone != nil {
		t.Errorf("untouched habit summary = %+v", res.Habits[1].Summary)
	}
}

func TestListRejectsUnknownSort(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())

	for _, q := range []store.HabitQuery{
		{SortBy: "streak"},
		{Order: "sideways"},
		{Limit: 500},
		{Page: -1},
		{Page: math.MaxInt},
	} {
		_, err := tr.List(alice, q)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("List(%+v) err = %v, want ValidationError", q, err)
		}
	}

	if _, err := tr.List(alice, store.HabitQuery{SortBy: "name", Order: "DESC"}); err != nil {
		t.Errorf("uppercase order: %v", err)
	}
}

func TestDetailWindowAndFullStats(t *testing.T) {
	tr, alice, _ := setupTracker(t, Policy{Mode: ModeOneWay, HeatmapDays: 7})
	id := mustCreate(t, tr, alice, "Read")
	today := tr.Today()

	// A long run well outside the window.
	for off := -40; off <= -31; off++ {
		tr.ToggleDate(alice, id, today.AddDays(off))
	}
	tr.ToggleDate(alice, id, today.AddDays(-7))
	tr.ToggleDate(alice, id, today.AddDays(-6))
	tr.ToggleToday(alice, id)

	res, err := tr.Detail(alice, id)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}

	var got []day.Day
	for _, c := range res.Completions {
		got = append(got, c.Day)
	}
	if diff := cmp.Diff([]day.Day{today.AddDays(-6), today}, got); diff != "" {
		t.Errorf("window completions mismatch (-want +got):\n%s", diff)
	}
	if res.Window.Len() != 7 || res.Window.End != today {
		t.Errorf("window = %+v", res.Window)
	}
	if res.Stats.LongestStreak != 10 {
		t.Errorf("longest = %d, want 10 from full history", res.Stats.LongestStreak)
	}
	if res.Stats.TotalDays != 13 {
		t.Errorf("total = %d, want 13", res.Stats.TotalDays)
	}
}

func TestDetailEmptyCompletions(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")

	res, err := tr.Detail(alice, id)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if res.Completions == nil {
		t.Error("expected empty, non-nil completions")
	}
	if res.Window.Len() != DefaultHeatmapDays {
		t.Errorf("window len = %d, want %d", res.Window.Len(), DefaultHeatmapDays)
	}
}

func TestDeleteRemovesHabitAndHistory(t *testing.T) {
	tr, alice, _ := setupTracker(t, DefaultPolicy())
	id := mustCreate(t, tr, alice, "Read")
	tr.ToggleToday(alice, id)

	if err := tr.Delete(alice, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tr.Detail(alice, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("detail after delete err = %v, want ErrNotFound", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"one_way", "toggle"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("both"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
