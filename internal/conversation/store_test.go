package conversation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemoryStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	kv := NewMemoryKV()
	kv.now = clock.now

	store := NewStore(kv, time.Hour, nil)
	store.now = clock.now
	return store, clock
}

func newSQLiteStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "contexts.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	kv.now = clock.now

	store := NewStore(kv, time.Hour, nil)
	store.now = clock.now
	return store, clock
}

var storeFactories = map[string]func(t *testing.T) (*Store, *fakeClock){
	"memory": newMemoryStore,
	"sqlite": newSQLiteStore,
}

func TestStoreRoundTripPreservesOrderAndTimestamps(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store, _ := factory(t)
			ctx := context.Background()

			if _, err := store.Init(ctx, "s1", interview.Profile{Skills: []string{"Go"}}, "backend", 10); err != nil {
				t.Fatalf("init: %v", err)
			}

			base := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
			const n = 7
			for i := 0; i < n; i++ {
				role := interview.RoleInterviewer
				if i%2 == 1 {
					role = interview.RoleCandidate
				}
				msg := interview.Message{
					Role:      role,
					Text:      fmt.Sprintf("message %d", i),
					Timestamp: base.Add(time.Duration(i) * time.Second),
				}
				if _, err := store.Append(ctx, "s1", msg); err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}

			got, err := store.Read(ctx, "s1")
			if err != nil {
				t.Fatalf("read: %v", err)
			}

			if len(got.Transcript) != n {
				t.Fatalf("expected %d messages, got %d", n, len(got.Transcript))
			}
			for i, msg := range got.Transcript {
				if msg.Text != fmt.Sprintf("message %d", i) {
					t.Fatalf("message %d out of order: %q", i, msg.Text)
				}
				if !msg.Timestamp.Equal(base.Add(time.Duration(i) * time.Second)) {
					t.Fatalf("message %d timestamp not preserved: %v", i, msg.Timestamp)
				}
			}

			if got.QuestionsAsked != 4 {
				t.Fatalf("expected 4 questions asked, got %d", got.QuestionsAsked)
			}
			if got.AnsweredCount != 3 {
				t.Fatalf("expected 3 answers, got %d", got.AnsweredCount)
			}
			if got.Focus != "backend" || got.PlannedQuestions != 10 {
				t.Fatalf("unexpected context metadata: %+v", got)
			}
		})
	}
}

func TestStoreTopicHistory(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	if _, err := store.Init(ctx, "s1", interview.Profile{}, "", 10); err != nil {
		t.Fatalf("init: %v", err)
	}

	turns := []interview.Message{
		{Role: interview.RoleInterviewer, Text: "intro", Category: interview.CategoryIntroduction},
		{Role: interview.RoleInterviewer, Text: "tech 1", Category: interview.CategoryTechnical},
		{Role: interview.RoleInterviewer, Text: "probe", Category: interview.CategoryFollowUp, IsFollowUp: true},
		{Role: interview.RoleInterviewer, Text: "tech 2", Category: interview.CategoryTechnical},
		{Role: interview.RoleInterviewer, Text: "project", Category: interview.CategoryProjectSpecific},
		{Role: interview.RoleInterviewer, Text: "tech 3", Category: interview.CategoryTechnical},
		{Role: interview.RoleInterviewer, Text: "story", Category: interview.CategoryBehavioral},
	}

	var last *Context
	for _, msg := range turns {
		var err error
		last, err = store.Append(ctx, "s1", msg)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if last.CurrentTopic != interview.CategoryBehavioral {
		t.Fatalf("expected behavioral current topic, got %s", last.CurrentTopic)
	}

	// A category revisited later is pushed again.
	expected := []interview.Category{
		interview.CategoryIntroduction,
		interview.CategoryTechnical,
		interview.CategoryProjectSpecific,
		interview.CategoryTechnical,
	}
	if len(last.TopicHistory) != len(expected) {
		t.Fatalf("expected history %v, got %v", expected, last.TopicHistory)
	}
	for i := range expected {
		if last.TopicHistory[i] != expected[i] {
			t.Fatalf("expected history %v, got %v", expected, last.TopicHistory)
		}
	}
	if last.QuestionsAsked != len(turns) {
		t.Fatalf("expected %d questions asked, got %d", len(turns), last.QuestionsAsked)
	}
}

func TestStoreExpiresAfterTTL(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store, clock := factory(t)
			ctx := context.Background()

			if _, err := store.Init(ctx, "s1", interview.Profile{}, "", 10); err != nil {
				t.Fatalf("init: %v", err)
			}

			clock.advance(50 * time.Minute)
			if err := store.Touch(ctx, "s1"); err != nil {
				t.Fatalf("touch: %v", err)
			}

			clock.advance(50 * time.Minute)
			if _, err := store.Read(ctx, "s1"); err != nil {
				t.Fatalf("expected context to survive after touch, got %v", err)
			}

			clock.advance(61 * time.Minute)
			if _, err := store.Read(ctx, "s1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after ttl, got %v", err)
			}

			if err := store.Touch(ctx, "s1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound when touching expired context, got %v", err)
			}
		})
	}
}

func TestStoreWriteRefreshesTTL(t *testing.T) {
	store, clock := newMemoryStore(t)
	ctx := context.Background()

	if _, err := store.Init(ctx, "s1", interview.Profile{}, "", 10); err != nil {
		t.Fatalf("init: %v", err)
	}

	clock.advance(45 * time.Minute)
	if _, err := store.Append(ctx, "s1", interview.Message{Role: interview.RoleCandidate, Text: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	clock.advance(45 * time.Minute)
	if _, err := store.Read(ctx, "s1"); err != nil {
		t.Fatalf("expected write to refresh ttl, got %v", err)
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store, _ := factory(t)
			ctx := context.Background()

			if _, err := store.Init(ctx, "s1", interview.Profile{}, "", 10); err != nil {
				t.Fatalf("init: %v", err)
			}
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, "s1"); err != nil {
				t.Fatalf("second delete: %v", err)
			}
			if _, err := store.Read(ctx, "s1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreAppendToMissingSession(t *testing.T) {
	store, _ := newMemoryStore(t)

	_, err := store.Append(context.Background(), "missing", interview.Message{Role: interview.RoleCandidate, Text: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreMarkComplete(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	if _, err := store.Init(ctx, "s1", interview.Profile{}, "", 10); err != nil {
		t.Fatalf("init: %v", err)
	}
	c, err := store.MarkComplete(ctx, "s1")
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if !c.Complete {
		t.Fatal("expected context to be complete")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store, clock := factory(t)
			ctx := context.Background()

			for _, id := range []string{"a", "b"} {
				if _, err := store.Init(ctx, id, interview.Profile{}, "", 10); err != nil {
					t.Fatalf("init %s: %v", id, err)
				}
			}
			clock.advance(30 * time.Minute)
			if _, err := store.Init(ctx, "c", interview.Profile{}, "", 10); err != nil {
				t.Fatalf("init c: %v", err)
			}
			clock.advance(31 * time.Minute)

			sweeper, ok := store.kv.(Sweeper)
			if !ok {
				t.Fatal("expected kv to implement Sweeper")
			}
			removed, err := sweeper.Sweep(ctx)
			if err != nil {
				t.Fatalf("sweep: %v", err)
			}
			if removed != 2 {
				t.Fatalf("expected 2 removed, got %d", removed)
			}
			if _, err := store.Read(ctx, "c"); err != nil {
				t.Fatalf("expected c to survive, got %v", err)
			}
		})
	}
}

func TestContextHelpers(t *testing.T) {
	c := &Context{}
	c.apply(interview.Message{Role: interview.RoleInterviewer, Text: "q1", Category: interview.CategoryIntroduction})
	c.apply(interview.Message{Role: interview.RoleCandidate, Text: "a1"})
	c.apply(interview.Message{Role: interview.RoleInterviewer, Text: "q2", Category: interview.CategoryFollowUp, IsFollowUp: true})
	c.apply(interview.Message{Role: interview.RoleCandidate, Text: "a2"})
	c.apply(interview.Message{Role: interview.RoleCandidate, Text: "a3"})

	if got := c.Recent(2); len(got) != 2 || got[0].Text != "a2" || got[1].Text != "a3" {
		t.Fatalf("unexpected recent messages: %+v", got)
	}

	candidate := c.RecentCandidate(2)
	if len(candidate) != 2 || candidate[0].Text != "a2" || candidate[1].Text != "a3" {
		t.Fatalf("unexpected candidate messages: %+v", candidate)
	}

	last, ok := c.LastQuestion()
	if !ok || last.Text != "q2" || !last.IsFollowUp {
		t.Fatalf("unexpected last question: %+v", last)
	}

	if c.TrailingFollowUps() != 1 {
		t.Fatalf("expected 1 trailing follow-up, got %d", c.TrailingFollowUps())
	}

	if qs := c.Questions(); len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
}
