package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/m3rciful/postbot/core/state"
	"github.com/m3rciful/postbot/internal/fanout"
	"github.com/m3rciful/postbot/internal/post"
)

type dispatchCall struct {
	UserID   int64
	Sub      post.Submission
	Category post.Category
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (f *fakeDispatcher) Dispatch(_ context.Context, userID int64, sub post.Submission, c post.Category) fanout.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{UserID: userID, Sub: sub, Category: c})
	return fanout.Report{UserID: userID, Submission: sub, Category: c}
}

func newMachine() (*Machine, state.Store[post.Submission], *fakeDispatcher) {
	store := state.NewMemory[post.Submission]()
	disp := &fakeDispatcher{}
	return NewMachine(store, disp), store, disp
}

var ctx = context.Background()

func caption(s string) Event       { return Event{Kind: EventCaption, Caption: s} }
func text(s string) Event          { return Event{Kind: EventText, Text: s} }
func photo(ref post.ImageRef) Event { return Event{Kind: EventPhoto, Image: ref} }
func category(tok string) Event    { return Event{Kind: EventCategory, CategoryToken: tok} }

func TestFullFlowDispatchesAndDeletes(t *testing.T) {
	m, store, disp := newMachine()

	steps := []struct {
		ev   Event
		want ReplyKind
	}{
		{caption("Dune Part Two\n\nsome description"), ReplyTitleExtracted},
		{text("Link: http://a\nPermanent: http://b"), ReplyLinksReceived},
		{photo("file-1"), ReplyChooseCategory},
		{category("hd"), ReplyForwarded},
	}
	for i, st := range steps {
		res := m.Handle(ctx, 10, st.ev)
		if res.Reply.Kind != st.want {
			t.Fatalf("step %d reply = %d, want %d", i, res.Reply.Kind, st.want)
		}
		if i == 0 && res.Reply.Title != "Dune Part Two" {
			t.Fatalf("extracted title = %q", res.Reply.Title)
		}
		if st.want == ReplyForwarded && res.Report == nil {
			t.Fatal("finalisation should return the dispatch report")
		}
	}

	want := []dispatchCall{{
		UserID:   10,
		Sub:      post.Submission{Title: "Dune Part Two", Link: "http://a", PermanentLink: "http://b", Image: "file-1"},
		Category: post.CategoryHD,
	}}
	if diff := cmp.Diff(want, disp.calls); diff != "" {
		t.Fatalf("dispatch calls mismatch (-want +got):\n%s", diff)
	}
	if _, ok := store.Get(10); ok {
		t.Fatal("submission must be removed after dispatch")
	}
	if m.locks.size() != 0 {
		t.Fatalf("user locks leaked: %d", m.locks.size())
	}
}

func TestTextBeforeCaptionRequiresTitle(t *testing.T) {
	m, store, _ := newMachine()
	res := m.Handle(ctx, 1, text("http://a\nhttp://b"))
	if res.Reply.Kind != ReplyTitleRequired {
		t.Fatalf("reply = %d, want ReplyTitleRequired", res.Reply.Kind)
	}
	if sub, _ := store.Get(1); sub.Link != "" || sub.PermanentLink != "" {
		t.Fatalf("links must not be set: %+v", sub)
	}
}

func TestCaptionWithoutTitleKeepsState(t *testing.T) {
	m, store, _ := newMachine()
	res := m.Handle(ctx, 1, caption("\nTitle after blank"))
	if res.Reply.Kind != ReplyTitleNotFound {
		t.Fatalf("reply = %d, want ReplyTitleNotFound", res.Reply.Kind)
	}
	sub, ok := store.Get(1)
	if !ok {
		t.Fatal("record should exist after a caption event")
	}
	if sub.Stage() != post.StageEmpty {
		t.Fatalf("stage = %s, want empty", sub.Stage())
	}
}

func TestLinkFormatError(t *testing.T) {
	m, store, _ := newMachine()
	m.Handle(ctx, 1, caption("T"))
	res := m.Handle(ctx, 1, text("only-one-line"))
	if res.Reply.Kind != ReplyLinkFormat {
		t.Fatalf("reply = %d, want ReplyLinkFormat", res.Reply.Kind)
	}
	if sub, _ := store.Get(1); sub.Stage() != post.StageHasTitle {
		t.Fatalf("stage = %s, want has_title", sub.Stage())
	}
}

func TestPhotoBeforeLinksIgnored(t *testing.T) {
	m, store, _ := newMachine()
	if res := m.Handle(ctx, 1, photo("file-1")); res.Reply.Kind != ReplyDetailsRequired {
		t.Fatalf("reply = %d, want ReplyDetailsRequired", res.Reply.Kind)
	}
	m.Handle(ctx, 1, caption("T"))
	if res := m.Handle(ctx, 1, photo("file-1")); res.Reply.Kind != ReplyDetailsRequired {
		t.Fatalf("reply = %d, want ReplyDetailsRequired", res.Reply.Kind)
	}
	if sub, _ := store.Get(1); sub.Image != "" {
		t.Fatalf("image must not be set: %+v", sub)
	}
}

func TestCategoryBeforeImageIgnored(t *testing.T) {
	m, store, disp := newMachine()
	m.Handle(ctx, 1, caption("T"))
	m.Handle(ctx, 1, text("a\nb"))
	res := m.Handle(ctx, 1, category("hd"))
	if res.Reply.Kind != ReplyStepsIncomplete || res.Report != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(disp.calls) != 0 {
		t.Fatal("dispatcher must not be called")
	}
	if _, ok := store.Get(1); !ok {
		t.Fatal("record must survive an early category event")
	}
}

func TestRepeatedCaptionOverwritesTitleOnly(t *testing.T) {
	m, store, _ := newMachine()
	m.Handle(ctx, 1, caption("First"))
	m.Handle(ctx, 1, caption("Second"))
	sub, _ := store.Get(1)
	if sub.Title != "Second" || sub.Stage() != post.StageHasTitle {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if res := m.Handle(ctx, 1, photo("f")); res.Reply.Kind != ReplyDetailsRequired {
		t.Fatal("links are still required after a second caption")
	}

	m.Handle(ctx, 1, text("a\nb"))
	m.Handle(ctx, 1, photo("f"))
	m.Handle(ctx, 1, caption("Third"))
	sub, _ = store.Get(1)
	if sub.Title != "Third" || sub.Image != "f" || sub.Link != "a" {
		t.Fatalf("new caption must keep links and image: %+v", sub)
	}
}

func TestUnknownCategoryFallsBackToDefault(t *testing.T) {
	m, _, disp := newMachine()
	m.Handle(ctx, 1, caption("T"))
	m.Handle(ctx, 1, text("a\nb"))
	m.Handle(ctx, 1, photo("f"))
	m.Handle(ctx, 1, category("bluray"))
	if len(disp.calls) != 1 || disp.calls[0].Category != post.CategoryDefault {
		t.Fatalf("expected DEFAULT dispatch, got %+v", disp.calls)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	m, store, _ := newMachine()
	m.Handle(ctx, 1, caption("One"))
	m.Handle(ctx, 2, caption("Two"))
	m.Handle(ctx, 1, text("a\nb"))
	if res := m.Handle(ctx, 2, photo("f")); res.Reply.Kind != ReplyDetailsRequired {
		t.Fatal("user 2 must not see user 1 links")
	}
	one, _ := store.Get(1)
	two, _ := store.Get(2)
	if one.Title != "One" || two.Title != "Two" || two.Link != "" {
		t.Fatalf("cross-user leak: %+v %+v", one, two)
	}
}

func TestConcurrentEventsSameUser(t *testing.T) {
	m, store, _ := newMachine()
	m.Handle(ctx, 1, caption("T"))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Handle(ctx, 1, text("a\nb"))
		}()
		go func() {
			defer wg.Done()
			m.Handle(ctx, 1, caption("T2"))
		}()
	}
	wg.Wait()
	sub, _ := store.Get(1)
	if sub.Title != "T2" || sub.Link != "a" {
		t.Fatalf("lost update: %+v", sub)
	}
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(_ context.Context, userID int64, sub post.Submission, c post.Category) fanout.Report {
	return fanout.Report{
		UserID:   userID,
		Category: c,
		Deliveries: []fanout.Delivery{
			{Destination: post.UserDestination(userID), Kind: fanout.KindSelf, Err: errors.New("blocked")},
			{Destination: "-100x", Kind: fanout.KindFixed, Err: errors.New("kicked")},
		},
	}
}

func TestRecordDeletedEvenWhenAllSendsFail(t *testing.T) {
	store := state.NewMemory[post.Submission]()
	m := NewMachine(store, failingDispatcher{})
	m.Handle(ctx, 4, caption("T"))
	m.Handle(ctx, 4, text("a\nb"))
	m.Handle(ctx, 4, photo("f"))
	res := m.Handle(ctx, 4, category("cwc"))
	if res.Reply.Kind != ReplyForwarded || res.Report.Failed() != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := store.Get(4); ok {
		t.Fatal("record must be deleted after a failed dispatch")
	}
}
