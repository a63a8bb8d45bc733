package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-portal/internal/app"
	"study-portal/internal/domain"
	"study-portal/internal/infra/memory"
)

func newForum(t *testing.T) (*app.ForumService, *memory.Store, *countingTrigger) {
	t.Helper()
	store := memory.NewStore()
	trigger := &countingTrigger{}
	stats := app.NewStatsService(store, trigger, nil, time.UTC)
	return app.NewForumService(store, stats), store, trigger
}

func TestCreateAnswerCreditsAndFlagsPost(t *testing.T) {
	ctx := context.Background()
	forum, store, trigger := newForum(t)

	post, err := forum.CreatePost(ctx, alice, app.NewPost{Title: " Fractions ", Content: "Why flip?", Subject: "Mathematics"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.Title != "Fractions" || post.AuthorName != "alice" {
		t.Fatalf("unexpected post: %+v", post)
	}

	before, _ := forum.ListAnswers(ctx, post.ID)
	posted, err := forum.CreateAnswer(ctx, bob, post.ID, "Dividing is multiplying by the reciprocal.")
	if err != nil {
		t.Fatalf("create answer: %v", err)
	}
	if posted.PointsAwarded != domain.AnswerPoints {
		t.Fatalf("expected %d points, got %d", domain.AnswerPoints, posted.PointsAwarded)
	}

	cached, ok := forum.CachedAnswers(post.ID)
	if !ok || len(cached) != len(before)+1 {
		t.Fatalf("expected exactly one appended answer, got %d", len(cached))
	}
	stored, _ := store.GetPost(ctx, post.ID)
	if !stored.IsAnswered {
		t.Fatalf("expected post answered")
	}
	stats, _ := store.FindStats(ctx, bob.ID)
	if stats.TotalPoints != 30 || stats.ForumAnswers != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if trigger.n != 1 {
		t.Fatalf("expected one rank trigger, got %d", trigger.n)
	}
}

func TestCreateAnswerOnMissingPostLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	forum, store, _ := newForum(t)

	if _, err := forum.CreateAnswer(ctx, bob, "missing", "hello"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected post not found, got %v", err)
	}
	if _, err := store.FindStats(ctx, bob.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no stats row, got %v", err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	forum, _, _ := newForum(t)
	if _, err := forum.CreatePost(context.Background(), domain.Identity{}, app.NewPost{Title: "a", Content: "b", Subject: "c"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := forum.CreatePost(context.Background(), alice, app.NewPost{Title: "  ", Content: "b", Subject: "c"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestMarkHelpfulRules(t *testing.T) {
	ctx := context.Background()
	forum, store, _ := newForum(t)
	carol := domain.Identity{ID: "carol", Email: "carol@example.com"}

	post, _ := forum.CreatePost(ctx, alice, app.NewPost{Title: "Cells", Content: "What is a ribosome?", Subject: "Biology"})
	bobs, _ := forum.CreateAnswer(ctx, bob, post.ID, "It builds proteins.")
	own, _ := forum.CreateAnswer(ctx, alice, post.ID, "Answering myself.")

	if _, err := forum.MarkHelpful(ctx, carol, bobs.Answer.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-author: expected forbidden, got %v", err)
	}
	if _, err := forum.MarkHelpful(ctx, alice, own.Answer.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("self endorsement: expected forbidden, got %v", err)
	}
	if _, err := forum.MarkHelpful(ctx, alice, "nope"); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("missing answer: expected not found, got %v", err)
	}

	marked, err := forum.MarkHelpful(ctx, alice, bobs.Answer.ID)
	if err != nil {
		t.Fatalf("mark helpful: %v", err)
	}
	if !marked.IsHelpful {
		t.Fatalf("expected helpful answer back")
	}
	if _, err := forum.MarkHelpful(ctx, alice, bobs.Answer.ID); !errors.Is(err, domain.ErrAlreadyHelpful) {
		t.Fatalf("repeat: expected already helpful, got %v", err)
	}

	answers, _ := store.ListAnswers(ctx, post.ID)
	helpful := 0
	for _, a := range answers {
		if a.IsHelpful {
			helpful++
		}
	}
	if helpful != 1 {
		t.Fatalf("expected exactly one helpful answer, got %d", helpful)
	}
	stats, _ := store.FindStats(ctx, bob.ID)
	if stats.TotalPoints != 90 || stats.ForumAnswers != 1 {
		t.Fatalf("expected answer author credited 30+60 over one answer, got %+v", stats)
	}
	aliceStats, _ := store.FindStats(ctx, alice.ID)
	if aliceStats.TotalPoints != 30 {
		t.Fatalf("expected post author unaffected by endorsement, got %+v", aliceStats)
	}
}

func TestBlankSearchEqualsListing(t *testing.T) {
	ctx := context.Background()
	forum, _, _ := newForum(t)
	_, _ = forum.CreatePost(ctx, alice, app.NewPost{Title: "Algebra", Content: "x+1=2", Subject: "Mathematics"})
	_, _ = forum.CreatePost(ctx, bob, app.NewPost{Title: "Poetry", Content: "Meter", Subject: "English"})

	listing, err := forum.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	result, err := forum.SearchPosts(ctx, "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.Active || len(result.Posts) != len(listing) {
		t.Fatalf("expected inactive full listing, got %+v", result)
	}
	for i := range listing {
		if listing[i].ID != result.Posts[i].ID {
			t.Fatalf("order differs at %d", i)
		}
	}

	found, err := forum.SearchPosts(ctx, "algebra")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !found.Active || len(found.Posts) != 1 || found.Posts[0].Title != "Algebra" {
		t.Fatalf("unexpected search result: %+v", found)
	}
}

func TestCachedPostsFollowFetchAndAnswers(t *testing.T) {
	ctx := context.Background()
	forum, store, _ := newForum(t)

	older := domain.Post{ID: "p1", Title: "Old", Content: "c", Subject: "s", AuthorID: bob.ID, CreatedAt: time.Now().Add(-time.Hour)}
	if _, err := store.InsertPost(ctx, older); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if len(forum.CachedPosts()) != 0 {
		t.Fatalf("expected empty cache before the first fetch")
	}
	if _, err := forum.ListPosts(ctx); err != nil {
		t.Fatalf("list posts: %v", err)
	}

	post, err := forum.CreatePost(ctx, alice, app.NewPost{Title: "New", Content: "c", Subject: "s"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	cached := forum.CachedPosts()
	if len(cached) != 2 || cached[0].ID != post.ID {
		t.Fatalf("expected new post prepended, got %+v", cached)
	}

	if _, err := forum.CreateAnswer(ctx, bob, post.ID, "answer"); err != nil {
		t.Fatalf("create answer: %v", err)
	}
	if cached := forum.CachedPosts(); !cached[0].IsAnswered || cached[1].IsAnswered {
		t.Fatalf("expected only the answered post flagged, got %+v", cached)
	}
}
