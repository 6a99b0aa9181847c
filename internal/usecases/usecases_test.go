package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tribefeed/internal/domain"
	"tribefeed/internal/usecases"
)

func newTweet(t *testing.T, handle string, id uint64, body string) *domain.Tweet {
	t.Helper()
	tweet, err := domain.NewTweet(domain.Author{Handle: handle}, id, body, time.Unix(int64(id), 0))
	if err != nil {
		t.Fatal(err)
	}
	return tweet
}

// MockScraper is a mock implementation of TweetScraper.
type MockScraper struct {
	tweet     *domain.Tweet
	err       error
	timelines map[string][]*domain.Tweet
	calls     int
}

func (m *MockScraper) Scrape(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.tweet, nil
}

func (m *MockScraper) ScrapeTimeline(ctx context.Context, handle string) ([]*domain.Tweet, error) {
	m.calls++
	tweets, ok := m.timelines[handle]
	if !ok {
		return nil, domain.ErrScrapingFailed
	}
	return tweets, nil
}

// MockCache is a mock implementation of TweetCache.
type MockCache struct {
	tweets map[string]*domain.Tweet
}

func NewMockCache() *MockCache {
	return &MockCache{tweets: make(map[string]*domain.Tweet)}
}

func cacheKey(handle string, id uint64) string {
	return domain.Permalink(strings.ToLower(handle), id)
}

func (m *MockCache) Get(handle string, id uint64) (*domain.Tweet, bool) {
	tweet, found := m.tweets[cacheKey(handle, id)]
	return tweet, found
}

func (m *MockCache) Set(tweet *domain.Tweet) {
	m.tweets[cacheKey(tweet.Handle(), tweet.ID())] = tweet
}

func (m *MockCache) SetAs(handle string, tweet *domain.Tweet) {
	m.tweets[cacheKey(handle, tweet.ID())] = tweet
}

// MemoryRepo is an in-memory TweetRepository.
type MemoryRepo struct {
	mu      sync.Mutex
	tweets  []*domain.Tweet
	getErr  error
	saveErr error
}

func (r *MemoryRepo) Save(ctx context.Context, tweets ...*domain.Tweet) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tweets = append(r.tweets, tweets...)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tweets {
		if strings.EqualFold(t.Handle(), handle) && t.ID() == id {
			return t, nil
		}
	}
	return nil, domain.ErrTweetNotFound
}

func (r *MemoryRepo) GetByID(ctx context.Context, id uint64) (*domain.Tweet, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tweets {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, domain.ErrTweetNotFound
}

func (r *MemoryRepo) Recent(ctx context.Context, limit int) ([]*domain.Tweet, error) {
	return r.filter(limit, func(*domain.Tweet) bool { return true }), nil
}

func (r *MemoryRepo) ByHandle(ctx context.Context, handle string, limit int) ([]*domain.Tweet, error) {
	return r.filter(limit, func(t *domain.Tweet) bool { return strings.EqualFold(t.Handle(), handle) }), nil
}

func (r *MemoryRepo) Search(ctx context.Context, term string, limit int) ([]*domain.Tweet, error) {
	term = strings.ToLower(term)
	return r.filter(limit, func(t *domain.Tweet) bool { return strings.Contains(strings.ToLower(t.Body()), term) }), nil
}

func (r *MemoryRepo) filter(limit int, keep func(*domain.Tweet) bool) []*domain.Tweet {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Tweet
	for _, t := range r.tweets {
		if keep(t) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out
}

// ScrapeTweetUseCase tests

func TestScrapeTweetUseCase_Execute_Success(t *testing.T) {
	// Arrange
	mockScraper := &MockScraper{tweet: newTweet(t, "testuser", 123, "Hello world")}
	uc := usecases.NewScrapeTweetUseCase(mockScraper)

	// Act
	tweet, err := uc.Execute(context.Background(), "testuser", 123)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweet.Permalink() != "http://twitter.com/testuser/status/123" {
		t.Errorf("Permalink: got %v", tweet.Permalink())
	}
}

func TestScrapeTweetUseCase_Execute_ScraperError(t *testing.T) {
	expectedErr := errors.New("scraping failed")
	uc := usecases.NewScrapeTweetUseCase(&MockScraper{err: expectedErr})

	_, err := uc.Execute(context.Background(), "testuser", 123)

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestScrapeTweetUseCase_Execute_WrongTweet_ReturnsNotFound(t *testing.T) {
	uc := usecases.NewScrapeTweetUseCase(&MockScraper{tweet: newTweet(t, "testuser", 999, "other")})

	_, err := uc.Execute(context.Background(), "testuser", 123)

	if !errors.Is(err, domain.ErrTweetNotFound) {
		t.Errorf("expected ErrTweetNotFound, got %v", err)
	}
}

// GetTweetUseCase tests

func TestGetTweetUseCase_Execute_CacheHit(t *testing.T) {
	// Arrange
	cache := NewMockCache()
	cache.Set(newTweet(t, "testuser", 123, "Cached tweet"))
	mockScraper := &MockScraper{tweet: newTweet(t, "testuser", 123, "Fresh tweet")}
	uc := usecases.NewGetTweetUseCase(cache, &MemoryRepo{}, usecases.NewScrapeTweetUseCase(mockScraper))

	// Act
	tweet, err := uc.Execute(context.Background(), "TestUser", 123)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweet.Body() != "Cached tweet" {
		t.Errorf("expected cached tweet, got %v", tweet.Body())
	}
	if mockScraper.calls != 0 {
		t.Errorf("scraper called %d times on cache hit", mockScraper.calls)
	}
}

func TestGetTweetUseCase_Execute_StoreHit_FillsCache(t *testing.T) {
	// Arrange
	cache := NewMockCache()
	repo := &MemoryRepo{}
	_ = repo.Save(context.Background(), newTweet(t, "user", 5, "Stored tweet"))
	mockScraper := &MockScraper{err: domain.ErrScrapingFailed}
	uc := usecases.NewGetTweetUseCase(cache, repo, usecases.NewScrapeTweetUseCase(mockScraper))

	// Act
	tweet, err := uc.Execute(context.Background(), "user", 5)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweet.Body() != "Stored tweet" {
		t.Errorf("got %q, want stored tweet", tweet.Body())
	}
	if _, found := cache.Get("user", 5); !found {
		t.Error("store hit should populate the cache")
	}
}

func TestGetTweetUseCase_Execute_Miss_ScrapesAndStores(t *testing.T) {
	// Arrange
	cache := NewMockCache()
	repo := &MemoryRepo{}
	mockScraper := &MockScraper{tweet: newTweet(t, "newuser", 456, "Fresh tweet")}
	uc := usecases.NewGetTweetUseCase(cache, repo, usecases.NewScrapeTweetUseCase(mockScraper))

	// Act
	tweet, err := uc.Execute(context.Background(), "newuser", 456)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweet.Body() != "Fresh tweet" {
		t.Errorf("expected fresh tweet, got %v", tweet.Body())
	}
	if _, found := cache.Get("newuser", 456); !found {
		t.Error("expected tweet to be cached after scrape")
	}
	if _, err := repo.Get(context.Background(), "newuser", 456); err != nil {
		t.Errorf("expected tweet to be stored after scrape, got %v", err)
	}
}

func TestGetTweetUseCase_Execute_RenamedAuthor_ScrapesOnce(t *testing.T) {
	// Arrange
	cache := NewMockCache()
	repo := &MemoryRepo{}
	mockScraper := &MockScraper{tweet: newTweet(t, "newname", 77, "same tweet, new handle")}
	uc := usecases.NewGetTweetUseCase(cache, repo, usecases.NewScrapeTweetUseCase(mockScraper))

	// Act
	first, err := uc.Execute(context.Background(), "oldname", 77)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := uc.Execute(context.Background(), "OldName", 77)

	// Assert
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if mockScraper.calls != 1 {
		t.Errorf("scraper calls = %d, want 1", mockScraper.calls)
	}
	if first.Handle() != "newname" || second != first {
		t.Errorf("got %s then %v, want the renamed tweet twice", first.Handle(), second)
	}
	if _, found := cache.Get("newname", 77); !found {
		t.Error("tweet should also be cached under its current handle")
	}
}

func TestGetTweetUseCase_Execute_RenamedAuthor_FoundInStoreByID(t *testing.T) {
	// Arrange
	repo := &MemoryRepo{}
	_ = repo.Save(context.Background(), newTweet(t, "newname", 78, "stored under the new handle"))
	mockScraper := &MockScraper{err: domain.ErrScrapingFailed}
	cache := NewMockCache()
	uc := usecases.NewGetTweetUseCase(cache, repo, usecases.NewScrapeTweetUseCase(mockScraper))

	// Act
	tweet, err := uc.Execute(context.Background(), "oldname", 78)

	// Assert
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tweet.Handle() != "newname" || mockScraper.calls != 0 {
		t.Errorf("handle = %s, scraper calls = %d", tweet.Handle(), mockScraper.calls)
	}
	if _, found := cache.Get("oldname", 78); !found {
		t.Error("store hit should be cached under the requested handle")
	}
}

func TestGetTweetUseCase_Execute_BrokenStore_StillScrapes(t *testing.T) {
	repo := &MemoryRepo{getErr: errors.New("disk on fire"), saveErr: errors.New("disk on fire")}
	mockScraper := &MockScraper{tweet: newTweet(t, "user", 1, "scraped")}
	uc := usecases.NewGetTweetUseCase(NewMockCache(), repo, usecases.NewScrapeTweetUseCase(mockScraper))

	tweet, err := uc.Execute(context.Background(), "user", 1)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tweet.Body() != "scraped" {
		t.Errorf("got %q", tweet.Body())
	}
}

func TestGetTweetUseCase_Execute_ScraperError(t *testing.T) {
	mockScraper := &MockScraper{err: domain.ErrScrapingFailed}
	uc := usecases.NewGetTweetUseCase(NewMockCache(), &MemoryRepo{}, usecases.NewScrapeTweetUseCase(mockScraper))

	_, err := uc.Execute(context.Background(), "user", 999)

	if err != domain.ErrScrapingFailed {
		t.Errorf("expected ErrScrapingFailed, got %v", err)
	}
}

// ListTweetsUseCase tests

func TestListTweetsUseCase_Search(t *testing.T) {
	// Arrange
	repo := &MemoryRepo{}
	_ = repo.Save(context.Background(),
		newTweet(t, "alice", 1, "learning #Go today"),
		newTweet(t, "bob", 2, "#golang is not #go"),
		newTweet(t, "carol", 3, "see http://x.io/#go"),
		newTweet(t, "alice", 4, "abc#go glued"),
		newTweet(t, "dave", 5, "plain go text"),
	)
	uc := usecases.NewListTweetsUseCase(repo, 10)

	testCases := []struct {
		name  string
		query string
		want  []uint64
	}{
		{name: "hashtag exact, case-insensitive", query: "#go", want: []uint64{1, 2}},
		{name: "hashtag prefix does not match", query: "#gol", want: nil},
		{name: "mention lists handle", query: "@alice", want: []uint64{1, 4}},
		{name: "substring", query: "plain", want: []uint64{5}},
		{name: "empty", query: "   ", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got, err := uc.Search(context.Background(), tc.query)

			// Assert
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d tweets, want %v", len(got), tc.want)
			}
			for i, tweet := range got {
				if tweet.ID() != tc.want[i] {
					t.Errorf("tweet %d: id %d, want %d", i, tweet.ID(), tc.want[i])
				}
			}
		})
	}
}

// RefreshTimelinesUseCase tests

func TestRefreshTimelinesUseCase_Execute_SavesAndReportsFailures(t *testing.T) {
	// Arrange
	repo := &MemoryRepo{}
	cache := NewMockCache()
	mockScraper := &MockScraper{timelines: map[string][]*domain.Tweet{
		"alice": {newTweet(t, "alice", 1, "a"), newTweet(t, "alice", 2, "b")},
		"bob":   {newTweet(t, "bob", 3, "c")},
	}}
	uc := usecases.NewRefreshTimelinesUseCase(mockScraper, repo, cache, []string{"alice", "ghost", "bob"})

	// Act
	report, err := uc.Execute(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Handles != 3 || report.Tweets != 3 {
		t.Errorf("report = %+v, want 3 handles and 3 tweets", report)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "ghost" {
		t.Errorf("Failed = %v, want [ghost]", report.Failed)
	}
	if all, _ := repo.Recent(context.Background(), 10); len(all) != 3 {
		t.Errorf("stored %d tweets, want 3", len(all))
	}
	if _, found := cache.Get("bob", 3); !found {
		t.Error("refreshed tweets should be cached")
	}
}

func TestRefreshTimelinesUseCase_Execute_CancelledContext_Stops(t *testing.T) {
	mockScraper := &MockScraper{timelines: map[string][]*domain.Tweet{}}
	uc := usecases.NewRefreshTimelinesUseCase(mockScraper, &MemoryRepo{}, NewMockCache(), []string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mockScraper.calls != 0 {
		t.Errorf("scraper called %d times after cancellation", mockScraper.calls)
	}
}
