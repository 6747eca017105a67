package suggest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/model"
)

// gatedSuggester answers once release is closed, ignoring cancellation so
// that late answers can be observed.
type gatedSuggester struct {
	release  chan struct{}
	started  chan string
	answer   model.Suggestion
	ok       bool
	canceled bool
	calls    []string
	mu       sync.Mutex
}

func newGatedSuggester(answer model.Suggestion) *gatedSuggester {
	return &gatedSuggester{
		release: make(chan struct{}),
		started: make(chan string, 10),
		answer:  answer,
		ok:      true,
	}
}

func (g *gatedSuggester) Suggest(ctx context.Context, description string) (model.Suggestion, bool) {
	g.mu.Lock()
	g.calls = append(g.calls, description)
	g.mu.Unlock()

	g.started <- description
	<-g.release

	g.mu.Lock()
	g.canceled = ctx.Err() != nil
	g.mu.Unlock()

	answer := g.answer
	answer.Description = description
	return answer, g.ok
}

// instantSuggester answers immediately.
type instantSuggester struct {
	answer model.Suggestion
	ok     bool
	calls  int
	mu     sync.Mutex
}

func (s *instantSuggester) Suggest(_ context.Context, description string) (model.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	answer := s.answer
	answer.Description = description
	return answer, s.ok
}

var food = model.Suggestion{CategoryID: "food", Label: "Food", Confidence: 0.8}

func TestSession_Eligibility(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	assert.False(t, s.SetDescription("Cafe").Eligible, "four characters is too short")
	assert.True(t, s.SetDescription("Cafes").Eligible)
	assert.False(t, s.SetDescription("  Caf  ").Eligible, "length is measured after trimming")

	s.SetDescription("Coffee beans")
	assert.False(t, s.SetKind(model.KindIncome).Eligible, "income is never classified")
	assert.True(t, s.SetKind(model.KindExpense).Eligible)
}

func TestLongEnough(t *testing.T) {
	assert.False(t, LongEnough("ab", 5))
	assert.False(t, LongEnough("  café ", 5))
	assert.True(t, LongEnough("cafés", 5))
	assert.True(t, LongEnough("abc", 3))
	assert.False(t, LongEnough("abcd", 0), "a non-positive minimum falls back to the default")
}

func TestSession_RunAppliesCurrentResult(t *testing.T) {
	suggester := &instantSuggester{answer: food, ok: true}
	s := NewSession(suggester, WithDebounce(0))

	ticket := s.SetDescription("Lunch at the deli")
	got, ok := s.Run(context.Background(), ticket)
	require.True(t, ok)
	assert.Equal(t, "food", got.CategoryID)

	pending, ok := s.Pending()
	require.True(t, ok)
	assert.Equal(t, got, pending)
}

func TestSession_IneligibleTicketSkipsBackend(t *testing.T) {
	suggester := &instantSuggester{answer: food, ok: true}
	s := NewSession(suggester, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Tea"))
	assert.False(t, ok)
	assert.Equal(t, 0, suggester.calls)
}

func TestSession_NoSuggestionLeavesNothingPending(t *testing.T) {
	s := NewSession(&instantSuggester{ok: false}, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Dinner downtown"))
	assert.False(t, ok)
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestSession_DebounceDropsSupersededEdits(t *testing.T) {
	suggester := &instantSuggester{answer: food, ok: true}
	s := NewSession(suggester, WithDebounce(30*time.Millisecond))

	first := s.SetDescription("Lunch")
	second := s.SetDescription("Lunch at the deli")

	var wg sync.WaitGroup
	var firstOK, secondOK bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, firstOK = s.Run(context.Background(), first)
	}()
	go func() {
		defer wg.Done()
		_, secondOK = s.Run(context.Background(), second)
	}()
	wg.Wait()

	assert.False(t, firstOK)
	assert.True(t, secondOK)
	assert.Equal(t, 1, suggester.calls, "only the settled description reaches the backend")
}

func TestSession_StaleInFlightResultIsDiscarded(t *testing.T) {
	suggester := newGatedSuggester(food)
	s := NewSession(suggester, WithDebounce(0))

	ticket := s.SetDescription("Lunch at the deli")

	done := make(chan bool, 1)
	go func() {
		_, ok := s.Run(context.Background(), ticket)
		done <- ok
	}()

	select {
	case <-suggester.started:
	case <-time.After(5 * time.Second):
		t.Fatal("suggestion request never started")
	}

	// The user keeps typing; the new text is too short to classify.
	newer := s.SetDescription("Lun")
	assert.False(t, newer.Eligible)

	close(suggester.release)

	select {
	case ok := <-done:
		assert.False(t, ok, "stale answer must not be applied")
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}

	_, ok := s.Pending()
	assert.False(t, ok, "newer empty suggestion state must survive the late answer")

	suggester.mu.Lock()
	assert.True(t, suggester.canceled, "superseded request should be canceled")
	suggester.mu.Unlock()
}

func TestSession_EditClearsPending(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Lunch at the deli"))
	require.True(t, ok)

	s.SetDescription("Lunch at the deli!")
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestSession_UnchangedDescriptionKeepsPending(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Lunch at the deli"))
	require.True(t, ok)

	ticket := s.SetDescription("Lunch at the deli")
	assert.False(t, ticket.Eligible)
	_, ok = s.Pending()
	assert.True(t, ok)
}

func TestSession_SelectCategoryClearsPending(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Lunch at the deli"))
	require.True(t, ok)

	s.SelectCategory()
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestSession_KindChangeClearsPending(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	_, ok := s.Run(context.Background(), s.SetDescription("Lunch at the deli"))
	require.True(t, ok)

	s.SetKind(model.KindIncome)
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestSession_AcceptIsExplicit(t *testing.T) {
	s := NewSession(&instantSuggester{answer: food, ok: true}, WithDebounce(0))

	_, ok := s.Accept()
	assert.False(t, ok, "nothing to accept yet")

	_, ok = s.Run(context.Background(), s.SetDescription("Lunch at the deli"))
	require.True(t, ok)

	accepted, ok := s.Accept()
	require.True(t, ok)
	assert.Equal(t, "food", accepted.CategoryID)

	_, ok = s.Pending()
	assert.False(t, ok, "accepting consumes the suggestion")
}

func TestSession_RunHonorsContext(t *testing.T) {
	suggester := &instantSuggester{answer: food, ok: true}
	s := NewSession(suggester, WithDebounce(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := s.Run(ctx, s.SetDescription("Lunch at the deli"))
	assert.False(t, ok)
	assert.Equal(t, 0, suggester.calls)
}

func TestSession_GenerationIsMonotonic(t *testing.T) {
	s := NewSession(nil)
	var last uint64
	for _, d := range []string{"a", "ab", "abc", "abcd"} {
		ticket := s.SetDescription(d)
		assert.Greater(t, ticket.Generation, last)
		last = ticket.Generation
	}
	assert.Equal(t, last, s.Generation())
}
