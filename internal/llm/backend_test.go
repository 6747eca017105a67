package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// fakeClient returns scripted results in order, repeating the last one.
type fakeClient struct {
	results []fakeResult
	block   chan struct{}
	calls   atomic.Int32
	prompts []string
	mu      sync.Mutex
}

type fakeResult struct {
	err            error
	classification model.Classification
}

func (f *fakeClient) Classify(ctx context.Context, prompt string) (model.Classification, error) {
	n := int(f.calls.Add(1)) - 1

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return model.Classification{}, ctx.Err()
		}
	}

	if n >= len(f.results) {
		n = len(f.results) - 1
	}
	r := f.results[n]
	return r.classification, r.err
}

func testBackend(client Client) *Backend {
	return NewBackendWithClient(client, Config{RetryDelay: time.Millisecond, MaxRetries: 3, RateLimit: 600}, nil)
}

var candidates = []string{"Food", "Transport", "Other"}

func TestBackend_ClassifyCaches(t *testing.T) {
	client := &fakeClient{results: []fakeResult{{classification: model.Classification{Category: "Food", Confidence: 0.9}}}}
	backend := testBackend(client)
	defer func() { _ = backend.Close() }()

	ctx := context.Background()
	got, err := backend.Classify(ctx, "Lunch at the deli", candidates)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)

	got, err = backend.Classify(ctx, "  lunch AT the deli", candidates)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, int32(1), client.calls.Load())

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Lunch at the deli")
	assert.Contains(t, client.prompts[0], "- Transport")
}

func TestBackend_RetriesTransientFailures(t *testing.T) {
	transient := &common.RetryableError{Err: errors.New("502"), Retryable: true}
	client := &fakeClient{results: []fakeResult{
		{err: transient},
		{classification: model.Classification{Category: "Transport", Confidence: 0.6}},
	}}
	backend := testBackend(client)
	defer func() { _ = backend.Close() }()

	got, err := backend.Classify(context.Background(), "Uber to airport", candidates)
	require.NoError(t, err)
	assert.Equal(t, "Transport", got.Category)
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestBackend_ErrorClassification(t *testing.T) {
	t.Run("contract violation is not retried", func(t *testing.T) {
		client := &fakeClient{results: []fakeResult{{err: common.NewContractViolation("no category")}}}
		backend := testBackend(client)
		defer func() { _ = backend.Close() }()

		_, err := backend.Classify(context.Background(), "Mystery charge", candidates)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrContractViolation)
		assert.NotErrorIs(t, err, common.ErrBackendUnavailable)
		assert.Equal(t, int32(1), client.calls.Load())
	})

	t.Run("exhausted retries become backend errors", func(t *testing.T) {
		client := &fakeClient{results: []fakeResult{{err: &common.RetryableError{Err: errors.New("down"), Retryable: true}}}}
		backend := testBackend(client)
		defer func() { _ = backend.Close() }()

		_, err := backend.Classify(context.Background(), "Mystery charge", candidates)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrBackendUnavailable)
		assert.ErrorIs(t, err, common.ErrMaxRetries)
		assert.Equal(t, int32(3), client.calls.Load())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		client := &fakeClient{results: []fakeResult{
			{err: &common.RetryableError{Err: errors.New("bad request"), Retryable: false}},
			{classification: model.Classification{Category: "Food", Confidence: 0.5}},
		}}
		backend := testBackend(client)
		defer func() { _ = backend.Close() }()

		_, err := backend.Classify(context.Background(), "Bagels", candidates)
		require.Error(t, err)

		got, err := backend.Classify(context.Background(), "Bagels", candidates)
		require.NoError(t, err)
		assert.Equal(t, "Food", got.Category)
	})
}

func TestBackend_DeduplicatesInFlight(t *testing.T) {
	client := &fakeClient{
		block:   make(chan struct{}),
		results: []fakeResult{{classification: model.Classification{Category: "Food", Confidence: 0.9}}},
	}
	backend := testBackend(client)
	defer func() { _ = backend.Close() }()

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = backend.Classify(context.Background(), "Groceries run", candidates)
		}(i)
	}

	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Let the other callers join the in-flight request.
	time.Sleep(20 * time.Millisecond)
	close(client.block)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestBackend_CallerCancellation(t *testing.T) {
	client := &fakeClient{
		block:   make(chan struct{}),
		results: []fakeResult{{classification: model.Classification{Category: "Food", Confidence: 0.9}}},
	}
	backend := testBackend(client)
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := backend.Classify(ctx, "Slow answer", candidates)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(client.block)
}

func TestBackend_CanceledWaiterDoesNotFailOthers(t *testing.T) {
	client := &fakeClient{
		block:   make(chan struct{}),
		results: []fakeResult{{classification: model.Classification{Category: "Food", Confidence: 0.9}}},
	}
	backend := testBackend(client)
	defer func() { _ = backend.Close() }()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := backend.Classify(first, "coffee shop", candidates)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)

	type answer struct {
		got model.Classification
		err error
	}
	second := make(chan answer, 1)
	go func() {
		got, err := backend.Classify(context.Background(), "coffee shop", candidates)
		second <- answer{got, err}
	}()
	// Let the second caller join the in-flight request.
	time.Sleep(20 * time.Millisecond)

	cancel()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(client.block)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "Food", res.got.Category)
	assert.Equal(t, int32(1), client.calls.Load())
}
