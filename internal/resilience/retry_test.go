package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func transientErr() error {
	return timeoutErr{}
}

func TestRetryEventualSuccess(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	result, err := Retry(context.Background(), policy, func() (string, error) {
		calls++
		if calls < 3 {
			return "", transientErr()
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %q", result)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 invocations, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	_, err := Retry(context.Background(), policy, func() (string, error) {
		calls++
		return "", transientErr()
	})

	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 invocations, got %d", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}

	oauthErr := New(KindOAuth, "token rejected")
	calls := 0
	_, err := Retry(context.Background(), policy, func() (int, error) {
		calls++
		return 0, oauthErr
	})

	if !errors.Is(err, oauthErr) {
		t.Fatalf("expected the oauth error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not be retried, got %d calls", calls)
	}
}

func TestRetryNeverRetriesValidationOrAuthorization(t *testing.T) {
	// Even a permissive predicate must not resurrect these kinds.
	policy := RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(error) bool { return true },
	}

	for _, kind := range []Kind{KindValidation, KindAuthorization} {
		calls := 0
		_, err := Retry(context.Background(), policy, func() (int, error) {
			calls++
			return 0, New(kind, "rejected")
		})
		if err == nil {
			t.Fatalf("%v: expected failure", kind)
		}
		if calls != 1 {
			t.Errorf("%v: expected 1 call, got %d", kind, calls)
		}
	}
}

func TestRetryCustomPredicate(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		ShouldRetry: func(err error) bool {
			return Classify(err) == KindDatabase
		},
	}

	calls := 0
	_, err := Retry(context.Background(), policy, func() (int, error) {
		calls++
		return 0, New(KindDatabase, "deadlock")
	})

	if err == nil {
		t.Fatal("expected failure")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls under custom predicate, got %d", calls)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), RetryPolicy{BaseDelay: time.Millisecond}, func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
