package calder

import "time"

// RetryBuilder provides a fluent way to construct RetryPolicy values
// for use with WorkflowBuilder.StepWithRetry.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithBackoff sets the backoff base. The sleep before attempt k+1 is
// base * k, so attempts spread out linearly:
//
//	Retry(4).WithBackoff(time.Second) // sleeps 1s, 2s, 3s between attempts
func (r RetryBuilder) WithBackoff(base time.Duration) RetryBuilder {
	p := r.policy
	p.BackoffBase = base
	return RetryBuilder{policy: p}
}

// Immediate disables any sleep between retries.
// Retries will still respect MaxAttempts.
func (r RetryBuilder) Immediate() RetryBuilder {
	p := r.policy
	p.BackoffBase = 0
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy to be passed to
// WorkflowBuilder.StepWithRetry.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}
