package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// Retryable decides whether a failed attempt is worth repeating.
type Retryable func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings, repeating on
// duplicate-key collisions (random ID regeneration) and transient
// transaction aborts (per-thread write conflicts).
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, func(err error) bool {
		return IsDuplicateKeyError(err) || IsTransientTxnError(err)
	})
}

// WithRetries attempts op up to maxRetries additional times, with a small
// incremental backoff between attempts, as long as retryable says the
// failure is transient.
func WithRetries(op Operation, maxRetries int, retryable Retryable) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries {
			break
		}
		if !retryable(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// IsDuplicateKeyError checks for MongoDB duplicate key errors (code 11000).
func IsDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// IsTransientTxnError reports whether a transaction aborted with a label the
// driver marks as safe to retry from scratch.
func IsTransientTxnError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
