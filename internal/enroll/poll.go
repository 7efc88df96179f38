package enroll

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wolfeidau/certenroll/internal/pki"
)

// PollPolicy bounds the wait for asynchronous issuance: at most MaxAttempts
// status checks, Delay apart.
type PollPolicy struct {
	Delay       time.Duration
	MaxAttempts uint
}

// DefaultPollPolicy checks once a second for up to ten seconds.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Delay:       time.Second,
		MaxAttempts: 10,
	}
}

// errPollBudgetExhausted is returned by waitUntilIssued when every attempt saw
// the certificate still pending.
var errPollBudgetExhausted = errors.New("certificate was not issued within the poll budget")

// waitUntilIssued polls authority until handle is issued. It returns the number
// of status checks made. Errors other than pki.ErrIssuancePending stop the wait.
func waitUntilIssued(ctx context.Context, authority pki.CertificateAuthority, handle string, policy PollPolicy) (uint, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	var attempts uint
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++

		err := authority.CheckIssued(ctx, handle)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, pki.ErrIssuancePending):
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(maxAttempts),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		if errors.Is(err, pki.ErrIssuancePending) {
			return attempts, errPollBudgetExhausted
		}
		return attempts, err
	}

	return attempts, nil
}
