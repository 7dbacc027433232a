package api

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitForCompletion polls the firmware operation status until it leaves
// the running state, backing off between polls. The onStatus callback
// receives every observed status and can report progress to the operator.
// Bounded only by the context.
func (c *Client) WaitForCompletion(ctx context.Context, onStatus func(*UpgradeStatus)) (*UpgradeStatus, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * time.Second
	policy.MaxInterval = 15 * time.Second
	policy.MaxElapsedTime = 0 // run until the context says otherwise

	var final *UpgradeStatus
	operation := func() error {
		status, err := c.UpgradeStatus(ctx)
		if err != nil {
			// Transient: the daemon restarts mid-upgrade.
			return err
		}
		if onStatus != nil {
			onStatus(status)
		}
		if status.Running() {
			return fmt.Errorf("firmware operation still %s", status.Status)
		}
		final = status
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("waiting for firmware operation: %w", err)
	}
	return final, nil
}
