package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/notesync/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.title("Status")

	auth, err := c.authService.Current(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		c.field("Session", "not logged in (local only)")
	case err != nil:
		return fmt.Errorf("failed to get auth data: %w", err)
	case auth.Guest:
		c.field("Session", "guest")
	default:
		c.field("Session", "authenticated")
		c.field("Username", auth.Username)
		expiresAt := time.Unix(auth.ExpiresAt, 0)
		if time.Now().Before(expiresAt) {
			c.field("Token expires", expiresAt.Format(time.RFC3339))
		} else {
			// обновится по refresh token при следующей синхронизации
			c.field("Token expires", "expired, will refresh")
		}
	}

	lastSync, err := c.meta.GetLastSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last sync time: %w", err)
	}
	if lastSync.IsZero() {
		c.field("Last sync", "never")
	} else {
		c.field("Last sync", lastSync.Local().Format(time.RFC3339))
	}

	stubs, err := c.store.AllStubs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	var deleted int
	for _, s := range stubs {
		if s.Deleted {
			deleted++
		}
	}
	c.field("Documents", len(stubs)-deleted)
	c.field("Tombstones", deleted)

	return nil
}
