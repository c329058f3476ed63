package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/notesync/internal/client/api"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.title("Synchronization")

	unsubscribe := c.coord.State().Subscribe(func(s clientsync.Snapshot) {
		if s.Progress != nil {
			c.io.Printf("  %5.1f%%\n", *s.Progress)
		}
	})
	defer unsubscribe()

	result, err := c.coord.Sync(ctx)
	if err != nil {
		switch {
		case errors.Is(err, clientsync.ErrGuestSession):
			return fmt.Errorf("sync is not available in guest mode, run 'notesync login'")
		case errors.Is(err, api.ErrUnauthorized):
			return fmt.Errorf("session expired, run 'notesync login': %w", err)
		case errors.Is(err, api.ErrNetworkUnreachable):
			return fmt.Errorf("server is unreachable, local changes are kept: %w", err)
		}
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.ok("Synchronization completed")
	c.field("Pushed", result.Pushed)
	c.field("Pulled", result.Pulled)
	c.field("Deleted", result.Deleted)
	if result.Skipped > 0 {
		c.warn("%d document(s) skipped: local copy is newer or equal", result.Skipped)
	}

	return nil
}
