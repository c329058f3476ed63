package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runLogout(ctx context.Context) error {
	c.title("Logout")

	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.ok("Logout successful!")
	c.io.Println("Your local session has been deleted. Local documents are kept.")

	return nil
}
