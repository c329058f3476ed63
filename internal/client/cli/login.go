package cli

import (
	"context"
	"time"
)

func (c *Cli) runLogin(ctx context.Context, args []string, passwords Passwords) error {
	c.title("Login")

	username, err := c.readUsername(args)
	if err != nil {
		return err
	}

	password, err := c.getPassword(passwords)
	if err != nil {
		return err
	}

	c.io.Println("Authenticating...")
	result, err := c.authService.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.ok("Login successful!")
	c.field("Username", result.Username)
	c.field("Token expires", time.Unix(result.ExpiresAt, 0).Format(time.RFC3339))

	return nil
}

// runGuest включает локальный режим: документы не синхронизируются до входа
func (c *Cli) runGuest(ctx context.Context) error {
	if err := c.authService.Guest(ctx); err != nil {
		return err
	}
	c.ok("Guest mode enabled")
	c.io.Println("Documents stay on this device until you login.")
	return nil
}
