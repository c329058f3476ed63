package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) runRegister(ctx context.Context, args []string, passwords Passwords) error {
	c.title("Registration")

	username, err := c.readUsername(args)
	if err != nil {
		return err
	}

	password, err := c.getPassword(passwords)
	if err != nil {
		return err
	}

	// Подтверждение нужно только при вводе с клавиатуры
	if os.Getenv(PasswordEnv) == "" && passwords.FromFile == "" && passwords.FromArgs == "" {
		confirm, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	c.io.Println("Registering user...")
	result, err := c.authService.Register(ctx, username, password)
	if err != nil {
		return err
	}

	c.ok("Registration successful!")
	c.field("User ID", result.UserID)
	c.field("Username", result.Username)
	c.io.Println("You are logged in. Run 'notesync sync' to upload local documents.")

	return nil
}
