package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iudanet/notesync/internal/client/auth"
	"github.com/iudanet/notesync/internal/client/docs"
	"github.com/iudanet/notesync/internal/client/iocli"
	"github.com/iudanet/notesync/internal/client/live"
	"github.com/iudanet/notesync/internal/client/storage"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
)

// PasswordEnv переменная окружения с паролем аккаунта
const PasswordEnv = "NOTESYNC_PASSWORD"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Passwords источники пароля из флагов
type Passwords struct {
	FromFile string
	FromArgs string
}

// LiveFactory создает live Manager для заданного набора показанных документов
type LiveFactory func(display *live.DisplaySet) *live.Manager

type Cli struct {
	io          iocli.IO
	authService *auth.Service
	docService  docs.Service
	coord       *clientsync.Coordinator
	store       storage.DocumentStore
	meta        storage.MetadataStorage
	newLive     LiveFactory
	logger      *slog.Logger
}

func New(
	stdio iocli.IO,
	authService *auth.Service,
	docService docs.Service,
	coord *clientsync.Coordinator,
	store storage.DocumentStore,
	meta storage.MetadataStorage,
	newLive LiveFactory,
	logger *slog.Logger,
) *Cli {
	return &Cli{
		io:          stdio,
		authService: authService,
		docService:  docService,
		coord:       coord,
		store:       store,
		meta:        meta,
		newLive:     newLive,
		logger:      logger,
	}
}

// getPassword retrieves account password from various sources with priority:
// 1. Environment variable NOTESYNC_PASSWORD
// 2. File specified in passwords.FromFile
// 3. Command-line parameter
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(passwords Passwords) (string, error) {
	if envPassword := os.Getenv(PasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// readUsername берет username из аргументов или спрашивает интерактивно
func (c *Cli) readUsername(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return "", fmt.Errorf("failed to read username: %w", err)
	}
	return username, nil
}

func (c *Cli) title(s string) {
	c.io.Println(titleStyle.Render("=== " + s + " ==="))
}

func (c *Cli) field(label string, value any) {
	c.io.Printf("%s %v\n", labelStyle.Render(fmt.Sprintf("%-16s", label+":")), value)
}

func (c *Cli) ok(format string, a ...any) {
	c.io.Println(okStyle.Render("✓ " + fmt.Sprintf(format, a...)))
}

func (c *Cli) warn(format string, a ...any) {
	c.io.Println(warnStyle.Render("⚠ " + fmt.Sprintf(format, a...)))
}
