package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/live"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
	"github.com/iudanet/notesync/internal/models"
)

const liveHelp = `Commands:
  put <kind:subkind|id> <json>   create or update a document
  get <id>                       show a document
  rm <id>                        delete a document
  ls                             list displayed documents
  status                         connection state
  retry                          reconnect after an error
  quit                           exit`

// runLive держит live канал и принимает команды со stdin.
// База открыта эксклюзивно, поэтому документы правятся из этой же сессии.
func (c *Cli) runLive(ctx context.Context, prefix string) error {
	guest, err := c.authService.IsGuest(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if guest {
		return fmt.Errorf("live sync is not available in guest mode, run 'notesync login'")
	}

	display := live.NewDisplaySet(prefix, c.printChanges)
	initial, err := c.docService.List(ctx, prefix)
	if err != nil {
		return err
	}
	display.Show(initial)
	mgr := c.newLive(display)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := mgr.State().Subscribe(c.stateReporter())
	defer unsubscribe()

	runErr := make(chan error, 1)
	go func() {
		runErr <- mgr.Run(ctx)
	}()

	// ReadInput не прерывается отменой ctx, горутина завершится вместе с процессом
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := c.io.ReadInput("")
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	c.title("Live sync")
	c.io.Println("Type 'help' for commands.")

	for {
		select {
		case err := <-runErr:
			return liveError(err)
		case line, ok := <-lines:
			quit := !ok
			if ok {
				var err error
				quit, err = c.execLive(ctx, mgr, line)
				if err != nil {
					c.io.Println(errStyle.Render("Error: " + err.Error()))
				}
			}
			if quit {
				cancel()
				return liveError(<-runErr)
			}
		}
	}
}

// execLive выполняет одну команду. Возвращает true для выхода.
func (c *Cli) execLive(ctx context.Context, mgr *live.Manager, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		c.io.Println(liveHelp)
	case "put":
		target, body, _ := strings.Cut(rest, " ")
		if target == "" || strings.TrimSpace(body) == "" {
			return false, fmt.Errorf("usage: put <kind:subkind|id> <json>")
		}
		return false, c.runDocPut(ctx, target, "", []byte(strings.TrimSpace(body)))
	case "get":
		if rest == "" {
			return false, fmt.Errorf("usage: get <id>")
		}
		return false, c.runDocGet(ctx, rest)
	case "rm":
		if rest == "" {
			return false, fmt.Errorf("usage: rm <id>")
		}
		return false, c.runDocRm(ctx, rest)
	case "ls":
		docs := mgr.Display().Docs()
		if len(docs) == 0 {
			c.io.Println("No documents displayed.")
		}
		c.printDocs(docs)
	case "status":
		c.printSnapshot(mgr.State().Snapshot())
		c.field("Pending", c.coord.Queue().Len())
	case "retry":
		mgr.Retry()
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return false, nil
}

func (c *Cli) printChanges(changed []*models.Document) {
	for _, doc := range changed {
		if doc.Deleted {
			c.io.Printf("%s %s\n", warnStyle.Render("-"), doc.ID)
			continue
		}
		c.io.Printf("%s %s  %s  %s\n", okStyle.Render("*"), doc.ID, labelStyle.Render(doc.Rev), summary(doc.Body))
	}
}

// stateReporter печатает смену состояния соединения (прогресс пропускается)
func (c *Cli) stateReporter() func(clientsync.Snapshot) {
	var (
		mu   sync.Mutex
		last clientsync.ConnectionState
	)
	return func(s clientsync.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.State == last {
			return
		}
		last = s.State
		c.printSnapshot(s)
	}
}

func (c *Cli) printSnapshot(s clientsync.Snapshot) {
	switch {
	case s.NeedsReauth:
		c.io.Println(errStyle.Render("state: " + string(s.State) + " (login required)"))
	case s.State == clientsync.StateError:
		c.io.Println(errStyle.Render(fmt.Sprintf("state: error: %v (type 'retry')", s.Err)))
	case s.State == clientsync.StateConnected:
		c.io.Println(okStyle.Render("state: " + string(s.State)))
	default:
		c.io.Println(labelStyle.Render("state: " + string(s.State)))
	}
}

func liveError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("session expired, run 'notesync login': %w", err)
	}
	return err
}
