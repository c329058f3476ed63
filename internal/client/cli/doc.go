package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/notesync/internal/models"
)

// runDocPut создает документ (target = kind:subkind) или пишет новую ревизию (target = id)
func (c *Cli) runDocPut(ctx context.Context, target, rev string, body []byte) error {
	parts := strings.Split(target, ":")
	switch {
	case len(parts) == 2:
		if rev != "" {
			return fmt.Errorf("--rev applies only to existing documents")
		}
		doc, err := c.docService.Create(ctx, parts[0], parts[1], body)
		if err != nil {
			return err
		}
		c.ok("Created %s", doc.ID)
		c.field("Revision", doc.Rev)
	case len(parts) >= 3:
		doc, err := c.docService.Update(ctx, target, rev, body)
		if err != nil {
			return err
		}
		c.ok("Updated %s", doc.ID)
		c.field("Revision", doc.Rev)
	default:
		return fmt.Errorf("expected kind:subkind or document id, got %q", target)
	}
	return nil
}

func (c *Cli) runDocGet(ctx context.Context, id string) error {
	doc, err := c.docService.Get(ctx, id)
	if err != nil {
		return err
	}

	c.field("ID", doc.ID)
	c.field("Revision", doc.Rev)
	c.field("Updated", doc.UpdatedAt.Local().Format(time.RFC3339))

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc.Body, "", "  "); err != nil {
		// тело пришло с сервера как есть
		pretty.Reset()
		pretty.Write(doc.Body)
	}
	c.io.Println(pretty.String())
	return nil
}

func (c *Cli) runDocRm(ctx context.Context, id string) error {
	doc, err := c.docService.Delete(ctx, id)
	if err != nil {
		return err
	}
	c.ok("Deleted %s", doc.ID)
	c.field("Revision", doc.Rev)
	return nil
}

func (c *Cli) runDocLs(ctx context.Context, prefix string) error {
	list, err := c.docService.List(ctx, prefix)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.io.Println("No documents found.")
		return nil
	}
	c.printDocs(list)
	return nil
}

func (c *Cli) runDocLog(ctx context.Context, id string) error {
	revs, err := c.docService.History(ctx, id)
	if err != nil {
		return err
	}
	for _, rev := range revs {
		c.io.Println(rev)
	}
	return nil
}

func (c *Cli) printDocs(list []*models.Document) {
	for _, doc := range list {
		c.io.Printf("%s  %s  %s\n", doc.ID, labelStyle.Render(doc.Rev), summary(doc.Body))
	}
}

// summary короткое однострочное представление тела
func summary(body json.RawMessage) string {
	const maxLen = 60
	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return ""
	}
	s := compact.String()
	if len(s) > maxLen {
		s = s[:maxLen-3] + "..."
	}
	return s
}
