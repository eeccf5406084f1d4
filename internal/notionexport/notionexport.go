// Package notionexport mirrors the recorded transactions into a Notion
// database for people who review their finances there.
package notionexport

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/logger"
)

// NotionService defines the Notion operations the export depends on.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// Result summarizes one export run.
type Result struct {
	Created int
	Skipped int
}

// Export creates a Notion page per transaction that is not already present
// in the database. The Transaction ID title property is the idempotency key:
// pages that already carry a recorded id are left untouched.
func Export(ctx context.Context, svc NotionService, databaseID string, txs []domain.Transaction) (Result, error) {
	log := logger.FromContext(ctx)

	existing, err := existingTransactionIDs(ctx, svc, databaseID)
	if err != nil {
		return Result{}, fmt.Errorf("Export: %w", err)
	}

	var res Result
	for _, tx := range txs {
		if existing[tx.ID] {
			res.Skipped++
			continue
		}
		if _, err := svc.CreatePage(ctx, databaseID, TransactionToNotionProperties(tx)); err != nil {
			return res, fmt.Errorf("Export: creating page for transaction %s: %w", tx.ID, err)
		}
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Msg("Exported transactions to Notion")
	return res, nil
}

// existingTransactionIDs pages through the database and collects every
// transaction id already published.
func existingTransactionIDs(ctx context.Context, svc NotionService, databaseID string) (map[string]bool, error) {
	ids := make(map[string]bool)

	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("querying existing pages: %w", err)
		}
		for _, page := range resp.Results {
			if id := extractTransactionID(page); id != "" {
				ids[id] = true
			}
		}
		if !resp.HasMore {
			return ids, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// extractTransactionID reads the Transaction ID title property off a page.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties["Transaction ID"]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}

// TransactionToNotionProperties converts a transaction to Notion page
// properties.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.ID,
					},
				},
			},
		},
		"Kind": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Kind),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Category,
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(tx.Timestamp.UTC().Truncate(24 * time.Hour))
					return &d
				}(),
			},
		},
	}

	if tx.Description != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Description,
					},
				},
			},
		}
	}

	return props
}
