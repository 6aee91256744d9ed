package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-index/internal/core/domain"
	"github.com/custodia-labs/sercha-index/internal/core/ports/driven"
)

// scrollAll pages through a whole collection, accumulating every batch
// until the store returns no cursor.
func scrollAll(ctx context.Context, store driven.VectorStore, collection string, pageSize int, withPayload, withVectors bool) ([]domain.Point, error) {
	if pageSize <= 0 {
		pageSize = domain.DefaultScrollPageSize
	}

	var all []domain.Point
	cursor := ""
	for {
		page, err := store.Scroll(ctx, collection, domain.ScrollRequest{
			Cursor:      cursor,
			Limit:       pageSize,
			WithPayload: withPayload,
			WithVectors: withVectors,
		})
		if err != nil {
			return nil, fmt.Errorf("scroll %s: %w", collection, err)
		}
		all = append(all, page.Points...)

		if page.Next == "" {
			return all, nil
		}
		if page.Next == cursor {
			return nil, fmt.Errorf("scroll %s: cursor %q did not advance", collection, cursor)
		}
		cursor = page.Next
	}
}
