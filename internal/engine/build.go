package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/refboard/refboard/internal/document"
)

// BuildItems turns parsed board records into items, in order. Records whose
// bytes are not a supported image are skipped and logged; the returned error
// joins those failures and never means the whole board failed.
func BuildItems(board *document.Board) ([]*BoardItem, error) {
	items := make([]*BoardItem, 0, len(board.Images))
	var errs []error

	for i, rec := range board.Images {
		item, err := ItemFromRecord(rec)
		if err != nil {
			slog.Warn("skip board image", "index", i, "error", err)
			errs = append(errs, fmt.Errorf("image %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	for _, s := range board.Skipped {
		errs = append(errs, fmt.Errorf("record %d: %w", s.Index, s.Err))
	}

	return items, errors.Join(errs...)
}

// Records returns the persisted form of items, preserving order.
func Records(items []*BoardItem) []document.Image {
	recs := make([]document.Image, 0, len(items))
	for _, it := range items {
		recs = append(recs, it.Record())
	}
	return recs
}
