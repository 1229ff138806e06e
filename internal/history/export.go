package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// maxExportLimit is the maximum number of records to export at once.
const maxExportLimit = 1000000

func exportRecords(ctx context.Context, s Store, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}
	if all == nil {
		all = []*Record{}
	}

	export := &Export{
		Version:     ExportVersion,
		ExportedAt:  time.Now().UTC(),
		Count:       len(all),
		Assessments: all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func importRecords(ctx context.Context, s Store, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("%w: failed to decode JSON: %v", ErrInvalidExport, err)
	}
	if export.Version != ExportVersion {
		return 0, 0, fmt.Errorf("%w: unsupported export version %q", ErrInvalidExport, export.Version)
	}

	for _, rec := range export.Assessments {
		if rec == nil {
			continue
		}

		_, err := s.Get(ctx, rec.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if err := s.Save(ctx, rec); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
