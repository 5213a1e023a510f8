package extract

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/rafscore/internal/model"
	"github.com/gyeh/rafscore/internal/normalize"
)

// Format names a claim document wire format.
type Format string

const (
	FormatFHIR Format = "fhir"
	FormatX12  Format = "x12"
)

// ParseFormat accepts "fhir" and "x12" (or its alias "837").
func ParseFormat(s string) (Format, error) {
	switch s {
	case "fhir", "FHIR":
		return FormatFHIR, nil
	case "x12", "X12", "837":
		return FormatX12, nil
	}
	return "", fmt.Errorf("unknown claim format %q (want fhir or x12)", s)
}

// Parse dispatches one document to the parser for its format.
func Parse(format Format, data []byte) ([]model.ServiceLevelRecord, error) {
	switch format {
	case FormatFHIR:
		return ParseFHIR(data)
	case FormatX12:
		return ParseX12(string(data))
	}
	return nil, fmt.Errorf("unknown claim format %q", format)
}

// Document is one raw claim document in a batch.
type Document struct {
	Format Format
	Data   []byte
}

// Skip records a batch document that could not be parsed.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResult holds records from every parsed document, in input order,
// plus the documents that were skipped.
type BatchResult struct {
	Records []model.ServiceLevelRecord
	Skips   []Skip
}

// BatchOptions configures ParseBatch.
type BatchOptions struct {
	// Workers bounds concurrent parses. Zero means GOMAXPROCS.
	Workers int
	Logger  zerolog.Logger
}

// ParseBatch parses documents concurrently. A document that fails to parse
// is recorded as a Skip and never aborts the batch; the only error returned
// is context cancellation.
func ParseBatch(ctx context.Context, docs []Document, opts BatchOptions) (*BatchResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger

	type outcome struct {
		records []model.ServiceLevelRecord
		err     error
	}
	outcomes := make([]outcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := Parse(docs[i].Format, docs[i].Data)
			outcomes[i] = outcome{records: recs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	res := &BatchResult{}
	for i, o := range outcomes {
		if o.err != nil {
			res.Skips = append(res.Skips, Skip{Index: i, Reason: o.err.Error()})
			var verr *ValidationError
			evt := log.Warn().Int("index", i).Str("format", string(docs[i].Format)).
				Str("doc_hash", normalize.ContentHash(docs[i].Data))
			if errors.As(o.err, &verr) {
				evt = evt.Str("reason", verr.Msg)
			}
			evt.Err(o.err).Msg("skipping claim document")
			continue
		}
		res.Records = append(res.Records, o.records...)
	}
	log.Debug().Int("documents", len(docs)).Int("records", len(res.Records)).
		Int("skipped", len(res.Skips)).Msg("batch extraction complete")
	return res, nil
}
