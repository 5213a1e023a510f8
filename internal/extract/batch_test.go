package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseBatchSkipsBadDocuments(t *testing.T) {
	docs := []Document{
		{Format: FormatFHIR, Data: []byte(sampleEOB)},
		{Format: FormatFHIR, Data: []byte(`{"resourceType": "Patient"}`)},
		{Format: FormatX12, Data: []byte(professional837)},
		{Format: FormatX12, Data: []byte("")},
		{Format: FormatFHIR, Data: []byte(`not json`)},
	}
	res, err := ParseBatch(context.Background(), docs, BatchOptions{Workers: 2, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if len(res.Records) != 4 {
		t.Fatalf("got %d records, want 4 (2 FHIR + 2 X12)", len(res.Records))
	}
	// Input order is preserved: FHIR records first, then 837 lines.
	if got := *res.Records[0].ClaimID; got != "eob-1" {
		t.Errorf("first record claim = %s", got)
	}
	if got := *res.Records[2].ClaimID; got != "ABC123" {
		t.Errorf("third record claim = %s", got)
	}

	wantSkips := []int{1, 3, 4}
	if len(res.Skips) != len(wantSkips) {
		t.Fatalf("skips = %+v, want indexes %v", res.Skips, wantSkips)
	}
	for i, idx := range wantSkips {
		if res.Skips[i].Index != idx {
			t.Errorf("skip %d index = %d, want %d", i, res.Skips[i].Index, idx)
		}
		if res.Skips[i].Reason == "" {
			t.Errorf("skip %d has no reason", i)
		}
	}
}

func TestParseBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []Document{{Format: FormatFHIR, Data: []byte(sampleEOB)}}
	_, err := ParseBatch(ctx, docs, BatchOptions{Logger: zerolog.Nop()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"fhir": FormatFHIR, "x12": FormatX12, "837": FormatX12} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("hl7"); err == nil {
		t.Error("expected error for unknown format")
	}
}
