package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/rafscore/internal/model"
)

// ChannelSource implements pgx.CopyFromSource over a channel of score rows,
// so scoring and COPY run concurrently with backpressure.
type ChannelSource struct {
	ch      <-chan *model.ScoreRow
	current *model.ScoreRow
	rows    int64
}

func NewChannelSource(ch <-chan *model.ScoreRow) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	s.rows++
	return true
}

// Values returns the current row in model.ScoreColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

func (s *ChannelSource) Err() error { return nil }

// Consumed reports how many rows have been handed to COPY.
func (s *ChannelSource) Consumed() int64 { return s.rows }

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
