package storage

import (
	"context"
	"io"

	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

// maxChartBytes bounds how much of a chart document is read.
const maxChartBytes = 1 << 20

// ChartFetcher loads a size chart from a location.
type ChartFetcher interface {
	FetchChart(ctx context.Context, location string) (*sizing.Chart, error)
}

// BuiltinChartFetcher returns the compiled-in chart and ignores location.
type BuiltinChartFetcher struct{}

// FetchChart returns sizing.DefaultChart
func (BuiltinChartFetcher) FetchChart(ctx context.Context, _ string) (*sizing.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sizing.DefaultChart(), nil
}

func decodeChart(r io.Reader) (*sizing.Chart, error) {
	return sizing.LoadChart(io.LimitReader(r, maxChartBytes))
}
