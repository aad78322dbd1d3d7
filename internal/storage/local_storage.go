package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

// LocalChartFetcher reads a size chart from the filesystem.
type LocalChartFetcher struct{}

// FetchChart reads the chart at path
func (LocalChartFetcher) FetchChart(ctx context.Context, path string) (*sizing.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open size chart: %w", err)
	}
	defer f.Close()
	return decodeChart(f)
}
