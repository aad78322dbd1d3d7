package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/anime-shed/body-measure-go/internal/config"
	"github.com/anime-shed/body-measure-go/internal/container"
	"github.com/anime-shed/body-measure-go/internal/logger"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

// Landmark frames with a holistic layout run to a few tens of kilobytes.
const maxLineBytes = 4 * 1024 * 1024

func main() {
	input := flag.String("input", "-", "JSON-lines recording of timed frames (- for stdin)")
	summary := flag.Bool("summary", false, "print only the final measurement")
	timeout := flag.Duration("timeout", time.Minute, "replay timeout")
	flag.Usage = printUsage
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// Results go to stdout; keep logs on stderr and quiet.
	logger.Configure(logger.Options{Level: "warn", Format: cfg.LogFormat})
	logger.Logger.SetOutput(os.Stderr)

	r, closeInput, err := openInput(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
		os.Exit(1)
	}
	frames, err := readFrames(r)
	closeInput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read frames: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	resp, err := c.Service().Replay(ctx, frames)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeResults(os.Stdout, resp, *summary); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}
	if resp.Final == nil {
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `replay - run a recorded landmark session through the measurement pipeline

Usage: replay [-input file.jsonl] [-summary] [-timeout 1m]

Each input line is a timed frame:
  {"offset_ms": 0, "frame": {"width": 640, "height": 480, "landmarks": [...]}}

Calibration and convergence settings are read from the environment, as for
the API server. Exit status is 2 when the recording never locks.`)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// readFrames parses one TimedFrame per line. Blank lines and lines starting
// with # are skipped.
func readFrames(r io.Reader) ([]models.TimedFrame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var frames []models.TimedFrame
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var tf models.TimedFrame
		if err := json.Unmarshal([]byte(text), &tf); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, tf)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames in input")
	}
	return frames, nil
}

func writeResults(w io.Writer, resp *models.ReplayResponse, summary bool) error {
	enc := json.NewEncoder(w)
	if summary {
		if resp.Final == nil {
			_, err := fmt.Fprintln(w, `{"status":"unlocked"}`)
			return err
		}
		return enc.Encode(resp.Final)
	}
	for _, r := range resp.Results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
