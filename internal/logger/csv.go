package logger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// CSVWriter appends records to a CSV file from many goroutines. Records are
// buffered and flushed periodically; a failed flush is retried with backoff.
type CSVWriter struct {
	mu       sync.Mutex
	writer   *csv.Writer
	file     *os.File
	ticker   *time.Ticker
	done     chan struct{}
	closed   bool
	logger   *zap.Logger
	filePath string

	// Stats
	writtenRecords uint64
	flushCount     uint64
}

// CSVStats reports writer activity.
type CSVStats struct {
	Records uint64
	Flushes uint64
}

// NewCSVWriter opens filePath for appending, writing header when the file is new.
// A file that already starts with a different header is rejected.
func NewCSVWriter(filePath string, header []string, flushInterval time.Duration, logger *zap.Logger) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := checkHeader(filePath, header); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	w := &CSVWriter{
		writer:   csv.NewWriter(file),
		file:     file,
		ticker:   time.NewTicker(flushInterval),
		done:     make(chan struct{}),
		logger:   logger.Named("csv"),
		filePath: filePath,
	}

	if stat.Size() == 0 && len(header) > 0 {
		if err := w.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		w.writer.Flush()
	}

	go w.periodicFlush()

	return w, nil
}

func checkHeader(filePath string, header []string) error {
	f, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	existing, err := csv.NewReader(f).Read()
	if err != nil {
		// Empty file
		return nil
	}
	if len(header) > 0 && !slices.Equal(existing, header) {
		return fmt.Errorf("%s has an unexpected header %v", filePath, existing)
	}
	return nil
}

// Path returns the file being written.
func (w *CSVWriter) Path() string {
	return w.filePath
}

// WriteRecord buffers one record.
func (w *CSVWriter) WriteRecord(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("write to closed CSV writer %s", w.filePath)
	}
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	w.writtenRecords++
	return nil
}

// Flush writes buffered records to disk.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.flushLocked()
}

func (w *CSVWriter) flushLocked() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	w.flushCount++
	return nil
}

// FlushWithRetry retries Flush with exponential backoff until it succeeds,
// maxElapsed passes or ctx is done.
func (w *CSVWriter) FlushWithRetry(ctx context.Context, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond

	notify := func(err error, next time.Duration) {
		w.logger.Warn("CSV flush failed, retrying",
			zap.String("file", w.filePath),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	op := func() (struct{}, error) {
		return struct{}{}, w.Flush()
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(notify))
	return err
}

func (w *CSVWriter) periodicFlush() {
	for {
		select {
		case <-w.ticker.C:
			if err := w.Flush(); err != nil {
				w.logger.Error("Periodic CSV flush failed",
					zap.String("file", w.filePath),
					zap.Error(err))
			}
		case <-w.done:
			return
		}
	}
}

// Close flushes remaining records and closes the file. Calling Close twice is a no-op.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	w.ticker.Stop()

	if err := w.flushLocked(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	w.logger.Debug("CSV writer closed",
		zap.String("file", w.filePath),
		zap.Uint64("records", w.writtenRecords),
		zap.Uint64("flushes", w.flushCount))
	return nil
}

// Stats returns writer statistics.
func (w *CSVWriter) Stats() CSVStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return CSVStats{Records: w.writtenRecords, Flushes: w.flushCount}
}
