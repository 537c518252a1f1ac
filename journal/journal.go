// Package journal appends the bot's decision and trade records as JSON
// lines to a size-rotated file. The journal is an audit trail, not a log:
// every entry is structured and machine-readable.
package journal

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/srllamadev/protocol-14-weex/logger"
)

// Journal is the recording surface the strategy loop writes through.
type Journal interface {
	Record(kind string, data any)
}

// Entry is one journal line.
type Entry struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	Data any       `json:"data"`
}

// Writer appends entries to journal.jsonl under the configured directory,
// rotating by size. A journal write failure is logged and swallowed:
// bookkeeping must never take down the trading loop.
type Writer struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	log logger.Logger
	now func() time.Time
}

// NewWriter opens (creating if needed) the journal under dir.
func NewWriter(dir string, log logger.Logger) *Writer {
	return &Writer{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "journal.jsonl"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		},
		log: log,
		now: time.Now,
	}
}

// Record appends one entry.
func (w *Writer) Record(kind string, data any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	line, err := json.Marshal(Entry{Time: w.now().UTC(), Kind: kind, Data: data})
	if err != nil {
		w.log.Warn("journal encode failed", logger.String("kind", kind), logger.Err(err))
		return
	}
	if _, err := w.out.Write(append(line, '\n')); err != nil {
		w.log.Warn("journal write failed", logger.String("kind", kind), logger.Err(err))
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.out.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}

// Nop discards every entry. Used in tests and when journaling is disabled.
type Nop struct{}

func (Nop) Record(string, any) {}
