package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// JSONLZstdWriter appends JSON lines to zstd-compressed files, one file per
// segment. Segments sort lexically in write order.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu     sync.Mutex
	curSeg string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) WriteSegment(seg string, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if seg != w.curSeg || w.w == nil {
		if err := w.rotateLocked(seg); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(seg string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForSegment(seg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curSeg = seg
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *JSONLZstdWriter) pathForSegment(seg string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, seg))
}

// DaysPerFile bounds how many simulated days share one day log file.
const DaysPerFile = 1000

// DayLogger writes one compressed JSONL entry per simulated day under
// <villageDir>/days.
type DayLogger struct{ w *JSONLZstdWriter }

func NewDayLogger(villageDir string) *DayLogger {
	return &DayLogger{w: NewJSONLZstdWriter(DayDir(villageDir), dayPrefix)}
}

func (l *DayLogger) WriteDay(e village.DayLogEntry) error {
	return l.w.WriteSegment(fmt.Sprintf("%08d", e.Day/DaysPerFile*DaysPerFile), e)
}

func (l *DayLogger) Close() error { return l.w.Close() }

const dayPrefix = "days"

func DayDir(villageDir string) string { return filepath.Join(villageDir, "days") }
