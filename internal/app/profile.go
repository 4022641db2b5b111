package app

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// profiler appends one CSV row per pipeline stage per frame.
type profiler struct {
	mu    sync.Mutex
	file  *os.File
	start time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("warn: profiler disabled: %v", err)
		}
		return nil
	}
	p := &profiler{file: f}
	fmt.Fprintln(p.file, "timestamp,frame,stage,delta_ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	p.start = time.Now()
}

func (p *profiler) markSection(frame int, stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.log(frame, stage, d)
}

func (p *profiler) endFrame(frame int) {
	if p == nil {
		return
	}
	p.log(frame, "frame_total", time.Since(p.start))
}

func (p *profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

func (p *profiler) log(frame int, stage string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return
	}
	timestamp := time.Now().Format(time.RFC3339Nano)
	fmt.Fprintf(p.file, "%s,%d,%s,%.3f\n", timestamp, frame, stage, d.Seconds()*1000)
}
