package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type progressPrinter struct {
	name     string
	mu       sync.Mutex
	stage    string
	percent  int
	message  string
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(name string) *progressPrinter {
	return &progressPrinter{
		name:    name,
		stage:   "starting",
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Update records the latest pipeline stage. Safe to call from the
// assessment goroutine while the loop is printing.
func (p *progressPrinter) Update(stage string, percent int, message string) {
	p.mu.Lock()
	p.stage = stage
	p.percent = percent
	p.message = message
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
	p.print()
	fmt.Fprintln(os.Stdout)
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	stage := p.stage
	percent := p.percent
	message := p.message
	p.mu.Unlock()

	line := fmt.Sprintf("[%s] %s: %d%%", p.name, stage, percent)
	if message != "" {
		line += " " + message
	}
	if len(line) > 79 {
		line = line[:79]
	}
	// Pad so a shorter line fully overwrites the previous one.
	fmt.Fprintf(os.Stdout, "\r%-79s", line)
}
