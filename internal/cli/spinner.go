package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner animates a progress indicator on stderr while a long operation
// runs. After a few seconds it appends the elapsed time to the message.
// When stderr is not a terminal the spinner is a no-op so that piped or
// captured output stays clean.
type Spinner struct {
	message string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	active  bool
	started time.Time
	wg      sync.WaitGroup
	once    sync.Once
}

// newSpinner creates a spinner that stops when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		active:  isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Start begins the animation. Safe to call when inactive.
func (s *Spinner) Start() {
	s.started = time.Now()
	if !s.active {
		return
	}
	s.wg.Add(1)
	go s.run()
}

func (s *Spinner) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-ticker.C:
			frame := styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)])
			line := s.message
			if elapsed := time.Since(s.started); elapsed > 3*time.Second {
				line = fmt.Sprintf("%s (%ds)", s.message, int(elapsed.Seconds()))
			}
			fmt.Fprintf(os.Stderr, "\r%s %s", frame, StyleDim.Render(line))
		}
	}
}

// Stop halts the animation and clears the line. Idempotent.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Spinner) clearLine() {
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+16))
}

// Cancelled reports whether the parent context was cancelled while the
// spinner was running.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() == context.Canceled
}
