package upload

import (
	"sync"
	"time"
)

// Phase names the user-visible stage of a parse.
type Phase string

const (
	PhaseUploading  Phase = "uploading"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseExtracting Phase = "extracting"
	PhaseFinalizing Phase = "finalizing"
)

const (
	// progressCap is where synthetic progress stops until the parse returns.
	progressCap = 90
	// DefaultProgressStep is the increment per tick.
	DefaultProgressStep = 10
	// DefaultProgressInterval is the time between ticks.
	DefaultProgressInterval = 200 * time.Millisecond
)

// Progress is one progress report.
type Progress struct {
	Percent int
	Phase   Phase
}

// ProgressFunc receives progress reports. Calls never overlap.
type ProgressFunc func(Progress)

// PhaseFor maps a percentage to its phase.
func PhaseFor(percent int) Phase {
	switch {
	case percent < 30:
		return PhaseUploading
	case percent < 60:
		return PhaseAnalyzing
	case percent < 90:
		return PhaseExtracting
	default:
		return PhaseFinalizing
	}
}

// Label is the message shown for a phase.
func (p Phase) Label() string {
	switch p {
	case PhaseUploading:
		return "Uploading file..."
	case PhaseAnalyzing:
		return "Analyzing document structure..."
	case PhaseExtracting:
		return "Extracting information..."
	default:
		return "Finalizing..."
	}
}

// ticker emits synthetic progress while a parse request is outstanding.
// Percentages only grow and never pass progressCap.
type ticker struct {
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func startTicker(interval time.Duration, step int, emit ProgressFunc) *ticker {
	t := &ticker{done: make(chan struct{})}
	emit(Progress{Percent: 0, Phase: PhaseFor(0)})

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		tk := time.NewTicker(interval)
		defer tk.Stop()

		percent := 0
		for {
			select {
			case <-t.done:
				return
			case <-tk.C:
				percent += step
				if percent > progressCap {
					percent = progressCap
				}
				emit(Progress{Percent: percent, Phase: PhaseFor(percent)})
				if percent >= progressCap {
					return
				}
			}
		}
	}()
	return t
}

// stop halts the ticker and waits for its goroutine, so no report is
// emitted after stop returns. It is safe to call more than once.
func (t *ticker) stop() {
	t.once.Do(func() { close(t.done) })
	t.wg.Wait()
}
