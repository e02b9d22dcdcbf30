// Package narrator reads assistant replies aloud.
//
// A Narrator is a single-slot resource: starting a narration cancels the one
// in flight, and a clip is only played after the previous worker has exited,
// so at most one clip plays at a time.
package narrator

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Synthesizer turns text into encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Player outputs a clip. Play must return early when ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

type Narrator struct {
	synth  Synthesizer
	player Player
	log    *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{} // closed when the current worker exits
	closed bool
	wg     sync.WaitGroup
}

func New(synth Synthesizer, player Player, log *logrus.Logger) *Narrator {
	return &Narrator{
		synth:  synth,
		player: player,
		log:    log,
	}
}

// Narrate starts reading text and returns immediately. Any narration in
// flight is cancelled first.
func (n *Narrator) Narrate(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if n.cancel != nil {
		n.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := n.done
	done := make(chan struct{})
	n.cancel = cancel
	n.done = done

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(done)
		defer cancel()

		n.run(ctx, text, prev)
	}()
}

func (n *Narrator) run(ctx context.Context, text string, prev <-chan struct{}) {
	// done must not close before prev has, or a cancelled worker could let
	// its successor play over an older clip.
	if prev != nil {
		defer func() { <-prev }()
	}

	audio, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			n.log.WithError(err).Warn("⚠️ Narration synthesis failed")
		}
		return
	}

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	if err := n.player.Play(ctx, audio); err != nil && ctx.Err() == nil {
		n.log.WithError(err).Warn("⚠️ Narration playback failed")
	}
}

// Cancel stops the narration in flight, if any
func (n *Narrator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// Close cancels any narration and waits for workers to exit
func (n *Narrator) Close() error {
	n.mu.Lock()
	n.closed = true
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.mu.Unlock()

	n.wg.Wait()
	return nil
}

// Silent is the narrator used when no text-to-speech backend is configured
type Silent struct{}

func (Silent) Narrate(string) {}
func (Silent) Cancel()        {}
