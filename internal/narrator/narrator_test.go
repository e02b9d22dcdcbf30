package narrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/avvvet/portfolio-chat/internal/logging"
)

// blockingSynth blocks on texts listed in hold until their context ends
type blockingSynth struct {
	hold    map[string]bool
	started chan string
}

func (s *blockingSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.started != nil {
		s.started <- text
	}
	if s.hold[text] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []byte(text), nil
}

type recordingPlayer struct {
	mu      sync.Mutex
	played  []string
	active  int32
	maxSeen int32
}

func (p *recordingPlayer) Play(ctx context.Context, audio []byte) error {
	n := atomic.AddInt32(&p.active, 1)
	defer atomic.AddInt32(&p.active, -1)
	for {
		seen := atomic.LoadInt32(&p.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&p.maxSeen, seen, n) {
			break
		}
	}

	p.mu.Lock()
	p.played = append(p.played, string(audio))
	p.mu.Unlock()
	return nil
}

func (p *recordingPlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.played...)
}

func TestNarrator_NewNarrationCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	synth := &blockingSynth{hold: map[string]bool{"first": true}, started: make(chan string, 2)}
	player := &recordingPlayer{}
	n := New(synth, player, logging.Discard())

	n.Narrate("first")
	require.Equal(t, "first", <-synth.started)

	n.Narrate("second")
	require.Equal(t, "second", <-synth.started)

	require.Eventually(t, func() bool { return len(player.Played()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, n.Close())

	assert.Equal(t, []string{"second"}, player.Played())
}

func TestNarrator_AtMostOnePlaying(t *testing.T) {
	defer goleak.VerifyNone(t)

	synth := &blockingSynth{}
	player := &recordingPlayer{}
	n := New(synth, player, logging.Discard())

	for i := 0; i < 50; i++ {
		n.Narrate("line")
	}
	require.Eventually(t, func() bool { return len(player.Played()) > 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, n.Close())

	assert.LessOrEqual(t, atomic.LoadInt32(&player.maxSeen), int32(1))
}

func TestNarrator_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	synth := &blockingSynth{hold: map[string]bool{"long": true}, started: make(chan string, 1)}
	player := &recordingPlayer{}
	n := New(synth, player, logging.Discard())

	n.Narrate("long")
	<-synth.started
	n.Cancel()
	require.NoError(t, n.Close())

	assert.Empty(t, player.Played())
}

func TestNarrator_ClosedIgnoresNarrate(t *testing.T) {
	defer goleak.VerifyNone(t)

	player := &recordingPlayer{}
	n := New(&blockingSynth{}, player, logging.Discard())
	require.NoError(t, n.Close())

	n.Narrate("late")
	assert.Empty(t, player.Played())
}

type failingSynth struct{}

func (failingSynth) Synthesize(context.Context, string) ([]byte, error) {
	return nil, errors.New("quota exceeded")
}

func TestNarrator_SynthesisErrorIsSwallowed(t *testing.T) {
	defer goleak.VerifyNone(t)

	player := &recordingPlayer{}
	n := New(failingSynth{}, player, logging.Discard())
	n.Narrate("hello")
	require.NoError(t, n.Close())

	assert.Empty(t, player.Played())
}

func TestElevenLabs_Synthesize(t *testing.T) {
	var gotKey, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer server.Close()

	tts := NewElevenLabs("secret", "voice-1", 5*time.Second).WithEndpoint(server.URL + "/v1/text-to-speech/")

	audio, err := tts.Synthesize(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "/v1/text-to-speech/voice-1", gotPath)
}

func TestElevenLabs_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tts := NewElevenLabs("bad", "voice-1", 5*time.Second).WithEndpoint(server.URL + "/")

	_, err := tts.Synthesize(context.Background(), "Hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFilePlayer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	player, err := NewFilePlayer(dir)
	require.NoError(t, err)

	require.NoError(t, player.Play(context.Background(), []byte("clip")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".mp3", filepath.Ext(entries[0].Name()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, player.Play(ctx, []byte("clip")), context.Canceled)
}
