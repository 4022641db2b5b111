package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoOnce    sync.Once
	otoCtx     *oto.Context
	otoFormat  Format
	otoInitErr error
)

// oto allows a single context per process, so the first format wins.
func initOto(format Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoFormat = format
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoFormat != format {
		return nil, fmt.Errorf("oto context already opened at %d Hz/%d ch", otoFormat.SampleRate, otoFormat.Channels)
	}
	return otoCtx, nil
}

// OtoSink feeds an oto player through a pipe so Play blocks until the
// player has pulled the whole buffer.
type OtoSink struct {
	player *oto.Player
	pw     *io.PipeWriter
	once   sync.Once
}

// NewOtoSink opens the default output device through oto.
func NewOtoSink(format Format) (*OtoSink, error) {
	ctx, err := initOto(format)
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()
	return &OtoSink{player: player, pw: pw}, nil
}

func (s *OtoSink) Play(pcm []byte) error {
	_, err := s.pw.Write(pcm)
	return err
}

// Close lets the player drain what it already pulled, then releases it.
func (s *OtoSink) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.pw.Close()
		deadline := time.Now().Add(2 * time.Second)
		for s.player.IsPlaying() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		err = s.player.Close()
	})
	return err
}
