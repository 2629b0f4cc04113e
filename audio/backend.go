// Package audio is the oto-driven host player: it pulls resampled stereo
// blocks off the AI the way fill_audio(out[1024]) describes, specialized to
// int16 stereo framing by oto's own player loop.
package audio

import (
	"io"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 48000
	channelCount = 2
)

// Backend owns the oto output context and the player reading from the AI's
// io.Reader side.
type Backend struct {
	ctx    *oto.Context
	player *oto.Player
}

// New opens the host audio device and starts a player pulling from source —
// in product code, the Console's AI device, whose Read implements exactly
// the 4096-byte (1024-stereo-sample) block pull the AI's doc comment spec's.
func New(source io.Reader) (*Backend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(source)
	player.Play()

	return &Backend{ctx: ctx, player: player}, nil
}

// Close stops playback. The output device itself has no explicit teardown
// in oto's API; closing the player is the host-side half of Shutdown.
func (b *Backend) Close() error {
	return b.player.Close()
}
