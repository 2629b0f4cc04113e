// Package display is the ebiten-driven host window: it pulls framebuffers
// off the VI the non-blocking way (take_framebuffer), presents them, and
// polls keyboard/gamepad edges into the PIF's controller-read reply.
package display

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nyxcore/n64core/internal/pif"
	"github.com/nyxcore/n64core/internal/vi"
)

const (
	windowWidth  = 640
	windowHeight = 480
)

// N64 joybus button layout, matching the standard controller-read reply
// pif.Device.readController packs.
const (
	btnA      = 1 << 15
	btnB      = 1 << 14
	btnZ      = 1 << 13
	btnStart  = 1 << 12
	btnDUp    = 1 << 11
	btnDDown  = 1 << 10
	btnDLeft  = 1 << 9
	btnDRight = 1 << 8
	btnL      = 1 << 5
	btnR      = 1 << 4
	btnCUp    = 1 << 3
	btnCDown  = 1 << 2
	btnCLeft  = 1 << 1
	btnCRight = 1 << 0
)

// keyBinding pairs one ebiten key with the button bit it sets.
type keyBinding struct {
	key ebiten.Key
	bit uint16
}

var keyBindings = []keyBinding{
	{ebiten.KeyX, btnA},
	{ebiten.KeyZ, btnB},
	{ebiten.KeyC, btnZ},
	{ebiten.KeyEnter, btnStart},
	{ebiten.KeyUp, btnDUp},
	{ebiten.KeyDown, btnDDown},
	{ebiten.KeyLeft, btnDLeft},
	{ebiten.KeyRight, btnDRight},
	{ebiten.KeyQ, btnL},
	{ebiten.KeyE, btnR},
	{ebiten.KeyI, btnCUp},
	{ebiten.KeyK, btnCDown},
	{ebiten.KeyJ, btnCLeft},
	{ebiten.KeyL, btnCRight},
}

// Backend implements ebiten.Game: Update pulls the latest VI framebuffer and
// polls input into the PIF every host tick, Draw blits whatever Present last
// received.
type Backend struct {
	vi  *vi.Device
	pif *pif.Device

	mu     sync.Mutex
	img    *ebiten.Image
	width  int
	height int
}

// New constructs a Backend wired to the Console's VI and PIF.
func New(v *vi.Device, p *pif.Device) *Backend {
	return &Backend{vi: v, pif: p}
}

// Present is the non-blocking pull this port's take_framebuffer() maps to:
// it copies fb's pixels into the image Draw blits, or does nothing if fb is
// nil (no new frame queued since the last pull).
func (b *Backend) Present(fb *vi.Framebuffer) {
	if fb == nil || fb.Width == 0 || fb.Height == 0 {
		return
	}

	pix := make([]byte, fb.Width*fb.Height*4)
	for i, argb := range fb.Pixels {
		pix[i*4+0] = uint8(argb >> 16) // R
		pix[i*4+1] = uint8(argb >> 8)  // G
		pix[i*4+2] = uint8(argb)       // B
		pix[i*4+3] = uint8(argb >> 24) // A
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.img == nil || b.width != int(fb.Width) || b.height != int(fb.Height) {
		b.img = ebiten.NewImage(int(fb.Width), int(fb.Height))
		b.width, b.height = int(fb.Width), int(fb.Height)
	}
	b.img.WritePixels(pix)
}

// PollInput reads the host keyboard into the standard controller-read reply
// shape: a button mask plus a signed analog-stick vector.
func (b *Backend) PollInput() pif.InputEdges {
	var edges pif.InputEdges
	for _, kb := range keyBindings {
		if ebiten.IsKeyPressed(kb.key) {
			edges.Buttons |= kb.bit
		}
	}
	edges.StickX = axisByte(ebiten.IsKeyPressed(ebiten.KeyD), ebiten.IsKeyPressed(ebiten.KeyA))
	edges.StickY = axisByte(ebiten.IsKeyPressed(ebiten.KeyW), ebiten.IsKeyPressed(ebiten.KeyS))
	return edges
}

func axisByte(positive, negative bool) int8 {
	switch {
	case positive && !negative:
		return 80
	case negative && !positive:
		return -80
	default:
		return 0
	}
}

// Update implements ebiten.Game: pull the latest VI frame and push the
// latest input edges into the PIF, once per host tick.
func (b *Backend) Update() error {
	b.Present(b.vi.TakeFramebuffer())
	b.pif.SetInput(b.PollInput())
	return nil
}

// Draw implements ebiten.Game: blit the most recently presented frame,
// scaled to fill the window.
func (b *Backend) Draw(screen *ebiten.Image) {
	b.mu.Lock()
	img := b.img
	b.mu.Unlock()
	if img == nil {
		return
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(sw)/float64(iw), float64(sh)/float64(ih))
	screen.DrawImage(img, opts)
}

// Layout implements ebiten.Game: the window is a fixed logical size; VI's
// own resolution (256x224 up to 640x480 depending on mode) is scaled to fit
// in Draw instead of driving the window size directly.
func (b *Backend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

// Run opens the host window and blocks until it's closed.
func Run(title string, b *Backend) error {
	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(b)
}
