//go:build sdl

package render

import (
	"fmt"
	"image/color"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

type sdlCanvas struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	font     *ttf.Font
}

func newSDLCanvas(opts Options) (Canvas, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("init video: %w", err)
	}
	c := &sdlCanvas{}

	title := "FFT Visualisation"
	if opts.Title != "" {
		title += ": " + opts.Title
	}
	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(opts.Width), int32(opts.Height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create window: %w", err)
	}
	c.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	c.renderer = renderer
	_ = renderer.SetLogicalSize(int32(opts.Width), int32(opts.Height))

	if opts.FontPath != "" {
		if err := ttf.Init(); err != nil {
			c.Close()
			return nil, fmt.Errorf("init ttf: %w", err)
		}
		size := opts.FontSize
		if size <= 0 {
			size = 20
		}
		font, err := ttf.OpenFont(opts.FontPath, size)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open font %s: %w", opts.FontPath, err)
		}
		c.font = font
	}
	return c, nil
}

func (c *sdlCanvas) setColor(col color.RGBA) error {
	return c.renderer.SetDrawColor(col.R, col.G, col.B, col.A)
}

func (c *sdlCanvas) Clear() error {
	if err := c.setColor(Black); err != nil {
		return err
	}
	return c.renderer.Clear()
}

func (c *sdlCanvas) FillRect(r Rect, col color.RGBA) error {
	if err := c.setColor(col); err != nil {
		return err
	}
	return c.renderer.FillRect(&sdl.Rect{X: int32(r.X), Y: int32(r.Y), W: int32(r.W), H: int32(r.H)})
}

func (c *sdlCanvas) DrawText(x, y int, text string, col color.RGBA) error {
	if c.font == nil || text == "" {
		return nil
	}
	surface, err := c.font.RenderUTF8Blended(text, sdl.Color{R: col.R, G: col.G, B: col.B, A: col.A})
	if err != nil {
		return err
	}
	defer surface.Free()

	texture, err := c.renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return err
	}
	defer texture.Destroy()

	_, _, w, h, err := texture.Query()
	if err != nil {
		return err
	}
	return c.renderer.Copy(texture, nil, &sdl.Rect{X: int32(x), Y: int32(y), W: w, H: h})
}

func (c *sdlCanvas) Present() error {
	c.renderer.Present()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return ErrRendererQuit
		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN && (e.Keysym.Sym == sdl.K_ESCAPE || e.Keysym.Sym == sdl.K_q) {
				return ErrRendererQuit
			}
		}
	}
	return nil
}

func (c *sdlCanvas) Close() error {
	if c.font != nil {
		c.font.Close()
		c.font = nil
		ttf.Quit()
	}
	if c.renderer != nil {
		c.renderer.Destroy()
		c.renderer = nil
	}
	if c.window != nil {
		c.window.Destroy()
		c.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

func SupportsSDL() bool { return true }
