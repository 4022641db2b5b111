//go:build !sdl

package render

import "errors"

func newSDLCanvas(Options) (Canvas, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl or use --render terminal")
}

func SupportsSDL() bool { return false }
