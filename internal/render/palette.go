package render

// Glyphs used to fill terminal cells covered by a rectangle. The first rune
// is a fully covered cell; the second is a cell the rectangle only partly
// covers vertically.
var (
	blockPalette = []rune("█▄")
	shadePalette = []rune("▓░")
	asciiPalette = []rune("#.")
)

// Palette returns the fill glyphs for the given name.
func Palette(name string) []rune {
	switch name {
	case "shade":
		return shadePalette
	case "ascii":
		return asciiPalette
	default:
		return blockPalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"block", "shade", "ascii"}
}
