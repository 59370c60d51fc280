package overlay

// RGB is a plain 0-255 color triple for layer styling.
type RGB struct {
	R, G, B int
}

// FontConfig controls the id labels drawn next to boxes.
type FontConfig struct {
	Name  string
	Style string
	Size  float64
}

// Config selects which grouping layers to draw and how to style them.
type Config struct {
	DrawTokens  bool
	DrawLines   bool
	DrawBlocks  bool
	DrawRegions bool
	Labels      bool // draw element ids next to their boxes

	TokenColor  RGB
	LineColor   RGB
	BlockColor  RGB
	RegionColor RGB

	Font FontConfig
}

// DefaultConfig draws lines and blocks with labels; token boxes tend to be
// too dense to be readable and stay off unless asked for.
func DefaultConfig() Config {
	return Config{
		DrawTokens:  false,
		DrawLines:   true,
		DrawBlocks:  true,
		DrawRegions: true,
		Labels:      true,
		TokenColor:  RGB{R: 200, G: 60, B: 60},
		LineColor:   RGB{R: 40, G: 140, B: 60},
		BlockColor:  RGB{R: 40, G: 70, B: 190},
		RegionColor: RGB{R: 150, G: 40, B: 160},
		Font:        FontConfig{Name: "Helvetica", Style: "", Size: 7},
	}
}
