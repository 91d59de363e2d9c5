// Package fonts resolves the typefaces used by the raster frame renderer.
//
// Fonts are discovered on the host at runtime rather than embedded: frame
// text is plain UI labelling, so any clean sans-serif does the job, and
// shipping a font binary would dwarf the rest of the module. Discovery is
// attempted once per size and the parsed face is cached; when no usable
// TrueType font exists on the host, rendering degrades to the fixed 7x13
// bitmap face so a headless container still produces video.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// preferred lists candidate families in priority order. The first one
// findfont locates wins.
var preferred = []string{
	"DejaVuSans.ttf",
	"DejaVuSans-Bold.ttf",
	"Arial.ttf",
	"LiberationSans-Regular.ttf",
	"FreeSans.ttf",
}

var (
	loadOnce sync.Once
	ttf      *truetype.Font

	faceMu sync.Mutex
	faces  map[float64]font.Face
)

// load locates and parses the first available preferred font. Failure is
// not an error: ttf stays nil and Face falls back to the bitmap face.
func load() {
	for _, name := range preferred {
		path, err := findfont.Find(name)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed, err := truetype.Parse(data)
		if err != nil {
			continue
		}
		ttf = parsed
		return
	}
}

// Face returns a font face at the given point size.
//
// Faces are cached per size and safe to reuse, but a font.Face itself is
// not safe for concurrent drawing: each frame worker must request its own
// drawing context and set the face there.
func Face(size float64) font.Face {
	loadOnce.Do(load)
	if ttf == nil {
		return basicfont.Face7x13
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if faces == nil {
		faces = make(map[float64]font.Face)
	}
	if f, ok := faces[size]; ok {
		return f
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72})
	faces[size] = f
	return f
}

// NewFace returns a fresh, uncached face at the given size for callers
// that draw from multiple goroutines.
func NewFace(size float64) font.Face {
	loadOnce.Do(load)
	if ttf == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72})
}

// UsingFallback reports whether no TrueType font was found and the bitmap
// fallback is in use.
func UsingFallback() bool {
	loadOnce.Do(load)
	return ttf == nil
}
