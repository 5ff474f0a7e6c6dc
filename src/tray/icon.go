package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// SVG content for the window and fyne tray icon
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Lens -->
  <circle cx="6.5" cy="6.5" r="4.5" fill="#cfe8fc" fill-opacity="0.6" stroke="#0078d4" stroke-width="1.6"/>
  <!-- Handle -->
  <line x1="10" y1="10" x2="14.5" y2="14.5" stroke="#333333" stroke-width="2.2" stroke-linecap="round"/>
</svg>`

var (
	iconOnce sync.Once
	iconPNG  []byte
	iconICO  []byte
)

// IconResource is the application icon for fyne windows and menus.
func IconResource() fyne.Resource {
	return fyne.NewStaticResource("scope-z.svg", []byte(SVGContent))
}

// IconPNG is a 32x32 raster of the icon.
func IconPNG() []byte {
	iconOnce.Do(renderIcons)
	return iconPNG
}

// IconICO wraps IconPNG in an ICO container, as Windows tray icons require.
func IconICO() []byte {
	iconOnce.Do(renderIcons)
	return iconICO
}

func renderIcons() {
	const size = 32
	img, err := rasterize(SVGContent, size)
	if err != nil {
		slog.Warn("tray: icon rasterization failed", "error", err)
		img = image.NewNRGBA(image.Rect(0, 0, size, size))
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	iconPNG = buf.Bytes()
	iconICO = wrapICO(iconPNG, size)
}

// rasterize renders an SVG document into a size x size image.
func rasterize(svg string, size int) (*image.NRGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(size), float64(size))
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1)
	return img, nil
}

// wrapICO builds a single-image ICO file with a PNG payload.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 1})
	// ICONDIRENTRY
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	buf.Write([]byte{dim, dim, 0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, []uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{uint32(len(pngData)), 22})
	buf.Write(pngData)
	return buf.Bytes()
}
