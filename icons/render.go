package icons

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

var (
	colorIdle    = color.RGBA{48, 48, 52, 255}
	colorActive  = color.RGBA{26, 115, 232, 255}
	colorMuted   = color.RGBA{217, 48, 37, 255}
	colorConfirm = color.RGBA{30, 142, 62, 255}
	colorText    = color.RGBA{255, 255, 255, 255}
)

var labels = map[string][]string{
	MicDisabled: {"MIC", "OFF"},
	CamDisabled: {"CAM", "OFF"},
	HandRaised:  {"HAND", "UP"},
	Captions:    {"CC"},
	CaptionsOn:  {"CC", "ON"},
	PresentStop: {"STOP", "SHARE"},
	Present:     {"SHARE"},
	UsersOpen:   {"PEOPLE", "OPEN"},
	Users:       {"PEOPLE"},
	ChatOpen:    {"CHAT", "OPEN"},
	EndCall:     {"LEAVE"},
	NewMeeting:  {"NEW"},
	HueOn:       {"LIGHT", "ON"},
	HueOff:      {"LIGHT", "OFF"},
}

func background(name string) color.RGBA {
	switch {
	case name == EndCall, strings.HasSuffix(name, "-disabled"):
		return colorMuted
	case name == Join, name == Rejoin, name == HueOn:
		return colorConfirm
	case strings.HasSuffix(name, "-open"), strings.HasSuffix(name, "-on"),
		strings.HasSuffix(name, "-raised"), strings.HasSuffix(name, "-stop"):
		return colorActive
	default:
		return colorIdle
	}
}

func label(name string) []string {
	if l, ok := labels[name]; ok {
		return l
	}
	return strings.Split(strings.ToUpper(name), "-")
}

// Render draws a plain labelled tile for icons that have no asset on disk.
func Render(name string, size int) image.Image {
	tile := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(background(name)), image.Point{}, draw.Src)

	face := inconsolata.Bold8x16
	lineHeight := face.Metrics().Height.Ceil()
	lines := label(name)
	top := (size-lineHeight*len(lines))/2 + face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(colorText),
		Face: face,
	}
	for i, line := range lines {
		width := d.MeasureString(line).Ceil()
		d.Dot = fixed.P((size-width)/2, top+i*lineHeight)
		d.DrawString(line)
	}
	return tile
}

// Scale fits src into a size x size square.
func Scale(src image.Image, size int) image.Image {
	b := src.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
