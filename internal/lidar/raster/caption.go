package raster

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var captionFont *truetype.Font

func init() {
	var err error
	captionFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// DrawCaption writes text in the top-left corner of img. It is applied after
// annotation so the text never counts as cluster pixels.
func DrawCaption(img *image.RGBA, text string, c color.Color, size float64) {
	if text == "" {
		return
	}
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(truetype.NewFace(captionFont, &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringAnchored(text, size/2, size/2, 0, 1)
}
