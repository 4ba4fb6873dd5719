package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/refboard/refboard/internal/asset"
	"github.com/refboard/refboard/internal/config"
	"github.com/refboard/refboard/internal/document"
)

// WritePDF renders the board and embeds it in a single-page PDF the size of
// the raster, one point per pixel.
func WritePDF(w io.Writer, images []document.Image, display config.DisplayConfig, opts Options) error {
	img, err := Render(images, display, opts)
	if err != nil {
		return err
	}
	data, err := asset.EncodePNG(img)
	if err != nil {
		return err
	}

	b := img.Bounds()
	width, height := float64(b.Dx()), float64(b.Dy())

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.SetTitle("refboard export", true)
	p.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("board", opt, bytes.NewReader(data))
	p.ImageOptions("board", 0, 0, width, height, false, opt, 0, "")

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
