package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// synthPage draws text black-on-white, the way a clean report page looks
// after scanning
func synthPage(text string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 240, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 30),
	}
	d.DrawString(text)

	return img
}

var _ = Describe("Preprocess", func() {
	var (
		img          image.Image
		thresholdPct int
		pngData      []byte
		err          error
	)

	BeforeEach(func() {
		thresholdPct = 55
	})

	JustBeforeEach(func() {
		pngData, err = Preprocess(img, thresholdPct)
	})

	When("the page carries printed text", func() {
		BeforeEach(func() {
			img = synthPage("1.234,56")
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces a decodable PNG", func() {
			decoded, decodeErr := png.Decode(bytes.NewReader(pngData))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(decoded.Bounds()).To(Equal(image.Rect(0, 0, 240, 60)))
		})

		It("leaves only pure black and pure white pixels", func() {
			decoded, decodeErr := png.Decode(bytes.NewReader(pngData))
			Expect(decodeErr).NotTo(HaveOccurred())

			black, white := 0, 0
			bounds := decoded.Bounds()
			for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					switch color.GrayModel.Convert(decoded.At(x, y)).(color.Gray).Y {
					case 0:
						black++
					case 255:
						white++
					default:
						Fail("found a pixel that is neither black nor white")
					}
				}
			}

			// The glyphs go black, the background white
			Expect(black).To(BeNumerically(">", 0))
			Expect(white).To(BeNumerically(">", black))
		})
	})

	When("pixels straddle the threshold", func() {
		BeforeEach(func() {
			rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
			rgba.Set(0, 0, color.RGBA{R: 50, G: 50, B: 50, A: 255})
			rgba.Set(1, 0, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			img = rgba
		})

		It("sends the dark pixel black and the light one white", func() {
			Expect(err).NotTo(HaveOccurred())

			decoded, decodeErr := png.Decode(bytes.NewReader(pngData))
			Expect(decodeErr).NotTo(HaveOccurred())

			dark := color.GrayModel.Convert(decoded.At(0, 0)).(color.Gray)
			light := color.GrayModel.Convert(decoded.At(1, 0)).(color.Gray)
			Expect(dark.Y).To(Equal(uint8(0)))
			Expect(light.Y).To(Equal(uint8(255)))
		})
	})

	When("the threshold percentage is out of range", func() {
		BeforeEach(func() {
			img = synthPage("42")
			thresholdPct = 101
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	When("the data carries a heic ftyp box", func() {
		It("detects it", func() {
			data := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypheic")...)
			Expect(isHEICFormat(data)).To(BeTrue())
		})
	})

	When("the data is a PNG header", func() {
		It("does not detect it", func() {
			data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
			Expect(isHEICFormat(data)).To(BeFalse())
		})
	})

	When("the data is too short", func() {
		It("does not detect it", func() {
			Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
		})
	})
})

var _ = Describe("stripCodeFence", func() {
	var (
		input  string
		output string
	)

	JustBeforeEach(func() {
		output = stripCodeFence(input)
	})

	When("the reply is fenced with a language tag", func() {
		BeforeEach(func() {
			input = "```text\n123,45\n678,90\n```"
		})

		It("returns the inner text", func() {
			Expect(output).To(Equal("123,45\n678,90"))
		})
	})

	When("the reply is fenced without a tag", func() {
		BeforeEach(func() {
			input = "```\n123,45\n```"
		})

		It("returns the inner text", func() {
			Expect(output).To(Equal("123,45"))
		})
	})

	When("the reply is not fenced", func() {
		BeforeEach(func() {
			input = "  123,45\n678,90\n"
		})

		It("only trims the surrounding whitespace", func() {
			Expect(output).To(Equal("123,45\n678,90"))
		})
	})
})
