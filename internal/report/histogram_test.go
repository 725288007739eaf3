package report

import (
	"bytes"
	"image/png"

	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RenderHistogram", func() {
	var (
		values  []decimal.Decimal
		bins    int
		pngData []byte
		err     error
	)

	BeforeEach(func() {
		bins = 10
	})

	JustBeforeEach(func() {
		pngData, err = RenderHistogram(values, bins, "test report")
	})

	When("values are present", func() {
		BeforeEach(func() {
			values = []decimal.Decimal{
				decimal.RequireFromString("1500.00"),
				decimal.RequireFromString("2750.50"),
				decimal.RequireFromString("12000.00"),
				decimal.RequireFromString("98000.25"),
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("produces a decodable PNG", func() {
			img, decodeErr := png.Decode(bytes.NewReader(pngData))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Empty()).To(BeFalse())
		})
	})

	When("no values are present", func() {
		BeforeEach(func() {
			values = nil
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the bin count is not positive", func() {
		BeforeEach(func() {
			values = []decimal.Decimal{decimal.NewFromInt(1500)}
			bins = 0
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
