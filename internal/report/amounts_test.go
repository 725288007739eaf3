package report

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseAmount", func() {
	var (
		token string
		value decimal.Decimal
		err   error
	)

	JustBeforeEach(func() {
		value, err = ParseAmount(token)
	})

	When("the token carries a decimal comma", func() {
		BeforeEach(func() {
			token = "1234,56"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("reads the comma as the decimal mark", func() {
			Expect(value.Equal(decimal.RequireFromString("1234.56"))).To(BeTrue())
		})
	})

	When("the token has no comma", func() {
		BeforeEach(func() {
			token = "20343"
		})

		It("parses it as a whole number", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(value.Equal(decimal.NewFromInt(20343))).To(BeTrue())
		})
	})

	When("the token is a bare comma", func() {
		BeforeEach(func() {
			token = ","
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the token is empty", func() {
		BeforeEach(func() {
			token = ""
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("FilterAmounts", func() {
	var (
		tokens  []string
		min     decimal.Decimal
		max     decimal.Decimal
		kept    []decimal.Decimal
		dropped int
	)

	BeforeEach(func() {
		min = decimal.NewFromInt(1000)
		max = decimal.NewFromInt(25000000)
	})

	JustBeforeEach(func() {
		kept, dropped = FilterAmounts(tokens, min, max)
	})

	When("tokens straddle the plausible range", func() {
		BeforeEach(func() {
			tokens = []string{"999,99", "1000,00", "25000000,00", "25000000,01", "123456,78"}
		})

		It("keeps the in-range values in input order", func() {
			Expect(kept).To(HaveLen(3))
			Expect(kept[0].Equal(decimal.NewFromInt(1000))).To(BeTrue())
			Expect(kept[1].Equal(decimal.NewFromInt(25000000))).To(BeTrue())
			Expect(kept[2].Equal(decimal.RequireFromString("123456.78"))).To(BeTrue())
		})

		It("counts the dropped tokens", func() {
			Expect(dropped).To(Equal(2))
		})
	})

	When("a token does not parse", func() {
		BeforeEach(func() {
			tokens = []string{",", "1500,00"}
		})

		It("drops it like an out-of-range value", func() {
			Expect(kept).To(HaveLen(1))
			Expect(dropped).To(Equal(1))
		})
	})

	When("there are no tokens", func() {
		BeforeEach(func() {
			tokens = nil
		})

		It("keeps and drops nothing", func() {
			Expect(kept).To(BeEmpty())
			Expect(dropped).To(BeZero())
		})
	})
})

var _ = Describe("Summarize", func() {
	When("values survived filtering", func() {
		It("computes min, max, mean and total", func() {
			tokens := []string{"1000,00", "2000,00", "3000,00", "junk"}
			values := []decimal.Decimal{
				decimal.NewFromInt(1000),
				decimal.NewFromInt(2000),
				decimal.NewFromInt(3000),
			}

			stats := Summarize(tokens, values)

			Expect(stats.TokenCount).To(Equal(4))
			Expect(stats.ValueCount).To(Equal(3))
			Expect(stats.Min.Equal(decimal.NewFromInt(1000))).To(BeTrue())
			Expect(stats.Max.Equal(decimal.NewFromInt(3000))).To(BeTrue())
			Expect(stats.Mean.Equal(decimal.NewFromInt(2000))).To(BeTrue())
			Expect(stats.Total.Equal(decimal.NewFromInt(6000))).To(BeTrue())
		})
	})

	When("nothing survived filtering", func() {
		It("reports counts only", func() {
			stats := Summarize([]string{","}, nil)

			Expect(stats.TokenCount).To(Equal(1))
			Expect(stats.ValueCount).To(BeZero())
			Expect(stats.Total.IsZero()).To(BeTrue())
		})
	})
})
