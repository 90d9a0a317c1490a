package parser

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseMerchantName", func() {
	var (
		lines []string
		name  string
		ok    bool
	)

	JustBeforeEach(func() {
		name, ok = ParseMerchantName(lines)
	})

	When("the first line is invoice metadata", func() {
		BeforeEach(func() {
			lines = []string{"統一發票", "星巴克 信義店", "總計 $150"}
		})

		It("should return the first line past the exclusions", func() {
			Expect(ok).To(BeTrue())
			Expect(name).To(Equal("星巴克 信義店"))
		})
	})

	When("the line has surrounding whitespace", func() {
		BeforeEach(func() {
			lines = []string{"   ", "  全家便利商店  "}
		})

		It("should return it trimmed", func() {
			Expect(name).To(Equal("全家便利商店"))
		})
	})

	When("lines are too short or too long", func() {
		BeforeEach(func() {
			lines = []string{"A", strings.Repeat("長", 31), "OK"}
		})

		It("should skip them", func() {
			Expect(name).To(Equal("OK"))
		})
	})

	When("a line is exactly thirty characters", func() {
		BeforeEach(func() {
			lines = []string{strings.Repeat("店", 30)}
		})

		It("should accept it", func() {
			Expect(ok).To(BeTrue())
		})
	})

	When("lines are purely numeric", func() {
		BeforeEach(func() {
			lines = []string{"12,345.00", "2025-03-14", "Cafe Lulu"}
		})

		It("should skip them", func() {
			Expect(name).To(Equal("Cafe Lulu"))
		})
	})

	When("nothing survives the filters", func() {
		BeforeEach(func() {
			lines = []string{"發票", "1", "現金 500"}
		})

		It("should report no merchant", func() {
			Expect(ok).To(BeFalse())
			Expect(name).To(BeEmpty())
		})
	})
})

var _ = Describe("SplitLines", func() {
	It("should split on every kind of line break", func() {
		Expect(SplitLines("a\r\nb\rc\nd")).To(Equal([]string{"a", "b", "c", "d"}))
	})

	It("should return nothing for empty text", func() {
		Expect(SplitLines("")).To(BeEmpty())
	})
})
