package parser

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("ParseAmount", func() {
	var (
		text   string
		amount decimal.Decimal
		tier   Tier
		ok     bool
	)

	JustBeforeEach(func() {
		amount, tier, ok = ParseAmount(text)
	})

	When("a taxi fare line is present", func() {
		BeforeEach(func() {
			text = "車資(Total,$):\n250\n總計 $999"
		})

		It("should prefer the strict match over the general total", func() {
			Expect(ok).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(250))).To(BeTrue())
			Expect(tier).To(Equal(TierStrict))
		})
	})

	When("the meter line uses full-width punctuation", func() {
		BeforeEach(func() {
			text = "跳表金額（Fare，$）：\n 185"
		})

		It("should read the fare from the next line", func() {
			Expect(ok).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(185))).To(BeTrue())
			Expect(tier).To(Equal(TierStrict))
		})
	})

	When("the strict match is outside its range", func() {
		BeforeEach(func() {
			text = "車資(Total,$): 20000\n總計 1,500"
		})

		It("should fall through to the general tier", func() {
			Expect(ok).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(1500))).To(BeTrue())
			Expect(tier).To(Equal(TierGeneral))
		})
	})

	When("several general labels are present", func() {
		BeforeEach(func() {
			text = "小計 120\n總計 150"
		})

		It("should use the first label in rule order, not text order", func() {
			Expect(amount.Equal(decimal.NewFromInt(150))).To(BeTrue())
			Expect(tier).To(Equal(TierGeneral))
		})
	})

	When("the first labelled number is implausibly small", func() {
		BeforeEach(func() {
			text = "總計 5\n$ 88"
		})

		It("should move on to the next pattern", func() {
			Expect(ok).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(88))).To(BeTrue())
			Expect(tier).To(Equal(TierGeneral))
		})
	})

	DescribeTable("currency markers",
		func(input string, expected int64) {
			got, gotTier, found := ParseAmount(input)
			Expect(found).To(BeTrue())
			Expect(gotTier).To(Equal(TierGeneral))
			Expect(got.Equal(decimal.NewFromInt(expected))).To(BeTrue(), "got %s", got)
		},
		Entry("NT dollar", "NT$ 1,280", int64(1280)),
		Entry("lower-case NT", "nt$1280", int64(1280)),
		Entry("ISO code", "TWD 450", int64(450)),
		Entry("dollar sign", "$ 75", int64(75)),
		Entry("yuan word", "320 元", int64(320)),
		Entry("paid", "實付：660", int64(660)),
		Entry("payable", "應付 1,050", int64(1050)),
		Entry("spaced total", "合 計 : 230", int64(230)),
		Entry("ideographic space after total", "總計\u3000150\n電話 02-2345", int64(150)),
		Entry("no-break space after NT$", "NT$\u00a0150\n電話 02-2345", int64(150)),
		Entry("ideographic space inside label", "合\u3000計：230", int64(230)),
	)

	When("the total has cents", func() {
		BeforeEach(func() {
			text = "總計: 123.45"
		})

		It("should keep the exact decimal value", func() {
			Expect(amount.String()).To(Equal("123.45"))
		})
	})

	When("no label matches", func() {
		BeforeEach(func() {
			text = "咖啡 120\n蛋糕 3,500\n88"
		})

		It("should return the largest plausible number", func() {
			Expect(ok).To(BeTrue())
			Expect(amount.Equal(decimal.NewFromInt(3500))).To(BeTrue())
			Expect(tier).To(Equal(TierFallback))
		})
	})

	When("the largest number is out of range", func() {
		BeforeEach(func() {
			text = "order 999999\nitem 42"
		})

		It("should ignore it", func() {
			Expect(amount.Equal(decimal.NewFromInt(42))).To(BeTrue())
			Expect(tier).To(Equal(TierFallback))
		})
	})

	When("there are no plausible numbers", func() {
		BeforeEach(func() {
			text = "thank you 5 8"
		})

		It("should report no amount", func() {
			Expect(ok).To(BeFalse())
			Expect(tier).To(Equal(TierNone))
		})
	})
})

var _ = Describe("parseNumber", func() {
	DescribeTable("tokens",
		func(token string, expected string, valid bool) {
			d, ok := parseNumber(token)
			Expect(ok).To(Equal(valid))
			if valid {
				Expect(d.String()).To(Equal(expected))
			}
		},
		Entry("plain", "150", "150", true),
		Entry("grouped", "12,345", "12345", true),
		Entry("cents", "1,234.50", "1234.5", true),
		Entry("dangling point", "80.", "80", true),
		Entry("separator only", ",", "", false),
		Entry("empty", "", "", false),
	)
})
