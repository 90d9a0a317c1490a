package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("normalizeTranscript", func() {
	var (
		input string
		text  string
		err   error
	)

	JustBeforeEach(func() {
		text, err = normalizeTranscript(input)
	})

	When("the transcript is clean", func() {
		BeforeEach(func() {
			input = "鼎泰豐 信義店\n2025/03/14\n總計 NT$ 1,280"
		})

		It("should keep every line", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(input))
		})
	})

	When("the transcript is wrapped in a code fence", func() {
		BeforeEach(func() {
			input = "```text\n全家便利商店\n合計 85\n```"
		})

		It("should strip the fence", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("全家便利商店\n合計 85"))
		})
	})

	When("lines carry padding and blank lines", func() {
		BeforeEach(func() {
			input = "  \n  Uber  \r\n\n   \nTotal $ 250 \n"
		})

		It("should trim lines and drop blanks", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Uber\nTotal $ 250"))
		})
	})

	When("nothing was recognised", func() {
		BeforeEach(func() {
			input = "```\n\n```"
		})

		It("should return ErrNoText", func() {
			Expect(err).To(MatchError(ErrNoText))
		})
	})
})
