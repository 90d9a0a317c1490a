package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeScanner struct {
	text   string
	err    error
	calls  int
	closed bool
}

func (f *fakeScanner) ScanText(context.Context, []byte, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeScanner) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("PlainText", func() {
	It("should pass recognised text through", func() {
		text, err := PlainText{}.ScanText(context.Background(), []byte("\n 全家 \n\n合計 85\n"), "text/plain; charset=utf-8")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("全家\n合計 85"))
	})

	It("should reject other content types", func() {
		_, err := PlainText{}.ScanText(context.Background(), []byte("x"), "image/png")
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})

	It("should reject invalid UTF-8", func() {
		_, err := PlainText{}.ScanText(context.Background(), []byte{0xff, 0xfe}, "text/plain")
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})
})

var _ = Describe("Router", func() {
	var (
		images *fakeScanner
		router *Router
	)

	BeforeEach(func() {
		images = &fakeScanner{text: "from image"}
		router = NewRouter(images)
	})

	It("should send text uploads to PlainText", func() {
		text, err := router.ScanText(context.Background(), []byte("Uber"), "text/plain")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Uber"))
		Expect(images.calls).To(BeZero())
	})

	It("should send images to the engine", func() {
		text, err := router.ScanText(context.Background(), testPNG(), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("from image"))
	})

	It("should pass engine errors through", func() {
		images.err = errors.New("boom")
		_, err := router.ScanText(context.Background(), testPNG(), "image/png")
		Expect(err).To(MatchError("boom"))
	})

	It("should reject images without an engine", func() {
		router = NewRouter(nil)
		_, err := router.ScanText(context.Background(), testPNG(), "image/png")
		Expect(err).To(MatchError(ErrUnsupportedFormat))
	})

	It("should close the engine", func() {
		Expect(router.Close()).To(Succeed())
		Expect(images.closed).To(BeTrue())
	})
})
