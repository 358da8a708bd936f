package parser

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rainco77/evochora/compiler/diagnostics"
	"github.com/rainco77/evochora/compiler/lexer"
)

var _ = Describe("Parser", func() {
	var (
		mockCtrl *gomock.Controller
		sink     *MockSink
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sink = NewMockSink(mockCtrl)
	})

	ginkgoTokenize := func(src string) []lexer.Token {
		toks, err := lexer.New("test.asm", src).Tokenize()
		Expect(err).NotTo(HaveOccurred())
		return toks
	}

	Context("legacy WITH syntax", func() {
		It("reports exactly one parse-phase error and does not abort the whole pass", func() {
			sink.EXPECT().
				Report(diagnostics.LevelError, gomock.Any(), diagnostics.KindParse, gomock.Any()).
				Times(1)

			toks := ginkgoTokenize("CALL ADD WITH %DR0\nNOP\n")
			p := New(toks, sink)
			prog, err := p.Parse()

			Expect(err).NotTo(HaveOccurred())
			// synchronize() skips to the next newline and keeps parsing, so
			// the NOP on the following line still becomes a statement.
			Expect(prog.Statements).To(HaveLen(1))
		})
	})

	Context("modern REF/VAL call form", func() {
		It("parses without reporting any diagnostic", func() {
			toks := ginkgoTokenize("CALL ADD REF %DR0 VAL %DR1\n")
			p := New(toks, sink)
			_, err := p.Parse()
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
