package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperifyio/webreader/internal/dom"
)

func BenchmarkExtractPage(b *testing.B) {
	for _, size := range []struct {
		name  string
		paras int
		items int
	}{{"small", 1, 1}, {"medium", 50, 60}, {"large", 200, 200}} {
		doc, err := dom.ParseBytes(makeHTML(size.paras, size.items))
		if err != nil {
			b.Fatal(err)
		}
		e := New()
		b.Run(size.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = e.ExtractPage(Page{URL: "https://example.com/", Doc: doc})
			}
		})
	}
}

func BenchmarkExtractThread(b *testing.B) {
	doc, err := dom.ParseBytes([]byte(threadFixture))
	if err != nil {
		b.Fatal(err)
	}
	e := New()
	page := Page{URL: "https://x.com/alice/status/1234567890", Doc: doc}
	for i := 0; i < b.N; i++ {
		_, _ = e.ExtractThread(context.Background(), page)
	}
}

func makeHTML(paras int, itemsPerList int) []byte {
	builder := new(strings.Builder)
	builder.WriteString("<html><head><title>demo</title></head><body><main>")
	for i := 0; i < paras; i++ {
		builder.WriteString("<h2>Heading</h2><p>")
		builder.WriteString(sampleText)
		builder.WriteString("</p>")
	}
	builder.WriteString("<ul>")
	for i := 0; i < itemsPerList; i++ {
		builder.WriteString("<li>")
		builder.WriteString(sampleText)
		builder.WriteString("</li>")
	}
	builder.WriteString("</ul></main></body></html>")
	return []byte(builder.String())
}

const sampleText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua."
