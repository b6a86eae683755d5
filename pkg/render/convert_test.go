package render

import (
	"context"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

func TestConvertWithoutConverter(t *testing.T) {
	old := RSVGCommand
	RSVGCommand = "flowgraph-no-such-converter"
	t.Cleanup(func() { RSVGCommand = old })

	if HasRSVG() {
		t.Fatal("HasRSVG() = true for a missing command")
	}
	for _, format := range []string{"pdf", "png"} {
		_, err := Convert(context.Background(), []byte("<svg/>"), format, 2)
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("Convert(%s) error = %v, want UNSUPPORTED", format, err)
		}
	}
}

func TestConvertPDF(t *testing.T) {
	if !HasRSVG() {
		t.Skip("rsvg-convert not installed")
	}
	pdf, err := Convert(context.Background(), []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`), "pdf", 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Errorf("output does not start with %%PDF: %q", pdf[:min(len(pdf), 8)])
	}
}
