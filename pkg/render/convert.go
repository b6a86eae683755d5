package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// RSVGCommand is the librsvg converter used for PDF export and for
// rasterizing Graphviz output.
var RSVGCommand = "rsvg-convert"

// HasRSVG reports whether the converter is on PATH.
func HasRSVG() bool {
	_, err := exec.LookPath(RSVGCommand)
	return err == nil
}

// Convert pipes svg through the converter. A missing converter is
// UNSUPPORTED; a failing one is INTERNAL and carries its stderr.
func Convert(ctx context.Context, svg []byte, format string, scale float64) ([]byte, error) {
	if !HasRSVG() {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}
	if scale <= 0 {
		scale = 1
	}

	cmd := exec.CommandContext(ctx, RSVGCommand, "-f", format, "-z", fmt.Sprintf("%.2f", scale))
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s conversion cancelled", format)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", RSVGCommand, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
