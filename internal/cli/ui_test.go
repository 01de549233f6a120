package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/stegaplots/pkg/metadata"
	"github.com/matzehuels/stegaplots/pkg/payload"
)

func TestFormatMetadata(t *testing.T) {
	m := &metadata.Metadata{
		Params: payload.Params{"seed": 4, "label": "run"},
		Code: payload.Code{
			"util.py": "def f(): pass",
			"plot.py": "plt.plot(x, y)\n",
		},
	}

	got := formatMetadata(m, false)
	for _, want := range []string{"code:", "  plot.py", "  util.py", "params:", `{"label":"run","seed":4}`} {
		if !strings.Contains(got, want) {
			t.Errorf("formatMetadata missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "plt.plot") {
		t.Error("source printed without source flag")
	}
	if strings.Index(got, "plot.py") > strings.Index(got, "util.py") {
		t.Error("code names not sorted")
	}

	got = formatMetadata(m, true)
	if !strings.Contains(got, ">>> plot.py <<<\nplt.plot(x, y)\n") {
		t.Errorf("source block missing:\n%s", got)
	}
	if !strings.Contains(got, ">>> util.py <<<\ndef f(): pass\n") {
		t.Errorf("source without trailing newline should get one:\n%s", got)
	}
}

func TestFormatMetadataEmpty(t *testing.T) {
	got := formatMetadata(&metadata.Metadata{Params: payload.Params{}, Code: payload.Code{}}, false)
	if !strings.Contains(got, "{}") {
		t.Errorf("empty params should print {}:\n%s", got)
	}
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	printSuccess(&buf, "saved %d", 3)
	printKeyValue(&buf, "psnr", "51.20 dB")
	printFile(&buf, "out.png")
	printNextStep(&buf, "Read it back", "stegaplots extract out.png")

	out := buf.String()
	for _, want := range []string{iconSuccess + " saved 3", "psnr", "51.20 dB", iconArrow + " out.png", "Read it back: stegaplots extract out.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatShape([]int{30, 40, 3}); got != "30×40×3" {
		t.Errorf("formatShape = %q", got)
	}
	if got := defaultOutput("figs/run.png"); got != "figs/run.stego.png" {
		t.Errorf("defaultOutput = %q", got)
	}
	if got := formatPSNR(51.234); got != "51.23 dB" {
		t.Errorf("formatPSNR = %q", got)
	}
}
