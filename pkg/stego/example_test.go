package stego_test

import (
	"fmt"
	"image"

	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/stego"
)

func Example() {
	src := image.NewGray(image.Rect(0, 0, 64, 64))

	img, err := stego.Insert(src,
		payload.Params{"seed": 4, "n": 500},
		payload.Code{"plot.py": "plt.plot(x, y)"},
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	params, code, err := stego.Extract(img, false)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(params)
	fmt.Println(code)
	// Output:
	// {"n":500,"seed":4}
	// {"plot.py":"plt.plot(x, y)"}
}

func ExampleHeader_Text() {
	h := stego.Header{Version: stego.Version, ParamsBits: 144, CodeBits: 256}
	fmt.Printf("%q\n", h.Text()[:30])
	fmt.Println(len(h.Text()))
	// Output:
	// "stegaplots-0.0.1-144-256      "
	// 64
}
