// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph_test

import (
	"fmt"
	"log"

	"github.com/GermanBionicSystems/epaper/glyph"
	"github.com/GermanBionicSystems/epaper/ssd1680/pagebuf"
)

func Example() {
	buf := pagebuf.New()
	r, err := glyph.New(buf, nil)
	if err != nil {
		log.Fatal(err)
	}

	r.ShowString(0, 0, "Temp", glyph.Size8x16)
	r.ShowFloatNum(40, 0, 3.996, 1, 2, glyph.Size8x16)
	r.ShowHexNum(0, 24, 0xAB, 2, glyph.Size6x8)

	// Characters missing from the table render as a boxed question mark,
	// whose left edge is a solid column.
	r.ShowChinese(0, 32, "中")

	fmt.Println(bool(buf.BitAt(0, 40)), bool(buf.BitAt(1, 44)))
	// Output: true false
}
