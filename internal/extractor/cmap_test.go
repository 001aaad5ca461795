package extractor

import (
	"bytes"
	"compress/zlib"
	"testing"
)

const sampleCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
2 beginbfchar
<0041> <0048>
<0042> <0065>
endbfchar
1 beginbfrange
<0050> <0052> <006C>
endbfrange
endcmap`

func TestParseCMap(t *testing.T) {
	cm := ParseCMap(sampleCMap)

	if cm.Len() != 5 {
		t.Fatalf("Len: got %d, want 5", cm.Len())
	}

	// bfchar entries
	if got := cm.Decode([]byte{0x00, 0x41, 0x00, 0x42}); got != "He" {
		t.Errorf("Decode bfchar: got %q, want He", got)
	}
	// bfrange maps consecutive codes to consecutive code points
	if got := cm.Decode([]byte{0x00, 0x50, 0x00, 0x51, 0x00, 0x52}); got != "lmn" {
		t.Errorf("Decode bfrange: got %q, want lmn", got)
	}
}

func TestParseCMap_RangeArray(t *testing.T) {
	cm := ParseCMap(`1 beginbfrange
<0060> <0062> [<0057> <006F> <0072>]
endbfrange`)

	if got := cm.Decode([]byte{0x00, 0x60, 0x00, 0x61, 0x00, 0x62}); got != "Wor" {
		t.Errorf("Decode: got %q, want Wor", got)
	}
}

func TestCMapDecode_UnknownCode(t *testing.T) {
	cm := ParseCMap(sampleCMap)

	// 0x0999 is unmapped, 0x0041 is; the unmapped code drops out.
	if got := cm.Decode([]byte{0x09, 0x99, 0x00, 0x41}); got != "H" {
		t.Errorf("Decode: got %q, want H", got)
	}
}

func TestHexToUnicode_SurrogatePair(t *testing.T) {
	if got := hexToUnicode("D83DDE00"); got != "\U0001F600" {
		t.Errorf("hexToUnicode: got %q, want the single supplementary rune", got)
	}
	if got := hexToUnicode("0041"); got != "A" {
		t.Errorf("hexToUnicode: got %q, want A", got)
	}
}

func TestFindCMaps(t *testing.T) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write([]byte(sampleCMap)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	var pdfBytes bytes.Buffer
	pdfBytes.WriteString("10 0 obj << /Length 99 >> stream\n")
	pdfBytes.Write(compressed.Bytes())
	pdfBytes.WriteString("endstream endobj")

	cmaps := FindCMaps(pdfBytes.Bytes())
	if len(cmaps) != 1 {
		t.Fatalf("cmaps: got %d, want 1", len(cmaps))
	}
	if cmaps[0].Len() != 5 {
		t.Errorf("Len: got %d, want 5", cmaps[0].Len())
	}
}

func TestMergeCMaps(t *testing.T) {
	a := ParseCMap(`1 beginbfchar
<01> <0041>
endbfchar`)
	b := ParseCMap(`2 beginbfchar
<01> <0042>
<02> <0043>
endbfchar`)

	merged := MergeCMaps([]*CMap{a, b})
	if merged.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", merged.Len())
	}
	// Later maps win on clashes.
	if got := merged.Decode([]byte{0x01, 0x02}); got != "BC" {
		t.Errorf("Decode: got %q, want BC", got)
	}
}
