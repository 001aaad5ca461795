package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"
)

// extractStreamText recovers text straight from the PDF byte stream, without
// the structured library. It exists for files whose fonts defeat the library
// (CIDFont/Type0 with custom encodings): ToUnicode CMaps are parsed first,
// then text operators in each content stream are decoded through them.
//
// The file bytes must be plaintext; for an encrypted document the streams
// are ciphertext and this path recovers nothing.
func extractStreamText(f *os.File) ([]string, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	data, err := io.ReadAll(io.NewSectionReader(f, 0, fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	streams := contentStreams(data)
	if len(streams) == 0 {
		return nil, nil
	}

	var cmap *CMap
	if cmaps := FindCMaps(data); len(cmaps) > 0 {
		cmap = MergeCMaps(cmaps)
	}

	var texts []string
	for _, stream := range streams {
		if text := streamText(inflate(stream), cmap); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return joinStreamTexts(texts), nil
}

// contentStreams finds all stream...endstream blocks in the file.
func contentStreams(data []byte) [][]byte {
	var streams [][]byte
	startMarker := []byte("stream")
	endMarker := []byte("endstream")

	offset := 0
	for offset < len(data) {
		idx := bytes.Index(data[offset:], startMarker)
		if idx < 0 {
			break
		}
		start := offset + idx + len(startMarker)

		// An EOL follows the "stream" keyword.
		if start < len(data) && data[start] == '\r' {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		endIdx := bytes.Index(data[start:], endMarker)
		if endIdx < 0 {
			break
		}
		if endIdx > 0 {
			streams = append(streams, data[start:start+endIdx])
		}
		offset = start + endIdx + len(endMarker)
	}
	return streams
}

// inflate zlib-decompresses a stream, passing it through untouched when it
// is not compressed.
func inflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

// PDF text operator patterns. Literal strings with escaped parens inside
// are not handled; statements in practice never produce them.
var (
	hexShowPattern = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*Tj`)
	litShowPattern = regexp.MustCompile(`\(([^)]*)\)\s*Tj`)
	arrayPattern   = regexp.MustCompile(`\[([^\]]*)\]\s*TJ`)
	hexInArray     = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	litInArray     = regexp.MustCompile(`\(([^)]*)\)`)
	nextLineShow   = regexp.MustCompile(`\(([^)]*)\)\s*'`)
	movePattern    = regexp.MustCompile(`([\d.\-]+)\s+([\d.\-]+)\s+T[dD]`)
)

// streamText decodes the text operators of one content stream.
func streamText(data []byte, cmap *CMap) string {
	content := string(data)
	if !strings.Contains(content, "Tj") && !strings.Contains(content, "TJ") &&
		!strings.Contains(content, "BT") {
		return ""
	}

	var lines []string
	for _, block := range textBlocks(content) {
		lines = append(lines, blockLines(block, cmap)...)
	}

	// No BT...ET structure: decode whatever shows text, order of appearance.
	if len(lines) == 0 {
		if text := flatText(content, cmap); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// textBlocks splits out the BT...ET text objects.
func textBlocks(content string) []string {
	var blocks []string
	rest := content
	for {
		bt := strings.Index(rest, "BT")
		if bt < 0 {
			break
		}
		et := strings.Index(rest[bt:], "ET")
		if et < 0 {
			break
		}
		blocks = append(blocks, rest[bt:bt+et+2])
		rest = rest[bt+et+2:]
	}
	return blocks
}

// blockLines walks one text object and groups shown text into lines. Td, TD
// and T* move the text cursor, which is what a line break looks like at this
// level; the ' operator shows text after moving to the next line.
func blockLines(block string, cmap *CMap) []string {
	var lines []string
	var line strings.Builder

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for _, op := range strings.Split(block, "\n") {
		op = strings.TrimSpace(op)

		if op == "T*" || movePattern.MatchString(op) {
			flush()
		}
		for _, m := range hexShowPattern.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeHexString(m[1], cmap))
		}
		for _, m := range litShowPattern.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeLiteralString(m[1], cmap))
		}
		for _, m := range arrayPattern.FindAllStringSubmatch(op, -1) {
			line.WriteString(decodeShowArray(m[1], cmap))
		}
		for _, m := range nextLineShow.FindAllStringSubmatch(op, -1) {
			flush()
			line.WriteString(decodeLiteralString(m[1], cmap))
		}
	}
	flush()
	return lines
}

// flatText decodes every show operator in the content without block
// structure.
func flatText(content string, cmap *CMap) string {
	var parts []string
	for _, m := range hexShowPattern.FindAllStringSubmatch(content, -1) {
		if text := decodeHexString(m[1], cmap); text != "" {
			parts = append(parts, text)
		}
	}
	for _, m := range litShowPattern.FindAllStringSubmatch(content, -1) {
		if text := decodeLiteralString(m[1], cmap); text != "" {
			parts = append(parts, text)
		}
	}
	for _, m := range arrayPattern.FindAllStringSubmatch(content, -1) {
		if text := decodeShowArray(m[1], cmap); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// decodeHexString decodes a <hex> string, through the CMap when one exists,
// then as UTF-16BE, then as plain bytes.
func decodeHexString(hexStr string, cmap *CMap) string {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return ""
	}

	if cmap != nil && cmap.Len() > 0 {
		if result := cmap.Decode(raw); result != "" {
			return result
		}
	}

	if len(raw)%2 == 0 && len(raw) >= 2 {
		var result strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			cp := rune(raw[i])<<8 | rune(raw[i+1])
			if unicode.IsPrint(cp) || cp == ' ' {
				result.WriteRune(cp)
			}
		}
		if result.Len() > 0 {
			return result.String()
		}
	}

	return cleanText(string(raw))
}

// decodeLiteralString decodes a (literal) string.
func decodeLiteralString(s string, cmap *CMap) string {
	decoded := decodeEscapes(s)
	if cmap != nil && cmap.Len() > 0 {
		if result := cmap.Decode([]byte(decoded)); result != "" && mostlyPrintable(result) {
			return result
		}
	}
	return cleanText(decoded)
}

// decodeShowArray decodes a TJ array, which interleaves strings with kerning
// numbers. The strings decode in order of appearance; the numbers drop.
func decodeShowArray(array string, cmap *CMap) string {
	type piece struct {
		pos int
		hex bool
		arg string
	}
	var pieces []piece
	for _, idx := range hexInArray.FindAllStringSubmatchIndex(array, -1) {
		pieces = append(pieces, piece{pos: idx[0], hex: true, arg: array[idx[2]:idx[3]]})
	}
	for _, idx := range litInArray.FindAllStringSubmatchIndex(array, -1) {
		pieces = append(pieces, piece{pos: idx[0], arg: array[idx[2]:idx[3]]})
	}
	for i := 1; i < len(pieces); i++ {
		for j := i; j > 0 && pieces[j].pos < pieces[j-1].pos; j-- {
			pieces[j], pieces[j-1] = pieces[j-1], pieces[j]
		}
	}

	var out strings.Builder
	for _, p := range pieces {
		if p.hex {
			out.WriteString(decodeHexString(p.arg, cmap))
		} else {
			out.WriteString(decodeLiteralString(p.arg, cmap))
		}
	}
	return out.String()
}

// decodeEscapes handles PDF string escape sequences, including octal.
func decodeEscapes(s string) string {
	var buf strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '(', ')', '\\':
				buf.WriteByte(s[i])
			default:
				if s[i] >= '0' && s[i] <= '7' {
					val := int(s[i] - '0')
					for j := 1; j < 3 && i+j < len(s) && s[i+j] >= '0' && s[i+j] <= '7'; j++ {
						val = val*8 + int(s[i+j]-'0')
						i++
					}
					if val < 256 {
						buf.WriteByte(byte(val))
					}
				} else {
					buf.WriteByte(s[i])
				}
			}
		} else {
			buf.WriteByte(s[i])
		}
		i++
	}
	return buf.String()
}

// cleanText strips non-printable characters.
func cleanText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s))
}

// mostlyPrintable reports whether over half of a string is printable.
func mostlyPrintable(s string) bool {
	if len(s) == 0 {
		return false
	}
	printable := 0
	for _, r := range s {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			printable++
		}
	}
	return float64(printable)/float64(len([]rune(s))) > 0.5
}

// joinStreamTexts folds per-stream text into one page. Stream boundaries do
// not map to page boundaries reliably at this level, so everything lands in
// a single page and the line classifier sorts it out.
func joinStreamTexts(texts []string) []string {
	var all strings.Builder
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if all.Len() > 0 {
			all.WriteString("\n")
		}
		all.WriteString(t)
	}
	if all.Len() == 0 {
		return nil
	}
	return []string{all.String()}
}
