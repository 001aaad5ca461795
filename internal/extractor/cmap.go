package extractor

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf16"
)

// CMap maps font character codes to Unicode text. Statement PDFs with
// CIDFont/Type0 fonts carry ToUnicode CMap streams; without them the shown
// bytes are just glyph indexes.
type CMap struct {
	// hex-encoded character code to Unicode string
	charMap map[string]string
}

func NewCMap() *CMap {
	return &CMap{charMap: make(map[string]string)}
}

// Len returns how many codes the map covers.
func (cm *CMap) Len() int {
	return len(cm.charMap)
}

var (
	bfCharBlock  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeBlock = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
	hexToken     = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// ParseCMap reads the bfchar and bfrange sections of a ToUnicode stream.
func ParseCMap(content string) *CMap {
	cm := NewCMap()

	// bfchar entries: <srcCode> <unicodeValue>
	for _, block := range bfCharBlock.FindAllStringSubmatch(content, -1) {
		tokens := hexToken.FindAllStringSubmatch(block[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			src := strings.ToUpper(tokens[i][1])
			if uni := hexToUnicode(tokens[i+1][1]); uni != "" {
				cm.charMap[src] = uni
			}
		}
	}

	// bfrange entries: <start> <end> <dstStart>, or <start> <end> [<u> ...]
	for _, block := range bfRangeBlock.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(block[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, "[") {
				cm.parseRangeArray(line)
				continue
			}

			tokens := hexToken.FindAllStringSubmatch(line, -1)
			if len(tokens) < 3 {
				continue
			}
			startHex, endHex, dstHex := tokens[0][1], tokens[1][1], tokens[2][1]
			start, end, dst := hexToInt(startHex), hexToInt(endHex), hexToInt(dstHex)
			if start < 0 || end < 0 || dst < 0 {
				continue
			}

			for code := start; code <= end; code++ {
				src := intToHex(code, len(startHex))
				if uni := hexToUnicode(intToHex(dst+(code-start), len(dstHex))); uni != "" {
					cm.charMap[src] = uni
				}
			}
		}
	}
	return cm
}

// parseRangeArray handles <start> <end> [<u1> <u2> ...]: consecutive codes
// map to the array entries one by one.
func (cm *CMap) parseRangeArray(line string) {
	bracket := strings.Index(line, "[")
	if bracket < 0 {
		return
	}

	tokens := hexToken.FindAllStringSubmatch(line[:bracket], -1)
	if len(tokens) < 2 {
		return
	}
	start := hexToInt(tokens[0][1])
	hexLen := len(tokens[0][1])

	for i, ut := range hexToken.FindAllStringSubmatch(line[bracket:], -1) {
		if uni := hexToUnicode(ut[1]); uni != "" {
			cm.charMap[intToHex(start+i, hexLen)] = uni
		}
	}
}

// Decode translates raw shown bytes through the map. The code width comes
// from the map's own keys; on a miss it falls back to a single-byte lookup
// and rewinds, which copes with streams that mix widths.
func (cm *CMap) Decode(raw []byte) string {
	if len(cm.charMap) == 0 {
		return ""
	}

	codeByteLen := 1
	for k := range cm.charMap {
		codeByteLen = len(k) / 2
		break
	}
	if codeByteLen < 1 {
		codeByteLen = 1
	}

	var result strings.Builder
	for i := 0; i <= len(raw)-codeByteLen; i += codeByteLen {
		chunk := raw[i : i+codeByteLen]
		key := strings.ToUpper(hex.EncodeToString(chunk))
		if uni, ok := cm.charMap[key]; ok {
			result.WriteString(uni)
			continue
		}
		if codeByteLen > 1 {
			short := strings.ToUpper(hex.EncodeToString(chunk[:1]))
			if uni, ok := cm.charMap[short]; ok {
				result.WriteString(uni)
				i -= codeByteLen - 1
				continue
			}
		}
		if codeByteLen == 1 && chunk[0] >= 32 && chunk[0] < 127 {
			result.WriteByte(chunk[0])
		}
	}
	return result.String()
}

func hexToInt(h string) int {
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

// intToHex renders val as zero-padded uppercase hex of the given width.
func intToHex(val, hexLen int) string {
	h := strings.ToUpper(hex.EncodeToString([]byte{
		byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val),
	}))
	if len(h) > hexLen {
		h = h[len(h)-hexLen:]
	}
	for len(h) < hexLen {
		h = "0" + h
	}
	return h
}

// hexToUnicode reads a hex-encoded UTF-16BE value, surrogate pairs included.
func hexToUnicode(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}

	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
	}
	if len(units) == 0 {
		return ""
	}
	return string(utf16.Decode(units))
}

// FindCMaps searches the raw PDF bytes for every ToUnicode CMap stream.
func FindCMaps(data []byte) []*CMap {
	var cmaps []*CMap
	for _, stream := range contentStreams(data) {
		content := string(inflate(stream))
		if !strings.Contains(content, "beginbfchar") && !strings.Contains(content, "beginbfrange") {
			continue
		}
		if cm := ParseCMap(content); cm.Len() > 0 {
			cmaps = append(cmaps, cm)
		}
	}
	return cmaps
}

// MergeCMaps folds several CMaps into one. Later maps win on key clashes,
// which matches how viewers resolve duplicate ToUnicode entries.
func MergeCMaps(cmaps []*CMap) *CMap {
	merged := NewCMap()
	for _, cm := range cmaps {
		for k, v := range cm.charMap {
			merged.charMap[k] = v
		}
	}
	return merged
}
