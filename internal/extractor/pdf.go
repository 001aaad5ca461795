package extractor

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ErrBadPassword means the document is password protected and none of the
// candidate passwords opened it.
var ErrBadPassword = errors.New("no candidate password opened the document")

// Document is an opened statement PDF.
type Document struct {
	f *os.File
	r *pdf.Reader
	// Password is the candidate that unlocked the file, empty when the
	// file opened without one.
	Password string
	// Candidate is the 1-based position of Password in the candidate list,
	// 0 when no candidate was needed.
	Candidate int
	// Encrypted reports whether the file carries encryption at all.
	Encrypted bool
}

// Open opens a PDF, trying the candidate passwords in order when the file is
// protected. The empty password is always tried first, which satisfies
// statements that are encrypted but carry no user password. Candidates are
// only consumed, never logged.
func Open(path string, passwords []string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	next := 0
	used := ""
	r, err := pdf.NewReaderEncrypted(f, fi.Size(), func() string {
		if next >= len(passwords) {
			return ""
		}
		used = passwords[next]
		next++
		return used
	})
	if err != nil {
		f.Close()
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("%w (tried %d candidates)", ErrBadPassword, len(passwords))
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	d := &Document{f: f, r: r, Encrypted: !r.Trailer().Key("Encrypt").IsNull()}
	if d.Encrypted && next > 0 {
		d.Password = used
		d.Candidate = next
	}
	return d, nil
}

func (d *Document) Close() error {
	return d.f.Close()
}

// Pages returns the page count.
func (d *Document) Pages() int {
	return d.r.NumPage()
}

// Status is what a probe learned about a file without extracting it.
type Status struct {
	Encrypted bool
	Unlocked  bool
	// Candidate is the 1-based position of the winning password, 0 when
	// none was needed.
	Candidate int
	Pages     int
}

// Probe opens the file with the candidates and reports whether it is
// protected and whether the candidates suffice to unlock it.
func Probe(path string, passwords []string) (Status, error) {
	doc, err := Open(path, passwords)
	if errors.Is(err, ErrBadPassword) {
		return Status{Encrypted: true}, nil
	}
	if err != nil {
		return Status{}, err
	}
	defer doc.Close()
	return Status{
		Encrypted: doc.Encrypted,
		Unlocked:  true,
		Candidate: doc.Candidate,
		Pages:     doc.Pages(),
	}, nil
}

// ExtractText opens a PDF with the candidate passwords and recovers its
// per-page text.
func ExtractText(path string, passwords []string) ([]string, error) {
	doc, err := Open(path, passwords)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.Text()
}

// Text recovers the text of each page. The structured library methods run
// first; if they crash or return garbage, raw content-stream extraction gets
// a try, so one badly encoded font does not take the whole document down.
func (d *Document) Text() ([]string, error) {
	pages, libErr := d.libraryText()
	if libErr == nil && isReadableText(pages) {
		return pages, nil
	}

	// Raw content streams are only worth reading when the file bytes are
	// not encrypted; in a protected file the streams are ciphertext.
	if !d.Encrypted {
		rawPages, rawErr := extractStreamText(d.f)
		if rawErr == nil && isReadableText(rawPages) {
			return rawPages, nil
		}
	}

	// Never return garbage text.
	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %v", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted: the file may be image-based or use font encodings that cannot be decoded")
}

// libraryText tries the structured extraction methods from the most
// layout-preserving to the most permissive and keeps the first result that
// reads as statement text.
func (d *Document) libraryText() (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	numPages := d.r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	// Method 1: GetTextByRow (best layout preservation)
	pages = extractByRow(d.r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 2: Page.Content() with coordinate-based row reconstruction
	pages = extractByContent(d.r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 3: Page.GetPlainText with font map
	pages = extractByPagePlainText(d.r, numPages)
	if isReadableText(pages) {
		return pages, nil
	}

	// Method 4: Reader.GetPlainText (different extraction path)
	plainText := extractByReaderPlainText(d.r)
	return []string{plainText}, nil
}

// CombinedText is Text joined into one string with blank lines between
// pages.
func (d *Document) CombinedText() (string, error) {
	pages, err := d.Text()
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

// Method 1: GetTextByRow — best for well-structured PDFs
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// Method 2: Page.Content() — lower-level access to text objects.
// Groups text pieces by Y coordinate to reconstruct rows, then sorts by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			// Round Y to the nearest integer to group items into rows.
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y runs bottom-to-top, so rows sort descending.
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					// Large gap between items marks a column boundary.
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// Method 3: Page.GetPlainText with fonts
func extractByPagePlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font)
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// Method 4: Reader.GetPlainText — whole-document extraction
func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// textQuality returns the ratio of plain ASCII statement characters to total
// characters. A strict ASCII check beats unicode.IsLetter here: garbage from
// identity-encoded fonts is full of accented letters.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r) ||
				r == '£' || r == '€' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// statementWords appear in virtually every e-wallet or bank statement. Text
// containing none of them is almost certainly garbage.
var statementWords = []string{
	"wallet", "balance", "date", "payment", "statement", "transaction",
	"amount", "status", "reload", "transfer", "duitnow", "total",
	"description", "bank", "account", "period", "reference", "time",
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText checks that pages hold enough text, that it is actually
// readable rather than binary garbage, and that it mentions at least one
// word a statement would.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsStatementWords(pages)
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
