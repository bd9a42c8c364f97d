package dom

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// DecodeHTML converts raw markup bytes to a UTF-8 string. The encoding is
// taken from the BOM, the content type or a <meta charset> declaration, in
// that order, falling back to the HTML5 default when none is present.
func DecodeHTML(b []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(b, contentType)
	// DetermineEncoding only sniffs the first 1024 bytes.
	if name == "utf-8" || (!certain && utf8.Valid(b)) {
		return string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))), nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("dom: decode %s: %w", name, err)
	}
	return string(out), nil
}
