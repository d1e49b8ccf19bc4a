// Package encdetect guesses the character encoding of raw source files
// and decodes them with lossy substitution so a bad byte sequence never
// aborts an import.
package encdetect

import (
	"io"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding is assumed when detection has nothing to go on.
const DefaultEncoding = "UTF-8"

// Detect returns the best-guess encoding name for the given bytes and a
// confidence in [0,1]. It never fails: unrecognizable input yields the
// default encoding at confidence 0. Confidence is advisory only.
func Detect(data []byte) (string, float64) {
	if len(data) == 0 {
		return DefaultEncoding, 0
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil || result.Charset == "" {
		return DefaultEncoding, 0
	}
	return result.Charset, float64(result.Confidence) / 100
}

// DecodeLossy decodes raw bytes using the named encoding. Undecodable
// sequences become U+FFFD instead of errors; an unknown encoding name
// falls back to UTF-8.
func DecodeLossy(data []byte, name string) string {
	decoded, _, err := transform.Bytes(decoderFor(name), data)
	if err != nil {
		// substitution decoders do not error in practice; keep what decoded
		return string(decoded)
	}
	return string(decoded)
}

// NewLossyReader wraps r so reads yield UTF-8 text decoded from the
// named encoding with the same substitution policy as DecodeLossy.
func NewLossyReader(r io.Reader, name string) io.Reader {
	return transform.NewReader(r, decoderFor(name))
}

func decoderFor(name string) transform.Transformer {
	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		enc = unicode.UTF8
	}
	// html decoders substitute malformed input with U+FFFD rather than
	// returning errors
	return enc.NewDecoder()
}
