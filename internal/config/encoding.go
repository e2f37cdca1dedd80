package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// codepageNames maps Windows codepage numbers onto IANA encoding names.
// 65001 (UTF-8) is handled separately since UTF-8 needs no transcoding.
var codepageNames = map[int]string{
	437:   "IBM437",
	850:   "IBM850",
	852:   "IBM852",
	866:   "IBM866",
	874:   "windows-874",
	932:   "Shift_JIS",
	936:   "GBK",
	949:   "EUC-KR",
	950:   "Big5",
	1250:  "windows-1250",
	1251:  "windows-1251",
	1252:  "windows-1252",
	1253:  "windows-1253",
	1254:  "windows-1254",
	1255:  "windows-1255",
	1256:  "windows-1256",
	1257:  "windows-1257",
	1258:  "windows-1258",
	20866: "KOI8-R",
	28591: "ISO-8859-1",
	28592: "ISO-8859-2",
	28595: "ISO-8859-5",
	28597: "ISO-8859-7",
	28599: "ISO-8859-9",
	28605: "ISO-8859-15",
}

// ResolveEncoding resolves the debuggee channel text encoding from the raw
// launch argument: a numeric codepage, a named encoding, or UTF-8 by default.
// A nil Encoding means UTF-8 (no transcoding needed).
func ResolveEncoding(raw json.RawMessage) (encoding.Encoding, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return encodingForCodepage(number)
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return nil, fmt.Errorf("encoding must be a codepage number or an encoding name")
	}

	// Named encodings may still be numeric codepages in string form.
	if number, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		return encodingForCodepage(number)
	}

	return encodingForName(name)
}

func encodingForCodepage(codepage int) (encoding.Encoding, error) {
	if codepage == 65001 {
		return nil, nil
	}
	name, ok := codepageNames[codepage]
	if !ok {
		return nil, fmt.Errorf("unknown codepage %d", codepage)
	}
	return encodingForName(name)
}

func encodingForName(name string) (encoding.Encoding, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "utf-8") || strings.EqualFold(trimmed, "utf8") {
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(trimmed)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	// ianaindex returns a nil Encoding for names it recognizes but does not
	// implement.
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}
