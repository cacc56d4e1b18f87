// Package encoding decodes legacy code-page strings found in asset name tables.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var nameCharmap atomic.Pointer[charmap.Charmap]

func init() {
	nameCharmap.Store(charmap.Windows1252)
}

// SetNameEncoding selects the code page used to decode non-ASCII names,
// e.g. "Windows 1252" or "ISO 8859-1".
func SetNameEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			nameCharmap.Store(cm)
			return nil
		}
	}
	return fmt.Errorf("unknown name encoding %q", name)
}

// NameEncoding returns the name of the active code page.
func NameEncoding() string {
	return nameCharmap.Load().String()
}

// ListEncodings returns all supported code page names.
func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

// DecodeName converts a code-page encoded name to UTF-8.
// Returns the original bytes as a string if conversion fails.
func DecodeName(data []byte) string {
	if isASCII(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(nameCharmap.Load().NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// FixedName decodes a fixed-size, null-padded name field.
func FixedName(data []byte) string {
	if nullIdx := bytes.IndexByte(data, 0); nullIdx >= 0 {
		data = data[:nullIdx]
	}
	return DecodeName(data)
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// NormalizePath normalizes an asset path for case-insensitive lookup:
// backslashes become forward slashes and letters are lower-cased.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
