package mumble

import (
	"fmt"
	"unicode/utf16"
)

// UntilNul returns the prefix of s before the first zero code unit, or s itself when it
// holds no zero.
func UntilNul(s []uint16) []uint16 {
	for i, u := range s {
		if u == 0 {
			return s[:i]
		}
	}
	return s
}

// WideString converts UTF-16 code units to a string. Unpaired surrogates become U+FFFD.
func WideString(s []uint16) string {
	return string(utf16.Decode(s))
}

// strictWideString converts UTF-16 code units to a string, failing on unpaired surrogates.
func strictWideString(s []uint16) (string, error) {
	for i := 0; i < len(s); i++ {
		u := rune(s[i])
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u < 0xdc00 && i+1 < len(s) && utf16.DecodeRune(u, rune(s[i+1])) != 0xfffd {
			i++
			continue
		}
		return "", fmt.Errorf("%w at unit %d", ErrInvalidUTF16, i)
	}
	return string(utf16.Decode(s)), nil
}
