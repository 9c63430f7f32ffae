package record

import "unicode/utf16"

// decodeUTF16LE decodes buf (an even number of little-endian UTF-16 code
// units, normally including a trailing NUL pair) into a string, stopping at
// the first NUL code unit if one is present.
func decodeUTF16LE(buf []byte) string {
	units := make([]uint16, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		u := uint16(buf[i]) | uint16(buf[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// decodeASCIIFixed decodes a fixed-width ASCII field whose string terminator
// is the first zero byte, or the full field width if no zero byte appears.
func decodeASCIIFixed(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
