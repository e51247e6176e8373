package kotlinmeta

import (
	"fmt"
	"strings"
)

// utf8Marker prefixes d1 when the bytes are stored one per character.
const utf8Marker = '\x00'

// sevenBitMarker may prefix d1 in the 7-bit layout. It carries no data.
const sevenBitMarker = '\uFFFF'

// DecodeBytes turns the d1 string array back into the serialized messages.
//
// Two layouts exist. When the first string starts with utf8Marker, every
// following character holds one byte. Otherwise the characters are 7-bit
// groups of a little-endian bit stream, each stored plus one so that no
// character is zero, optionally preceded by sevenBitMarker.
func DecodeBytes(data []string) ([]byte, error) {
	if len(data) > 0 && len(data[0]) > 0 && data[0][0] == utf8Marker {
		out := make([]byte, 0, len(data[0]))
		for i, s := range data {
			if i == 0 {
				s = s[1:]
			}
			for _, r := range s {
				if r > 0xFF {
					return nil, fmt.Errorf("%w: character U+%04X in byte string", ErrMalformed, r)
				}
				out = append(out, byte(r))
			}
		}
		return out, nil
	}

	var groups []byte
	for i, s := range data {
		if i == 0 {
			s = strings.TrimPrefix(s, string(sevenBitMarker))
		}
		for _, r := range s {
			if r > 0x7F {
				return nil, fmt.Errorf("%w: character U+%04X in 7-bit string", ErrMalformed, r)
			}
			groups = append(groups, byte(r+0x7F)&0x7F)
		}
	}
	return decode7to8(groups), nil
}

func decode7to8(data []byte) []byte {
	n := 7 * len(data) / 8
	out := make([]byte, n)
	idx, bit := 0, 0
	for i := 0; i < n; i++ {
		first := int(data[idx]) >> bit
		idx++
		second := (int(data[idx]) & (1<<(bit+1) - 1)) << (7 - bit)
		out[i] = byte(first + second)
		if bit == 6 {
			idx++
			bit = 0
		} else {
			bit++
		}
	}
	return out
}

// EncodeBytes produces the byte-per-character layout that current
// compilers write.
func EncodeBytes(data []byte) []string {
	var b strings.Builder
	b.WriteRune(utf8Marker)
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return []string{b.String()}
}

// Encode7Bit produces the legacy 7-bit layout.
func Encode7Bit(data []byte) []string {
	groups := (len(data)*8 + 6) / 7
	out := make([]rune, groups)
	for g := 0; g < groups; g++ {
		var v int
		for k := 0; k < 7; k++ {
			pos := g*7 + k
			if pos/8 < len(data) && data[pos/8]>>(pos%8)&1 != 0 {
				v |= 1 << k
			}
		}
		out[g] = rune((v + 1) & 0x7F)
	}
	return []string{string(out)}
}
