package audio

import "encoding/binary"

// Level returns the chunk's peak amplitude on a 0-100 scale: the larger of
// |min sample| and |max sample|, divided by the fixed full-scale reference.
// Loud input saturates at 100.
func Level(pcm []byte) int {
	if len(pcm) < 2 {
		return 0
	}
	lo, hi := 0, 0
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	peak := max(-lo, hi)
	return min(int(float64(peak)/levelFullScale*100), 100)
}
