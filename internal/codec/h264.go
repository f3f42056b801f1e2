package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	h264NALIDR = 5
	h264NALSPS = 7
	h264NALPPS = 8

	hevcNALVPS = 32
	hevcNALSPS = 33
	hevcNALPPS = 34
)

var startCode = []byte{0, 0, 0, 1}

// SplitAnnexB returns the NAL units of a start-code delimited buffer. Leading
// bytes before the first start code are ignored.
func SplitAnnexB(b []byte) [][]byte {
	var (
		nals  [][]byte
		start = -1
	)
	for i := 0; i+2 < len(b); {
		if b[i] == 0 && b[i+1] == 0 && b[i+2] == 1 {
			if start >= 0 {
				nals = appendNAL(nals, b[start:i])
			}
			i += 3
			start = i
			continue
		}
		i++
	}
	if start >= 0 {
		nals = appendNAL(nals, b[start:])
	}
	return nals
}

// appendNAL drops the zero byte a four byte start code leaves behind.
func appendNAL(nals [][]byte, nal []byte) [][]byte {
	for len(nal) > 0 && nal[len(nal)-1] == 0 {
		nal = nal[:len(nal)-1]
	}
	if len(nal) == 0 {
		return nals
	}
	return append(nals, nal)
}

// IsAVCC reports whether extradata is an AVCDecoderConfigurationRecord
// (or, for HEVC, an HEVCDecoderConfigurationRecord) rather than Annex B.
func IsAVCC(extradata []byte) bool {
	return len(extradata) > 0 && extradata[0] == 1
}

// AVCCToAnnexB converts an avcC record into start-code delimited SPS and PPS
// units. Annex B input is returned unchanged.
func AVCCToAnnexB(extradata []byte) ([]byte, error) {
	if !IsAVCC(extradata) {
		return extradata, nil
	}
	if len(extradata) < 7 {
		return nil, fmt.Errorf("%w: avcC too short", ErrInvalidExtradata)
	}
	var out []byte
	pos := 5
	// SPS count lives in the low 5 bits, PPS count is a full byte.
	for _, mask := range []byte{0x1f, 0xff} {
		if pos >= len(extradata) {
			return nil, fmt.Errorf("%w: avcC truncated", ErrInvalidExtradata)
		}
		count := int(extradata[pos] & mask)
		pos++
		for i := 0; i < count; i++ {
			if pos+2 > len(extradata) {
				return nil, fmt.Errorf("%w: avcC truncated", ErrInvalidExtradata)
			}
			n := int(binary.BigEndian.Uint16(extradata[pos:]))
			pos += 2
			if pos+n > len(extradata) {
				return nil, fmt.Errorf("%w: avcC parameter set overflows record", ErrInvalidExtradata)
			}
			out = append(out, startCode...)
			out = append(out, extradata[pos:pos+n]...)
			pos += n
		}
	}
	return out, nil
}

// firstNAL returns the header of the first NAL unit of an Annex B access unit.
func firstNAL(data []byte) ([]byte, bool) {
	switch {
	case len(data) > 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1:
		return data[4:], true
	case len(data) > 3 && data[0] == 0 && data[1] == 0 && data[2] == 1:
		return data[3:], true
	}
	return nil, false
}

func h264IsKeyframe(data []byte) bool {
	for _, nal := range SplitAnnexB(data) {
		switch nal[0] & 0x1f {
		case h264NALIDR, h264NALSPS:
			return true
		}
	}
	return false
}
