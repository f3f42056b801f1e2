package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/dkeye/JanusRelay/internal/domain"
)

const xiphIdent = 0xfecdba

// splitXiphHeaders returns the identification, comment and setup headers,
// stored either as three 16 bit length-prefixed blocks or with Xiph lacing.
func splitXiphHeaders(extradata []byte, firstHeaderSize int) ([3][]byte, error) {
	var headers [3][]byte
	switch {
	case len(extradata) >= 6 && int(binary.BigEndian.Uint16(extradata)) == firstHeaderSize:
		pos := 0
		for i := range headers {
			if pos+2 > len(extradata) {
				return headers, fmt.Errorf("%w: xiph header truncated", ErrInvalidExtradata)
			}
			n := int(binary.BigEndian.Uint16(extradata[pos:]))
			pos += 2
			if pos+n > len(extradata) {
				return headers, fmt.Errorf("%w: xiph header overflows extradata", ErrInvalidExtradata)
			}
			headers[i] = extradata[pos : pos+n]
			pos += n
		}
	case len(extradata) >= 3 && extradata[0] == 2:
		var lens [2]int
		pos := 1
		for i := range lens {
			for pos < len(extradata) && extradata[pos] == 0xff {
				lens[i] += 0xff
				pos++
			}
			if pos >= len(extradata) {
				return headers, fmt.Errorf("%w: xiph lacing truncated", ErrInvalidExtradata)
			}
			lens[i] += int(extradata[pos])
			pos++
		}
		if pos+lens[0]+lens[1] > len(extradata) {
			return headers, fmt.Errorf("%w: xiph headers overflow extradata", ErrInvalidExtradata)
		}
		headers[0] = extradata[pos : pos+lens[0]]
		headers[1] = extradata[pos+lens[0] : pos+lens[0]+lens[1]]
		headers[2] = extradata[pos+lens[0]+lens[1]:]
	default:
		return headers, fmt.Errorf("%w: unknown xiph header layout", ErrInvalidExtradata)
	}
	return headers, nil
}

// xiphConfig packs the identification and setup headers into the base64
// configuration of RFC 5215. The comment header is left out.
func xiphConfig(id domain.CodecID, extradata []byte) (string, error) {
	first := 30
	if id == domain.CodecTheora {
		first = 42
	}
	headers, err := splitXiphHeaders(extradata, first)
	if err != nil {
		return "", err
	}
	if len(headers[0]) > 0xff {
		return "", fmt.Errorf("%w: xiph identification header too long", ErrInvalidExtradata)
	}
	headersLen := len(headers[0]) + len(headers[2])
	cfg := make([]byte, 12, 12+headersLen)
	cfg[3] = 1
	cfg[4] = byte(xiphIdent >> 16)
	cfg[5] = byte(xiphIdent >> 8 & 0xff)
	cfg[6] = byte(xiphIdent & 0xff)
	binary.BigEndian.PutUint16(cfg[7:], uint16(headersLen))
	cfg[9] = 2
	cfg[10] = byte(len(headers[0]))
	cfg = append(cfg, headers[0]...)
	cfg = append(cfg, headers[2]...)
	return base64.StdEncoding.EncodeToString(cfg), nil
}
