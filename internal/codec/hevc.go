package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

func hevcNALType(nal []byte) int { return int(nal[0]>>1) & 0x3f }

// hevcParameterSets groups the VPS, SPS and PPS of an hvcC record or an Annex B
// buffer into "sprop-vps=..; sprop-sps=..; sprop-pps=..". A missing set yields
// an empty string so the mountpoint is still created without fmtp.
func hevcParameterSets(extradata []byte) (string, error) {
	sets, err := hevcSets(extradata)
	if err != nil {
		return "", err
	}
	names := []string{"vps", "sps", "pps"}
	parts := make([]string, 0, len(names))
	for i, typ := range []int{hevcNALVPS, hevcNALSPS, hevcNALPPS} {
		nals := sets[typ]
		if len(nals) == 0 {
			log.Warn().Str("module", "codec").Str("set", names[i]).Msg("hevc parameter set missing, sending no fmtp")
			return "", nil
		}
		enc := make([]string, len(nals))
		for j, nal := range nals {
			enc[j] = base64.StdEncoding.EncodeToString(nal)
		}
		parts = append(parts, "sprop-"+names[i]+"="+strings.Join(enc, ","))
	}
	return strings.Join(parts, "; "), nil
}

func hevcSets(extradata []byte) (map[int][][]byte, error) {
	sets := make(map[int][][]byte)
	if !IsAVCC(extradata) {
		for _, nal := range SplitAnnexB(extradata) {
			if len(nal) < 2 {
				continue
			}
			typ := hevcNALType(nal)
			sets[typ] = append(sets[typ], nal)
		}
		return sets, nil
	}

	if len(extradata) < 23 {
		return nil, fmt.Errorf("%w: hvcC too short", ErrInvalidExtradata)
	}
	arrays := int(extradata[22])
	pos := 23
	for i := 0; i < arrays; i++ {
		if pos+3 > len(extradata) {
			return nil, fmt.Errorf("%w: hvcC truncated", ErrInvalidExtradata)
		}
		typ := int(extradata[pos] & 0x3f)
		count := int(binary.BigEndian.Uint16(extradata[pos+1:]))
		pos += 3
		for j := 0; j < count; j++ {
			if pos+2 > len(extradata) {
				return nil, fmt.Errorf("%w: hvcC truncated", ErrInvalidExtradata)
			}
			n := int(binary.BigEndian.Uint16(extradata[pos:]))
			pos += 2
			if pos+n > len(extradata) {
				return nil, fmt.Errorf("%w: hvcC nal overflows record", ErrInvalidExtradata)
			}
			sets[typ] = append(sets[typ], extradata[pos:pos+n])
			pos += n
		}
	}
	return sets, nil
}

// HVCCToAnnexB converts an hvcC record into start-code delimited VPS, SPS and
// PPS units. Annex B input is returned unchanged.
func HVCCToAnnexB(extradata []byte) ([]byte, error) {
	if !IsAVCC(extradata) {
		return extradata, nil
	}
	sets, err := hevcSets(extradata)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, typ := range []int{hevcNALVPS, hevcNALSPS, hevcNALPPS} {
		for _, nal := range sets[typ] {
			out = append(out, startCode...)
			out = append(out, nal...)
		}
	}
	return out, nil
}
