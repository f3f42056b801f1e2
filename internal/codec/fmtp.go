package codec

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/JanusRelay/internal/domain"
)

// FormatParameters builds the fmtp attribute value of a track. Missing
// extradata yields a shorter or empty string; corrupt extradata is an error.
func FormatParameters(t domain.Track) (string, error) {
	switch t.Codec {
	case domain.CodecH264:
		psets := ""
		if len(t.Extradata) > 0 {
			var err error
			if psets, err = h264ParameterSets(t.Extradata); err != nil {
				return "", err
			}
		}
		return "packetization-mode=1" + psets, nil

	case domain.CodecH261:
		switch {
		case t.Width == 176 && t.Height == 144:
			return "QCIF=1", nil
		case t.Width == 352 && t.Height == 288:
			return "CIF=1", nil
		}
		return "", nil

	case domain.CodecH265:
		if len(t.Extradata) == 0 {
			return "", nil
		}
		return hevcParameterSets(t.Extradata)

	case domain.CodecMPEG4:
		return "profile-level-id=1" + hexConfig(t.Extradata), nil

	case domain.CodecAAC:
		if t.LATM {
			cfg, err := latmConfig(t)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("profile-level-id=%d;cpresent=0;config=%s", latmProfileLevel(t), cfg), nil
		}
		if len(t.Extradata) == 0 {
			return "", nil
		}
		return "profile-level-id=1;mode=AAC-hbr;sizelength=13;indexlength=3;indexdeltalength=3" +
			hexConfig(t.Extradata), nil

	case domain.CodecAMRNB, domain.CodecAMRWB:
		return "octet-align=1", nil

	case domain.CodecVorbis:
		if len(t.Extradata) == 0 {
			return "", nil
		}
		cfg, err := xiphConfig(t.Codec, t.Extradata)
		if err != nil {
			return "", err
		}
		return "configuration=" + cfg, nil

	case domain.CodecTheora:
		sampling, ok := theoraSampling[t.PixelFormat]
		if !ok {
			log.Warn().Str("module", "codec").Str("pix_fmt", t.PixelFormat).Msg("unsupported theora pixel format, sending no fmtp")
			return "", nil
		}
		if len(t.Extradata) == 0 {
			return "", nil
		}
		cfg, err := xiphConfig(t.Codec, t.Extradata)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("delivery-method=inline; width=%d; height=%d; sampling=%s; configuration=%s",
			t.Width, t.Height, sampling, cfg), nil

	case domain.CodecILBC:
		if t.BlockAlign == 38 {
			return "mode=20", nil
		}
		return "mode=30", nil

	case domain.CodecSpeex:
		if t.SpeexVBR == "" {
			return "", nil
		}
		return "vbr=" + t.SpeexVBR, nil

	case domain.CodecOpus:
		if t.Channels == 2 {
			return "sprop-stereo=1", nil
		}
		return "", nil
	}
	return "", nil
}

var theoraSampling = map[string]string{
	"yuv420p": "YCbCr-4:2:0",
	"yuv422p": "YCbCr-4:2:2",
	"yuv444p": "YCbCr-4:4:4",
}

func hexConfig(extradata []byte) string {
	if len(extradata) == 0 {
		return ""
	}
	return "; config=" + strings.ToUpper(hex.EncodeToString(extradata))
}

// h264ParameterSets renders "; sprop-parameter-sets=..." followed by the
// profile-level-id of the first SPS. The profile is pinned to constrained
// baseline (42E0) because Firefox refuses other profiles; only the level is
// taken from the stream.
func h264ParameterSets(extradata []byte) (string, error) {
	annexB, err := AVCCToAnnexB(extradata)
	if err != nil {
		return "", err
	}
	var (
		sets []string
		sps  []byte
	)
	for _, nal := range SplitAnnexB(annexB) {
		switch nal[0] & 0x1f {
		case h264NALSPS, h264NALPPS:
		default:
			continue
		}
		if sps == nil && nal[0]&0x1f == h264NALSPS {
			sps = nal
		}
		sets = append(sets, base64.StdEncoding.EncodeToString(nal))
	}
	out := "; sprop-parameter-sets=" + strings.Join(sets, ",")
	if len(sps) >= 4 {
		out += "; profile-level-id=" + strings.ToUpper(hex.EncodeToString([]byte{0x42, 0xe0, sps[3]}))
	}
	return out, nil
}
