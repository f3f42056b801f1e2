package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/JanusRelay/internal/core"
	"github.com/dkeye/JanusRelay/internal/domain"
)

var (
	testSPS = []byte{0x67, 0x64, 0x00, 0x1f, 0xac, 0xd9}
	testPPS = []byte{0x68, 0xeb, 0xe3, 0xcb}
)

func testAVCC() []byte {
	b := []byte{1, 0x64, 0x00, 0x1f, 0xff, 0xe1, 0x00, byte(len(testSPS))}
	b = append(b, testSPS...)
	b = append(b, 0x01, 0x00, byte(len(testPPS)))
	return append(b, testPPS...)
}

func testAnnexB() []byte {
	b := append([]byte{0, 0, 0, 1}, testSPS...)
	b = append(b, 0, 0, 0, 1)
	return append(b, testPPS...)
}

func TestAVCCToAnnexB(t *testing.T) {
	out, err := AVCCToAnnexB(testAVCC())
	require.NoError(t, err)
	assert.Equal(t, testAnnexB(), out)

	same, err := AVCCToAnnexB(testAnnexB())
	require.NoError(t, err)
	assert.Equal(t, testAnnexB(), same)

	_, err = AVCCToAnnexB([]byte{1, 0x64, 0x00, 0x1f, 0xff, 0xe1, 0x00, 0x20, 0x67})
	assert.ErrorIs(t, err, ErrInvalidExtradata)
}

func TestSplitAnnexB(t *testing.T) {
	b := []byte{0, 0, 0, 1, 0x67, 0x01, 0, 0, 1, 0x68, 0x02, 0, 0, 0, 1, 0x65, 0x03}
	nals := SplitAnnexB(b)
	require.Len(t, nals, 3)
	assert.Equal(t, []byte{0x67, 0x01}, nals[0])
	assert.Equal(t, []byte{0x68, 0x02}, nals[1])
	assert.Equal(t, []byte{0x65, 0x03}, nals[2])
}

func TestDescribeH264(t *testing.T) {
	for name, extradata := range map[string][]byte{"avcc": testAVCC(), "annexb": testAnnexB()} {
		t.Run(name, func(t *testing.T) {
			d, err := Describe(domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH264, Extradata: extradata})
			require.NoError(t, err)
			assert.Equal(t, "H264/90000", d.RTPMap.String())
			assert.Equal(t, uint8(96), d.PayloadType)
			assert.Equal(t,
				"packetization-mode=1; sprop-parameter-sets=Z2QAH6zZ,aOvjyw==; profile-level-id=42E01F",
				d.FMTP)
		})
	}

	d, err := Describe(domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH264})
	require.NoError(t, err)
	assert.Equal(t, "packetization-mode=1", d.FMTP)
}

func TestDescribeTable(t *testing.T) {
	tests := []struct {
		name   string
		track  domain.Track
		rtpmap string
		fmtp   string
		pt     uint8
	}{
		{"pcmu", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecPCMU, SampleRate: 8000, Channels: 1}, "PCMU/8000/1", "", 0},
		{"pcma", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecPCMA, SampleRate: 8000, Channels: 1}, "PCMA/8000/1", "", 8},
		{"pcmu wideband", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecPCMU, SampleRate: 16000, Channels: 1}, "PCMU/16000/1", "", 97},
		{"opus stereo", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecOpus, SampleRate: 48000, Channels: 2}, "opus/48000/2", "sprop-stereo=1", 97},
		{"opus mono", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecOpus, SampleRate: 48000, Channels: 1}, "opus/48000/2", "", 97},
		{"g722", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecG722, SampleRate: 16000, Channels: 1}, "G722/8000/1", "", 9},
		{"g726", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecG726, SampleRate: 8000, BitsPerCodedSample: 4}, "G726-32/8000", "", 97},
		{"ilbc 20ms", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecILBC, SampleRate: 8000, BlockAlign: 38}, "iLBC/8000", "mode=20", 97},
		{"ilbc 30ms", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecILBC, SampleRate: 8000, BlockAlign: 50}, "iLBC/8000", "mode=30", 97},
		{"amr", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecAMRNB, SampleRate: 8000, Channels: 1}, "AMR/8000/1", "octet-align=1", 97},
		{"l16", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecL16, SampleRate: 44100, Channels: 2}, "L16/44100/2", "", 10},
		{"speex", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecSpeex, SampleRate: 16000, SpeexVBR: "vad"}, "speex/16000", "vbr=vad", 97},
		{"aac", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecAAC, SampleRate: 44100, Channels: 2, Extradata: []byte{0x12, 0x10}},
			"MPEG4-GENERIC/44100/2", "profile-level-id=1;mode=AAC-hbr;sizelength=13;indexlength=3;indexdeltalength=3; config=1210", 97},
		{"aac latm", domain.Track{Kind: domain.KindAudio, Codec: domain.CodecAAC, SampleRate: 48000, Channels: 2, LATM: true},
			"MP4A-LATM/48000/2", "profile-level-id=41;cpresent=0;config=400023203fc0", 97},
		{"h261 cif", domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH261, Width: 352, Height: 288}, "H261/90000", "CIF=1", 31},
		{"h263", domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH263}, "H263-2000/90000", "", 96},
		{"mpeg4", domain.Track{Kind: domain.KindVideo, Codec: domain.CodecMPEG4, Extradata: []byte{0x00, 0x00, 0x01, 0xb0}}, "MP4V-ES/90000", "profile-level-id=1; config=000001B0", 96},
		{"mjpeg", domain.Track{Kind: domain.KindVideo, Codec: domain.CodecMJPEG}, "JPEG/90000", "", 26},
		{"vp8", domain.Track{Kind: domain.KindVideo, Codec: domain.CodecVP8}, "VP8/90000", "", 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Describe(tt.track)
			require.NoError(t, err)
			assert.Equal(t, tt.rtpmap, d.RTPMap.String())
			assert.Equal(t, tt.fmtp, d.FMTP)
			assert.Equal(t, tt.pt, d.PayloadType)
		})
	}
}

func TestDescribeHEVC(t *testing.T) {
	extradata := []byte{
		0, 0, 0, 1, 0x40, 0x01, 0x0c,
		0, 0, 0, 1, 0x42, 0x01, 0x01,
		0, 0, 0, 1, 0x44, 0x01, 0xc1,
	}
	d, err := Describe(domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH265, Extradata: extradata})
	require.NoError(t, err)
	assert.Equal(t, "sprop-vps=QAEM; sprop-sps=QgEB; sprop-pps=RAHB", d.FMTP)

	// no PPS
	d, err = Describe(domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH265, Extradata: extradata[:14]})
	require.NoError(t, err)
	assert.Empty(t, d.FMTP)
	assert.Equal(t, "H265/90000", d.RTPMap.String())
}

func TestDescribeTheoraUnknownPixelFormat(t *testing.T) {
	d, err := Describe(domain.Track{
		Kind:        domain.KindVideo,
		Codec:       domain.CodecTheora,
		PixelFormat: "nv12",
		Extradata:   []byte{2, 3, 1, 'a', 'b', 'c', 'x', 5, 6},
	})
	require.NoError(t, err)
	assert.Empty(t, d.FMTP)
}

func TestXiphConfigLacing(t *testing.T) {
	extradata := []byte{2, 3, 1, 'a', 'b', 'c', 'x', 5, 6}
	cfg, err := xiphConfig(domain.CodecVorbis, extradata)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAf7NugAFAgMAYWJjBQY=", cfg)

	raw, err := base64.StdEncoding.DecodeString(cfg)
	require.NoError(t, err)
	require.Len(t, raw, 12+5)
	assert.Equal(t, []byte{0xfe, 0xcd, 0xba}, raw[4:7])
	assert.Equal(t, []byte{0, 5}, raw[7:9], "packed headers length")
	assert.Equal(t, []byte{2, 3, 0}, raw[9:12], "lacing: ident, empty comment")

	_, err = xiphConfig(domain.CodecVorbis, []byte{7, 7, 7})
	assert.ErrorIs(t, err, ErrInvalidExtradata)
}

func TestDescribeUnsupported(t *testing.T) {
	_, err := Describe(domain.Track{Kind: domain.KindVideo, Codec: "av1"})
	assert.ErrorIs(t, err, core.ErrUnsupportedCodec)
}

func TestMissingParameterSets(t *testing.T) {
	idr := []byte{0, 0, 0, 1, 0x65, 0x88}
	assert.True(t, MissingParameterSets(domain.CodecH264, idr))
	assert.False(t, MissingParameterSets(domain.CodecH264, append(testAnnexB(), idr...)))
	assert.False(t, MissingParameterSets(domain.CodecH264, []byte{0x65}))
	assert.True(t, MissingParameterSets(domain.CodecH265, []byte{0, 0, 1, 0x26, 0x01}))
	assert.False(t, MissingParameterSets(domain.CodecVP8, []byte{0, 0, 0, 1, 0x65}))
}

func TestIsKeyframe(t *testing.T) {
	assert.True(t, IsKeyframe(domain.CodecH264, []byte{0, 0, 0, 1, 0x65, 0x88}))
	assert.True(t, IsKeyframe(domain.CodecH264, append(testAnnexB(), 0, 0, 0, 1, 0x65)))
	assert.False(t, IsKeyframe(domain.CodecH264, []byte{0, 0, 0, 1, 0x41, 0x9a}))

	assert.True(t, IsKeyframe(domain.CodecVP8, []byte{0x10, 0x02}))
	assert.False(t, IsKeyframe(domain.CodecVP8, []byte{0x11, 0x02}))

	assert.True(t, IsKeyframe(domain.CodecVP9, []byte{0x82}))  // profile 0, shown key frame
	assert.False(t, IsKeyframe(domain.CodecVP9, []byte{0x86})) // inter frame
	assert.False(t, IsKeyframe(domain.CodecVP9, []byte{0x88})) // show existing frame
}

func TestPrepare(t *testing.T) {
	tr, err := Prepare(domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH264, Extradata: testAVCC()})
	require.NoError(t, err)
	assert.Equal(t, testAnnexB(), tr.Extradata)
	assert.Equal(t, uint8(96), tr.PayloadType)
	assert.Equal(t, uint32(90000), tr.ClockRate)

	_, err = Prepare(domain.Track{Kind: domain.KindVideo, Codec: "av1"})
	assert.ErrorIs(t, err, core.ErrUnsupportedCodec)
}

func TestSessionDescription(t *testing.T) {
	stream := domain.Stream{
		Mountpoint: domain.Mountpoint{ID: "cam1"},
		Video:      domain.Track{Kind: domain.KindVideo, Codec: domain.CodecH264},
		Audio:      &domain.Track{Kind: domain.KindAudio, Codec: domain.CodecOpus, SampleRate: 48000, Channels: 2},
	}
	endpoints := &domain.Endpoints{
		Video: domain.Endpoint{Host: "10.0.0.5", Port: 5000},
		Audio: &domain.Endpoint{Host: "10.0.0.5", Port: 5002},
	}
	raw, err := SessionDescription(stream, endpoints)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "s=cam1")
	assert.Contains(t, out, "c=IN IP4 10.0.0.5")
	assert.Contains(t, out, "m=video 5000 RTP/AVP 96")
	assert.Contains(t, out, "a=rtpmap:96 H264/90000")
	assert.Contains(t, out, "a=fmtp:96 packetization-mode=1")
	assert.Contains(t, out, "m=audio 5002 RTP/AVP 97")
	assert.Contains(t, out, "a=rtpmap:97 opus/48000/2")
	assert.True(t, strings.HasPrefix(out, "v=0"))
}
