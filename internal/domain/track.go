package domain

type TrackKind string

const (
	KindVideo TrackKind = "video"
	KindAudio TrackKind = "audio"
)

type CodecID string

const (
	CodecVC2    CodecID = "vc2"
	CodecH264   CodecID = "h264"
	CodecH261   CodecID = "h261"
	CodecH263   CodecID = "h263"
	CodecH263P  CodecID = "h263p"
	CodecH265   CodecID = "hevc"
	CodecMPEG4  CodecID = "mpeg4"
	CodecTheora CodecID = "theora"
	CodecMJPEG  CodecID = "mjpeg"
	CodecVP8    CodecID = "vp8"
	CodecVP9    CodecID = "vp9"

	CodecAAC    CodecID = "aac"
	CodecL16    CodecID = "pcm_s16be"
	CodecPCMU   CodecID = "pcm_mulaw"
	CodecPCMA   CodecID = "pcm_alaw"
	CodecAMRNB  CodecID = "amr_nb"
	CodecAMRWB  CodecID = "amr_wb"
	CodecVorbis CodecID = "vorbis"
	CodecG722   CodecID = "adpcm_g722"
	CodecG726   CodecID = "adpcm_g726"
	CodecILBC   CodecID = "ilbc"
	CodecSpeex  CodecID = "speex"
	CodecOpus   CodecID = "opus"
)

// Track describes one elementary stream of the published media.
type Track struct {
	Index int       `json:"index"`
	Kind  TrackKind `json:"kind"`
	Codec CodecID   `json:"codec"`

	// Video
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	PixelFormat string `json:"pixel_format,omitempty"`

	// Audio
	SampleRate         int    `json:"sample_rate,omitempty"`
	Channels           int    `json:"channels,omitempty"`
	BitsPerCodedSample int    `json:"-"`
	BlockAlign         int    `json:"-"`
	LATM               bool   `json:"-"`
	SpeexVBR           string `json:"-"`

	// ClockRate is the RTP timestamp rate; Timestamp values of packets are in this unit.
	ClockRate   uint32 `json:"clock_rate"`
	PayloadType uint8  `json:"payload_type"`
	Extradata   []byte `json:"-"`
}

func (t Track) IsVideo() bool { return t.Kind == KindVideo }
func (t Track) IsAudio() bool { return t.Kind == KindAudio }
