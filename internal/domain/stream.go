package domain

// Stream is the immutable description of one published stream.
type Stream struct {
	Mountpoint Mountpoint `json:"mountpoint"`
	Video      Track      `json:"video"`
	Audio      *Track     `json:"audio,omitempty"`
}

// NewStream picks the first video and the first audio track out of tracks.
// A missing mountpoint id or video track is a configuration error.
func NewStream(mp Mountpoint, tracks []Track) (Stream, error) {
	if err := mp.Validate(); err != nil {
		return Stream{}, err
	}
	s := Stream{Mountpoint: mp}
	var haveVideo bool
	for i := range tracks {
		t := tracks[i]
		switch {
		case t.IsVideo() && !haveVideo:
			s.Video = t
			haveVideo = true
		case t.IsAudio() && s.Audio == nil:
			s.Audio = &t
		}
	}
	if !haveVideo {
		return Stream{}, ErrNoVideoTrack
	}
	return s, nil
}

func (s Stream) HasAudio() bool { return s.Audio != nil }
