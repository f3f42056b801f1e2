package domain

// Packet is one encoded access unit of a track. Data is never mutated once the
// packet is handed to the relay.
type Packet struct {
	Track     int
	Data      []byte
	Keyframe  bool
	Timestamp uint32
}

// WithPrefix returns a copy of p whose payload is prefix followed by p.Data.
func (p Packet) WithPrefix(prefix []byte) Packet {
	data := make([]byte, 0, len(prefix)+len(p.Data))
	data = append(data, prefix...)
	data = append(data, p.Data...)
	p.Data = data
	return p
}
