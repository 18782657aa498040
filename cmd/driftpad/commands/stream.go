package commands

// chunkStreamer adapts the generator's mono chunk pull model to beep's
// stereo stream interface, duplicating the mono signal onto both
// channels. A negative remaining streams forever; otherwise the stream
// ends after exactly that many samples.
type chunkStreamer struct {
	next      func() []float32
	buf       []float32
	pos       int
	remaining int64
}

func (cs *chunkStreamer) Stream(samples [][2]float64) (int, bool) {
	if cs.remaining == 0 {
		return 0, false
	}
	n := 0
	for n < len(samples) && cs.remaining != 0 {
		if cs.pos >= len(cs.buf) {
			cs.buf = cs.next()
			cs.pos = 0
		}
		v := float64(cs.buf[cs.pos])
		samples[n][0] = v
		samples[n][1] = v
		cs.pos++
		n++
		if cs.remaining > 0 {
			cs.remaining--
		}
	}
	return n, true
}

func (cs *chunkStreamer) Err() error {
	return nil
}
