package domain

import "time"

// WAVContentType is the content type of an assembled clip.
const WAVContentType = "audio/wav"

// BitDepth is the sample width of every captured chunk.
const BitDepth = 16

// AudioFormat describes interleaved signed 16-bit PCM.
type AudioFormat struct {
	SampleRate int
	Channels   int
}

// DefaultFormat matches what the diagnosis model is trained on.
var DefaultFormat = AudioFormat{SampleRate: 16000, Channels: 1}

// FramesIn returns the number of frames covering d.
func (f AudioFormat) FramesIn(d time.Duration) int {
	return int(int64(f.SampleRate) * int64(d) / int64(time.Second))
}

// Duration returns the playback length of n interleaved samples.
func (f AudioFormat) Duration(samples int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := samples / f.Channels
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Chunk is one read from a capture stream.
type Chunk []int16

// Clip accumulates the chunks of a single recording.
type Clip struct {
	Format AudioFormat
	Chunks []Chunk
}

// NewClip creates an empty clip for the given format.
func NewClip(format AudioFormat) *Clip {
	return &Clip{Format: format, Chunks: make([]Chunk, 0)}
}

// Add appends a chunk. Empty chunks are ignored.
func (c *Clip) Add(chunk Chunk) {
	if len(chunk) == 0 {
		return
	}
	c.Chunks = append(c.Chunks, chunk)
}

// Samples returns the total number of interleaved samples.
func (c *Clip) Samples() int {
	n := 0
	for _, ch := range c.Chunks {
		n += len(ch)
	}
	return n
}

// Empty returns true if no samples were captured.
func (c *Clip) Empty() bool {
	return c.Samples() == 0
}

// Duration returns the recorded length.
func (c *Clip) Duration() time.Duration {
	return c.Format.Duration(c.Samples())
}

// Concat returns all samples in capture order.
func (c *Clip) Concat() []int16 {
	out := make([]int16, 0, c.Samples())
	for _, ch := range c.Chunks {
		out = append(out, ch...)
	}
	return out
}

// Blob is an assembled clip ready for upload.
type Blob struct {
	Data        []byte
	ContentType string
	Duration    time.Duration
}

// Size returns the encoded size in bytes.
func (b Blob) Size() int {
	return len(b.Data)
}
