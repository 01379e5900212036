package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ngt-labs/coughdx/internal/domain"
)

const pcmFormat = 1

// Encoder assembles clips into WAV blobs. The wav encoder needs a seekable
// sink, so each clip is spooled through a temporary file under Dir.
type Encoder struct {
	// Dir is the spool directory; empty means os.TempDir().
	Dir string
}

// NewEncoder creates an encoder spooling to dir.
func NewEncoder(dir string) *Encoder {
	return &Encoder{Dir: dir}
}

// Encode concatenates the clip's chunks into a single audio/wav blob.
func (e *Encoder) Encode(clip *domain.Clip) (domain.Blob, error) {
	if clip == nil || clip.Empty() {
		return domain.Blob{}, domain.ErrEmptyClip
	}

	f, err := os.CreateTemp(e.Dir, SpoolPattern)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	samples := clip.Concat()
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, clip.Format.SampleRate, domain.BitDepth, clip.Format.Channels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.Format.Channels,
			SampleRate:  clip.Format.SampleRate,
		},
		Data:           data,
		SourceBitDepth: domain.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return domain.Blob{}, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return domain.Blob{}, fmt.Errorf("finalize wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.Blob{}, fmt.Errorf("rewind spool file: %w", err)
	}
	out, err := io.ReadAll(f)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("read spool file: %w", err)
	}

	return domain.Blob{
		Data:        out,
		ContentType: domain.WAVContentType,
		Duration:    clip.Duration(),
	}, nil
}

// ReadWAVFile decodes a PCM WAV file into 16-bit samples.
func ReadWAVFile(path string) (domain.AudioFormat, []int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.AudioFormat{}, nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return domain.AudioFormat{}, nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return domain.AudioFormat{}, nil, fmt.Errorf("decode %s: %w", path, err)
	}

	format := domain.AudioFormat{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}
	samples, err := toInt16(buf.Data, int(dec.BitDepth))
	if err != nil {
		return domain.AudioFormat{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return format, samples, nil
}

// ReadWAVBlob loads a WAV file as an upload blob without re-encoding it.
func ReadWAVBlob(path string) (domain.Blob, error) {
	format, samples, err := ReadWAVFile(path)
	if err != nil {
		return domain.Blob{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Blob{}, err
	}
	return domain.Blob{
		Data:        data,
		ContentType: domain.WAVContentType,
		Duration:    format.Duration(len(samples)),
	}, nil
}

func toInt16(data []int, depth int) ([]int16, error) {
	out := make([]int16, len(data))
	switch depth {
	case 16:
		for i, v := range data {
			out[i] = int16(v)
		}
	case 24, 32:
		shift := uint(depth - 16)
		for i, v := range data {
			out[i] = int16(v >> shift)
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", depth)
	}
	return out, nil
}
