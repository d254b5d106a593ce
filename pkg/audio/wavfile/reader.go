package wavfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmChunkSize = 8192

// Recording is a decoded WAV file reduced to its first channel
type Recording struct {
	Samples    []float32     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Duration   time.Duration `json:"duration"`
}

// Seconds returns the recording length in seconds
func (r *Recording) Seconds() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Samples)) / float64(r.SampleRate)
}

// Decode reads PCM audio and keeps channel 0 as float32 samples in [-1, 1)
func Decode(rs io.ReadSeeker) (*Recording, error) {
	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, ErrNotRIFF
	}

	format := decoder.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrNoFmtChunk
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := format.NumChannels
	scale := float32(int64(1) << (bitDepth - 1))
	// 8-bit PCM is unsigned with silence at 128
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	buffer := &audio.IntBuffer{
		Data:   make([]int, pcmChunkSize*channels),
		Format: format,
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read pcm data: %w", err)
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i += channels {
			samples = append(samples, float32(buffer.Data[i]-offset)/scale)
		}
		if err != nil {
			break
		}
	}

	if len(samples) == 0 {
		return nil, ErrNoDataChunk
	}

	rec := &Recording{
		Samples:    samples,
		SampleRate: format.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
	rec.Duration = time.Duration(rec.Seconds() * float64(time.Second))
	return rec, nil
}

// DecodeBytes decodes an in-memory WAV file
func DecodeBytes(data []byte) (*Recording, error) {
	return Decode(bytes.NewReader(data))
}

// Load reads and decodes the WAV file at path
func Load(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer file.Close()

	rec, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return rec, nil
}
