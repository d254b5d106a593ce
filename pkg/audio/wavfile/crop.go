package wavfile

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Crop returns a new WAV file holding the samples in [start, end) seconds of
// data. Everything before the data chunk body is copied unchanged; only the
// RIFF size and the data chunk size are rewritten, and an odd data body gets
// its pad byte. Chunks after the data chunk are dropped.
func Crop(data []byte, start, end float64) ([]byte, error) {
	if !finite(start) || !finite(end) || start < 0 {
		return nil, fmt.Errorf("%w: [%v, %v)", ErrInvalidRange, start, end)
	}
	if start >= end {
		return nil, fmt.Errorf("%w: [%v, %v)", ErrEmptyCrop, start, end)
	}

	info, body, err := layout(data)
	if err != nil {
		return nil, err
	}
	blockAlign := info.BlockAlign()
	if blockAlign <= 0 || info.SampleRate <= 0 {
		return nil, fmt.Errorf("unsupported fmt chunk: %d channels, %d bits, %d Hz",
			info.Channels, info.BitsPerSample, info.SampleRate)
	}

	frames := min(body.Size, len(data)-body.Offset) / blockAlign
	rate := float64(info.SampleRate)
	startFrame := frameIndex(start*rate, frames)
	endFrame := frameIndex(end*rate, frames)
	if endFrame <= startFrame {
		return nil, ErrEmptyCrop
	}

	startByte := body.Offset + startFrame*blockAlign
	endByte := body.Offset + endFrame*blockAlign
	size := endByte - startByte

	out := make([]byte, body.Offset+size+size%2)
	copy(out, data[:body.Offset])
	copy(out[body.Offset:], data[startByte:endByte])

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	binary.LittleEndian.PutUint32(out[body.Offset-4:body.Offset], uint32(size))

	return out, nil
}

// frameIndex converts a fractional frame position into an index within
// [0, frames]
func frameIndex(pos float64, frames int) int {
	return int(math.Floor(math.Max(0, math.Min(pos, float64(frames)))))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ReadFormat returns the fmt chunk fields and the data chunk size in bytes
func ReadFormat(data []byte) (FormatInfo, int, error) {
	info, body, err := layout(data)
	if err != nil {
		return FormatInfo{}, 0, err
	}
	return info, body.Size, nil
}
