package wavfile

import (
	"encoding/binary"
	"errors"
)

// riffHeaderSize is the "RIFF" id, the file size and the "WAVE" form type
const riffHeaderSize = 12

var (
	ErrNotRIFF      = errors.New("not a RIFF/WAVE file")
	ErrNoFmtChunk   = errors.New("wav file has no fmt chunk")
	ErrNoDataChunk  = errors.New("wav file has no data chunk")
	ErrEmptyCrop    = errors.New("crop range selects no samples")
	ErrInvalidRange = errors.New("crop range is invalid")
)

// Chunk locates one RIFF sub-chunk. Offset is the first byte of the chunk
// body, directly after the 8 byte id/size header.
type Chunk struct {
	ID     string
	Offset int
	Size   int
}

// Body returns the chunk bytes, truncated to what the file actually holds
func (c Chunk) Body(data []byte) []byte {
	end := min(len(data), c.Offset+c.Size)
	if c.Offset >= end {
		return nil
	}
	return data[c.Offset:end]
}

// WalkChunks visits every sub-chunk after the RIFF header in file order.
// Odd sized chunks are followed by one pad byte. Walking stops when fn
// returns false or a header would run past the end of data.
func WalkChunks(data []byte, fn func(Chunk) bool) error {
	if len(data) < riffHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return ErrNotRIFF
	}

	pos := riffHeaderSize
	for pos+8 <= len(data) {
		c := Chunk{
			ID:     string(data[pos : pos+4]),
			Offset: pos + 8,
			Size:   int(binary.LittleEndian.Uint32(data[pos+4 : pos+8])),
		}
		if !fn(c) {
			return nil
		}
		pos += 8 + c.Size + c.Size%2
	}
	return nil
}

// FormatInfo holds the fields of a PCM fmt chunk used for byte arithmetic
type FormatInfo struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// BlockAlign returns the bytes per sample frame
func (f FormatInfo) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// layout finds the fmt and data chunks. The walk stops at data, matching
// how players treat trailing chunks.
func layout(data []byte) (FormatInfo, Chunk, error) {
	var (
		info    FormatInfo
		fmtSeen bool
		body    Chunk
		found   bool
	)

	err := WalkChunks(data, func(c Chunk) bool {
		switch c.ID {
		case "fmt ":
			b := c.Body(data)
			if len(b) >= 16 {
				info = FormatInfo{
					Channels:      int(binary.LittleEndian.Uint16(b[2:4])),
					SampleRate:    int(binary.LittleEndian.Uint32(b[4:8])),
					BitsPerSample: int(binary.LittleEndian.Uint16(b[14:16])),
				}
				fmtSeen = true
			}
		case "data":
			body = c
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return FormatInfo{}, Chunk{}, err
	}
	if !fmtSeen {
		return FormatInfo{}, Chunk{}, ErrNoFmtChunk
	}
	if !found {
		return FormatInfo{}, Chunk{}, ErrNoDataChunk
	}
	return info, body, nil
}
