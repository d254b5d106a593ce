package wavfile

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testChunk struct {
	id   string
	body []byte
}

// buildWAV assembles a RIFF file from chunks, padding odd sizes
func buildWAV(chunks ...testChunk) []byte {
	out := []byte("RIFF\x00\x00\x00\x00WAVE")
	for _, c := range chunks {
		hdr := make([]byte, 8)
		copy(hdr, c.id)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(c.body)))
		out = append(out, hdr...)
		out = append(out, c.body...)
		if len(c.body)%2 == 1 {
			out = append(out, 0)
		}
	}
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func fmtChunk(channels, sampleRate, bits int) testChunk {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b[0:], 1)
	binary.LittleEndian.PutUint16(b[2:], uint16(channels))
	binary.LittleEndian.PutUint32(b[4:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(b[8:], uint32(sampleRate*channels*bits/8))
	binary.LittleEndian.PutUint16(b[12:], uint16(channels*bits/8))
	binary.LittleEndian.PutUint16(b[14:], uint16(bits))
	return testChunk{id: "fmt ", body: b}
}

// pcm16 returns n mono 16-bit frames whose value equals their index
func pcm16(n int) []byte {
	b := make([]byte, 2*n)
	for i := range n {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(i))
	}
	return b
}

func TestCropRewritesSizes(t *testing.T) {
	const rate = 1000
	src := buildWAV(
		fmtChunk(1, rate, 16),
		testChunk{id: "LIST", body: []byte("odd")},
		testChunk{id: "data", body: pcm16(1000)},
	)

	out, err := Crop(src, 0.25, 0.5)
	require.NoError(t, err)

	info, dataSize, err := ReadFormat(out)
	require.NoError(t, err)
	assert.Equal(t, FormatInfo{Channels: 1, SampleRate: rate, BitsPerSample: 16}, info)
	assert.Equal(t, 250*2, dataSize)
	assert.Equal(t, uint32(len(out)-8), binary.LittleEndian.Uint32(out[4:8]))

	// Header bytes before the data body are unchanged
	_, srcSize, err := ReadFormat(src)
	require.NoError(t, err)
	headerLen := len(out) - dataSize
	assert.Equal(t, src[12:headerLen-4], out[12:headerLen-4])
	assert.Equal(t, 2000, srcSize)

	// First cropped frame is frame 250 of the source
	assert.Equal(t, uint16(250), binary.LittleEndian.Uint16(out[headerLen:]))
}

func TestCropClampsToData(t *testing.T) {
	src := buildWAV(fmtChunk(2, 100, 16), testChunk{id: "data", body: make([]byte, 100*4)})

	out, err := Crop(src, 0.5, 10)
	require.NoError(t, err)
	_, size, err := ReadFormat(out)
	require.NoError(t, err)
	assert.Equal(t, 50*4, size)
}

func TestCropHugeEndClamps(t *testing.T) {
	src := buildWAV(fmtChunk(1, 1000, 16), testChunk{id: "data", body: pcm16(100)})

	out, err := Crop(src, 0.09, 1e300)
	require.NoError(t, err)
	_, size, err := ReadFormat(out)
	require.NoError(t, err)
	assert.Equal(t, 10*2, size)
}

// pcm8 returns n mono 8-bit frames of value v
func pcm8(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestCropPadsOddData(t *testing.T) {
	src := buildWAV(fmtChunk(1, 1000, 8), testChunk{id: "data", body: pcm8(101, 128)})

	out, err := Crop(src, 0, 0.003)
	require.NoError(t, err)

	info, size, err := ReadFormat(out)
	require.NoError(t, err)
	assert.Equal(t, 8, info.BitsPerSample)
	assert.Equal(t, 3, size, "the data chunk size excludes the pad byte")
	assert.Zero(t, len(out)%2)
	assert.Equal(t, byte(0), out[len(out)-1])
	assert.Equal(t, uint32(len(out)-8), binary.LittleEndian.Uint32(out[4:8]))

	rec, err := DecodeBytes(out)
	require.NoError(t, err)
	assert.Len(t, rec.Samples, 3)
}

func TestCropErrors(t *testing.T) {
	good := buildWAV(fmtChunk(1, 1000, 16), testChunk{id: "data", body: pcm16(100)})

	tests := []struct {
		name       string
		data       []byte
		start, end float64
		want       error
	}{
		{"empty range", good, 0.05, 0.05, ErrEmptyCrop},
		{"inverted range", good, 0.08, 0.02, ErrEmptyCrop},
		{"start past data", good, 5, 6, ErrEmptyCrop},
		{"huge start", good, 1e300, math.MaxFloat64, ErrEmptyCrop},
		{"negative start", good, -1, 0.02, ErrInvalidRange},
		{"NaN start", good, math.NaN(), 0.02, ErrInvalidRange},
		{"NaN end", good, 0, math.NaN(), ErrInvalidRange},
		{"infinite end", good, 0, math.Inf(1), ErrInvalidRange},
		{"not riff", []byte("garbage bytes here"), 0, 1, ErrNotRIFF},
		{"no fmt", buildWAV(testChunk{id: "data", body: pcm16(10)}), 0, 1, ErrNoFmtChunk},
		{"no data", buildWAV(fmtChunk(1, 1000, 16)), 0, 1, ErrNoDataChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(tt.data, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGUANORoundTrip(t *testing.T) {
	text := "GUANO|Version: 1.0\r\nTimestamp: 2024-05-17 21:43:10+08:00\r\nLoc Position: 22.3964 -114.1095\r\nMake: Wildlife Acoustics\n"
	src := buildWAV(
		fmtChunk(1, 256000, 16),
		testChunk{id: "data", body: pcm16(4)},
		testChunk{id: "guan", body: []byte(text)},
	)

	raw, ok := ExtractGUANO(src)
	require.True(t, ok)
	assert.Equal(t, text, raw)

	meta := ParseGUANO(raw)
	assert.Equal(t, "2024/05/17", meta.Date)
	assert.Equal(t, "2143", meta.Time)
	assert.Equal(t, "22.3964", meta.Latitude)
	assert.Equal(t, "114.1095", meta.Longitude)
	assert.Equal(t, "Wildlife Acoustics", meta.Fields["Make"])

	lat, lon, ok := meta.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 22.3964, lat, 1e-9)
	assert.InDelta(t, 114.1095, lon, 1e-9)
}

func TestParseGUANOLongitude(t *testing.T) {
	tests := []struct {
		pos, lat, lon string
	}{
		{"22.3 -114.2", "22.3", "114.2"},
		{"51.5 -0.12", "51.5", "-0.12"},
		{"40.7 -74.0", "40.7", "-74"},
		{"10.0 east", "10.0", "east"},
		{"10.0", "10.0", ""},
	}
	for _, tt := range tests {
		meta := ParseGUANO("Loc Position: " + tt.pos)
		assert.Equal(t, tt.lat, meta.Latitude, tt.pos)
		assert.Equal(t, tt.lon, meta.Longitude, tt.pos)
	}
}

func TestExtractGUANOMissing(t *testing.T) {
	src := buildWAV(fmtChunk(1, 1000, 16), testChunk{id: "data", body: pcm16(4)})
	_, ok := ExtractGUANO(src)
	assert.False(t, ok)

	meta := ParseGUANO("")
	assert.Empty(t, meta.Date)
	assert.Empty(t, meta.Longitude)
}

// TestLoadEncodedFile writes a stereo file with go-audio and reads channel 0 back
func TestLoadEncodedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	const frames = 300
	data := make([]int, frames*2)
	for i := range frames {
		data[2*i] = i * 10
		data[2*i+1] = -1
	}

	enc := wav.NewEncoder(f, 192000, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 2, SampleRate: 192000},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 192000, rec.SampleRate)
	assert.Equal(t, 2, rec.Channels)
	assert.Equal(t, 16, rec.BitDepth)
	require.Len(t, rec.Samples, frames)
	assert.InDelta(t, float32(100*10)/32768, rec.Samples[100], 1e-7)
	assert.InDelta(t, float64(frames)/192000, rec.Seconds(), 1e-12)
}

// TestDecodeUnsigned8Bit checks that 8-bit PCM is centred on 128
func TestDecodeUnsigned8Bit(t *testing.T) {
	body := pcm8(64, 128)
	body[1], body[2] = 255, 0
	rec, err := DecodeBytes(buildWAV(fmtChunk(1, 8000, 8), testChunk{id: "data", body: body}))
	require.NoError(t, err)

	assert.Equal(t, 8, rec.BitDepth)
	require.Len(t, rec.Samples, 64)
	assert.InDelta(t, 0, rec.Samples[0], 1e-9, "silence decodes to zero")
	assert.InDelta(t, 127.0/128, rec.Samples[1], 1e-7)
	assert.InDelta(t, -1, rec.Samples[2], 1e-9)
	for _, v := range rec.Samples[3:] {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
