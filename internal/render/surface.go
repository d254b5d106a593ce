package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DirSurface writes each frame as Dir/<tag>.png
type DirSurface struct {
	Dir string
}

// PathFor returns the file a frame tagged tag is written to
func (s DirSurface) PathFor(tag string) string {
	name := strings.TrimSuffix(filepath.Base(tag), filepath.Ext(tag)) + ".png"
	return filepath.Join(s.Dir, name)
}

// Present encodes the frame to PNG
func (s DirSurface) Present(frame Frame) error {
	tag := frame.Tag
	if tag == "" {
		tag = frame.ID.String()
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return WritePNG(s.PathFor(tag), frame.Image.Image)
}

// WritePNG encodes img to path
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// Canvas keeps the most recent frame in memory
type Canvas struct {
	mu    sync.RWMutex
	frame *Frame
	count int
}

// Present replaces the held frame
func (c *Canvas) Present(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = &frame
	c.count++
	return nil
}

// Latest returns the last presented frame
func (c *Canvas) Latest() (Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == nil {
		return Frame{}, false
	}
	return *c.frame, true
}

// Presented returns how many frames have been presented
func (c *Canvas) Presented() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}
