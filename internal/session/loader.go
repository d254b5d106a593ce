package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/hkbatradar/Spectrogram/pkg/audio/wavfile"
)

const (
	// DefaultDemoURL is the bundled demo recording
	DefaultDemoURL = "https://raw.githubusercontent.com/hkbatradar/SonoRadar/main/recording/demo_recording.wav"
	// DemoFileName is the session name of the demo recording
	DemoFileName = "demo_recording.wav"

	// MinFileSize is the smallest recording a user load accepts, in bytes
	MinFileSize = 200 * 1024
	// MaxDuration is the longest recording a user load accepts, in seconds
	MaxDuration = 20.0

	defaultFetchTimeout = 60 * time.Second
	defaultUserAgent    = "batscope/1.0"
)

var (
	// ErrFetchInFlight is returned when a demo fetch is already running
	ErrFetchInFlight = errors.New("demo fetch already in flight")
	// ErrDemoAborted is returned when a user load cancelled the demo fetch
	ErrDemoAborted = errors.New("demo fetch aborted by user load")
	// ErrNoWAVFiles is returned when a user load names no .wav file
	ErrNoWAVFiles = errors.New("only .wav files are supported")
)

// SkipReason explains why a user file was not added
type SkipReason string

const (
	SkipTooSmall SkipReason = "too_small"
	SkipTooLong  SkipReason = "too_long"
	SkipInvalid  SkipReason = "invalid"
)

// Skipped is a file a user load left out
type Skipped struct {
	Name   string     `json:"name" yaml:"name"`
	Reason SkipReason `json:"reason" yaml:"reason"`
	Err    error      `json:"-" yaml:"-"`
}

// LoadResult reports the outcome of a user load
type LoadResult struct {
	Added   []File
	Skipped []Skipped
}

// Count returns how many skipped files had the given reason
func (r LoadResult) Count(reason SkipReason) int {
	n := 0
	for _, s := range r.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// LoaderConfig holds the collaborators of a Loader
type LoaderConfig struct {
	Session   *Session
	Client    *http.Client
	DemoURL   string
	UserAgent string
	Logger    logging.Logger
}

// Loader fills a Session from the demo recording or from user files. At
// most one demo fetch runs at a time and any user load aborts it.
type Loader struct {
	session   *Session
	client    *http.Client
	demoURL   string
	userAgent string
	logger    logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// NewLoader creates a loader for cfg.Session
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Session == nil {
		cfg.Session = New()
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{
			Timeout: defaultFetchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    1,
				IdleConnTimeout: 30 * time.Second,
			},
		}
	}
	if cfg.DemoURL == "" {
		cfg.DemoURL = DefaultDemoURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefaultLogger()
	}

	return &Loader{
		session:   cfg.Session,
		client:    cfg.Client,
		demoURL:   cfg.DemoURL,
		userAgent: cfg.UserAgent,
		logger: cfg.Logger.WithFields(logging.Fields{
			"component": "session_loader",
		}),
	}
}

// Session returns the session the loader fills
func (l *Loader) Session() *Session {
	return l.session
}

// InFlight reports whether a demo fetch is running
func (l *Loader) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// DemoResult is the outcome of a background demo fetch
type DemoResult struct {
	File File
	Err  error
}

// PreloadDemo fetches the demo recording and makes it the only file of the
// session with every flag set and nothing current. It returns
// ErrDemoAborted when BeginUserLoad ran first; the session is then left
// untouched.
func (l *Loader) PreloadDemo(ctx context.Context) (File, error) {
	fetchCtx, finish, err := l.beginFetch(ctx)
	if err != nil {
		return File{}, err
	}
	defer finish()
	return l.loadDemo(ctx, fetchCtx)
}

// StartDemo runs PreloadDemo in the background. The fetch counts as in
// flight as soon as StartDemo returns, so a later BeginUserLoad always
// aborts it. The channel yields one result.
func (l *Loader) StartDemo(ctx context.Context) (<-chan DemoResult, error) {
	fetchCtx, finish, err := l.beginFetch(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan DemoResult, 1)
	go func() {
		defer close(ch)
		defer finish()
		f, err := l.loadDemo(ctx, fetchCtx)
		ch <- DemoResult{File: f, Err: err}
	}()
	return ch, nil
}

// beginFetch registers a demo fetch. finish releases it.
func (l *Loader) beginFetch(ctx context.Context) (context.Context, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil, nil, ErrFetchInFlight
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.gen++
	gen := l.gen
	l.cancel = cancel

	finish := func() {
		l.mu.Lock()
		if l.gen == gen {
			l.cancel = nil
		}
		l.mu.Unlock()
		cancel()
	}
	return fetchCtx, finish, nil
}

func (l *Loader) loadDemo(ctx, fetchCtx context.Context) (File, error) {
	logger := l.logger.WithFields(logging.Fields{
		"url": l.demoURL,
	})
	logger.Debug("Fetching demo recording")

	data, err := l.fetch(fetchCtx)
	if err != nil {
		if ctx.Err() == nil && fetchCtx.Err() != nil {
			logger.Debug("Demo fetch aborted")
			return File{}, ErrDemoAborted
		}
		logger.Warn("Demo fetch failed", logging.Fields{"error": err.Error()})
		return File{}, err
	}

	dur, err := durationOf(data)
	if err != nil {
		return File{}, fmt.Errorf("failed to read demo recording header: %w", err)
	}
	demo := File{
		Name:     DemoFileName,
		Size:     int64(len(data)),
		Duration: dur,
		Data:     data,
	}

	// the abort check and the session write happen under one lock so a user
	// load cannot land between them
	l.mu.Lock()
	defer l.mu.Unlock()
	if fetchCtx.Err() != nil {
		logger.Debug("Demo fetch aborted after download")
		return File{}, ErrDemoAborted
	}

	l.session.SetFiles([]File{demo}, -1)
	for _, icon := range []IconType{IconTrash, IconStar, IconQuestion} {
		if _, err := l.session.ToggleIcon(0, icon); err != nil {
			return File{}, fmt.Errorf("failed to flag demo recording: %w", err)
		}
	}
	if text, ok := wavfile.ExtractGUANO(data); ok {
		_ = l.session.SetMetadata(0, wavfile.ParseGUANO(text))
	}

	logger.Debug("Demo recording loaded", logging.Fields{
		"bytes": len(data),
	})
	return l.session.Files()[0], nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.demoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create demo request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "audio/wav, */*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch demo recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("demo request failed with status %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo recording: %w", err)
	}
	return data, nil
}

// BeginUserLoad aborts a running demo fetch
func (l *Loader) BeginUserLoad() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
		l.logger.Debug("User load started, demo fetch cancelled")
	}
}

// LoadPaths adds user recordings to the session. Non-WAV names are ignored,
// the rest are sorted by name and filtered by MinFileSize and MaxDuration.
// The demo recording is dropped and the first added file becomes current.
func (l *Loader) LoadPaths(ctx context.Context, paths []string) (LoadResult, error) {
	var wavs []string
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".wav") {
			wavs = append(wavs, p)
		}
	}
	if len(wavs) == 0 {
		return LoadResult{}, ErrNoWAVFiles
	}

	l.BeginUserLoad()

	sort.SliceStable(wavs, func(i, j int) bool {
		return filepath.Base(wavs[i]) < filepath.Base(wavs[j])
	})

	var (
		result LoadResult
		metas  []wavfile.Metadata
	)
	for _, p := range wavs {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}

		name := filepath.Base(p)
		data, err := os.ReadFile(p)
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Name: name, Reason: SkipInvalid, Err: err})
			l.logger.Warn("Failed to read recording", logging.Fields{"path": p, "error": err.Error()})
			continue
		}

		dur, err := durationOf(data)
		switch {
		case err != nil:
			result.Skipped = append(result.Skipped, Skipped{Name: name, Reason: SkipInvalid, Err: err})
			continue
		case len(data) < MinFileSize:
			result.Skipped = append(result.Skipped, Skipped{Name: name, Reason: SkipTooSmall})
			continue
		case dur > MaxDuration:
			result.Skipped = append(result.Skipped, Skipped{Name: name, Reason: SkipTooLong})
			continue
		}

		md := wavfile.Metadata{}
		if text, ok := wavfile.ExtractGUANO(data); ok {
			md = wavfile.ParseGUANO(text)
		}
		result.Added = append(result.Added, File{
			Name:     name,
			Path:     p,
			Size:     int64(len(data)),
			Duration: dur,
		})
		metas = append(metas, md)
	}

	l.session.RemoveByName(DemoFileName)
	start := l.session.Len()
	if len(result.Added) > 0 {
		ids := l.session.AddFiles(result.Added, 0)
		for i := range result.Added {
			result.Added[i].ID = ids[i]
			if err := l.session.SetMetadata(start+i, metas[i]); err != nil {
				return result, fmt.Errorf("failed to store metadata: %w", err)
			}
		}
	}

	l.logger.Debug("User files loaded", logging.Fields{
		"added":         len(result.Added),
		"skipped_small": result.Count(SkipTooSmall),
		"skipped_long":  result.Count(SkipTooLong),
	})
	return result, nil
}

// durationOf returns the length of a WAV buffer in seconds
func durationOf(data []byte) (float64, error) {
	info, size, err := wavfile.ReadFormat(data)
	if err != nil {
		return 0, err
	}
	if info.SampleRate <= 0 || info.BlockAlign() <= 0 {
		return 0, fmt.Errorf("invalid wav format: %d Hz, %d byte frames", info.SampleRate, info.BlockAlign())
	}
	return float64(size) / float64(info.SampleRate*info.BlockAlign()), nil
}
