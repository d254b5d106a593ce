package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hkbatradar/Spectrogram/pkg/audio/wavfile"
)

// IconType names a per-file flag
type IconType string

const (
	IconTrash    IconType = "trash"
	IconStar     IconType = "star"
	IconQuestion IconType = "question"
)

// ParseIconType maps a flag name onto its IconType
func ParseIconType(s string) (IconType, error) {
	switch IconType(s) {
	case IconTrash, IconStar, IconQuestion:
		return IconType(s), nil
	}
	return "", fmt.Errorf("unknown file icon %q", s)
}

// Icons are the flags of one file
type Icons struct {
	Trash    bool `json:"trash" yaml:"trash"`
	Star     bool `json:"star" yaml:"star"`
	Question bool `json:"question" yaml:"question"`
}

func (i *Icons) toggle(t IconType) bool {
	switch t {
	case IconTrash:
		i.Trash = !i.Trash
		return i.Trash
	case IconStar:
		i.Star = !i.Star
		return i.Star
	default:
		i.Question = !i.Question
		return i.Question
	}
}

// File is one recording in the session. Path is empty for files that only
// live in memory, such as the demo recording.
type File struct {
	ID       uuid.UUID
	Name     string
	Path     string
	Size     int64
	Duration float64
	Data     []byte
}

type entry struct {
	file     File
	icons    Icons
	note     string
	metadata wavfile.Metadata
}

// Session holds the file list, the current file and the per-file flags,
// notes and metadata. It is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	entries []*entry
	current int
}

// New returns an empty session with no current file
func New() *Session {
	return &Session{current: -1}
}

func newEntry(f File) *entry {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return &entry{file: f}
}

// SetFiles replaces the file list and clears all flags, notes and metadata.
// index becomes the current file; -1 leaves none selected.
func (s *Session) SetFiles(files []File, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]*entry, 0, len(files))
	for _, f := range files {
		s.entries = append(s.entries, newEntry(f))
	}
	s.current = index
}

// AddFiles appends files and makes files[index] current. It returns the
// IDs assigned to the added files.
func (s *Session) AddFiles(files []File, index int) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.entries)
	ids := make([]uuid.UUID, 0, len(files))
	for _, f := range files {
		e := newEntry(f)
		s.entries = append(s.entries, e)
		ids = append(ids, e.file.ID)
	}
	s.current = start + index
	return ids
}

// Files returns a snapshot of the file list
func (s *Session) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]File, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.file
	}
	return out
}

// Len returns the number of files
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CurrentIndex returns the current file index, -1 when none
func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentIndex selects a file. Out of range indexes are ignored.
func (s *Session) SetCurrentIndex(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return false
	}
	s.current = index
	return true
}

// Current returns the current file
func (s *Session) Current() (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current < 0 || s.current >= len(s.entries) {
		return File{}, false
	}
	return s.entries[s.current].file, true
}

func (s *Session) at(index int) (*entry, error) {
	if index < 0 || index >= len(s.entries) {
		return nil, fmt.Errorf("file index %d out of range [0,%d)", index, len(s.entries))
	}
	return s.entries[index], nil
}

// ToggleIcon flips one flag of a file and returns its new value
func (s *Session) ToggleIcon(index int, icon IconType) (bool, error) {
	if _, err := ParseIconType(string(icon)); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.at(index)
	if err != nil {
		return false, err
	}
	return e.icons.toggle(icon), nil
}

// IconState returns the flags of a file. Unknown indexes read as all clear.
func (s *Session) IconState(index int) Icons {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.at(index)
	if err != nil {
		return Icons{}
	}
	return e.icons
}

// SetNote stores a free-text note for a file
func (s *Session) SetNote(index int, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.at(index)
	if err != nil {
		return err
	}
	e.note = note
	return nil
}

// Note returns the note of a file, "" when none
func (s *Session) Note(index int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.at(index)
	if err != nil {
		return ""
	}
	return e.note
}

// SetMetadata stores the recording metadata of a file
func (s *Session) SetMetadata(index int, md wavfile.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.at(index)
	if err != nil {
		return err
	}
	e.metadata = md
	return nil
}

// Metadata returns the recording metadata of a file. Unknown indexes and
// files without GUANO data read as empty fields.
func (s *Session) Metadata(index int) wavfile.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.at(index)
	if err != nil {
		return wavfile.Metadata{}
	}
	return e.metadata
}

// TrashCount returns how many files are flagged for trash
func (s *Session) TrashCount() int {
	return len(s.TrashNames())
}

// TrashNames returns the names of files flagged for trash, in list order
func (s *Session) TrashNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for _, e := range s.entries {
		if e.icons.Trash {
			names = append(names, e.file.Name)
		}
	}
	return names
}

// ClearTrash drops every trashed file. Flags, notes and metadata follow
// their files to the new indexes and the current file stays current if it
// survived; otherwise no file is current. It returns the number removed.
func (s *Session) ClearTrash() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *entry
	if s.current >= 0 && s.current < len(s.entries) {
		current = s.entries[s.current]
	}

	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if !e.icons.Trash {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	s.entries = kept

	s.current = -1
	for i, e := range s.entries {
		if e == current {
			s.current = i
			break
		}
	}
	return removed
}

// RemoveByName drops every file called name. When anything is removed no
// file stays current and all flags, notes and metadata are cleared.
func (s *Session) RemoveByName(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.file.Name != name {
			kept = append(kept, e)
		}
	}
	removed := len(s.entries) - len(kept)
	if removed == 0 {
		return 0
	}

	s.entries = kept
	s.current = -1
	for _, e := range s.entries {
		e.icons = Icons{}
		e.note = ""
		e.metadata = wavfile.Metadata{}
	}
	return removed
}

// Clear empties the session
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.current = -1
}
