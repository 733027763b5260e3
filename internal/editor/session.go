// Package editor is the landing-side file editor collaborator. Reads and
// writes run in the background; results are applied when the simulation
// polls, so a failing read never blocks or corrupts a tick.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/checksum"
)

// sniffLen is how much of a file is inspected for a binary signature.
const sniffLen = 8192

// Files is the file backend the editor talks to.
type Files interface {
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
}

// Status is what the HUD shows for the editor.
type Status struct {
	Open      bool   `json:"open"`
	Path      string `json:"path,omitempty"`
	Content   string `json:"content,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Loading   bool   `json:"loading"`
	Saving    bool   `json:"saving"`
	Editable  bool   `json:"editable"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type opKind int

const (
	opRead opKind = iota
	opWrite
)

type result struct {
	id      string
	op      opKind
	content []byte
	err     error
}

// Session is one editor panel. Open, Save, Close and Poll are called from
// the simulation goroutine; only the I/O runs elsewhere.
type Session struct {
	files  Files
	logger *slog.Logger

	status  Status
	pending string

	mu      sync.Mutex
	mailbox []result
	wg      sync.WaitGroup
}

// NewSession creates a closed editor session.
func NewSession(files Files, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{files: files, logger: logger}
}

// Status returns the current status without polling.
func (s *Session) Status() Status {
	return s.status
}

// Open starts reading path. A previous in-flight request is superseded.
func (s *Session) Open(path string) {
	id := uuid.NewString()
	s.pending = id
	s.status = Status{Open: true, Path: path, Loading: true, RequestID: id}
	s.spawn(func() result {
		data, err := s.files.Read(path)
		if err == nil && IsBinary(data) {
			err = apperr.ErrBinaryFile
		}
		return result{id: id, op: opRead, content: data, err: err}
	})
}

// Save starts writing content to the open file. Only a file whose last
// read succeeded can be saved.
func (s *Session) Save(content string) {
	if !s.status.Open || s.status.Loading {
		s.status.Error = "nothing to save"
		return
	}
	if !s.status.Editable {
		s.logger.Warn("editor save refused", slog.String("path", s.status.Path))
		s.status.Error = "file is not editable"
		return
	}
	id := uuid.NewString()
	s.pending = id
	path := s.status.Path
	s.status.Saving = true
	s.status.Error = ""
	s.status.RequestID = id
	data := []byte(content)
	s.spawn(func() result {
		return result{id: id, op: opWrite, content: data, err: s.files.Write(path, data)}
	})
}

// Close hides the panel. Late results are dropped.
func (s *Session) Close() {
	s.pending = ""
	s.status = Status{}
}

// Poll applies finished I/O results and returns the new status.
func (s *Session) Poll() Status {
	s.mu.Lock()
	box := s.mailbox
	s.mailbox = nil
	s.mu.Unlock()

	for _, r := range box {
		if r.id != s.pending {
			continue
		}
		s.apply(r)
	}
	return s.status
}

// Wait blocks until in-flight I/O has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) spawn(fn func() result) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		r := fn()
		s.mu.Lock()
		s.mailbox = append(s.mailbox, r)
		s.mu.Unlock()
	}()
}

func (s *Session) apply(r result) {
	switch r.op {
	case opRead:
		s.status.Loading = false
		s.status.Editable = r.err == nil
		if r.err != nil {
			s.status.Error = describe("open", r.err)
			s.logger.Warn("editor read failed", slog.String("path", s.status.Path), slog.String("error", r.err.Error()))
			return
		}
		s.status.Content = string(r.content)
		s.status.Checksum = checksum.Sum(r.content)
		s.status.Error = ""
	case opWrite:
		s.status.Saving = false
		if r.err != nil {
			s.status.Error = describe("save", r.err)
			s.logger.Warn("editor write failed", slog.String("path", s.status.Path), slog.String("error", r.err.Error()))
			return
		}
		s.status.Content = string(r.content)
		s.status.Checksum = checksum.Sum(r.content)
	}
}

func describe(op string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrBinaryFile):
		return "binary files cannot be edited"
	case errors.Is(err, apperr.ErrNotFound):
		return "file not found"
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

// IsBinary reports whether data looks like a binary file: a known binary
// signature, a NUL byte, or invalid UTF-8 in the sniffed prefix.
func IsBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if len(head) == 0 {
		return false
	}
	if kind, _ := filetype.Match(head); kind != filetype.Unknown {
		return true
	}
	for _, b := range head {
		if b == 0 {
			return true
		}
	}
	// A multi-byte rune may straddle the cut.
	for i := 0; i < utf8.UTFMax && len(head) > 0; i++ {
		if utf8.Valid(head) {
			return false
		}
		if len(data) <= sniffLen {
			return true
		}
		head = head[:len(head)-1]
	}
	return true
}
