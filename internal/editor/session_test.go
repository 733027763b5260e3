package editor

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/checksum"
)

type memFiles struct {
	mu       sync.Mutex
	data     map[string][]byte
	writeErr error
}

func (m *memFiles) Read(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d, nil
}

func (m *memFiles) Write(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[path] = content
	return nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func newFiles() *memFiles {
	return &memFiles{data: map[string][]byte{
		"/src/main.go": []byte("package main\n"),
		"/logo.png":    pngHeader,
	}}
}

func settle(s *Session) Status {
	s.Wait()
	return s.Poll()
}

func TestOpenLoadsContent(t *testing.T) {
	s := NewSession(newFiles(), nil)
	s.Open("/src/main.go")
	assert.True(t, s.Status().Loading)
	assert.NotEmpty(t, s.Status().RequestID)

	st := settle(s)
	assert.True(t, st.Open)
	assert.False(t, st.Loading)
	assert.Equal(t, "package main\n", st.Content)
	assert.Equal(t, checksum.Sum([]byte("package main\n")), st.Checksum)
	assert.Empty(t, st.Error)
}

func TestOpenErrorsAreInline(t *testing.T) {
	s := NewSession(newFiles(), nil)
	s.Open("/missing.go")
	st := settle(s)
	assert.False(t, st.Loading)
	assert.Equal(t, "file not found", st.Error)

	s.Open("/logo.png")
	st = settle(s)
	assert.Equal(t, "binary files cannot be edited", st.Error)
	assert.Empty(t, st.Content)
}

func TestSaveWritesAndUpdatesChecksum(t *testing.T) {
	files := newFiles()
	s := NewSession(files, nil)
	s.Open("/src/main.go")
	settle(s)

	s.Save("package main\n\nfunc main() {}\n")
	assert.True(t, s.Status().Saving)
	st := settle(s)
	assert.False(t, st.Saving)
	assert.Empty(t, st.Error)
	assert.Equal(t, checksum.Sum([]byte("package main\n\nfunc main() {}\n")), st.Checksum)
	assert.Equal(t, "package main\n\nfunc main() {}\n", string(files.data["/src/main.go"]))
}

func TestSaveFailureKeepsContent(t *testing.T) {
	files := newFiles()
	s := NewSession(files, nil)
	s.Open("/src/main.go")
	settle(s)

	files.writeErr = errors.New("disk full")
	s.Save("changed")
	st := settle(s)
	assert.Equal(t, "save failed: disk full", st.Error)
	assert.Equal(t, "package main\n", st.Content)
}

func TestSaveWithoutOpenFile(t *testing.T) {
	s := NewSession(newFiles(), nil)
	s.Save("x")
	assert.Equal(t, "nothing to save", s.Status().Error)
	assert.False(t, s.Status().Saving)
}

func TestSaveRefusedAfterFailedOpen(t *testing.T) {
	files := newFiles()
	s := NewSession(files, nil)

	s.Open("/logo.png")
	st := settle(s)
	require.True(t, st.Open)
	assert.False(t, st.Editable)

	s.Save("")
	assert.False(t, s.Status().Saving)
	st = settle(s)
	assert.Equal(t, "file is not editable", st.Error)
	assert.Equal(t, pngHeader, files.data["/logo.png"])

	s.Open("/missing.go")
	settle(s)
	s.Save("created")
	st = settle(s)
	assert.Equal(t, "file is not editable", st.Error)
	_, exists := files.data["/missing.go"]
	assert.False(t, exists)
}

func TestSaveFailureKeepsFileEditable(t *testing.T) {
	files := newFiles()
	s := NewSession(files, nil)
	s.Open("/src/main.go")
	assert.False(t, s.Status().Editable)
	assert.True(t, settle(s).Editable)

	files.writeErr = errors.New("disk full")
	s.Save("changed")
	st := settle(s)
	assert.True(t, st.Editable)

	files.writeErr = nil
	s.Save("changed")
	st = settle(s)
	assert.Empty(t, st.Error)
	assert.Equal(t, "changed", string(files.data["/src/main.go"]))
}

func TestStaleResultsAreDropped(t *testing.T) {
	s := NewSession(newFiles(), nil)
	s.Open("/missing.go")
	s.Open("/src/main.go")
	st := settle(s)
	assert.Equal(t, "/src/main.go", st.Path)
	assert.Empty(t, st.Error)

	s.Open("/src/main.go")
	s.Close()
	st = settle(s)
	assert.Equal(t, Status{}, st)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary(nil))
	assert.False(t, IsBinary([]byte("héllo wörld\n")))
	assert.True(t, IsBinary(pngHeader))
	assert.True(t, IsBinary([]byte("abc\x00def")))
	assert.True(t, IsBinary([]byte{0xff, 0xfe, 0xfd}))

	// A multi-byte rune cut at the sniff boundary is still text.
	long := strings.Repeat("a", sniffLen-1) + "é" + "tail"
	require.Greater(t, len(long), sniffLen)
	assert.False(t, IsBinary([]byte(long)))
}
