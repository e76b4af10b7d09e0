package sinklog

import (
	"bufio"
	"bytes"
	stderrs "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFile records writes and whether it was closed.
type memFile struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (f *memFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.buf.Write(p)
}

func (f *memFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *memFile) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf.String()
}

// memOpener hands out one memFile per path and counts opens.
type memOpener struct {
	mu    sync.Mutex
	files map[string]*memFile
	opens map[string]int
	fail  error
}

func newMemOpener() *memOpener {
	return &memOpener{files: map[string]*memFile{}, opens: map[string]int{}}
}

func (o *memOpener) open(path string) (io.WriteCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return nil, o.fail
	}
	o.opens[path]++
	f := &memFile{}
	o.files[path] = f
	return f, nil
}

func (o *memOpener) file(path string) *memFile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.files[registryKey(path)]
}

func (o *memOpener) openCount(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens[registryKey(path)]
}

func TestRegistry_AcquireOpenRelease(t *testing.T) {
	opener := newMemOpener()
	reg := NewRegistry(WithOpener(opener.open))

	a := reg.Acquire("shared.log")
	b := reg.Acquire("shared.log")
	assert.Equal(t, 2, reg.Refs("shared.log"))
	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.IsOpen("shared.log"), "acquire must not open")

	require.NoError(t, a.Open())
	require.NoError(t, a.Open(), "open is idempotent")
	require.NoError(t, b.Open())
	assert.Equal(t, 1, opener.openCount("shared.log"))
	assert.True(t, reg.IsOpen("shared.log"))

	_, err := a.Write([]byte("from a\n"))
	require.NoError(t, err)
	_, err = b.Write([]byte("from b\n"))
	require.NoError(t, err)

	require.NoError(t, a.Release())
	require.NoError(t, a.Release(), "release is idempotent")
	assert.Equal(t, 1, reg.Refs("shared.log"))
	assert.True(t, reg.IsOpen("shared.log"))

	_, err = b.Write([]byte("still open\n"))
	require.NoError(t, err)

	f := opener.file("shared.log")
	require.NoError(t, b.Release())
	assert.Equal(t, 0, reg.Refs("shared.log"))
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.IsOpen("shared.log"))
	assert.True(t, f.closed)
	assert.Equal(t, "from a\nfrom b\nstill open\n", f.String())
}

func TestRegistry_PathIdentity(t *testing.T) {
	reg := NewRegistry(WithOpener(newMemOpener().open))
	a := reg.Acquire("logs/app.log")
	b := reg.Acquire("./logs/../logs/app.log")
	defer a.Release()
	defer b.Release()

	assert.Equal(t, a.Path(), b.Path())
	assert.Equal(t, 2, reg.Refs("logs/app.log"))
}

func TestStream_Clone(t *testing.T) {
	opener := newMemOpener()
	reg := NewRegistry(WithOpener(opener.open))

	s := reg.Acquire("c.log")
	require.NoError(t, s.Open())

	c, err := s.Clone()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Refs("c.log"))

	_, err = c.Write([]byte("clone\n"))
	require.NoError(t, err, "clone shares the open handle")
	assert.Equal(t, 1, opener.openCount("c.log"))

	require.NoError(t, s.Release())
	_, err = c.Write([]byte("after original released\n"))
	require.NoError(t, err)

	require.NoError(t, c.Release())
	assert.Equal(t, "clone\nafter original released\n", opener.file("c.log").String())

	_, err = c.Clone()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrResource))
}

func TestStream_WriteRequiresOpen(t *testing.T) {
	reg := NewRegistry(WithOpener(newMemOpener().open))
	s := reg.Acquire("w.log")

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	require.NoError(t, s.Open())
	require.NoError(t, s.Release())

	_, err = s.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	err = s.Open()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrResource))
}

func TestStream_OpenFailure(t *testing.T) {
	opener := newMemOpener()
	opener.fail = stderrs.New("disk on fire")
	reg := NewRegistry(WithOpener(opener.open))

	s := reg.Acquire("broken.log")
	err := s.Open()
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrResource))
	assert.False(t, reg.IsOpen("broken.log"))

	require.NoError(t, s.Release())
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_RealFile(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "nested", "real.log")

	s := reg.Acquire(path)
	require.NoError(t, s.Open())
	_, err := s.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, s.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))

	// Reopening appends.
	s = reg.Acquire(path)
	require.NoError(t, s.Open())
	_, err = s.Write([]byte("again\n"))
	require.NoError(t, err)
	require.NoError(t, s.Release())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\nagain\n", string(data))
}

func TestRegistry_ConcurrentWritesAreNotInterleaved(t *testing.T) {
	reg := NewRegistry()
	path := filepath.Join(t.TempDir(), "concurrent.log")

	const writers, lines = 8, 200
	streams := make([]*Stream, writers)
	for i := range streams {
		streams[i] = reg.Acquire(path)
		require.NoError(t, streams[i].Open())
	}

	var wg sync.WaitGroup
	for i, s := range streams {
		wg.Add(1)
		go func(id int, s *Stream) {
			defer wg.Done()
			for n := 0; n < lines; n++ {
				_, _ = s.Write([]byte(fmt.Sprintf("writer-%d line-%d %s\n", id, n, strings.Repeat("x", 64))))
			}
		}(i, s)
	}
	wg.Wait()

	for _, s := range streams {
		require.NoError(t, s.Release())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	count := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var id, n int
		var pad string
		_, err := fmt.Sscanf(sc.Text(), "writer-%d line-%d %s", &id, &n, &pad)
		require.NoError(t, err, sc.Text())
		assert.Len(t, pad, 64)
		count++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, writers*lines, count)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestRegistry_ConcurrentRefcounting(t *testing.T) {
	opener := newMemOpener()
	reg := NewRegistry(WithOpener(opener.open))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			path := fmt.Sprintf("refs-%d.log", id%3)
			s := reg.Acquire(path)
			if err := s.Open(); err != nil {
				t.Error(err)
				return
			}
			c, err := s.Clone()
			if err != nil {
				t.Error(err)
				return
			}
			_, _ = c.Write([]byte("x\n"))
			_ = s.Release()
			_, _ = c.Write([]byte("y\n"))
			_ = c.Release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Len())
	for i := 0; i < 3; i++ {
		path := fmt.Sprintf("refs-%d.log", i)
		assert.Equal(t, 0, reg.Refs(path))
		assert.False(t, reg.IsOpen(path))
	}

	opener.mu.Lock()
	defer opener.mu.Unlock()
	for path, f := range opener.files {
		assert.True(t, f.closed, path)
	}
}

func TestStream_OpenRacingRelease(t *testing.T) {
	opener := newMemOpener()
	reg := NewRegistry(WithOpener(opener.open))

	for i := 0; i < 100; i++ {
		s := reg.Acquire("race.log")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Open()
		}()
		go func() {
			defer wg.Done()
			_ = s.Release()
		}()
		wg.Wait()

		require.Equal(t, 0, reg.Len())
		require.False(t, reg.IsOpen("race.log"))
		if f := opener.file("race.log"); f != nil {
			f.mu.Lock()
			closed := f.closed
			f.mu.Unlock()
			require.True(t, closed, "a handle opened for a released stream must be closed")
		}
	}
}

func TestNewRegistry_OpensRealFiles(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Len())

	path := filepath.Join(t.TempDir(), "default.log")
	s := reg.Acquire(path)
	require.NoError(t, s.Open())
	_, err := s.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, s.Release())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
	assert.Equal(t, 0, reg.Len())
}
