package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// PreviewPathPrefix is where the HTTP layer serves staged previews from. A
// handle's URL is this prefix plus its id, the server-side analog of a
// browser object URL.
const PreviewPathPrefix = "/api/staging/previews/"

// Handle is a checked-out temporary preview file backing one staged upload.
// A handle has exactly one owner at a time and must be released exactly once;
// releasing it deletes the file.
type Handle struct {
	id   string
	path string
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) URL() string { return PreviewPathPrefix + h.id }

// Open returns the preview file for reading. The caller closes it.
func (h *Handle) Open() (*os.File, error) {
	return os.Open(h.path)
}

// Allocator owns every live preview file. Checkout registers the handle in
// the owning set; Release removes it and deletes the file. Releasing a handle
// that is no longer owned is a no-op, so teardown paths may overlap safely.
type Allocator struct {
	dir string

	mu    sync.Mutex
	owned map[string]*Handle
}

func NewAllocator(dir string) (*Allocator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create staging dir: %w", err)
	}
	return &Allocator{
		dir:   dir,
		owned: make(map[string]*Handle),
	}, nil
}

func (a *Allocator) Checkout(filename string, r io.Reader) (*Handle, error) {
	id := uuid.New().String()
	path := filepath.Join(a.dir, id+filepath.Ext(filename))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not stage file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("could not stage file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("could not stage file: %w", err)
	}

	h := &Handle{id: id, path: path}
	a.mu.Lock()
	a.owned[id] = h
	a.mu.Unlock()
	return h, nil
}

func (a *Allocator) Release(h *Handle) {
	if h == nil {
		return
	}
	a.mu.Lock()
	_, ok := a.owned[h.id]
	delete(a.owned, h.id)
	a.mu.Unlock()

	if ok {
		os.Remove(h.path)
	}
}

// Lookup returns the owned handle with the given id, for preview serving.
func (a *Allocator) Lookup(id string) (*Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.owned[id]
	return h, ok
}

// Owned reports how many handles are currently checked out.
func (a *Allocator) Owned() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.owned)
}
