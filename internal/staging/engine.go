package staging

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"inmuebles_console/internal/media"
)

// Source is one entry of the staged image sequence: either an image already
// on the record (remote URL, no file payload) or a freshly chosen file backed
// by a checked-out preview handle. Primary status is never stored here; the
// source at position 0 is the primary image, always.
type Source struct {
	ID  string
	URL string

	name   string
	handle *Handle
}

// HasFile reports whether the source carries a not-yet-uploaded file payload.
func (s Source) HasFile() bool { return s.handle != nil }

// File is a newly chosen image handed to AddFiles.
type File struct {
	Name    string
	Content io.Reader
}

// Engine manages the image sequence of one editor session: staging new
// files, removing entries, manual reordering and the final conversion to
// permanently hosted URLs. The sequence is exclusively owned by its editor;
// the engine does not defend against mutation during an in-flight Finalize,
// callers must disable those controls while a submit is pending.
type Engine struct {
	alloc    *Allocator
	uploader media.Uploader
	sources  []Source
}

func NewEngine(alloc *Allocator, uploader media.Uploader) *Engine {
	return &Engine{alloc: alloc, uploader: uploader}
}

// Init seeds the sequence from the record's existing image URLs. The ids are
// derived from position and URL suffix so the same input always produces the
// same ids.
func (e *Engine) Init(existingURLs []string) {
	e.sources = make([]Source, 0, len(existingURLs))
	for i, url := range existingURLs {
		e.sources = append(e.sources, Source{
			ID:  existingID(i, url),
			URL: url,
		})
	}
}

func existingID(index int, url string) string {
	suffix := url
	if len(suffix) > 10 {
		suffix = suffix[len(suffix)-10:]
	}
	return fmt.Sprintf("existing-%d-%s", index, suffix)
}

// AddFiles stages the given files and appends them to the end of the
// sequence in input order. Each gets a fresh preview handle. Zero files is a
// no-op; on a staging failure nothing from the failed call is kept.
func (e *Engine) AddFiles(files ...File) error {
	added := make([]Source, 0, len(files))
	for _, f := range files {
		h, err := e.alloc.Checkout(f.Name, f.Content)
		if err != nil {
			for _, src := range added {
				e.alloc.Release(src.handle)
			}
			return err
		}
		added = append(added, Source{
			ID:     fmt.Sprintf("new-%d-%s", time.Now().UnixNano(), h.ID()),
			URL:    h.URL(),
			name:   f.Name,
			handle: h,
		})
	}
	e.sources = append(e.sources, added...)
	return nil
}

// Remove deletes the source with the given id and releases its handle if it
// owned one. Unknown ids are a no-op. Removing position 0 needs no special
// handling: the next entry is the primary by position.
func (e *Engine) Remove(id string) {
	for i, src := range e.sources {
		if src.ID == id {
			e.alloc.Release(src.handle)
			e.sources = append(e.sources[:i], e.sources[i+1:]...)
			return
		}
	}
}

// Reorder moves the element at from to position to, shifting the elements in
// between. Identifiers and payloads move with their source; handle ownership
// moves, it is never duplicated.
func (e *Engine) Reorder(from, to int) error {
	if from < 0 || from >= len(e.sources) || to < 0 || to >= len(e.sources) {
		return fmt.Errorf("reorder out of range: %d -> %d with %d images", from, to, len(e.sources))
	}
	moved := e.sources[from]
	rest := append(e.sources[:from], e.sources[from+1:]...)
	e.sources = append(rest[:to], append([]Source{moved}, rest[to:]...)...)
	return nil
}

// Sources returns a copy of the current sequence for rendering.
func (e *Engine) Sources() []Source {
	out := make([]Source, len(e.sources))
	copy(out, e.sources)
	return out
}

// Len returns the current sequence length.
func (e *Engine) Len() int { return len(e.sources) }

// Finalize uploads every file-backed source and returns the full URL
// sequence in the sequence order at call time. Uploads run concurrently and
// are joined; if any one fails the whole call fails and no partial result is
// returned. Sources without a payload pass their URL through unchanged.
func (e *Engine) Finalize(ctx context.Context) ([]string, error) {
	urls := make([]string, len(e.sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range e.sources {
		if !src.HasFile() {
			urls[i] = src.URL
			continue
		}
		i, src := i, src
		g.Go(func() error {
			f, err := src.handle.Open()
			if err != nil {
				return fmt.Errorf("could not read staged image %s: %w", src.ID, err)
			}
			defer f.Close()

			url, err := e.uploader.Upload(ctx, src.name, f)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Teardown releases every still-owned handle in the sequence. Pre-existing
// sources own no handle and are untouched. Calling it again is a no-op.
func (e *Engine) Teardown() {
	for _, src := range e.sources {
		e.alloc.Release(src.handle)
	}
}
