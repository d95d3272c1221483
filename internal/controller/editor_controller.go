package controller

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"inmuebles_console/internal/editor"
	"inmuebles_console/internal/media"
	"inmuebles_console/internal/records"
	"inmuebles_console/internal/staging"
	"inmuebles_console/internal/store"
)

// editorSession is one open property form. The pending flag is how the HTTP
// layer disables duplicate submissions and image mutations while a submit's
// uploads are in flight.
type editorSession struct {
	editor   *editor.Editor
	lastUsed time.Time
	pending  bool
}

type EditorController struct {
	listings *store.ListingStore
	orch     *records.Orchestrator
	alloc    *staging.Allocator
	uploader media.Uploader

	mu       sync.Mutex
	sessions map[string]*editorSession
}

func NewEditorController(listings *store.ListingStore, orch *records.Orchestrator, alloc *staging.Allocator, uploader media.Uploader) *EditorController {
	return &EditorController{
		listings: listings,
		orch:     orch,
		alloc:    alloc,
		uploader: uploader,
		sessions: make(map[string]*editorSession),
	}
}

type OpenEditorInput struct {
	PropertyID string `json:"property_id"`
}

// OpenEditor starts an editor session, seeded from an existing record when a
// property id is given.
func (ec *EditorController) OpenEditor(c *fiber.Ctx) error {
	input := new(OpenEditorInput)
	if err := c.BodyParser(input); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	ed := editor.New(staging.NewEngine(ec.alloc, ec.uploader))

	if input.PropertyID != "" {
		prior, ok := ec.listings.Get(input.PropertyID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Property not found",
			})
		}
		ed.Load(prior)
	} else {
		ed.Load(nil)
	}

	sessionID := uuid.New().String()
	ec.mu.Lock()
	ec.sessions[sessionID] = &editorSession{editor: ed, lastUsed: time.Now()}
	ec.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": sessionID,
		"form":       ed.Form(),
		"images":     renderSources(ed.Staging().Sources()),
	})
}

// UpdateForm replaces the session's field state.
func (ec *EditorController) UpdateForm(c *fiber.Ctx) error {
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	form := new(editor.Form)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	if sess.pending {
		return pendingResponse(c)
	}
	sess.editor.SetForm(*form)
	sess.lastUsed = time.Now()

	return c.JSON(fiber.Map{"form": sess.editor.Form()})
}

// AddImages stages the uploaded files and appends them to the sequence in
// the order they were sent.
func (ec *EditorController) AddImages(c *fiber.Ctx) error {
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	var files []staging.File
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, header := range form.File["images"] {
		src, err := header.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Could not read uploaded file",
			})
		}
		opened = append(opened, src)
		files = append(files, staging.File{Name: header.Filename, Content: src})
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	if sess.pending {
		return pendingResponse(c)
	}
	if err := sess.editor.Staging().AddFiles(files...); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not stage images",
		})
	}
	sess.lastUsed = time.Now()

	return c.JSON(fiber.Map{"images": renderSources(sess.editor.Staging().Sources())})
}

// RemoveImage drops one image source; its staged preview is released.
func (ec *EditorController) RemoveImage(c *fiber.Ctx) error {
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	if sess.pending {
		return pendingResponse(c)
	}
	sess.editor.Staging().Remove(c.Params("image_id"))
	sess.lastUsed = time.Now()

	return c.JSON(fiber.Map{"images": renderSources(sess.editor.Staging().Sources())})
}

type ReorderInput struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ReorderImages moves one image to a new position; whatever ends up first is
// the new primary image.
func (ec *EditorController) ReorderImages(c *fiber.Ctx) error {
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	input := new(ReorderInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()
	if sess.pending {
		return pendingResponse(c)
	}
	if err := sess.editor.Staging().Reorder(input.From, input.To); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	sess.lastUsed = time.Now()

	return c.JSON(fiber.Map{"images": renderSources(sess.editor.Staging().Sources())})
}

// Submit validates, uploads and persists. Validation and upload failures
// leave the session open with its state intact; success closes it.
func (ec *EditorController) Submit(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	ec.mu.Lock()
	if sess.pending {
		ec.mu.Unlock()
		return pendingResponse(c)
	}
	sess.pending = true
	ec.mu.Unlock()

	payload, err := sess.editor.Submit(c.Context())
	if err != nil {
		ec.mu.Lock()
		sess.pending = false
		sess.lastUsed = time.Now()
		ec.mu.Unlock()

		var verr *editor.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Validation failed",
				"fields": verr.Fields,
			})
		}
		var uerr *editor.UploadError
		if errors.As(err, &uerr) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Hubo un error al guardar la propiedad.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not submit property",
		})
	}

	id, err := ec.orch.Save(c.Context(), payload)
	if err != nil {
		ec.mu.Lock()
		sess.pending = false
		sess.lastUsed = time.Now()
		ec.mu.Unlock()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save property",
		})
	}

	sess.editor.Close()
	ec.mu.Lock()
	delete(ec.sessions, sessionID)
	ec.mu.Unlock()

	return c.JSON(fiber.Map{"id": id})
}

// Cancel discards the session without persisting anything.
func (ec *EditorController) Cancel(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	sess, errResp := ec.session(c)
	if sess == nil {
		return errResp
	}

	ec.mu.Lock()
	if sess.pending {
		ec.mu.Unlock()
		return pendingResponse(c)
	}
	delete(ec.sessions, sessionID)
	ec.mu.Unlock()

	sess.editor.Cancel()
	return c.SendStatus(fiber.StatusNoContent)
}

// ServePreview streams a staged preview file, the object-URL analog for the
// form's thumbnails.
func (ec *EditorController) ServePreview(c *fiber.Ctx) error {
	h, ok := ec.alloc.Lookup(c.Params("handle_id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Preview not found",
		})
	}

	f, err := h.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not open preview",
		})
	}

	// Staged files carry no stored media type, so sniff it from the first
	// bytes before streaming.
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not read preview",
		})
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(head[:n]))

	return c.SendStream(&previewStream{
		Reader: io.MultiReader(bytes.NewReader(head[:n]), f),
		file:   f,
	})
}

// previewStream closes the underlying file once the response body has been
// fully streamed.
type previewStream struct {
	io.Reader
	file *os.File
}

func (p *previewStream) Close() error { return p.file.Close() }

// SweepIdle tears down sessions idle past the TTL and returns how many were
// reclaimed. Wired to the cron sweeper.
func (ec *EditorController) SweepIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	ec.mu.Lock()
	var expired []*editorSession
	for id, sess := range ec.sessions {
		if !sess.pending && sess.lastUsed.Before(cutoff) {
			expired = append(expired, sess)
			delete(ec.sessions, id)
		}
	}
	ec.mu.Unlock()

	for _, sess := range expired {
		sess.editor.Cancel()
	}
	if len(expired) > 0 {
		log.Printf("Reclaimed %d idle editor sessions", len(expired))
	}
	return len(expired)
}

func (ec *EditorController) session(c *fiber.Ctx) (*editorSession, error) {
	ec.mu.Lock()
	sess, ok := ec.sessions[c.Params("session_id")]
	ec.mu.Unlock()
	if !ok {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Editor session not found",
		})
	}
	return sess, nil
}

func pendingResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": "A submission is already in progress",
	})
}

func renderSources(sources []staging.Source) []fiber.Map {
	out := make([]fiber.Map, 0, len(sources))
	for i, src := range sources {
		out = append(out, fiber.Map{
			"id":      src.ID,
			"url":     src.URL,
			"primary": i == 0,
		})
	}
	return out
}
