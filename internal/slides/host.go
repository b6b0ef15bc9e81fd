package slides

import (
	"fmt"
	"sync"
)

// Image is a rendered slide image attachment.
type Image struct {
	Name string
	Data []byte
}

// Slide is the host-agnostic slide representation: title and body text,
// speaker notes (including the metadata block), and an optional image.
type Slide struct {
	ID    string
	Title string
	Body  string
	Notes string
	Image *Image
}

// DocumentHost is the opaque presentation-document surface. The real
// editor integration lives behind it; the in-memory implementation
// below serves standalone deployments and tests.
type DocumentHost interface {
	AppendSlide(slide Slide) (string, error)
	UpdateSlide(id string, slide Slide) error
	Slides() ([]Slide, error)
}

// MemoryHost keeps the deck in process memory, preserving append order.
type MemoryHost struct {
	mu     sync.RWMutex
	slides []Slide
	nextID int
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{}
}

func (h *MemoryHost) AppendSlide(slide Slide) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	slide.ID = fmt.Sprintf("slide-%d", h.nextID)
	h.slides = append(h.slides, slide)
	return slide.ID, nil
}

func (h *MemoryHost) UpdateSlide(id string, slide Slide) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.slides {
		if h.slides[i].ID == id {
			slide.ID = id
			h.slides[i] = slide
			return nil
		}
	}
	return fmt.Errorf("slide %s not found", id)
}

func (h *MemoryHost) Slides() ([]Slide, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Slide, len(h.slides))
	copy(out, h.slides)
	return out, nil
}
