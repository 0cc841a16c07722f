// Package media implements the listing media pipeline: bounded ingestion
// of image and video files, concurrent encoding into a durable form, and
// gallery operations (reorder, remove) with strict preview-resource
// cleanup.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/observability"
)

// Simulated progress: encoding is local, so progress is advanced on a
// fixed interval up to 90% for visual feedback, and jumps to 100% on
// completion.
const (
	progressInterval = 200 * time.Millisecond
	progressStep     = 15
	progressCeiling  = 90
)

// File is a raw input file handed to AcceptFiles.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Config bounds what a pipeline accepts.
type Config struct {
	MaxFiles         int
	MaxFileSizeBytes int64
	AcceptImages     bool
	AcceptVideos     bool
}

// CompletionHook is invoked with a snapshot of each item that finishes
// encoding successfully; cmd wiring uses it to publish media.encoded
// events.
type CompletionHook func(domain.MediaItem)

// ErrClosed is returned by operations on a torn-down pipeline.
var ErrClosed = errors.New("media pipeline is closed")

type item struct {
	id         string
	name       string
	kind       domain.MediaKind
	size       int64
	previewRef string
	release    func() error
	released   bool
	removed    bool
	progress   int
	status     domain.MediaStatus
	finalRef   string
	errMsg     string
	source     File // zeroed once processing completes
}

// Pipeline ingests and encodes one listing gallery's media. Items are
// processed independently and concurrently; callers must key on item IDs,
// not indices, when consuming results.
type Pipeline struct {
	cfg        Config
	encoder    Encoder
	previews   PreviewStore
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	onComplete CompletionHook

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	items  []*item
	closed bool
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

// WithClock substitutes the time source driving simulated progress.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithEncoder substitutes the media encoder.
func WithEncoder(e Encoder) Option {
	return func(p *Pipeline) { p.encoder = e }
}

// WithPreviewStore substitutes the preview resource store.
func WithPreviewStore(s PreviewStore) Option {
	return func(p *Pipeline) { p.previews = s }
}

// WithCompletionHook registers a hook for successfully encoded items.
func WithCompletionHook(h CompletionHook) Option {
	return func(p *Pipeline) { p.onComplete = h }
}

// New creates a Pipeline for one gallery.
func New(cfg Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:      cfg,
		encoder:  NewDataURLEncoder(),
		previews: &TempFileStore{},
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AcceptFiles validates and admits a batch. Files past the gallery
// capacity are dropped, not queued, and reported via CapacityError.
// Returns the number of items added to the set, including ones that
// entered Error at validation.
func (p *Pipeline) AcceptFiles(files []File) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}

	accepted := 0
	dropped := 0
	var scheduled []*item

	for _, f := range files {
		if len(p.items) >= p.cfg.MaxFiles {
			dropped++
			p.metrics.MediaItems.WithLabelValues(kindLabel(f.ContentType), "dropped").Inc()
			continue
		}

		it := &item{
			id:   uuid.NewString(),
			name: f.Name,
			size: int64(len(f.Data)),
		}

		ref, release, err := p.previews.Create(f.Name, f.Data)
		if err != nil {
			p.logger.Warn("preview allocation failed", "file", f.Name, "error", err)
		} else {
			it.previewRef = ref
			it.release = release
		}

		kind, supported := p.classify(f.ContentType)
		it.kind = kind
		switch {
		case !supported:
			it.status = domain.MediaError
			it.errMsg = domain.MsgUnsupportedFileType
			p.metrics.MediaItems.WithLabelValues(kindLabel(f.ContentType), "rejected").Inc()
		case it.size > p.cfg.MaxFileSizeBytes:
			it.status = domain.MediaError
			it.errMsg = domain.OversizeMessage(p.cfg.MaxFileSizeBytes)
			p.metrics.MediaItems.WithLabelValues(string(kind), "rejected").Inc()
		default:
			it.status = domain.MediaUploading
			it.source = f
			scheduled = append(scheduled, it)
		}

		p.items = append(p.items, it)
		accepted++
	}

	for _, it := range scheduled {
		p.wg.Add(1)
		go p.process(it)
	}
	p.mu.Unlock()

	if dropped > 0 {
		return accepted, &domain.CapacityError{Max: p.cfg.MaxFiles, Dropped: dropped}
	}
	return accepted, nil
}

// Remove releases the item's preview and drops it from the set. Other
// items keep their order. Returns false if no item has that id.
func (p *Pipeline) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	for i, it := range p.items {
		if it.id != id {
			continue
		}
		it.removed = true
		p.releaseLocked(it)
		p.items = append(p.items[:i], p.items[i+1:]...)
		return true
	}
	return false
}

// Reorder moves the item at from to position to, shifting the items in
// between. Equal indices are a no-op.
func (p *Pipeline) Reorder(from, to int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if from < 0 || from >= len(p.items) || to < 0 || to >= len(p.items) {
		return fmt.Errorf("reorder: index out of range (%d -> %d of %d)", from, to, len(p.items))
	}
	if from == to {
		return nil
	}
	it := p.items[from]
	rest := append(p.items[:from:from], p.items[from+1:]...)
	p.items = append(rest[:to:to], append([]*item{it}, rest[to:]...)...)
	return nil
}

// Items returns ordered snapshots of the current set.
func (p *Pipeline) Items() []domain.MediaItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.MediaItem, len(p.items))
	for i, it := range p.items {
		out[i] = snapshot(it)
	}
	return out
}

// Close tears the pipeline down: in-flight results are discarded and every
// remaining preview is released exactly once.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range p.items {
		p.releaseLocked(it)
	}
	p.items = nil
}

// process encodes one item. Never blocks or fails another item.
func (p *Pipeline) process(it *item) {
	defer p.wg.Done()

	start := time.Now()
	animationDone := make(chan struct{})
	go p.animateProgress(it, animationDone)

	ref, err := p.encoder.Encode(p.ctx, it.source, it.kind)
	close(animationDone)

	p.mu.Lock()
	if p.closed || p.ctx.Err() != nil || it.removed {
		p.mu.Unlock()
		return
	}

	var completed domain.MediaItem
	if err != nil {
		p.logger.Warn("media encode failed", "item_id", it.id, "file", it.name, "error", err)
		it.status = domain.MediaError
		it.errMsg = domain.MsgUploadFailed
		it.source = File{}
		p.metrics.MediaItems.WithLabelValues(string(it.kind), "error").Inc()
		p.mu.Unlock()
		return
	}

	it.status = domain.MediaComplete
	it.progress = 100
	it.finalRef = ref
	it.source = File{}
	p.metrics.MediaItems.WithLabelValues(string(it.kind), "complete").Inc()
	p.metrics.MediaEncodeDuration.Observe(time.Since(start).Seconds())
	completed = snapshot(it)
	hook := p.onComplete
	p.mu.Unlock()

	if hook != nil {
		hook(completed)
	}
}

// animateProgress advances the item toward the ceiling until encoding
// finishes.
func (p *Pipeline) animateProgress(it *item, done <-chan struct{}) {
	ticker := p.clock.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-p.ctx.Done():
			return
		case <-ticker.Chan():
			p.mu.Lock()
			if it.status == domain.MediaUploading && it.progress < progressCeiling {
				it.progress += progressStep
				if it.progress > progressCeiling {
					it.progress = progressCeiling
				}
			}
			p.mu.Unlock()
		}
	}
}

func (p *Pipeline) classify(contentType string) (domain.MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.MediaImage, p.cfg.AcceptImages
	case strings.HasPrefix(contentType, "video/"):
		return domain.MediaVideo, p.cfg.AcceptVideos
	default:
		return "", false
	}
}

func (p *Pipeline) releaseLocked(it *item) {
	if it.released || it.release == nil {
		return
	}
	it.released = true
	if err := it.release(); err != nil {
		p.logger.Warn("preview release failed", "item_id", it.id, "error", err)
	}
}

func snapshot(it *item) domain.MediaItem {
	return domain.MediaItem{
		ID:           it.id,
		Name:         it.name,
		Kind:         it.kind,
		PreviewRef:   it.previewRef,
		Progress:     it.progress,
		Status:       it.status,
		FinalRef:     it.finalRef,
		ErrorMessage: it.errMsg,
		SizeBytes:    it.size,
	}
}

func kindLabel(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return string(domain.MediaImage)
	case strings.HasPrefix(contentType, "video/"):
		return string(domain.MediaVideo)
	default:
		return "unknown"
	}
}
