package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jorabin/sounds/internal/audio"
	"github.com/jorabin/sounds/internal/cadence"
	"github.com/jorabin/sounds/internal/observe"
	"github.com/jorabin/sounds/internal/playback"
	"github.com/jorabin/sounds/internal/queue"
)

// DefaultGracePeriod is added to the expected wait of a blocking submit.
const DefaultGracePeriod = 2 * time.Second

// Option configures a Player.
type Option func(*Player)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(p *Player) {
		p.queueSize = n
	}
}

// WithGracePeriod sets the slack allowed beyond the expected wait of a
// blocking submit.
func WithGracePeriod(d time.Duration) Option {
	return func(p *Player) {
		if d >= 0 {
			p.grace = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Player) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithPlaybackOptions passes options through to the section playback.
func WithPlaybackOptions(opts ...playback.Option) Option {
	return func(p *Player) {
		p.playbackOpts = append(p.playbackOpts, opts...)
	}
}

// Stats summarizes player activity.
type Stats struct {
	Queue     queue.Stats
	Played    int64
	Completed int64
	Abandoned int64
	Failed    int64
	Current   string
}

// Player owns a queue of sections and the worker goroutine that plays them.
type Player struct {
	renderer     audio.Renderer
	queueSize    int
	grace        time.Duration
	logger       *log.Logger
	metrics      *observe.Metrics
	playbackOpts []playback.Option

	queue    *queue.Queue
	playback *playback.Playback

	// stopCtx ends the worker's wait for the next item
	stopCtx    context.Context
	stopCancel context.CancelFunc
	done       chan struct{}

	// mu guards the fields below and orders enqueue against cancel
	mu            sync.Mutex
	opened        bool
	shutdown      bool
	current       *queue.Item
	currentStart  time.Time
	cancelCurrent context.CancelFunc
	stats         Stats

	// fatal is called when the worker exits without a shutdown request
	fatal func(msg string)
}

// New creates a player that renders through r. Call Open to start the
// worker.
func New(r audio.Renderer, opts ...Option) *Player {
	p := &Player{
		renderer:  r,
		queueSize: queue.DefaultCapacity,
		grace:     DefaultGracePeriod,
		logger:    log.Default(),
		metrics:   observe.DefaultMetrics(),
		done:      make(chan struct{}),
		fatal:     func(msg string) { panic(msg) },
	}
	for _, opt := range opts {
		opt(p)
	}

	p.queue = queue.New(p.queueSize)
	p.playback = playback.New(r, append([]playback.Option{playback.WithLogger(p.logger)}, p.playbackOpts...)...)
	p.stopCtx, p.stopCancel = context.WithCancel(context.Background())
	return p
}

// Open starts the worker goroutine.
func (p *Player) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return ErrShutdown
	}
	if p.opened {
		return ErrAlreadyOpen
	}
	p.opened = true

	go p.run()
	p.logger.Debug("player opened", "queue", p.queue.Cap())
	return nil
}

// Enqueue adds item to the queue without blocking. It returns false when
// the section cannot be played, the queue is full or the player is shutting
// down.
func (p *Player) Enqueue(item *queue.Item) bool {
	if err := checkSection(item.Section); err != nil {
		p.logger.Warn("section refused", "section", item.Section, "error", err)
		return false
	}
	remove := item.AddListener(p.logTransition)

	p.mu.Lock()
	accepted := !p.shutdown && p.queue.Offer(item)
	p.mu.Unlock()

	p.metrics.RecordEnqueue(context.Background(), accepted)
	if !accepted {
		remove()
		p.logger.Warn("section refused", "section", item.Section.Description, "queued", p.queue.Len())
		return false
	}
	return true
}

// Submit queues section. When block is true it waits until the item reaches
// a terminal status, ctx ends, or the expected time plus the grace period
// has passed.
func (p *Player) Submit(ctx context.Context, section *cadence.Section, block bool) (*queue.Item, error) {
	if err := checkSection(section); err != nil {
		return nil, err
	}
	item := queue.NewItem(section)
	ahead := p.expectedWait()

	if !p.Enqueue(item) {
		return item, fmt.Errorf("%w: %s", ErrQueueFull, section.Description)
	}
	if !block {
		return item, nil
	}
	return item, p.wait(ctx, item, ahead+item.Duration()+p.grace)
}

// checkSection reports a section the worker could not play to its duration.
func checkSection(section *cadence.Section) error {
	if section == nil {
		return fmt.Errorf("%w: no section", cadence.ErrUnplayable)
	}
	err := section.Validate()
	if err == nil || errors.Is(err, cadence.ErrUnplayable) {
		return err
	}
	return fmt.Errorf("%w: %w", cadence.ErrUnplayable, err)
}

// Wait blocks until item reaches a terminal status or the expected time
// for the queue ahead of it has passed.
func (p *Player) Wait(ctx context.Context, item *queue.Item) error {
	return p.wait(ctx, item, p.expectedWait()+item.Duration()+p.grace)
}

func (p *Player) wait(ctx context.Context, item *queue.Item, bound time.Duration) error {
	started := make(chan struct{}, 1)
	remove := item.AddListener(func(_ *queue.Item, s queue.Status) {
		if s == queue.Started {
			select {
			case started <- struct{}{}:
			default:
			}
		}
	})
	defer remove()

	timer := time.NewTimer(bound)
	defer timer.Stop()

	for {
		select {
		case <-item.Done():
			return nil
		case <-started:
			// the item has reached the front; only its own length remains
			timer.Reset(item.Duration() + p.grace)
		case <-timer.C:
			p.logger.Error("gave up waiting for section", "item", item.ID, "section", item.Section.Description, "status", item.Status())
			return fmt.Errorf("%w: %s", ErrWaitTimeout, item)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PlayScript queues each section of script in order. With block it waits
// for every section before returning.
func (p *Player) PlayScript(ctx context.Context, script *cadence.Script, block bool) ([]*queue.Item, error) {
	return p.submitAll(ctx, script.Sections, block)
}

// Dial queues one DTMF section per digit. Digits are validated before
// anything is queued.
func (p *Player) Dial(ctx context.Context, digits string, block bool) ([]*queue.Item, error) {
	sections, err := cadence.DialSections(digits)
	if err != nil {
		return nil, err
	}

	return p.submitAll(ctx, sections, block)
}

func (p *Player) submitAll(ctx context.Context, sections []*cadence.Section, block bool) ([]*queue.Item, error) {
	items := make([]*queue.Item, 0, len(sections))
	for _, s := range sections {
		item, err := p.Submit(ctx, s, block)
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CancelCurrent abandons every queued item and stops the one playing.
func (p *Player) CancelCurrent() {
	p.mu.Lock()
	drained := p.queue.Drain()
	if p.cancelCurrent != nil {
		p.cancelCurrent()
	}
	p.mu.Unlock()

	p.abandon(drained)
	if len(drained) > 0 {
		p.logger.Info("playback cancelled", "discarded", len(drained))
	}
}

// Shutdown cancels playback, stops the worker and waits up to timeout for
// it to exit. It reports whether the worker stopped in time.
func (p *Player) Shutdown(timeout time.Duration) bool {
	p.mu.Lock()
	if !p.shutdown {
		p.shutdown = true
		p.queue.Close()
		if p.cancelCurrent != nil {
			p.cancelCurrent()
		}
		p.stopCancel()
	}
	opened := p.opened
	p.mu.Unlock()

	if !opened {
		p.abandon(p.queue.Drain())
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		p.logger.Debug("player stopped")
		return true
	case <-timer.C:
		p.logger.Error("player did not stop in time", "timeout", timeout)
		return false
	}
}

// EstimateQueuedMillis is the total target duration of queued items.
func (p *Player) EstimateQueuedMillis() int64 {
	return p.queue.QueuedMillis()
}

// Stats returns current player statistics.
func (p *Player) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Queue = p.queue.GetStats()
	if p.current != nil {
		s.Current = p.current.Section.Description
	}
	return s
}

// expectedWait is the queued time plus what remains of the playing item.
func (p *Player) expectedWait() time.Duration {
	d := time.Duration(p.queue.QueuedMillis()) * time.Millisecond

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		if left := p.current.Duration() - time.Since(p.currentStart); left > 0 {
			d += left
		}
	}
	return d
}

func (p *Player) run() {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("player worker panicked", "panic", r)
		}
		p.abandon(p.queue.Drain())

		p.mu.Lock()
		requested := p.shutdown
		p.mu.Unlock()
		if !requested {
			p.logger.Error("player worker exited without a shutdown request")
			p.fatal("player: worker exited unexpectedly")
		}
	}()

	for {
		item, err := p.queue.Take(p.stopCtx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.logger.Error("queue take failed", "err", err)
			}
			return
		}
		p.metrics.RecordDequeue(context.Background(), 1)
		p.process(item)
	}
}

// process plays one taken item unless it was cancelled after being taken.
func (p *Player) process(item *queue.Item) {
	p.mu.Lock()
	if p.shutdown || p.queue.Stale(item) {
		p.mu.Unlock()
		p.advance(item, queue.Abandoned)
		return
	}
	ctx, cancel := context.WithCancel(p.stopCtx)
	p.current = item
	p.currentStart = time.Now()
	p.cancelCurrent = cancel
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.current = nil
		p.cancelCurrent = nil
		p.mu.Unlock()
	}()

	p.advance(item, queue.Started)

	start := time.Now()
	completed, err := p.playSafely(ctx, item)
	elapsed := time.Since(start)
	p.metrics.RecordSection(context.Background(), elapsed, completed)

	p.mu.Lock()
	p.stats.Played++
	switch {
	case err != nil:
		p.stats.Failed++
	case completed:
		p.stats.Completed++
	default:
		p.stats.Abandoned++
	}
	p.mu.Unlock()

	if err != nil {
		p.metrics.RecordRendererError(context.Background())
		p.logger.Error("section failed", "section", item.Section.Description, "err", err)
	}
	if completed {
		p.advance(item, queue.Finished)
	} else {
		p.advance(item, queue.Abandoned)
	}
}

// playSafely turns a renderer panic into an error so the worker survives.
func (p *Player) playSafely(ctx context.Context, item *queue.Item) (completed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			completed = false
			err = fmt.Errorf("%w: panic: %v", audio.ErrRender, r)
		}
	}()
	return p.playback.PlaySection(ctx, item.Section)
}

func (p *Player) abandon(items []*queue.Item) {
	if len(items) == 0 {
		return
	}
	p.metrics.RecordDequeue(context.Background(), len(items))
	for _, item := range items {
		p.advance(item, queue.Abandoned)
	}
}

func (p *Player) advance(item *queue.Item, to queue.Status) {
	if err := item.Advance(to); err != nil {
		p.logger.Warn("status change rejected", "err", err)
		return
	}
	p.metrics.RecordTransition(context.Background(), to.String())
}

func (p *Player) logTransition(item *queue.Item, status queue.Status) {
	p.logger.Debug("section "+status.String(), "item", item.ID, "section", item.Section.Description)
}
