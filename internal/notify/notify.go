// Package notify implements the user-visible notification channel: short
// toasts rendered by the TUI footer, optionally mirrored to the desktop.
package notify

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

// Level classifies a toast.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Toast is one queued notification.
type Toast struct {
	ID      int
	Level   Level
	Message string
	Detail  string
	Created time.Time
	Expires time.Time
}

// Notifier is the contract consumed by panel controllers.
type Notifier interface {
	ShowSuccessSnackbar(message string)
	ShowErrorSnackbar(message string, opts ...Option)
}

// Option adjusts a single error toast.
type Option func(*Toast)

// WithTimeout keeps the toast visible for d.
func WithTimeout(d time.Duration) Option {
	return func(t *Toast) {
		if d > 0 {
			t.Expires = t.Created.Add(d)
		}
	}
}

// WithDetail attaches a secondary line, typically the underlying error.
func WithDetail(detail string) Option {
	return func(t *Toast) { t.Detail = strings.TrimSpace(detail) }
}

// DesktopSender mirrors toasts outside the terminal.
type DesktopSender interface {
	Notify(title, message string) error
}

// BeeepSender sends native desktop notifications.
type BeeepSender struct {
	AppName string
}

func (b BeeepSender) Notify(title, message string) error {
	if b.AppName != "" {
		title = b.AppName + ": " + title
	}
	return beeep.Notify(title, message, "")
}

const (
	defaultSuccessTTL = 3 * time.Second
	defaultErrorTTL   = 6 * time.Second
	defaultMaxToasts  = 5
	desktopQueueSize  = 16
)

type desktopMessage struct{ title, body string }

// Center queues toasts for the UI. It is safe for concurrent use.
type Center struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int

	max     int
	now     func() time.Time
	logger  *slog.Logger
	desktop DesktopSender
	// mirrorSuccess also forwards success toasts to the desktop.
	mirrorSuccess bool

	desktopQueue chan desktopMessage
	desktopDone  chan struct{}
	closed       bool
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithDesktop mirrors error toasts (and success toasts when all is true).
func WithDesktop(sender DesktopSender, all bool) CenterOption {
	return func(c *Center) {
		c.desktop = sender
		c.mirrorSuccess = all
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMax bounds the queue length.
func WithMax(n int) CenterOption {
	return func(c *Center) {
		if n > 0 {
			c.max = n
		}
	}
}

var _ Notifier = (*Center)(nil)

// NewCenter builds a Center.
func NewCenter(logger *slog.Logger, opts ...CenterOption) *Center {
	if logger == nil {
		logger = slog.Default().With("component", "notify")
	}
	c := &Center{
		max:    defaultMaxToasts,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.desktop != nil {
		c.desktopQueue = make(chan desktopMessage, desktopQueueSize)
		c.desktopDone = make(chan struct{})
		go c.runDesktop()
	}
	return c
}

// ShowSuccessSnackbar queues a success toast.
func (c *Center) ShowSuccessSnackbar(message string) {
	now := c.now()
	toast := Toast{Level: LevelSuccess, Message: message, Created: now, Expires: now.Add(defaultSuccessTTL)}
	c.push(toast)
	c.logger.Info("notification", "level", toast.Level, "message", message)
	if c.desktop != nil && c.mirrorSuccess {
		c.sendDesktop("Success", message)
	}
}

// ShowErrorSnackbar queues an error toast.
func (c *Center) ShowErrorSnackbar(message string, opts ...Option) {
	now := c.now()
	toast := Toast{Level: LevelError, Message: message, Created: now, Expires: now.Add(defaultErrorTTL)}
	for _, opt := range opts {
		opt(&toast)
	}
	c.push(toast)
	c.logger.Warn("notification", "level", toast.Level, "message", message, "detail", toast.Detail)
	if c.desktop != nil {
		body := message
		if toast.Detail != "" {
			body += "\n" + toast.Detail
		}
		c.sendDesktop("Error", body)
	}
}

// Active returns the toasts that have not expired, oldest first, and drops
// the expired ones.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	c.toasts = kept

	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}

// Dismiss drops the newest toast.
func (c *Center) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.toasts); n > 0 {
		c.toasts = c.toasts[:n-1]
	}
}

// Close stops the desktop sender after the queued notifications went out.
func (c *Center) Close() {
	c.mu.Lock()
	if c.closed || c.desktopQueue == nil {
		c.closed = true
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.desktopQueue)
	c.mu.Unlock()
	<-c.desktopDone
}

func (c *Center) push(t Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t.ID = c.nextID
	c.toasts = append(c.toasts, t)
	if over := len(c.toasts) - c.max; over > 0 {
		c.toasts = append([]Toast(nil), c.toasts[over:]...)
	}
}

// sendDesktop hands a notification to the sender goroutine without waiting
// on the desktop bus. A full queue drops the message.
func (c *Center) sendDesktop(title, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.desktopQueue == nil {
		return
	}
	select {
	case c.desktopQueue <- desktopMessage{title: title, body: body}:
	default:
		c.logger.Debug("desktop notification dropped", "title", title)
	}
}

func (c *Center) runDesktop() {
	defer close(c.desktopDone)
	for msg := range c.desktopQueue {
		if err := c.desktop.Notify(msg.title, msg.body); err != nil {
			c.logger.Debug("desktop notification failed", "error", err)
		}
	}
}
