// Package notify carries short-lived success and error messages to the user.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Notifier is the toast channel used by the calendar components.
type Notifier interface {
	Success(title, text string)
	Error(title, text string)
	// Progress shows an indeterminate indicator until the returned func is called.
	Progress(text string) (done func())
}

// Kind distinguishes recorded notifications.
type Kind string

const (
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
	KindProgress Kind = "progress"
)

// Notification is one message as seen by a Recorder.
type Notification struct {
	Kind  Kind
	Title string
	Text  string
}

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Notifier backed by logger.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Success(title, text string) {
	l.logger.Info(text, "title", title)
}

func (l *Log) Error(title, text string) {
	l.logger.Error(text, "title", title)
}

func (l *Log) Progress(text string) func() {
	l.logger.Debug(text)
	return func() {}
}

// Writer prints notifications as single lines, the terminal stand-in for toasts.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Notifier that prints to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Success(title, text string) {
	n.printf("[ok] %s: %s\n", title, text)
}

func (n *Writer) Error(title, text string) {
	n.printf("[error] %s: %s\n", title, text)
}

func (n *Writer) Progress(text string) func() {
	n.printf("%s\n", text)
	return func() {}
}

func (n *Writer) printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, format, args...)
}

// Fanout sends every notification to all of its members.
type Fanout []Notifier

func (f Fanout) Success(title, text string) {
	for _, n := range f {
		n.Success(title, text)
	}
}

func (f Fanout) Error(title, text string) {
	for _, n := range f {
		n.Error(title, text)
	}
}

func (f Fanout) Progress(text string) func() {
	dones := make([]func(), 0, len(f))
	for _, n := range f {
		dones = append(dones, n.Progress(text))
	}
	return func() {
		for _, d := range dones {
			d()
		}
	}
}

// Recorder keeps every notification in memory. Progress indicators are
// recorded when shown; Active reports how many are still open.
type Recorder struct {
	mu     sync.Mutex
	items  []Notification
	active int
}

func (r *Recorder) Success(title, text string) {
	r.add(Notification{Kind: KindSuccess, Title: title, Text: text})
}

func (r *Recorder) Error(title, text string) {
	r.add(Notification{Kind: KindError, Title: title, Text: text})
}

func (r *Recorder) Progress(text string) func() {
	r.mu.Lock()
	r.items = append(r.items, Notification{Kind: KindProgress, Text: text})
	r.active++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.active--
			r.mu.Unlock()
		})
	}
}

func (r *Recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Count returns the number of recorded notifications of kind k.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Kind == k {
			n++
		}
	}
	return n
}

// Active returns the number of progress indicators not yet dismissed.
func (r *Recorder) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
