// Package presenter renders session progress to whoever is standing at the
// locker bank: a text message, an accept/deny indicator and short audio
// cues.
package presenter

import (
	"sync"
	"time"

	"smartstorage/pkg/logger"
)

type Indicator string

const (
	IndicatorOff      Indicator = "off"
	IndicatorAccepted Indicator = "accepted"
	IndicatorDenied   Indicator = "denied"
)

// Cue is a short sound played at the locker bank.
type Cue string

const (
	// CueChime acknowledges the doorbell while recognition starts.
	CueChime Cue = "chime"
	// CueDeny accompanies a refused user or tag.
	CueDeny Cue = "deny"
)

type Presenter interface {
	Show(msg string)
	Indicate(ind Indicator)
	Play(c Cue)
}

// Log writes every message and indicator change to the log.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{log: log.Component("presenter")}
}

func (p *Log) Show(msg string) {
	p.log.Info("Display", "message", msg)
}

func (p *Log) Indicate(ind Indicator) {
	p.log.Debug("Indicator", "indicator", ind)
}

func (p *Log) Play(c Cue) {
	p.log.Debug("Cue", "cue", c)
}

// Status is what the board currently shows. Cue is the last sound played
// since the indicator was last switched off.
type Status struct {
	Message   string    `json:"message"`
	Indicator Indicator `json:"indicator"`
	Cue       Cue       `json:"cue,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Board keeps the latest message and indicator so they can be served over
// HTTP.
type Board struct {
	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

func NewBoard(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{status: Status{Indicator: IndicatorOff}, now: now}
}

func (b *Board) Show(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.Message = msg
	b.status.UpdatedAt = b.now()
}

func (b *Board) Indicate(ind Indicator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.Indicator = ind
	if ind == IndicatorOff {
		b.status.Cue = ""
	}
	b.status.UpdatedAt = b.now()
}

func (b *Board) Play(c Cue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.Cue = c
	b.status.UpdatedAt = b.now()
}

func (b *Board) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

type multi []Presenter

// Multi fans every call out to each presenter in order.
func Multi(presenters ...Presenter) Presenter {
	return multi(presenters)
}

func (m multi) Show(msg string) {
	for _, p := range m {
		p.Show(msg)
	}
}

func (m multi) Indicate(ind Indicator) {
	for _, p := range m {
		p.Indicate(ind)
	}
}

func (m multi) Play(c Cue) {
	for _, p := range m {
		p.Play(c)
	}
}

// Recorder keeps every call in order. Used by tests of packages that drive
// a presenter.
type Recorder struct {
	mu         sync.Mutex
	Messages   []string
	Indicators []Indicator
	Cues       []Cue
}

func (r *Recorder) Show(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
}

func (r *Recorder) Indicate(ind Indicator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Indicators = append(r.Indicators, ind)
}

func (r *Recorder) Play(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Cues = append(r.Cues, c)
}

func (r *Recorder) Shown() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Messages...)
}

func (r *Recorder) Indicated() []Indicator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Indicator(nil), r.Indicators...)
}

func (r *Recorder) Played() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.Cues...)
}
