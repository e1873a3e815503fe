// Package controller drives the two dashboard interactions: the screener form
// submission and the optimizer point click.
//
// Each interaction collects its input synchronously, then issues one backend
// request on its own goroutine and returns a Ticket. Responses are tagged with
// a per-controller token; only the most recently initiated request may touch
// its mount point.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/pynvestor/internal/grid"
)

// Page is the subset of view.Page the controllers mutate.
type Page interface {
	Loading(id string) error
	Clear(id string) error
	Error(id, msg string) error
	Show(id string) error
	Hide(id string) error
	SetBusy(id string, busy bool) error
}

// GridRenderer renders grid options into a mount point.
type GridRenderer interface {
	Render(mountID string, opts *grid.Options) error
}

// Option configures a controller.
type Option func(*core)

// WithTimeout bounds each backend request.
func WithTimeout(d time.Duration) Option {
	return func(c *core) { c.timeout = d }
}

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *core) { c.log = log }
}

// core is the request cycle shared by both controllers.
type core struct {
	name    string
	page    Page
	grid    GridRenderer
	seq     Sequencer
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func (c *core) init(name string, page Page, renderer GridRenderer, opts []Option) {
	c.name, c.page, c.grid, c.log = name, page, renderer, zerolog.Nop()
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With().Str("controller", name).Logger()
}

// request describes one cycle.
type request struct {
	container string
	mount     string
	call      func(ctx context.Context) (*grid.Options, error)
	// before runs with the loading state, after once a current request has
	// settled, success or not.
	before func()
	after  func()
}

// start issues a token, puts the result region into its loading state and
// runs the call in the background. The caller's ctx contributes values only;
// the request outlives the event that started it.
func (c *core) start(ctx context.Context, r request) *Ticket {
	token := c.seq.Next(func() {
		c.prepare(r.container, r.mount)
		if r.before != nil {
			r.before()
		}
	})
	t := newTicket(token)
	c.log.Debug().Uint64("token", token).Str("mount", r.mount).Msg("request started")

	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		opts, err := r.call(ctx)
		out := c.settle(token, r, opts, err)

		ev := c.log.Debug()
		if out.State == Failed {
			ev = c.log.Warn().Err(out.Err)
		}
		ev.Uint64("token", token).
			Stringer("state", out.State).
			Dur("elapsed", time.Since(start)).
			Msg("request settled")
		t.finish(out)
	}()
	return t
}

func (c *core) settle(token uint64, r request, opts *grid.Options, callErr error) Outcome {
	out := Outcome{Token: token, Err: callErr}
	out.State = c.seq.Settle(token, func() State {
		if r.after != nil {
			defer r.after()
		}
		if callErr != nil {
			c.showError(r.mount, callErr)
			return Failed
		}
		if err := c.page.Clear(r.mount); err != nil {
			out.Err = err
			return Failed
		}
		if err := c.grid.Render(r.mount, opts); err != nil {
			out.Err = err
			c.showError(r.mount, err)
			return Failed
		}
		return Succeeded
	})
	return out
}

// reject settles a request that failed collection. It still takes a token,
// so responses to earlier requests can no longer overwrite the message.
func (c *core) reject(r request, err error) {
	token := c.seq.Next(nil)
	c.seq.Settle(token, func() State {
		if r.after != nil {
			defer r.after()
		}
		if r.container != "" {
			c.warn(c.page.Show(r.container), r.container)
		}
		c.showError(r.mount, err)
		return Failed
	})
	c.log.Debug().Uint64("token", token).Err(err).Msg("request rejected")
}

// reset makes every in-flight request stale and hides the result region.
func (c *core) reset(container, mount string) {
	token := c.seq.Next(nil)
	c.seq.Settle(token, func() State {
		c.warn(c.page.Clear(mount), mount)
		c.warn(c.page.Hide(container), container)
		return Idle
	})
}

// prepare puts the result region into its loading state.
func (c *core) prepare(container, mount string) {
	if container != "" {
		c.warn(c.page.Show(container), container)
	}
	c.warn(c.page.Loading(mount), mount)
}

func (c *core) showError(mount string, err error) {
	c.warn(c.page.Error(mount, userMessage(err)), mount)
}

func (c *core) warn(err error, id string) {
	if err != nil {
		c.log.Warn().Err(err).Str("mount", id).Msg("page update failed")
	}
}

// State reports the controller phase.
func (c *core) State() State { return c.seq.State() }

// Drain waits for every in-flight request to settle.
func (c *core) Drain() { c.wg.Wait() }
