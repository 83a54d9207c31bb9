package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bloodcare/internal/lifecycle"

	"go.uber.org/zap"
)

// Controller runs lifecycle actions for the signed-in viewer. Every action is checked
// against the transition rules before any network call, and a failed write never
// touches local state: callers only ever get records the server returned.
type Controller struct {
	client *Client
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewController(c *Client) *Controller {
	return &Controller{
		client:   c,
		logger:   c.logger,
		inflight: make(map[string]struct{}),
	}
}

// Permitted lists what the signed-in viewer may do with r
func (c *Controller) Permitted(r *Request) ActionSet {
	return lifecycle.PermittedActions(r.Lifecycle(), c.client.session.Viewer())
}

// Create refuses anonymous and blocked viewers and incomplete payloads locally
func (c *Controller) Create(ctx context.Context, payload CreatePayload) (*Request, error) {
	viewer := c.client.session.Viewer()
	if !viewer.Authenticated() {
		return nil, fmt.Errorf("%w: sign in first", ErrAuth)
	}
	if !lifecycle.CanCreate(viewer) {
		return nil, fmt.Errorf("%w: blocked users cannot create donation requests", ErrAuth)
	}
	if field := payload.missing(); field != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return c.client.Create(ctx, payload)
}

func (c *Controller) Get(ctx context.Context, id string) (*Request, error) {
	if !c.client.session.Viewer().Authenticated() {
		return nil, fmt.Errorf("%w: sign in first", ErrAuth)
	}
	return c.client.Get(ctx, id)
}

func (c *Controller) List(ctx context.Context, filter ListFilter, page, pageSize int) (*Page, error) {
	if !c.client.session.Viewer().Authenticated() {
		return nil, fmt.Errorf("%w: sign in first", ErrAuth)
	}
	return c.client.List(ctx, filter, page, pageSize)
}

// Confirm commits the viewer as donor of a pending request.
//
// On ErrConflict or ErrNetwork the returned record, when non-nil, is the state
// re-read from the server and should replace whatever the caller holds.
func (c *Controller) Confirm(ctx context.Context, r *Request) (*Request, error) {
	return c.transition(ctx, r, lifecycle.ActionConfirmDonation)
}

// MarkDone closes an in-progress request. Same error contract as Confirm.
func (c *Controller) MarkDone(ctx context.Context, r *Request) (*Request, error) {
	return c.transition(ctx, r, lifecycle.ActionMarkDone)
}

// Cancel closes a pending or in-progress request. Same error contract as Confirm.
func (c *Controller) Cancel(ctx context.Context, r *Request) (*Request, error) {
	return c.transition(ctx, r, lifecycle.ActionMarkCanceled)
}

func (c *Controller) transition(ctx context.Context, r *Request, action Action) (*Request, error) {
	viewer := c.client.session.Viewer()
	next, _ := lifecycle.TargetStatus(action)
	if _, err := lifecycle.Authorize(r.Lifecycle(), viewer, next); err != nil {
		return nil, guardError(err)
	}

	release, err := c.acquire(r.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	var donor *Donor
	if action == lifecycle.ActionConfirmDonation {
		donor = &Donor{Name: viewer.Name, Email: viewer.Email}
	}
	updated, err := c.client.UpdateStatus(ctx, r.ID, next, donor)
	if err != nil {
		return c.refetch(ctx, r.ID, err)
	}
	return updated, nil
}

// Edit applies patch if the viewer may edit r
func (c *Controller) Edit(ctx context.Context, r *Request, patch FieldPatch) (*Request, error) {
	if !lifecycle.Permits(r.Lifecycle(), c.client.session.Viewer(), lifecycle.ActionEdit) {
		return nil, c.denied(r, lifecycle.ActionEdit)
	}

	release, err := c.acquire(r.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := c.client.UpdateFields(ctx, r.ID, patch)
	if err != nil {
		return c.refetch(ctx, r.ID, err)
	}
	return updated, nil
}

// Delete removes r. A request that is already gone counts as deleted.
func (c *Controller) Delete(ctx context.Context, r *Request) error {
	if !lifecycle.Permits(r.Lifecycle(), c.client.session.Viewer(), lifecycle.ActionDelete) {
		return c.denied(r, lifecycle.ActionDelete)
	}

	release, err := c.acquire(r.ID)
	if err != nil {
		return err
	}
	defer release()

	if err := c.client.Delete(ctx, r.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// denied distinguishes a missing session from a missing right
func (c *Controller) denied(r *Request, action Action) error {
	if !c.client.session.Viewer().Authenticated() {
		return fmt.Errorf("%w: sign in first", ErrAuth)
	}
	return fmt.Errorf("%w: %s on request %s", ErrAuth, action, r.ID)
}

func guardError(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, lifecycle.ErrNotPermitted):
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	return err
}

// refetch re-reads the record after a write whose outcome the caller cannot trust
func (c *Controller) refetch(ctx context.Context, id string, cause error) (*Request, error) {
	if !errors.Is(cause, ErrConflict) && !errors.Is(cause, ErrNetwork) {
		return nil, cause
	}
	fresh, err := c.client.Get(ctx, id)
	if err != nil {
		c.logger.Warn("refetch after failed write", zap.String("id", id), zap.NamedError("cause", cause), zap.Error(err))
		return nil, cause
	}
	return fresh, cause
}

func (c *Controller) acquire(id string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return nil, fmt.Errorf("%w: %s", ErrBusy, id)
	}
	c.inflight[id] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
	}, nil
}
