package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Status is the lifecycle state of a donation request
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

// Role is the account role of the acting viewer
type Role string

const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Action is something a viewer may do with a donation request
type Action string

const (
	ActionConfirmDonation Action = "confirmDonation"
	ActionMarkDone        Action = "markDone"
	ActionMarkCanceled    Action = "markCanceled"
	ActionEdit            Action = "edit"
	ActionDelete          Action = "delete"
	ActionView            Action = "view"
)

var (
	ErrNotPermitted      = errors.New("action not permitted for this viewer")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrUnknownStatus     = errors.New("unknown status")
	ErrUnknownRole       = errors.New("unknown role")
)

// transitions lists every legal next status. done and canceled are terminal.
var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusInProgress: {},
		StatusCanceled:   {},
	},
	StatusInProgress: {
		StatusDone:     {},
		StatusCanceled: {},
	},
}

// Viewer is the authenticated identity acting on a request. The zero value is an anonymous viewer.
type Viewer struct {
	Email   string
	Name    string
	Role    Role
	Blocked bool
}

// Authenticated reports whether the viewer carries an identity
func (v Viewer) Authenticated() bool {
	return normEmail(v.Email) != ""
}

func (v Viewer) staff() bool {
	return v.Role == RoleAdmin || v.Role == RoleVolunteer
}

// Request is the lifecycle-relevant projection of a donation request record
type Request struct {
	Status         Status
	RequesterEmail string
	DonorEmail     string
}

// OwnedBy reports whether the viewer created the request
func (r Request) OwnedBy(v Viewer) bool {
	email := normEmail(v.Email)
	return email != "" && email == normEmail(r.RequesterEmail)
}

// ParseStatus accepts any casing and surrounding whitespace
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusInProgress, StatusDone, StatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Terminal reports whether no further status change is possible
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// CanTransition returns true when the lifecycle allows moving from current to next status.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ActionSet is an unordered set of permitted actions
type ActionSet map[Action]struct{}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// Slice returns the actions sorted by name, for stable JSON output
func (s ActionSet) Slice() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PermittedActions is the single source of truth for what a viewer may do with a request.
func PermittedActions(r Request, v Viewer) ActionSet {
	set := ActionSet{}
	if !v.Authenticated() {
		return set
	}
	owner := r.OwnedBy(v)

	set[ActionView] = struct{}{}

	if r.Status == StatusPending && !owner {
		set[ActionConfirmDonation] = struct{}{}
	}
	if r.Status == StatusInProgress && (owner || v.staff()) {
		set[ActionMarkDone] = struct{}{}
	}
	if (r.Status == StatusPending || r.Status == StatusInProgress) && (owner || v.staff()) {
		set[ActionMarkCanceled] = struct{}{}
	}
	if (owner || v.Role == RoleAdmin) && !r.Status.Terminal() {
		set[ActionEdit] = struct{}{}
	}
	if owner || v.Role == RoleAdmin {
		set[ActionDelete] = struct{}{}
	}
	return set
}

// Permits is a shorthand for PermittedActions(r, v).Has(a)
func Permits(r Request, v Viewer, a Action) bool {
	return PermittedActions(r, v).Has(a)
}

// ActionFor maps a target status to the action that produces it
func ActionFor(next Status) (Action, bool) {
	switch next {
	case StatusInProgress:
		return ActionConfirmDonation, true
	case StatusDone:
		return ActionMarkDone, true
	case StatusCanceled:
		return ActionMarkCanceled, true
	}
	return "", false
}

// TargetStatus is the inverse of ActionFor
func TargetStatus(a Action) (Status, bool) {
	switch a {
	case ActionConfirmDonation:
		return StatusInProgress, true
	case ActionMarkDone:
		return StatusDone, true
	case ActionMarkCanceled:
		return StatusCanceled, true
	}
	return "", false
}

// Authorize checks a status patch against the transition table and the viewer's rights.
// ErrInvalidTransition means the record's current status no longer allows the move,
// ErrNotPermitted means the move is legal but not for this viewer.
func Authorize(r Request, v Viewer, next Status) (Action, error) {
	action, ok := ActionFor(next)
	if !ok || !CanTransition(r.Status, next) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	if !Permits(r, v, action) {
		return "", fmt.Errorf("%w: %s", ErrNotPermitted, action)
	}
	return action, nil
}

// CanCreate is the blocked-user gate for new donation requests
func CanCreate(v Viewer) bool {
	return v.Authenticated() && !v.Blocked
}

// SameEmail compares two addresses the way ownership checks do
func SameEmail(a, b string) bool {
	na := normEmail(a)
	return na != "" && na == normEmail(b)
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
