package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/appointment-manager/internal/timeutil"
)

// AttemptState names the phases of a drag-to-reschedule gesture.
type AttemptState string

const (
	// StateIdle means no reschedule attempt is live.
	StateIdle AttemptState = "idle"
	// StateDragging means a pointer drag started and a snapshot is held.
	StateDragging AttemptState = "dragging"
	// StatePendingConfirmation means a drop produced a proposal that has not
	// been persisted; the backing store is untouched.
	StatePendingConfirmation AttemptState = "pendingConfirmation"
)

// DropPolicy selects which parts of the target cell apply to the proposal.
// Calendar views differ: day and week grids resolve both a date and an hour,
// the month grid only resolves a date.
type DropPolicy string

const (
	DropPolicyDayView   DropPolicy = "day"
	DropPolicyWeekView  DropPolicy = "week"
	DropPolicyMonthView DropPolicy = "month"
)

var (
	// ErrAttemptInProgress is returned when a drag begins while another
	// attempt is still unresolved. Callers treat it as a no-op.
	ErrAttemptInProgress = errors.New("scheduling: reschedule attempt already in progress")
	// ErrNoActiveAttempt is returned when drop or confirm arrive without a
	// matching live attempt.
	ErrNoActiveAttempt = errors.New("scheduling: no active reschedule attempt")
)

// AppointmentUpdater is the single store operation confirmation needs.
type AppointmentUpdater interface {
	UpdateAppointment(ctx context.Context, appointment Appointment) error
}

// Coordinator turns a drag-and-drop gesture into either a committed update or
// a full rollback. The visible schedule may optimistically show the proposal,
// but nothing reaches the store before Confirm, and Cancel always restores the
// pre-drag snapshot.
type Coordinator struct {
	store AppointmentUpdater

	mu       sync.Mutex
	state    AttemptState
	original Appointment
	proposed Appointment
	restored Appointment

	pendingTimeout time.Duration
	expiry         *time.Timer
}

// CoordinatorOption adjusts optional coordinator behaviour.
type CoordinatorOption func(*Coordinator)

// WithPendingTimeout auto-cancels a proposal left unconfirmed for longer than
// d. The zero default leaves pending attempts live until the owner acts.
func WithPendingTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.pendingTimeout = d
		}
	}
}

// NewCoordinator wires the store used on confirmation.
func NewCoordinator(store AppointmentUpdater, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{store: store, state: StateIdle}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State reports the current attempt phase for UI binding.
func (c *Coordinator) State() AttemptState {
	if c == nil {
		return StateIdle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Original returns the pre-drag snapshot of the live attempt.
func (c *Coordinator) Original() (Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return Appointment{}, false
	}
	return c.original, true
}

// Proposed returns the unpersisted proposal of a pending attempt.
func (c *Coordinator) Proposed() (Appointment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePendingConfirmation {
		return Appointment{}, false
	}
	return c.proposed, true
}

// BeginDrag snapshots the appointment and enters the dragging state. A drag
// started while another attempt is unresolved is rejected, which also
// guarantees at most one live attempt per appointment.
func (c *Coordinator) BeginDrag(appointment Appointment) error {
	if c == nil {
		return ErrNoActiveAttempt
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: appointment %s", ErrAttemptInProgress, c.original.ID)
	}
	if appointment.ID == "" {
		return fmt.Errorf("scheduling: cannot drag appointment without id")
	}

	c.original = appointment
	c.proposed = Appointment{}
	c.restored = Appointment{}
	c.state = StateDragging
	return nil
}

// Drop resolves the target cell into a proposal. Dropping back onto the
// original position is not a move: the attempt dissolves and the coordinator
// returns to idle. The store stays untouched either way.
func (c *Coordinator) Drop(targetDate, targetStartTime string, policy DropPolicy) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDragging {
		return ErrNoActiveAttempt
	}

	if _, err := timeutil.ParseDate(targetDate); err != nil {
		return err
	}

	resolvedTime := c.original.StartTime
	if policy != DropPolicyMonthView && targetStartTime != "" {
		if _, err := timeutil.ParseClock(targetStartTime); err != nil {
			return err
		}
		resolvedTime = targetStartTime
	}

	if targetDate == c.original.Date && resolvedTime == c.original.StartTime {
		c.resetLocked()
		return nil
	}

	proposed := c.original
	proposed.Date = targetDate
	proposed.StartTime = resolvedTime

	c.proposed = proposed
	c.state = StatePendingConfirmation
	c.armExpiryLocked()
	return nil
}

// Confirm persists the proposal through the store. adjusted, when non-nil,
// replaces the proposal (the edit dialog may tweak fields before saving) but
// must keep the original identity. On store failure the attempt remains
// pending so the owner can retry or cancel; the coordinator never fabricates
// success.
func (c *Coordinator) Confirm(ctx context.Context, adjusted *Appointment) (Appointment, error) {
	c.mu.Lock()
	if c.state != StatePendingConfirmation {
		c.mu.Unlock()
		return Appointment{}, ErrNoActiveAttempt
	}

	proposal := c.proposed
	if adjusted != nil {
		if adjusted.ID != c.original.ID {
			c.mu.Unlock()
			return Appointment{}, fmt.Errorf("scheduling: adjusted appointment %s does not match attempt for %s", adjusted.ID, c.original.ID)
		}
		proposal = *adjusted
	}
	store := c.store
	c.mu.Unlock()

	if store == nil {
		return Appointment{}, fmt.Errorf("scheduling: no store configured for confirmation")
	}

	// The only suspension point in the gesture: the persistence call.
	if err := store.UpdateAppointment(ctx, proposal); err != nil {
		return Appointment{}, err
	}

	c.mu.Lock()
	if c.state == StatePendingConfirmation && c.original.ID == proposal.ID {
		c.resetLocked()
	}
	c.mu.Unlock()

	return proposal, nil
}

// Cancel discards the proposal and returns the pre-drag snapshot so callers
// can restore the visible schedule. It never issues a store call and is
// idempotent: repeated cancels keep returning the same snapshot.
func (c *Coordinator) Cancel() Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return c.restored
	}

	snapshot := c.original
	c.resetLocked()
	c.restored = snapshot
	return snapshot
}

// resetLocked returns to idle and disarms any pending expiry timer.
func (c *Coordinator) resetLocked() {
	c.state = StateIdle
	c.original = Appointment{}
	c.proposed = Appointment{}
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
}

func (c *Coordinator) armExpiryLocked() {
	if c.pendingTimeout <= 0 {
		return
	}
	if c.expiry != nil {
		c.expiry.Stop()
	}
	c.expiry = time.AfterFunc(c.pendingTimeout, func() {
		c.Cancel()
	})
}
