package tracker

import (
	"errors"

	"github.com/courtside/tracker/internal/events"
	"github.com/courtside/tracker/internal/game"
	"github.com/courtside/tracker/internal/workflow"
)

// ErrNoPrompt is returned when a Resolve call arrives with no
// disambiguation step outstanding.
var ErrNoPrompt = errors.New("no disambiguation prompt pending")

// PendingStep reports the outstanding disambiguation step, or
// workflow.StepDone when nothing is pending.
func (t *Tracker) PendingStep() workflow.Step {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return workflow.StepDone
	}
	return t.pending.Step()
}

// ResolvePaint answers the "in the paint?" prompt for a made two.
func (t *Tracker) ResolvePaint(inPaint bool) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolvePaint(inPaint) })
}

// ResolveAssist answers the assist prompt; nil means unassisted.
func (t *Tracker) ResolveAssist(assister *game.Actor) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveAssist(assister) })
}

// ResolveRebounder answers the rebounder prompt after a miss; nil means no
// rebound was recorded (ball out of bounds, period end).
func (t *Tracker) ResolveRebounder(rebounder *game.Actor) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveRebounder(rebounder) })
}

// ResolveStealCredit answers the steal-credit prompt after a turnover; nil
// means an unforced turnover.
func (t *Tracker) ResolveStealCredit(thief *game.Actor) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveStealCredit(thief) })
}

// ResolveStealVictim answers the victim prompt after a steal; nil records
// the steal without a linked turnover.
func (t *Tracker) ResolveStealVictim(victim *game.Actor) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveStealVictim(victim) })
}

// ResolveFoulType answers the offensive/defensive prompt for a foul.
func (t *Tracker) ResolveFoulType(offensive bool) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveFoulType(offensive) })
}

// ResolveBlockedShooter answers the shooter prompt after a block; nil
// records the block without the shooter's miss.
func (t *Tracker) ResolveBlockedShooter(shooter *game.Actor) error {
	return t.resolve(func(w *workflow.Workflow) error { return w.ResolveBlockedShooter(shooter) })
}

// CancelPrompt abandons the pending workflow; the primitive stays recorded
// with no linked event.
func (t *Tracker) CancelPrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Cancel()
		t.pending = nil
	}
}

// resolve runs one workflow step, then either prompts for the next step or
// commits the linked events and reaggregates.
func (t *Tracker) resolve(step func(*workflow.Workflow) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return ErrNoPrompt
	}
	if err := step(t.pending); err != nil {
		return err
	}

	if !t.pending.Done() {
		t.emit(events.Event{Type: events.TypeWorkflowPrompt, Payload: events.WorkflowPromptPayload{
			Step:    t.pending.Step().String(),
			EventID: t.pending.Primitive().ID,
		}})
		// Paint/assist answers may have tagged the primitive; refold so the
		// box score reflects them even mid-workflow.
		t.reaggregateLocked()
		return nil
	}

	for _, linked := range t.pending.Linked() {
		if err := t.validateActor(linked.Actor); err != nil {
			return err
		}
		t.possession.Observe(linked)
		id := t.appendLocked(linked)
		t.history.Push("record "+string(linked.Type), func() error {
			return t.deleteEventLocked(id)
		})
	}
	t.pending = nil
	t.reaggregateLocked()
	return nil
}
