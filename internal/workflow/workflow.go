// Package workflow implements the disambiguation steps that turn an
// ambiguous primitive action into fully specified events: a missed shot gets
// its rebounder, a made basket its paint flag and assist, a turnover its
// steal credit, a foul its type, a block its victim.
//
// The primitive event is appended to the log as soon as the workflow starts;
// every later prompt either attaches metadata to it or produces an
// additional linked event. Cancelling a prompt is a valid terminal
// resolution meaning "no linked event", never an error, and never removes
// the primitive event.
package workflow

import (
	"fmt"

	"github.com/courtside/tracker/internal/game"
)

// Step identifies the prompt a workflow is waiting on.
type Step int

const (
	// StepDone means the workflow is fully resolved.
	StepDone Step = iota
	// StepPaint asks whether a made two was scored in the paint.
	StepPaint
	// StepAssist asks who assisted a made basket, if anyone.
	StepAssist
	// StepRebounder asks who rebounded a missed shot, if anyone.
	StepRebounder
	// StepStealCredit asks who stole the ball on a turnover, if anyone.
	StepStealCredit
	// StepStealVictim asks who turned the ball over on a steal.
	StepStealVictim
	// StepFoulType asks whether a foul was offensive or defensive.
	StepFoulType
	// StepBlockedShooter asks whose shot was blocked.
	StepBlockedShooter
)

func (s Step) String() string {
	switch s {
	case StepDone:
		return "done"
	case StepPaint:
		return "paint"
	case StepAssist:
		return "assist"
	case StepRebounder:
		return "rebounder"
	case StepStealCredit:
		return "steal_credit"
	case StepStealVictim:
		return "steal_victim"
	case StepFoulType:
		return "foul_type"
	case StepBlockedShooter:
		return "blocked_shooter"
	}
	return "unknown"
}

// Workflow tracks the pending prompts for one primitive event.
type Workflow struct {
	primitive *game.GameEvent
	step      Step
	linked    []*game.GameEvent
}

// Start begins disambiguation for a primitive event and returns the workflow
// positioned at its first prompt. Event types that need no disambiguation
// start in StepDone.
func Start(primitive *game.GameEvent) *Workflow {
	w := &Workflow{primitive: primitive}
	switch primitive.Type {
	case game.EventFGMade:
		w.step = StepPaint
	case game.EventThreeMade:
		w.step = StepAssist
	case game.EventFGMissed, game.EventThreeMissed, game.EventFTMissed:
		w.step = StepRebounder
	case game.EventTurnover:
		w.step = StepStealCredit
	case game.EventSteal:
		w.step = StepStealVictim
	case game.EventFoul:
		w.step = StepFoulType
	case game.EventBlock:
		w.step = StepBlockedShooter
	default:
		w.step = StepDone
	}
	return w
}

// Primitive returns the event the workflow is qualifying.
func (w *Workflow) Primitive() *game.GameEvent {
	return w.primitive
}

// Step returns the prompt currently awaited.
func (w *Workflow) Step() Step {
	return w.step
}

// Done reports whether every prompt has resolved.
func (w *Workflow) Done() bool {
	return w.step == StepDone
}

// Linked returns the additional events the resolutions produced, in the
// order they should be appended. Linked events carry no timestamp; the log
// assigns fresh ones on append, after the primitive's.
func (w *Workflow) Linked() []*game.GameEvent {
	return w.linked
}

// Cancel resolves the current prompt (and any that would follow) to "no
// linked event". The primitive event stays recorded.
func (w *Workflow) Cancel() {
	w.step = StepDone
}

// ResolvePaint answers the paint prompt for a made two.
func (w *Workflow) ResolvePaint(inPaint bool) error {
	if w.step != StepPaint {
		return w.wrongStep(StepPaint)
	}
	w.primitive.Metadata.Paint = inPaint
	w.step = StepAssist
	return nil
}

// ResolveAssist answers the assist prompt. A nil assister means an
// unassisted basket.
func (w *Workflow) ResolveAssist(assister *game.Actor) error {
	if w.step != StepAssist {
		return w.wrongStep(StepAssist)
	}
	if assister != nil {
		w.primitive.Metadata.Assist = assister.Key()
		w.linked = append(w.linked, w.companion(*assister, game.EventAssist))
	}
	w.step = StepDone
	return nil
}

// ResolveRebounder answers the rebounder prompt. A nil rebounder means the
// ball went out of bounds or the period ended; no rebound is credited. The
// offensive/defensive split is derived from which side rebounded relative to
// the shooter.
func (w *Workflow) ResolveRebounder(rebounder *game.Actor) error {
	if w.step != StepRebounder {
		return w.wrongStep(StepRebounder)
	}
	if rebounder != nil {
		e := w.companion(*rebounder, game.EventRebound)
		if rebounder.Side == w.primitive.Actor.Side {
			e.Metadata.Rebound = game.ReboundOffensive
		} else {
			e.Metadata.Rebound = game.ReboundDefensive
		}
		w.linked = append(w.linked, e)
	}
	w.step = StepDone
	return nil
}

// ResolveStealCredit answers the steal-credit prompt for a turnover. A nil
// thief means an unforced turnover.
func (w *Workflow) ResolveStealCredit(thief *game.Actor) error {
	if w.step != StepStealCredit {
		return w.wrongStep(StepStealCredit)
	}
	if thief != nil {
		w.linked = append(w.linked, w.companion(*thief, game.EventSteal))
	}
	w.step = StepDone
	return nil
}

// ResolveStealVictim answers the victim prompt for a steal, producing the
// companion turnover.
func (w *Workflow) ResolveStealVictim(victim *game.Actor) error {
	if w.step != StepStealVictim {
		return w.wrongStep(StepStealVictim)
	}
	if victim != nil {
		w.linked = append(w.linked, w.companion(*victim, game.EventTurnover))
	}
	w.step = StepDone
	return nil
}

// ResolveFoulType answers the foul-type prompt, attaching the subtype to the
// primitive foul event.
func (w *Workflow) ResolveFoulType(offensive bool) error {
	if w.step != StepFoulType {
		return w.wrongStep(StepFoulType)
	}
	w.primitive.Metadata.Offensive = offensive
	w.step = StepDone
	return nil
}

// ResolveBlockedShooter answers the blocked-player prompt, producing the
// missed shot the block implies.
func (w *Workflow) ResolveBlockedShooter(shooter *game.Actor) error {
	if w.step != StepBlockedShooter {
		return w.wrongStep(StepBlockedShooter)
	}
	if shooter != nil {
		w.linked = append(w.linked, w.companion(*shooter, game.EventFGMissed))
	}
	w.step = StepDone
	return nil
}

// companion builds a linked event inheriting the primitive's game position.
func (w *Workflow) companion(actor game.Actor, t game.EventType) *game.GameEvent {
	return &game.GameEvent{
		Quarter:        w.primitive.Quarter,
		GameTimeOffset: w.primitive.GameTimeOffset,
		Actor:          actor,
		Type:           t,
	}
}

func (w *Workflow) wrongStep(want Step) error {
	return fmt.Errorf("workflow awaiting %s, not %s", w.step, want)
}
