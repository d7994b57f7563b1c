package booking

import (
	"fmt"
	"time"
)

type Event string

const (
	EventProofUploaded Event = "PROOF_UPLOADED"
	EventDPApproved    Event = "DP_APPROVED"
	EventDPRejected    Event = "DP_REJECTED"
	EventCancelled     Event = "CANCELLED"
)

// Effect is a side effect the caller must carry out for a transition.
// Stamp and slot effects belong inside the transaction; audit and publish run after commit.
type Effect string

const (
	EffectStampApproved  Effect = "STAMP_DP_APPROVED_AT"
	EffectStampCancelled Effect = "STAMP_CANCELLED_AT"
	EffectLockSlot       Effect = "LOCK_CALENDAR_SLOT"
	EffectAuditStatus    Effect = "AUDIT_STATUS_CHANGE"
	EffectAuditSlot      Effect = "AUDIT_SLOT_CHANGE"
	EffectPublish        Effect = "PUBLISH_EVENT"
)

type Step struct {
	From    Status
	To      Status
	Event   Event
	Effects []Effect
}

func (s Step) Has(e Effect) bool {
	for _, eff := range s.Effects {
		if eff == e {
			return true
		}
	}
	return false
}

type rule struct {
	to      Status
	effects []Effect
}

var transitions = map[Status]map[Event]rule{
	StatusInvoiceGenerated: {
		EventProofUploaded: {StatusWaitingVerification, []Effect{EffectAuditStatus, EffectPublish}},
		EventCancelled:     {StatusCancelled, []Effect{EffectStampCancelled, EffectAuditStatus, EffectPublish}},
	},
	StatusWaitingVerification: {
		EventDPApproved: {StatusDPApproved, []Effect{EffectStampApproved, EffectLockSlot, EffectAuditStatus, EffectAuditSlot, EffectPublish}},
		EventDPRejected: {StatusDPRejected, []Effect{EffectAuditStatus, EffectPublish}},
		EventCancelled:  {StatusCancelled, []Effect{EffectStampCancelled, EffectAuditStatus, EffectPublish}},
	},
	StatusDPRejected: {
		EventProofUploaded: {StatusWaitingVerification, []Effect{EffectAuditStatus, EffectPublish}},
		EventCancelled:     {StatusCancelled, []Effect{EffectStampCancelled, EffectAuditStatus, EffectPublish}},
	},
	StatusDPApproved: {},
	StatusCancelled:  {},
}

// Transition is the complete booking state machine. Every (status, event) pair not
// listed above is rejected with ErrInvalidStatusTransition.
func Transition(from Status, ev Event) (Step, error) {
	byEvent, ok := transitions[from]
	if !ok {
		return Step{}, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, from)
	}
	r, ok := byEvent[ev]
	if !ok {
		return Step{}, fmt.Errorf("%w: %s on %s", ErrInvalidStatusTransition, ev, from)
	}
	effects := make([]Effect, len(r.effects))
	copy(effects, r.effects)
	return Step{From: from, To: r.to, Event: ev, Effects: effects}, nil
}

func IsTerminal(s Status) bool {
	return s == StatusDPApproved || s == StatusCancelled
}

// CanUploadProof reports whether a client may upload a payment proof in status s.
func CanUploadProof(s Status) bool {
	_, err := Transition(s, EventProofUploaded)
	return err == nil
}

// Apply moves b to the step's target status and stamps the timestamps the step asks for.
func (b *Booking) Apply(step Step, now time.Time, reason string) {
	b.Status = step.To
	if step.Has(EffectStampApproved) {
		t := now
		b.DPApprovedAt = &t
	}
	if step.Has(EffectStampCancelled) {
		t := now
		b.CancelledAt = &t
		if reason != "" {
			b.CancellationReason = &reason
		}
	}
}
