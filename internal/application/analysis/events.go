package analysis

import (
	"sync"

	"go.uber.org/zap"
)

// EventType names one progress notification on the push channel. Names are
// additive: consumers must ignore types they do not know.
type EventType string

const (
	EventConnected            EventType = "connected"
	EventValidation           EventType = "validation"
	EventUpload               EventType = "upload"
	EventPlantID              EventType = "plant_id"
	EventPlantIdentified      EventType = "plant_identified"
	EventDiseaseCheck         EventType = "disease_check"
	EventDiseaseFound         EventType = "disease_found"
	EventTreatments           EventType = "treatments"
	EventTreatmentsChemical   EventType = "treatments_chemical"
	EventTreatmentsBiological EventType = "treatments_biological"
	EventTreatmentsCultural   EventType = "treatments_cultural"
	EventAIAdvice             EventType = "ai_advice"
	EventCare                 EventType = "care"
	EventSaving               EventType = "saving"
	EventComplete             EventType = "complete"
	EventError                EventType = "error"
)

// Event is one typed unit on the progress channel.
type Event struct {
	Type EventType
	Data any
}

// Emitter receives pipeline progress. Emit returns an error when the
// transport is gone; the pipeline then stops emitting but keeps working.
type Emitter interface {
	Emit(ev Event) error
}

type discardEmitter struct{}

func (discardEmitter) Emit(Event) error { return nil }

// Discard swallows all events. The synchronous call shape uses it.
var Discard Emitter = discardEmitter{}

// guardedEmitter serializes writes (treatment lookups emit from their own
// goroutines) and goes silent permanently after the first transport error.
type guardedEmitter struct {
	mu   sync.Mutex
	next Emitter
	dead bool
	log  *zap.Logger
}

func newGuardedEmitter(next Emitter, log *zap.Logger) *guardedEmitter {
	return &guardedEmitter{next: next, log: log}
}

func (g *guardedEmitter) Emit(ev Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dead {
		return nil
	}
	if err := g.next.Emit(ev); err != nil {
		g.dead = true
		g.log.Warn("progress channel closed, muting further events",
			zap.String("event", string(ev.Type)), zap.Error(err))
	}
	return nil
}
