package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with RNG seed
	EventTypeSpawn
	EventTypeDeath
	EventTypePickup
	EventTypeFire
	EventTypeRadioBuilt
	EventTypeStateChange
	EventTypeRunEnd
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Game tick this occurred in
	Source    string    `json:"source"`    // Emitting object kind (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeDeath:
		return "death"
	case EventTypePickup:
		return "pickup"
	case EventTypeFire:
		return "fire"
	case EventTypeRadioBuilt:
		return "radio_built"
	case EventTypeStateChange:
		return "state_change"
	case EventTypeRunEnd:
		return "run_end"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	ObjectCount int   `json:"objectCount"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// SpawnPayload records an object entering the world.
type SpawnPayload struct {
	ObjectID uint64  `json:"objectId"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// DeathPayload records an object dying.
type DeathPayload struct {
	ObjectID uint64  `json:"objectId"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PickupPayload records a radio part collected by the player.
type PickupPayload struct {
	Part      string `json:"part"`
	Collected int    `json:"collected"`
}

// FirePayload records a shot.
type FirePayload struct {
	ShooterID   uint64  `json:"shooterId"`
	ShooterKind string  `json:"shooterKind"`
	BulletID    uint64  `json:"bulletId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Angle       float64 `json:"angle"`
}

// RadioBuiltPayload records the radio being assembled.
type RadioBuiltPayload struct {
	Day     int `json:"day"`
	Minutes int `json:"minutes"`
}

// StateChangePayload records a game state transition.
type StateChangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RunEndPayload records the end of a run.
type RunEndPayload struct {
	RunID   uint64 `json:"runId"`
	Outcome string `json:"outcome"`
	Days    int    `json:"days"`
	Kills   int    `json:"kills"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
