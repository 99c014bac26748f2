package status

import (
	"encoding/json"
	"sync"
)

// Payloads the doorbell publishes on the status topic. Matching is exact and
// case-sensitive.
const (
	PayloadDoorLocked   = "DOOR_LOCKED"
	PayloadDoorUnlocked = "DOOR_UNLOCKED"
	PayloadRinging      = "RINGING"
	PayloadBurglarAlert = "BURGLAR_ALERT"
)

type Door int

const (
	Locked Door = iota
	Unlocked
)

var doorNames = map[Door]string{
	Locked:   "Locked",
	Unlocked: "Unlocked",
}

func (door Door) String() string {
	return doorNames[door]
}

func (door Door) MarshalText() ([]byte, error) {
	return []byte(door.String()), nil
}

type Alert int

const (
	None Alert = iota
	Ringing
	Intruder
)

var alertNames = map[Alert]string{
	None:     "None",
	Ringing:  "Ringing",
	Intruder: "Intruder",
}

var alertLabels = map[Alert]string{
	None:     "None",
	Ringing:  "Ding Dong!",
	Intruder: "Intruder!",
}

func (alert Alert) String() string {
	return alertNames[alert]
}

// Label is the wording shown on the dashboard.
func (alert Alert) Label() string {
	return alertLabels[alert]
}

func (alert Alert) MarshalText() ([]byte, error) {
	return []byte(alert.String()), nil
}

type Snapshot struct {
	Door  Door  `json:"door"`
	Alert Alert `json:"alert"`
}

func (snapshot Snapshot) JSON() []byte {
	data, _ := json.Marshal(snapshot)
	return data
}

type Field int

const (
	NoField Field = iota
	DoorField
	AlertField
)

// Change describes what a single payload did to the store.
type Change struct {
	Field    Field
	Snapshot Snapshot
}

// Store holds the latest known device state. Apply is meant to be called
// from a single goroutine; Snapshot may be called from anywhere.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore() *Store {
	return &Store{snapshot: Snapshot{Door: Locked, Alert: None}}
}

func (store *Store) Snapshot() Snapshot {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.snapshot
}

// Apply maps payload onto the state. The second result is false for payloads
// outside the vocabulary, which leave the state untouched.
func (store *Store) Apply(payload string) (Change, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	field := NoField
	switch payload {
	case PayloadDoorLocked:
		store.snapshot.Door = Locked
		field = DoorField
	case PayloadDoorUnlocked:
		store.snapshot.Door = Unlocked
		field = DoorField
	case PayloadRinging:
		store.snapshot.Alert = Ringing
		field = AlertField
	case PayloadBurglarAlert:
		store.snapshot.Alert = Intruder
		field = AlertField
	}

	return Change{Field: field, Snapshot: store.snapshot}, field != NoField
}
