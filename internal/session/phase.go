package session

import (
	"encoding/json"
	"fmt"
)

// Phase is the tagged lifecycle variant of a GameSessionState (spec §3).
type Phase string

const (
	PhaseLobby    Phase = "Lobby"
	PhaseInGame   Phase = "InGame"
	PhaseRoundEnd Phase = "RoundEnd"
	PhaseFinished Phase = "Finished"
)

var validPhases = map[Phase]bool{
	PhaseLobby:    true,
	PhaseInGame:   true,
	PhaseRoundEnd: true,
	PhaseFinished: true,
}

// Valid reports whether p is one of the four defined phases.
func (p Phase) Valid() bool {
	return validPhases[p]
}

// MarshalJSON renders the phase as its bare string tag.
func (p Phase) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("session: cannot marshal invalid phase %q", string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON rejects any tag outside the closed set, per the
// round-trip law in spec §8 ("fromJson(\"UNKNOWN\") fails with a format error").
func (p *Phase) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	candidate := Phase(raw)
	if !candidate.Valid() {
		return fmt.Errorf("session: unknown phase %q", raw)
	}
	*p = candidate
	return nil
}
