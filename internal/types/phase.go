package types

import "fmt"

// Phase is one of the two alternating workout states.
type Phase int

const (
	PhaseRun Phase = iota
	PhaseWalk
)

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == PhaseRun {
		return PhaseWalk
	}
	return PhaseRun
}

// String returns the wire tag used in snapshots ("RUN" / "WALK").
func (p Phase) String() string {
	switch p {
	case PhaseRun:
		return "RUN"
	case PhaseWalk:
		return "WALK"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if p != PhaseRun && p != PhaseWalk {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase converts a wire tag back into a Phase.
func ParsePhase(tag string) (Phase, error) {
	switch tag {
	case "RUN":
		return PhaseRun, nil
	case "WALK":
		return PhaseWalk, nil
	default:
		return 0, fmt.Errorf("unknown phase tag %q", tag)
	}
}
