package common

import "errors"

var ErrProgramPaused = errors.New("program paused")

// PauseView reports whether a program has been halted by the operator.
type PauseView interface {
	IsPaused(program string) bool
}

// PauseSet is a static PauseView built from configuration.
type PauseSet map[string]struct{}

// NewPauseSet builds a PauseSet from program names.
func NewPauseSet(names ...string) PauseSet {
	set := make(PauseSet, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func (p PauseSet) IsPaused(program string) bool {
	_, ok := p[program]
	return ok
}

func Guard(p PauseView, program string) error {
	if p == nil || program == "" {
		return nil
	}
	if p.IsPaused(program) {
		return ErrProgramPaused
	}
	return nil
}
