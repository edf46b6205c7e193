package village

import "errors"

// Rejection reasons returned by Admit and Commission. AddWorker and AddProject
// swallow them.
var (
	ErrUnknownOccupation     = errors.New("unknown occupation")
	ErrUnknownProject        = errors.New("unknown project")
	ErrRosterFull            = errors.New("roster full")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrGameOver              = errors.New("game over")
)
