package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrUnknownOccupation = "E_UNKNOWN_OCCUPATION"
	ErrUnknownProject    = "E_UNKNOWN_PROJECT"
	ErrRosterFull        = "E_ROSTER_FULL"
	ErrNoResource        = "E_NO_RESOURCE"
	ErrGameOver          = "E_GAME_OVER"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrBadRequest:        {},
	ErrUnknownOccupation: {},
	ErrUnknownProject:    {},
	ErrRosterFull:        {},
	ErrNoResource:        {},
	ErrGameOver:          {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
