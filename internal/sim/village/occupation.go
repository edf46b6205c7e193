package village

import (
	"fmt"
	"strings"
)

// Occupation is the closed set of roles a worker can hold.
type Occupation uint8

const (
	OccupationUnknown Occupation = iota
	Farmer
	Lumberjack
	Miner
	Builder
)

var occupationNames = [...]string{
	OccupationUnknown: "",
	Farmer:            "farmer",
	Lumberjack:        "lumberjack",
	Miner:             "miner",
	Builder:           "builder",
}

// Occupations lists every valid occupation.
func Occupations() []Occupation {
	return []Occupation{Farmer, Lumberjack, Miner, Builder}
}

func ParseOccupation(s string) (Occupation, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, o := range Occupations() {
		if occupationNames[o] == key {
			return o, nil
		}
	}
	return OccupationUnknown, fmt.Errorf("%w: %q", ErrUnknownOccupation, s)
}

func (o Occupation) String() string {
	if int(o) < len(occupationNames) {
		return occupationNames[o]
	}
	return ""
}

func (o Occupation) Valid() bool { return o >= Farmer && o <= Builder }

func (o Occupation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOccupation, uint8(o))
	}
	return []byte(o.String()), nil
}

func (o *Occupation) UnmarshalText(b []byte) error {
	p, err := ParseOccupation(string(b))
	if err != nil {
		return err
	}
	*o = p
	return nil
}
