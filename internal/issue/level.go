package issue

import (
	"fmt"
	"strings"
)

// Level is a position in the ordered severity/confidence domain.
type Level int

const (
	Undefined Level = iota
	Low
	Medium
	High
)

// Ranking lists every level in ascending order.
var Ranking = []Level{Undefined, Low, Medium, High}

var levelNames = [...]string{"UNDEFINED", "LOW", "MEDIUM", "HIGH"}

// weights are part of the report contract; JSON consumers divide by them.
var levelWeights = [...]int{1, 3, 5, 10}

func (l Level) String() string {
	if l < Undefined || l > High {
		return levelNames[Undefined]
	}
	return levelNames[l]
}

// Title returns the level capitalized the way human reports print it ("Medium").
func (l Level) Title() string {
	s := l.String()
	return s[:1] + strings.ToLower(s[1:])
}

// Weight returns the scoring weight for the level.
func (l Level) Weight() int {
	if l < Undefined || l > High {
		return levelWeights[Undefined]
	}
	return levelWeights[l]
}

// ParseLevel accepts full names ("medium") or initials ("M"), case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UNDEFINED", "U", "ALL", "":
		return Undefined, nil
	case "LOW", "L":
		return Low, nil
	case "MEDIUM", "M":
		return Medium, nil
	case "HIGH", "H":
		return High, nil
	default:
		return Undefined, fmt.Errorf("unknown level %q", s)
	}
}

// LevelFromCount maps a repeated-flag count (-l, -ll, -lll) onto the ranking.
func LevelFromCount(n int) Level {
	switch {
	case n <= 0:
		return Undefined
	case n >= int(High):
		return High
	default:
		return Level(n)
	}
}

// MarshalText renders the level name so maps and structs serialize readably.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
