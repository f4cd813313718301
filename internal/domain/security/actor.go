package security

import (
	"fmt"
	"strings"
)

// Actor identifies who issued a command to the controller.
type Actor struct {
	// Hostname is the machine name where the command was issued.
	Hostname string
	// Username is the system user who issued the command.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return fmt.Sprintf("%s@%s", a.Username, a.Hostname)
}

// ParseActor parses "username@hostname". An empty string yields nil.
func ParseActor(s string) *Actor {
	if s == "" {
		return nil
	}

	i := strings.LastIndex(s, "@")
	if i < 0 {
		return &Actor{Username: s}
	}

	return &Actor{
		Hostname: s[i+1:],
		Username: s[:i],
	}
}
