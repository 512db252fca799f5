// Package epoch is the fixed table of game turns.
package epoch

import "fmt"

// Epoch is one turn of the game and the span of years it simulates.
type Epoch struct {
	Number    int
	StartYear int
	EndYear   int
	Name      string
}

var table = []Epoch{
	{Number: 1, StartYear: -10000, EndYear: -2000, Name: "Dawn of Civilization"},
	{Number: 2, StartYear: -2000, EndYear: 1, Name: "Bronze Age"},
	{Number: 3, StartYear: 1, EndYear: 2000, Name: "Classical Era"},
	{Number: 4, StartYear: 2000, EndYear: 4000, Name: "Modern Day"},
	{Number: 5, StartYear: 4000, EndYear: 4000, Name: "The Future"},
}

const (
	First    = 1
	Terminal = 5
)

// Lookup returns the epoch with the given number.
func Lookup(n int) (Epoch, bool) {
	if n < First || n > Terminal {
		return Epoch{}, false
	}
	return table[n-1], true
}

// MustLookup is Lookup for numbers already known to be valid.
func MustLookup(n int) Epoch {
	e, ok := Lookup(n)
	if !ok {
		panic(fmt.Sprintf("epoch %d out of range", n))
	}
	return e
}

// IsTerminal reports whether n is the results epoch or past it.
func IsTerminal(n int) bool { return n >= Terminal }

// IsPlayable reports whether an intervention may be made in epoch n.
func IsPlayable(n int) bool { return n >= First && n < Terminal }

// Next returns the epoch after n, saturating at Terminal.
func Next(n int) int {
	if n >= Terminal {
		return Terminal
	}
	return n + 1
}

// Playable returns the epochs that allow interventions, in order.
func Playable() []Epoch {
	return append([]Epoch(nil), table[:Terminal-1]...)
}

// Label is the short header shown with the year, e.g. "Epoch 2/5 · Bronze Age".
func (e Epoch) Label() string {
	return fmt.Sprintf("Epoch %d/%d · %s", e.Number, Terminal, e.Name)
}
