package cmd

import (
	"fmt"

	"github.com/lgalanti/mimi-go/pkg/mass"
)

// parseIonFlag validates and converts a -i/--ion flag value into a
// mass.Ion, rejecting anything but "pos" or "neg".
func parseIonFlag(s string) (mass.Ion, error) {
	switch s {
	case "pos":
		return mass.Positive, nil
	case "neg":
		return mass.Negative, nil
	default:
		return mass.Neutral, fmt.Errorf("invalid ionization mode %q, must be pos or neg", s)
	}
}
