package cmd

import (
	"fmt"
	"strings"

	"cardlink/classifier"
)

// resolveProfile looks up a classifier profile by name, case-insensitively,
// so "uicc+sim" on the command line matches the registry's "UICC+SIM".
func resolveProfile(name string) (classifier.Profile, error) {
	for key, p := range classifier.Profiles {
		if strings.EqualFold(key, name) {
			return p, nil
		}
	}
	return classifier.Profile{}, fmt.Errorf("unknown profile %q", name)
}
