package routing

import (
	"fmt"
	"sort"
)

// DefaultTTL is applied to candidates whose routing entry carries no TTL.
const DefaultTTL int64 = 3600

// Candidate binds a logical image type to one provider-specific way of
// satisfying it. Image and Size are provider-native identifiers and are
// passed to the provider verbatim.
type Candidate struct {
	Provider string `yaml:"provider"`
	Image    string `yaml:"image"`
	Size     string `yaml:"size"`
	Priority int    `yaml:"priority"`
	TTL      int64  `yaml:"ttl"`
}

// Table maps logical image types to their ordered candidate lists. It is
// loaded once from configuration and never mutated afterwards.
type Table map[string][]Candidate

// UnknownImageTypeError is returned when no routing entry exists for the
// requested image type.
type UnknownImageTypeError struct {
	ImageType string
}

func (e *UnknownImageTypeError) Error() string {
	return fmt.Sprintf("unknown image type: %s", e.ImageType)
}

// NoAvailableProviderError is returned when routing entries exist for the
// image type but none of them reference a registered provider.
type NoAvailableProviderError struct {
	ImageType string
}

func (e *NoAvailableProviderError) Error() string {
	return fmt.Sprintf("no available provider for image type: %s", e.ImageType)
}

// Candidates returns the candidate list for an image type.
func (t Table) Candidates(imageType string) ([]Candidate, error) {
	candidates, ok := t[imageType]
	if !ok || len(candidates) == 0 {
		return nil, &UnknownImageTypeError{ImageType: imageType}
	}
	return candidates, nil
}

// ImageTypes returns the known image types in sorted order.
func (t Table) ImageTypes() []string {
	types := make([]string, 0, len(t))
	for name := range t {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// Select picks exactly one candidate. A preferred provider wins over
// priority whenever it has a candidate and is registered; otherwise the
// registered candidate with the lowest priority is chosen, ties keeping
// the original list order. Pure function: the routing decision is
// reproducible without any network access.
func Select(imageType string, candidates []Candidate, registered map[string]bool, preferred string) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, &UnknownImageTypeError{ImageType: imageType}
	}

	if preferred != "" {
		for _, c := range candidates {
			if c.Provider == preferred {
				if registered[preferred] {
					return c, nil
				}
				// Preferred provider has candidates but is not
				// registered: fall back to priority selection.
				break
			}
		}
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if registered[c.Provider] {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return Candidate{}, &NoAvailableProviderError{ImageType: imageType}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority < eligible[j].Priority
	})
	return eligible[0], nil
}
