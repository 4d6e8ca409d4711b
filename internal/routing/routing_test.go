package routing

import (
	"errors"
	"testing"
)

func candidates() []Candidate {
	return []Candidate{
		{Provider: "p1", Image: "img-1", Size: "small", Priority: 1, TTL: 3600},
		{Provider: "p2", Image: "img-2", Size: "small", Priority: 2, TTL: 7200},
	}
}

func TestSelectPicksLowestPriority(t *testing.T) {
	registered := map[string]bool{"p1": true, "p2": true}

	got, err := Select("ubuntu-22-small", candidates(), registered, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p1" {
		t.Errorf("Select() provider = %v, want p1", got.Provider)
	}
	if got.TTL != 3600 {
		t.Errorf("Select() ttl = %v, want 3600", got.TTL)
	}
}

func TestSelectPreferredWinsOverPriority(t *testing.T) {
	registered := map[string]bool{"p1": true, "p2": true}

	got, err := Select("ubuntu-22-small", candidates(), registered, "p2")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p2" {
		t.Errorf("Select() provider = %v, want p2", got.Provider)
	}
	if got.TTL != 7200 {
		t.Errorf("Select() ttl = %v, want 7200", got.TTL)
	}
}

func TestSelectFallsBackWhenPreferredUnregistered(t *testing.T) {
	registered := map[string]bool{"p1": true}

	got, err := Select("ubuntu-22-small", candidates(), registered, "p2")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p1" {
		t.Errorf("Select() provider = %v, want p1", got.Provider)
	}
}

func TestSelectFallsBackWhenPreferredHasNoCandidate(t *testing.T) {
	registered := map[string]bool{"p1": true, "p2": true, "p3": true}

	got, err := Select("ubuntu-22-small", candidates(), registered, "p3")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p1" {
		t.Errorf("Select() provider = %v, want p1", got.Provider)
	}
}

func TestSelectSkipsUnregisteredProviders(t *testing.T) {
	registered := map[string]bool{"p2": true}

	got, err := Select("ubuntu-22-small", candidates(), registered, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p2" {
		t.Errorf("Select() provider = %v, want p2", got.Provider)
	}
}

func TestSelectNoAvailableProvider(t *testing.T) {
	registered := map[string]bool{"p9": true}

	_, err := Select("ubuntu-22-small", candidates(), registered, "")
	var noProvider *NoAvailableProviderError
	if !errors.As(err, &noProvider) {
		t.Fatalf("Select() error = %v, want NoAvailableProviderError", err)
	}
	if noProvider.ImageType != "ubuntu-22-small" {
		t.Errorf("error image type = %v, want ubuntu-22-small", noProvider.ImageType)
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	_, err := Select("nonexistent", nil, map[string]bool{"p1": true}, "")
	var unknown *UnknownImageTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Select() error = %v, want UnknownImageTypeError", err)
	}
}

func TestSelectPriorityTiesKeepOriginalOrder(t *testing.T) {
	tied := []Candidate{
		{Provider: "p1", Image: "a", Size: "s", Priority: 5},
		{Provider: "p2", Image: "b", Size: "s", Priority: 5},
		{Provider: "p3", Image: "c", Size: "s", Priority: 5},
	}
	registered := map[string]bool{"p1": true, "p2": true, "p3": true}

	got, err := Select("tied", tied, registered, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p1" {
		t.Errorf("Select() provider = %v, want p1 (first in original order)", got.Provider)
	}

	// Unregistering the first moves the tie to the next original entry.
	got, err = Select("tied", tied, map[string]bool{"p2": true, "p3": true}, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if got.Provider != "p2" {
		t.Errorf("Select() provider = %v, want p2", got.Provider)
	}
}

func TestSelectIsPure(t *testing.T) {
	input := candidates()
	registered := map[string]bool{"p1": true, "p2": true}

	first, err := Select("ubuntu-22-small", input, registered, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	second, err := Select("ubuntu-22-small", input, registered, "")
	if err != nil {
		t.Fatalf("Select() unexpected error = %v", err)
	}
	if first != second {
		t.Errorf("Select() not deterministic: %v != %v", first, second)
	}
	if input[0].Provider != "p1" || input[1].Provider != "p2" {
		t.Errorf("Select() mutated its input: %v", input)
	}
}

func TestTableCandidates(t *testing.T) {
	table := Table{"ubuntu-22-small": candidates()}

	got, err := table.Candidates("ubuntu-22-small")
	if err != nil {
		t.Fatalf("Candidates() unexpected error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Candidates() len = %v, want 2", len(got))
	}

	_, err = table.Candidates("nonexistent")
	var unknown *UnknownImageTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("Candidates() error = %v, want UnknownImageTypeError", err)
	}
	if unknown.ImageType != "nonexistent" {
		t.Errorf("error image type = %v, want nonexistent", unknown.ImageType)
	}
}

func TestTableImageTypesSorted(t *testing.T) {
	table := Table{
		"zz": candidates(),
		"aa": candidates(),
		"mm": candidates(),
	}
	got := table.ImageTypes()
	want := []string{"aa", "mm", "zz"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ImageTypes() = %v, want %v", got, want)
		}
	}
}
