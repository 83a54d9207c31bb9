package location

import (
	"sort"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	districts := c.Districts()
	if len(districts) != 64 {
		t.Fatalf("len(Districts()) = %d, want 64", len(districts))
	}
	if !sort.StringsAreSorted(districts) {
		t.Error("Districts() is not alphabetical")
	}

	// Mutating the returned slice must not affect the catalog.
	districts[0] = "Atlantis"
	if c.Districts()[0] == "Atlantis" {
		t.Error("Districts() leaked internal state")
	}
}

func TestUpazilas(t *testing.T) {
	c := Default()

	ups := c.Upazilas("Chattogram")
	if len(ups) == 0 {
		t.Fatal("Chattogram has no upazilas")
	}
	for _, u := range ups {
		if !c.Contains("Chattogram", u) {
			t.Errorf("Contains(Chattogram, %q) = false", u)
		}
	}

	if got := c.Upazilas("Atlantis"); got == nil || len(got) != 0 {
		t.Errorf("Upazilas(unknown) = %#v, want empty slice", got)
	}
	if !c.Contains(" dhaka ", "mirpur circle") {
		t.Error("lookups should ignore case and surrounding spaces")
	}
	if c.Contains("Dhaka", "Anwara") {
		t.Error("Anwara belongs to Chattogram, not Dhaka")
	}
}

func TestUpazilasBelongOnlyToTheirDistrict(t *testing.T) {
	c := Default()
	for _, d := range c.Districts() {
		for _, u := range c.Upazilas(d) {
			if !c.Contains(d, u) {
				t.Errorf("Contains(%q, %q) = false", d, u)
			}
		}
	}
}

func TestCanonical(t *testing.T) {
	c := Default()
	d, u, ok := c.Canonical("cox's bazar", "TEKNAF")
	if !ok || d != "Cox's Bazar" || u != "Teknaf" {
		t.Errorf("Canonical = %q, %q, %v", d, u, ok)
	}
	if _, _, ok := c.Canonical("Dhaka", "Teknaf"); ok {
		t.Error("Canonical accepted a mismatched pair")
	}
}

func TestParseRejectsBadData(t *testing.T) {
	tests := map[string]string{
		"empty":     "districts: []",
		"no name":   "districts:\n  - upazilas: [a]",
		"duplicate": "districts:\n  - name: A\n  - name: a",
		"not yaml":  "districts: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("Parse succeeded, want error")
			}
		})
	}
}

func TestSelectionResetsUpazilaOnDistrictChange(t *testing.T) {
	s := NewSelection(Default())

	s.SelectDistrict("Dhaka")
	if err := s.SelectUpazila("Mirpur Circle"); err != nil {
		t.Fatalf("SelectUpazila: %v", err)
	}
	if !s.Complete() {
		t.Fatal("selection should be complete")
	}

	s.SelectDistrict("Chattogram")
	if s.Upazila() != "" {
		t.Errorf("Upazila() = %q after district change, want empty", s.Upazila())
	}
	for _, u := range s.Options() {
		if !Default().Contains("Chattogram", u) {
			t.Errorf("option %q is not a Chattogram upazila", u)
		}
	}
}

func TestSelectionKeepsSharedUpazila(t *testing.T) {
	// Kaliganj exists in several districts, so it survives a change between them.
	s := NewSelection(Default())
	s.SelectDistrict("Gazipur")
	if err := s.SelectUpazila("Kaliganj"); err != nil {
		t.Fatalf("SelectUpazila: %v", err)
	}
	s.SelectDistrict("Satkhira")
	if s.Upazila() != "Kaliganj" {
		t.Errorf("Upazila() = %q, want Kaliganj", s.Upazila())
	}
}

func TestSelectUpazilaOutsideDistrict(t *testing.T) {
	s := NewSelection(Default())
	s.SelectDistrict("Dhaka")
	if err := s.SelectUpazila("Anwara"); err == nil {
		t.Error("SelectUpazila accepted an upazila from another district")
	}
	if s.Upazila() != "" {
		t.Errorf("Upazila() = %q, want empty", s.Upazila())
	}
}
