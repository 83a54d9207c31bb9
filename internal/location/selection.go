package location

import "fmt"

// Selection is the state of a cascading district/upazila picker.
// Changing the district drops an upazila that does not belong to it.
type Selection struct {
	catalog  *Catalog
	district string
	upazila  string
}

func NewSelection(c *Catalog) *Selection {
	return &Selection{catalog: c}
}

func (s *Selection) District() string { return s.district }
func (s *Selection) Upazila() string  { return s.upazila }

// Options lists the upazilas available for the current district
func (s *Selection) Options() []string {
	return s.catalog.Upazilas(s.district)
}

// SelectDistrict sets the district and clears an upazila that is not declared under it.
func (s *Selection) SelectDistrict(district string) {
	s.district = district
	if s.upazila != "" && !s.catalog.Contains(district, s.upazila) {
		s.upazila = ""
	}
}

func (s *Selection) SelectUpazila(upazila string) error {
	if upazila == "" {
		s.upazila = ""
		return nil
	}
	if !s.catalog.Contains(s.district, upazila) {
		return fmt.Errorf("upazila %q is not in district %q", upazila, s.district)
	}
	s.upazila = upazila
	return nil
}

// Complete reports whether both levels are chosen
func (s *Selection) Complete() bool {
	return s.district != "" && s.upazila != ""
}
