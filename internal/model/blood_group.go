package model

import "strings"

// BloodGroups lists the accepted ABO/Rh groups in display order
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// NormalizeBloodGroup returns the canonical spelling of s, or false if it is not a blood group
func NormalizeBloodGroup(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, g := range BloodGroups {
		if g == s {
			return g, true
		}
	}
	return "", false
}
