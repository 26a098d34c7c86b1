package types

import "strings"

// Address is the normalized result of a postal code lookup.
type Address struct {
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zipcode      string `json:"zipcode"`
}

// Empty reports whether the lookup produced no usable location.
func (a Address) Empty() bool {
	return strings.TrimSpace(a.City) == "" && strings.TrimSpace(a.State) == ""
}
