package types

import "strings"

// Address is stored as JSONB on orders and customers.
type Address struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether no address fields are set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Validate checks the minimum fields required to route a shipment.
func (a Address) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return &AddressError{Missing: missing}
	}
	return nil
}

// AddressError reports which required address fields were absent.
type AddressError struct {
	Missing []string
}

func (e *AddressError) Error() string {
	return "address missing required fields: " + strings.Join(e.Missing, ", ")
}
