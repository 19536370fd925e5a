package commerce

// Address is a structured postal address as provided by the host platform.
// It is used for shipping destinations, sale locations and warehouse origins.
type Address struct {
	// CompanyName is the optional company or recipient organization
	CompanyName string `json:"company_name,omitempty"`
	// StreetAddress1 is the first street line
	StreetAddress1 string `json:"street_address_1"`
	// StreetAddress2 is the second street line
	StreetAddress2 string `json:"street_address_2,omitempty"`
	// City is the city name
	City string `json:"city"`
	// CityArea is the county or district within the city
	CityArea string `json:"city_area,omitempty"`
	// PostalCode is the postal or ZIP code
	PostalCode string `json:"postal_code"`
	// CountryArea is the state, province or other top-level subdivision
	CountryArea string `json:"country_area,omitempty"`
	// CountryCode is the ISO 3166-1 alpha-2 country code
	CountryCode string `json:"country"`
	// CountryAlpha3 is the ISO 3166-1 alpha-3 country code
	CountryAlpha3 string `json:"country_alpha3,omitempty"`
}

// IsZero returns true if the address carries no data at all
func (a *Address) IsZero() bool {
	return a == nil || *a == Address{}
}
