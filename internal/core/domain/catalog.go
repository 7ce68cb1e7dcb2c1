package domain

// Country is a catalog entry.
type Country struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ISOCode string `json:"code_iso"`
}

// Subdivision is a first-level administrative region of a country.
type Subdivision struct {
	ID        int64  `json:"id"`
	CountryID int64  `json:"country_id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
}
