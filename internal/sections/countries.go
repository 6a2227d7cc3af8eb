package sections

// Country is one entry of the default-country dropdown.
type Country struct {
	Code string
	Name string
}

// CountryProvider supplies the selectable countries.
type CountryProvider interface {
	Countries() []Country
}

// StaticCountries is the built-in list.
type StaticCountries struct{}

func (StaticCountries) Countries() []Country {
	return []Country{
		{Code: "AU", Name: "Australia"},
		{Code: "BR", Name: "Brazil"},
		{Code: "CA", Name: "Canada"},
		{Code: "DE", Name: "Germany"},
		{Code: "ES", Name: "Spain"},
		{Code: "FR", Name: "France"},
		{Code: "GB", Name: "United Kingdom"},
		{Code: "IN", Name: "India"},
		{Code: "IT", Name: "Italy"},
		{Code: "JP", Name: "Japan"},
		{Code: "NL", Name: "Netherlands"},
		{Code: "US", Name: "United States"},
	}
}

// CountryName resolves code with p, falling back to the code itself.
func CountryName(p CountryProvider, code string) string {
	for _, c := range p.Countries() {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}
