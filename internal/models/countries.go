package models

import (
	"strings"

	"afdp/pkg/utils"
)

// Country is one of the fixed set of covered African countries.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
	// PortalName is the spelling used by the portal API's name parameter.
	PortalName string `json:"portal_name"`
}

// Countries lists the 54 covered countries in portal order.
var Countries = []Country{
	{Code: "DZA", Name: "Algeria", PortalName: "Algeria"},
	{Code: "AGO", Name: "Angola", PortalName: "Angola"},
	{Code: "BEN", Name: "Benin", PortalName: "Benin"},
	{Code: "BWA", Name: "Botswana", PortalName: "Botswana"},
	{Code: "BFA", Name: "Burkina Faso", PortalName: "Burkina Faso"},
	{Code: "BDI", Name: "Burundi", PortalName: "Burundi"},
	{Code: "CMR", Name: "Cameroon", PortalName: "Cameroon"},
	{Code: "CPV", Name: "Cabo Verde", PortalName: "Cape Verde"},
	{Code: "CAF", Name: "Central African Republic", PortalName: "Central African Republic"},
	{Code: "TCD", Name: "Chad", PortalName: "Chad"},
	{Code: "COM", Name: "Comoros", PortalName: "Comoros"},
	{Code: "COD", Name: "DR Congo", PortalName: "Congo Democratic Republic"},
	{Code: "COG", Name: "Republic of the Congo", PortalName: "Congo Republic"},
	{Code: "CIV", Name: "Côte d'Ivoire", PortalName: "Cote d'Ivoire"},
	{Code: "DJI", Name: "Djibouti", PortalName: "Djibouti"},
	{Code: "EGY", Name: "Egypt", PortalName: "Egypt"},
	{Code: "GNQ", Name: "Equatorial Guinea", PortalName: "Equatorial Guinea"},
	{Code: "ERI", Name: "Eritrea", PortalName: "Eritrea"},
	{Code: "SWZ", Name: "Eswatini", PortalName: "Eswatini"},
	{Code: "ETH", Name: "Ethiopia", PortalName: "Ethiopia"},
	{Code: "GAB", Name: "Gabon", PortalName: "Gabon"},
	{Code: "GMB", Name: "Gambia", PortalName: "Gambia"},
	{Code: "GHA", Name: "Ghana", PortalName: "Ghana"},
	{Code: "GIN", Name: "Guinea", PortalName: "Guinea"},
	{Code: "GNB", Name: "Guinea-Bissau", PortalName: "Guinea Bissau"},
	{Code: "KEN", Name: "Kenya", PortalName: "Kenya"},
	{Code: "LSO", Name: "Lesotho", PortalName: "Lesotho"},
	{Code: "LBR", Name: "Liberia", PortalName: "Liberia"},
	{Code: "LBY", Name: "Libya", PortalName: "Libya"},
	{Code: "MDG", Name: "Madagascar", PortalName: "Madagascar"},
	{Code: "MWI", Name: "Malawi", PortalName: "Malawi"},
	{Code: "MLI", Name: "Mali", PortalName: "Mali"},
	{Code: "MRT", Name: "Mauritania", PortalName: "Mauritania"},
	{Code: "MUS", Name: "Mauritius", PortalName: "Mauritius"},
	{Code: "MAR", Name: "Morocco", PortalName: "Morocco"},
	{Code: "MOZ", Name: "Mozambique", PortalName: "Mozambique"},
	{Code: "NAM", Name: "Namibia", PortalName: "Namibia"},
	{Code: "NER", Name: "Niger", PortalName: "Niger"},
	{Code: "NGA", Name: "Nigeria", PortalName: "Nigeria"},
	{Code: "RWA", Name: "Rwanda", PortalName: "Rwanda"},
	{Code: "STP", Name: "São Tomé and Príncipe", PortalName: "Sao Tome and Principe"},
	{Code: "SEN", Name: "Senegal", PortalName: "Senegal"},
	{Code: "SYC", Name: "Seychelles", PortalName: "Seychelles"},
	{Code: "SLE", Name: "Sierra Leone", PortalName: "Sierra Leone"},
	{Code: "SOM", Name: "Somalia", PortalName: "Somalia"},
	{Code: "ZAF", Name: "South Africa", PortalName: "South Africa"},
	{Code: "SSD", Name: "South Sudan", PortalName: "South Sudan"},
	{Code: "SDN", Name: "Sudan", PortalName: "Sudan"},
	{Code: "TZA", Name: "Tanzania", PortalName: "Tanzania"},
	{Code: "TGO", Name: "Togo", PortalName: "Togo"},
	{Code: "TUN", Name: "Tunisia", PortalName: "Tunisia"},
	{Code: "UGA", Name: "Uganda", PortalName: "Uganda"},
	{Code: "ZMB", Name: "Zambia", PortalName: "Zambia"},
	{Code: "ZWE", Name: "Zimbabwe", PortalName: "Zimbabwe"},
}

var countryIndex = buildCountryIndex()

func buildCountryIndex() map[string]Country {
	idx := make(map[string]Country, len(Countries)*3)
	for _, c := range Countries {
		idx[lookupKey(c.Code)] = c
		idx[lookupKey(c.Name)] = c
		idx[lookupKey(c.PortalName)] = c
	}

	return idx
}

func lookupKey(s string) string {
	return strings.ToLower(utils.NormalizeWhitespace(s))
}

// LookupCountry resolves an ISO alpha-3 code, display name or portal name.
func LookupCountry(s string) (Country, bool) {
	c, ok := countryIndex[lookupKey(s)]

	return c, ok
}

// CountryName returns the display name for code, or the code itself when unknown.
func CountryName(code string) string {
	if c, ok := LookupCountry(code); ok {
		return c.Name
	}

	return code
}
