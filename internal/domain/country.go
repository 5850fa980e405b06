package domain

import (
	"strings"

	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// countryCodes maps human-readable country names (as entered in targeting
// forms) to ISO-3166 alpha-2 codes, which is what the ads platform accepts.
var countryCodes = map[string]string{
	"afghanistan":          "AF",
	"argentina":            "AR",
	"australia":            "AU",
	"austria":              "AT",
	"bangladesh":           "BD",
	"belgium":              "BE",
	"brazil":               "BR",
	"canada":               "CA",
	"chile":                "CL",
	"china":                "CN",
	"colombia":             "CO",
	"czech republic":       "CZ",
	"denmark":              "DK",
	"egypt":                "EG",
	"finland":              "FI",
	"france":               "FR",
	"germany":              "DE",
	"ghana":                "GH",
	"greece":               "GR",
	"hong kong":            "HK",
	"hungary":              "HU",
	"india":                "IN",
	"indonesia":            "ID",
	"ireland":              "IE",
	"israel":               "IL",
	"italy":                "IT",
	"japan":                "JP",
	"jordan":               "JO",
	"kenya":                "KE",
	"kuwait":               "KW",
	"lebanon":              "LB",
	"malaysia":             "MY",
	"mexico":               "MX",
	"morocco":              "MA",
	"netherlands":          "NL",
	"new zealand":          "NZ",
	"nigeria":              "NG",
	"norway":               "NO",
	"pakistan":             "PK",
	"peru":                 "PE",
	"philippines":          "PH",
	"poland":               "PL",
	"portugal":             "PT",
	"qatar":                "QA",
	"romania":              "RO",
	"saudi arabia":         "SA",
	"singapore":            "SG",
	"south africa":         "ZA",
	"south korea":          "KR",
	"spain":                "ES",
	"sri lanka":            "LK",
	"sweden":               "SE",
	"switzerland":          "CH",
	"taiwan":               "TW",
	"thailand":             "TH",
	"turkey":               "TR",
	"ukraine":              "UA",
	"united arab emirates": "AE",
	"united kingdom":       "GB",
	"united states":        "US",
	"usa":                  "US",
	"vietnam":              "VN",
}

// ConvertCountryNameToCode translates a country name to its ISO-3166
// alpha-2 code. Lookup is case-insensitive; an already-valid two-letter
// code is returned uppercased. Unknown names pass through unchanged with a
// logged warning; the ads platform rejects them, which surfaces as a step
// failure there rather than here.
func ConvertCountryNameToCode(name string) string {
	if len(name) == 2 {
		return strings.ToUpper(name)
	}
	if code, ok := countryCodes[strings.ToLower(name)]; ok {
		return code
	}
	pkglogger.Warn("unknown country name %q, passing through unchanged", name)
	return name
}

// ConvertCountryNames maps ConvertCountryNameToCode over a slice
func ConvertCountryNames(names []string) []string {
	codes := make([]string, 0, len(names))
	for _, n := range names {
		codes = append(codes, ConvertCountryNameToCode(n))
	}
	return codes
}
