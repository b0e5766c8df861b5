package model

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// BusinessProfile is the BBB-derived description of the contractor.
type BusinessProfile struct {
	BusinessName    string     `json:"business_name"`
	Address         string     `json:"address"`
	Phone           string     `json:"phone"`
	Website         string     `json:"website,omitempty"`
	YearsInBusiness YearsField `json:"years_in_business"`
	Accredited      bool       `json:"accredited"`
	Services        []string   `json:"services"`
	Employees       []string   `json:"employees,omitempty"`
	LogoPath        string     `json:"logo_path,omitempty"`
	SourceURL       string     `json:"source_url,omitempty"`
}

// Validate checks the profile invariants.
func (p *BusinessProfile) Validate() error {
	if strings.TrimSpace(p.BusinessName) == "" {
		return eris.New("profile: business name is empty")
	}
	return nil
}

var yearsRe = regexp.MustCompile(`(?i)^(?:years\s+in\s+business\s*:?\s*)?(\d+)$`)

// YearsField accepts either a JSON number or a string such as
// "Years in Business: 7".
type YearsField struct {
	Raw   string
	Value int
	Valid bool
}

// Years builds a numeric YearsField.
func Years(n int) YearsField {
	return YearsField{Value: n, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (y *YearsField) UnmarshalJSON(b []byte) error {
	*y = YearsField{}
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return eris.Wrap(err, "years_in_business")
		}
		y.Raw = str
		y.Value, y.Valid = ParseYears(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return eris.Wrap(err, "years_in_business")
	}
	y.Value, y.Valid = int(f), f >= 0
	return nil
}

// MarshalJSON implements json.Marshaler. Values that arrived as strings
// round-trip as strings.
func (y YearsField) MarshalJSON() ([]byte, error) {
	if y.Raw != "" {
		return json.Marshal(y.Raw)
	}
	if !y.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// ParseYears extracts N from "N" or "Years in Business: N". Any other
// text is invalid.
func ParseYears(s string) (int, bool) {
	m := yearsRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
