// Package address holds the postal address shape shared by order billing
// addresses and saved customer addresses.
package address

import "strings"

// Address is embedded into gorm models; column names are prefixed by the
// embedding struct where needed.
type Address struct {
	Firstname string `gorm:"column:firstname" json:"firstname"`
	Lastname  string `gorm:"column:lastname" json:"lastname"`
	Email     string `gorm:"column:email" json:"email,omitempty"`
	// Street is the free-form street block, lines separated by "\n".
	Street     string `gorm:"column:street" json:"street,omitempty"`
	Line1      string `gorm:"column:street_line1" json:"street_line1,omitempty"`
	Line2      string `gorm:"column:street_line2" json:"street_line2,omitempty"`
	Line3      string `gorm:"column:street_line3" json:"street_line3,omitempty"`
	Line4      string `gorm:"column:street_line4" json:"street_line4,omitempty"`
	Postcode   string `gorm:"column:postcode" json:"postcode"`
	City       string `gorm:"column:city" json:"city"`
	Region     string `gorm:"column:region" json:"region,omitempty"`
	RegionCode string `gorm:"column:region_code" json:"region_code,omitempty"`
	CountryID  string `gorm:"column:country_id" json:"country_id"`
	Telephone  string `gorm:"column:telephone" json:"telephone,omitempty"`
}

// FullName joins first and last name the way the billing provider displays it.
func (a Address) FullName() string {
	return strings.TrimSpace(a.Firstname + " " + a.Lastname)
}

// Lines returns the structured street lines, or nil when none are set.
func (a Address) Lines() []string {
	lines := []string{a.Line1, a.Line2, a.Line3, a.Line4}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return lines
		}
	}
	return nil
}
