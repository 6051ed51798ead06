package service

import (
	"strings"

	"github.com/smallbiznis/vindisync/internal/vindi"
	"github.com/smallbiznis/vindisync/pkg/address"
)

// BuildAddress lays the address out as street, number, additional details and
// neighborhood. Structured street lines win; otherwise the free-form street
// is split on newlines.
func BuildAddress(addr address.Address) vindi.Address {
	lines := addr.Lines()
	if lines == nil {
		lines = splitStreet(addr.Street)
	}

	state := strings.TrimSpace(addr.RegionCode)
	if state == "" {
		state = strings.TrimSpace(addr.Region)
	}

	return vindi.Address{
		Street:            lines[0],
		Number:            lines[1],
		AdditionalDetails: lines[2],
		Neighborhood:      lines[3],
		Zipcode:           strings.TrimSpace(addr.Postcode),
		City:              strings.TrimSpace(addr.City),
		State:             state,
		Country:           strings.TrimSpace(addr.CountryID),
	}
}

func splitStreet(street string) []string {
	slots := make([]string, 4)
	parts := strings.Split(strings.ReplaceAll(street, "\r\n", "\n"), "\n")
	for i := 0; i < len(parts) && i < len(slots); i++ {
		slots[i] = strings.TrimSpace(parts[i])
	}
	return slots
}
