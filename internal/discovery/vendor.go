package discovery

import (
	"fmt"
	"natbwdash/internal/models"
	"net"
	"strings"

	"github.com/google/gopacket/macs"
)

// ParseHardwareAddr parses a colon- or hyphen-delimited hardware address.
func ParseHardwareAddr(s string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hardware address %q: %v", s, err)
	}
	return hw, nil
}

// Vendor returns the registered organization for the OUI of hwaddr, or an
// empty string if the address does not parse, is locally administered or is
// not in the table.
func Vendor(hwaddr string) string {
	if hwaddr == "" {
		return ""
	}
	hw, err := ParseHardwareAddr(hwaddr)
	if err != nil {
		return ""
	}
	// Randomized/private addresses have no registered vendor.
	if hw[0]&0x02 != 0 {
		return ""
	}
	return macs.ValidMACPrefixMap[[3]byte{hw[0], hw[1], hw[2]}]
}

// FillManufacturers returns a copy of stats where hosts without a reported
// manufacturer get one from the built-in OUI table.
func FillManufacturers(stats models.Stats) models.Stats {
	out := make(models.Stats, len(stats))
	for i, s := range stats {
		if s.Manufacturer == "" {
			s.Manufacturer = Vendor(s.HWAddr)
		}
		out[i] = s
	}
	return out
}
