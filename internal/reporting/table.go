package reporting

import (
	"natbwdash/internal/analysis"
	"natbwdash/internal/discovery"
	"natbwdash/internal/models"
	"net/url"
)

// DefaultVendorURL is the vendor lookup site, the OUI prefix is appended.
const DefaultVendorURL = "https://hwaddress.com/?q="

// Layout controls which optional cells are rendered.
type Layout struct {
	// Manufacturer adds the manufacturer column.
	Manufacturer bool
	// VendorLinks turns the hardware address into a vendor lookup link.
	VendorLinks bool
	// VendorFallback fills missing manufacturers from the OUI table.
	VendorFallback bool
	// LinkBase is prepended to the conntrack link, empty for same origin.
	LinkBase  string
	VendorURL string
}

// DefaultLayout renders every column.
func DefaultLayout() Layout {
	return Layout{
		Manufacturer:   true,
		VendorLinks:    true,
		VendorFallback: true,
		VendorURL:      DefaultVendorURL,
	}
}

// ColumnView is one header cell.
type ColumnView struct {
	Key    models.OrderKey
	Title  string
	Active bool
}

// RowView holds the display strings for one host.
type RowView struct {
	IP           string
	ConntrackURL string
	Name         string
	InRate       string
	OutRate      string
	HWAddr       string
	VendorURL    string
	Manufacturer string
}

// TableView is everything needed to draw the host table.
type TableView struct {
	Seq          uint64
	OrderBy      models.OrderKey
	Columns      []ColumnView
	Rows         []RowView
	Manufacturer bool
}

// BuildTable maps a snapshot to display rows. Rows keep the order they were
// received in, sorting is done upstream.
func BuildTable(snap models.Snapshot, active models.OrderKey, layout Layout) TableView {
	tv := TableView{
		Seq:          snap.Seq,
		OrderBy:      active,
		Manufacturer: layout.Manufacturer,
	}
	for _, key := range models.OrderKeys {
		if key == models.OrderByManufacturer && !layout.Manufacturer {
			continue
		}
		tv.Columns = append(tv.Columns, ColumnView{
			Key:    key,
			Title:  ColumnTitle(key),
			Active: key == active,
		})
	}

	stats := snap.Stats
	if layout.Manufacturer && layout.VendorFallback {
		stats = discovery.FillManufacturers(stats)
	}

	tv.Rows = make([]RowView, 0, len(stats))
	for _, s := range stats {
		rv := RowView{
			IP:           s.IP,
			ConntrackURL: ConntrackURL(layout.LinkBase, s.IP),
			Name:         s.Name,
			InRate:       analysis.FmtRateDefault(s.InRate),
			OutRate:      analysis.FmtRateDefault(s.OutRate),
			HWAddr:       s.HWAddr,
			Manufacturer: s.Manufacturer,
		}
		if layout.VendorLinks {
			rv.VendorURL = VendorURL(layout.VendorURL, s.HWAddr)
		}
		tv.Rows = append(tv.Rows, rv)
	}
	return tv
}

// ConntrackURL links to the connection list of a single host.
func ConntrackURL(base, ip string) string {
	return base + "/conntrack?ip=" + url.QueryEscape(ip)
}

// VendorURL links to a vendor lookup for the OUI of hwaddr. An empty
// address gives an empty lookup key.
func VendorURL(base, hwaddr string) string {
	if base == "" {
		base = DefaultVendorURL
	}
	return base + url.QueryEscape(analysis.HWAddrPrefix(hwaddr))
}
