package models

// OrderKey names the column the upstream sorts rows by.
type OrderKey string

const (
	OrderByIP           OrderKey = "ip"
	OrderByName         OrderKey = "name"
	OrderByInRate       OrderKey = "rate_in"
	OrderByOutRate      OrderKey = "rate_out"
	OrderByHWAddr       OrderKey = "hwaddr"
	OrderByManufacturer OrderKey = "manufacturer"
)

// DefaultOrderKey is used until the user picks another column.
const DefaultOrderKey = OrderByIP

// OrderKeys lists the sortable columns in display order.
var OrderKeys = []OrderKey{
	OrderByIP,
	OrderByName,
	OrderByInRate,
	OrderByOutRate,
	OrderByHWAddr,
	OrderByManufacturer,
}

// Valid reports whether k is one of the known keys. Unknown keys are still
// sent upstream as-is; this is only used for UI affordances.
func (k OrderKey) Valid() bool {
	for _, v := range OrderKeys {
		if k == v {
			return true
		}
	}
	return false
}

func (k OrderKey) String() string {
	return string(k)
}
