package reporting

import "natbwdash/internal/models"

var columnTitles = map[models.OrderKey]string{
	models.OrderByIP:           "IP",
	models.OrderByName:         "Hostname",
	models.OrderByInRate:       "IN rate",
	models.OrderByOutRate:      "OUT rate",
	models.OrderByHWAddr:       "MAC",
	models.OrderByManufacturer: "Manufacturer",
}

// ColumnTitle returns the header text for a column, or the key itself for
// unknown keys.
func ColumnTitle(key models.OrderKey) string {
	if title, ok := columnTitles[key]; ok {
		return title
	}
	return string(key)
}
