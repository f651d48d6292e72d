package models

import "time"

// HostStat holds the statistics the upstream monitor reports for a single host.
type HostStat struct {
	IP           string  `json:"ip"`
	Name         string  `json:"name"`
	InRate       float64 `json:"in_rate"`  // bytes/s
	OutRate      float64 `json:"out_rate"` // bytes/s
	HWAddr       string  `json:"hwaddr"`
	Manufacturer string  `json:"manufacturer,omitempty"`
}

// Stats is one poll worth of host statistics, in the order the upstream
// returned them.
type Stats []HostStat

// Snapshot is the result of one completed refresh.
type Snapshot struct {
	Seq       uint64
	OrderBy   OrderKey
	Stats     Stats
	FetchedAt time.Time
}

// Empty reports whether no refresh has been applied yet.
func (s Snapshot) Empty() bool {
	return s.Seq == 0
}
