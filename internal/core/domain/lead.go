package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LeadStatus is the pipeline stage of a lead. Any status may follow any other.
type LeadStatus string

const (
	LeadNew       LeadStatus = "New"
	LeadContacted LeadStatus = "Contacted"
	LeadQualified LeadStatus = "Qualified"
	LeadConverted LeadStatus = "Converted"
	LeadLost      LeadStatus = "Lost"
)

// LeadStatuses lists every status in pipeline order.
var LeadStatuses = []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseLeadStatus validates a client-supplied status.
func ParseLeadStatus(s string) (LeadStatus, error) {
	st := LeadStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", Validation("Status must be one of: New, Contacted, Qualified, Converted, Lost.")
	}
	return st, nil
}

// Ref is a populated reference: the id of the target plus its display name.
type Ref struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// Lead is a sales opportunity for a customer, worked by one assigned user.
type Lead struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Value       float64    `json:"value"`
	Status      LeadStatus `json:"status"`
	Customer    Ref        `json:"customer"`
	AssignedTo  Ref        `json:"assignedTo"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LeadStats summarises a set of leads.
type LeadStats struct {
	Total      int64                `json:"total"`
	TotalValue float64              `json:"totalValue"`
	ByStatus   map[LeadStatus]int64 `json:"byStatus"`
}

// NewLeadStats returns stats with a zero entry for every status.
func NewLeadStats() *LeadStats {
	by := make(map[LeadStatus]int64, len(LeadStatuses))
	for _, s := range LeadStatuses {
		by[s] = 0
	}
	return &LeadStats{ByStatus: by}
}

// CoerceValue turns an arbitrary JSON value into a lead value. Numbers and
// numeric strings are kept; everything else, including absence, becomes 0.
func CoerceValue(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(raw)
	default:
		return 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
