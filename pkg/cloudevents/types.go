package cloudevents

import (
	"time"

	"github.com/kitchenops/inventory-ledger/pkg/tenant"
)

// Event types emitted by the inventory ledger
const (
	LotReceived  = "backoffice.inventory.lot-received"
	LotAdjusted  = "backoffice.inventory.lot-adjusted"
	LotDepleted  = "backoffice.inventory.lot-depleted"
	LotDeleted   = "backoffice.inventory.lot-deleted"
)

// SourceInventoryLedger is the CloudEvents source of every ledger event.
const SourceInventoryLedger = "/backoffice/inventory-ledger"

// Extension attribute and message header names.
const (
	ExtTenantID      = "botenantid"
	ExtRestaurantID  = "borestaurantid"
	ExtCorrelationID = "bocorrelationid"
)

// LedgerCloudEvent is a CloudEvents v1.0 envelope with back-office extensions.
type LedgerCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	TenantID      string `json:"botenantid,omitempty"`
	RestaurantID  string `json:"borestaurantid,omitempty"`
	CorrelationID string `json:"bocorrelationid,omitempty"`

	// W3C trace context carried across the broker
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// SetTenantContext copies tenant scope onto the event
func (e *LedgerCloudEvent) SetTenantContext(tc *tenant.Context) {
	if tc == nil {
		return
	}
	e.TenantID = tc.TenantID
	e.RestaurantID = tc.RestaurantID
}
