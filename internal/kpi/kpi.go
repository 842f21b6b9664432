// Package kpi turns queue observation events into per-queue KPI records and
// keeps the latest merged record of every queue.
package kpi

// Metric names carried by queue observation events.
const (
	MetricWaiting       = "oWaiting"
	MetricInteracting   = "oInteracting"
	MetricAlerting      = "oAlerting"
	MetricOldestWaiting = "oOldestWaiting"
)

// QueueKpi is a partial KPI record. A nil field is unknown.
type QueueKpi struct {
	Waiting         *float64 `json:"waiting,omitempty"`
	Interacting     *float64 `json:"interacting,omitempty"`
	Alerting        *float64 `json:"alerting,omitempty"`
	OldestWaitingMs *float64 `json:"oldestWaitingMs,omitempty"`
}

// Merge overwrites the fields of k that are set in update. Fields absent
// from update are kept, so a merge never clears a field.
func (k *QueueKpi) Merge(update QueueKpi) {
	if update.Waiting != nil {
		k.Waiting = float(*update.Waiting)
	}
	if update.Interacting != nil {
		k.Interacting = float(*update.Interacting)
	}
	if update.Alerting != nil {
		k.Alerting = float(*update.Alerting)
	}
	if update.OldestWaitingMs != nil {
		k.OldestWaitingMs = float(*update.OldestWaitingMs)
	}
}

// IsEmpty reports whether no field is set.
func (k QueueKpi) IsEmpty() bool {
	return k.Waiting == nil && k.Interacting == nil && k.Alerting == nil && k.OldestWaitingMs == nil
}

// Clone returns a copy that shares no pointers with k.
func (k QueueKpi) Clone() QueueKpi {
	var out QueueKpi
	out.Merge(k)
	return out
}

// set assigns value to the field named by metric. Unknown names are ignored.
func (k *QueueKpi) set(metric string, value float64) {
	switch metric {
	case MetricWaiting:
		k.Waiting = float(value)
	case MetricInteracting:
		k.Interacting = float(value)
	case MetricAlerting:
		k.Alerting = float(value)
	case MetricOldestWaiting:
		k.OldestWaitingMs = float(value)
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return float(v)
}

func float(v float64) *float64 {
	return &v
}
