package customers

import (
	"sort"
	"time"

	"github.com/angelmondragon/storepulse-backend/pkg/db/models"
	"github.com/angelmondragon/storepulse-backend/pkg/enums"
)

// History is the purchase timeline of one customer.
type History struct {
	CustomerID   string
	Dates        []time.Time
	FirstOrderID string
	FirstOrderAt time.Time
}

// OrderCount is the number of recorded purchases.
func (h *History) OrderCount() int {
	return len(h.Dates)
}

// Index maps customer ids to their history. Guest orders are never indexed.
// An Index is not safe for concurrent use; each sync run owns its own.
type Index struct {
	histories map[string]*History
	unindexed map[string]struct{}
}

func NewIndex() *Index {
	return &Index{histories: map[string]*History{}, unindexed: map[string]struct{}{}}
}

// Len is the number of indexed customers.
func (i *Index) Len() int {
	return len(i.histories)
}

// Get returns the history for a customer.
func (i *Index) Get(customerID string) (*History, bool) {
	h, ok := i.histories[customerID]
	return h, ok
}

// Put replaces the history of one customer.
func (i *Index) Put(h *History) {
	if h == nil || h.CustomerID == "" {
		return
	}
	i.histories[h.CustomerID] = h
}

// Each visits histories in customer id order.
func (i *Index) Each(fn func(*History)) {
	ids := make([]string, 0, len(i.histories))
	for id := range i.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(i.histories[id])
	}
}

// Rebuild discards the index and builds it from the given orders.
func (i *Index) Rebuild(orders []models.Order) {
	i.histories = map[string]*History{}
	i.unindexed = map[string]struct{}{}
	i.Extend(orders)
}

// Extend merges orders into the index and returns the customers it touched.
func (i *Index) Extend(orders []models.Order) map[string]struct{} {
	touched := map[string]struct{}{}
	for _, order := range orders {
		if order.IsGuest() {
			continue
		}
		delete(i.unindexed, order.CustomerID)
		at := order.OrderedAt.UTC()
		h, ok := i.histories[order.CustomerID]
		if !ok {
			h = &History{CustomerID: order.CustomerID, FirstOrderID: order.ExternalID, FirstOrderAt: at}
			i.histories[order.CustomerID] = h
		} else if precedes(at, order.ExternalID, h.FirstOrderAt, h.FirstOrderID) {
			h.FirstOrderID = order.ExternalID
			h.FirstOrderAt = at
		}
		h.Dates = insertSorted(h.Dates, at)
		touched[order.CustomerID] = struct{}{}
	}
	return touched
}

// Refresh replaces the histories of the given customers with ones built from
// orders. orders must hold every stored order of those customers; orders of
// other customers are ignored. It returns the customers left with a history.
func (i *Index) Refresh(orders []models.Order, customerIDs []string) map[string]struct{} {
	scope := make(map[string]struct{}, len(customerIDs))
	for _, id := range customerIDs {
		if id == "" {
			continue
		}
		scope[id] = struct{}{}
		delete(i.histories, id)
		delete(i.unindexed, id)
	}
	owned := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if _, ok := scope[order.CustomerID]; ok {
			owned = append(owned, order)
		}
	}
	return i.Extend(owned)
}

// IsNew reports whether the order is its customer's chronologically first
// order. A second order on the same day is not new. A non-guest customer
// missing from the index has no first order to compare against; the order
// is treated as not new and the customer is reported by Unindexed.
func (i *Index) IsNew(order models.Order) bool {
	if order.IsGuest() {
		return false
	}
	h, ok := i.histories[order.CustomerID]
	if !ok {
		if i.unindexed == nil {
			i.unindexed = map[string]struct{}{}
		}
		i.unindexed[order.CustomerID] = struct{}{}
		return false
	}
	return h.FirstOrderID == order.ExternalID
}

// Unindexed lists, sorted, the customers IsNew was asked about but had no
// history for.
func (i *Index) Unindexed() []string {
	ids := make([]string, 0, len(i.unindexed))
	for id := range i.unindexed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Classify labels an order as guest, new or repeat.
func (i *Index) Classify(order models.Order) enums.CustomerKind {
	switch {
	case order.IsGuest():
		return enums.CustomerKindGuest
	case i.IsNew(order):
		return enums.CustomerKindNew
	default:
		return enums.CustomerKindRepeat
	}
}

func precedes(at time.Time, id string, firstAt time.Time, firstID string) bool {
	if !at.Equal(firstAt) {
		return at.Before(firstAt)
	}
	return externalIDLess(id, firstID)
}

// externalIDLess orders numeric platform ids by value without parsing them.
func externalIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func insertSorted(dates []time.Time, at time.Time) []time.Time {
	idx := sort.Search(len(dates), func(n int) bool { return dates[n].After(at) })
	dates = append(dates, time.Time{})
	copy(dates[idx+1:], dates[idx:])
	dates[idx] = at
	return dates
}
