package anomaly

import (
	"sort"

	"github.com/seu-repo/outlet-kpi/internal/domain"
)

// DetectMultiOutlet returns consumers whose scans reference more than one
// distinct outlet, sorted by consumer id. Events without a consumer are
// ignored. Registry membership is not required.
func DetectMultiOutlet(events []domain.ScanEvent) []domain.MultiOutletScan {
	type consumer struct {
		outlets map[string]string
		scans   int
	}
	byConsumer := make(map[string]*consumer)
	for _, e := range events {
		c := domain.CanonicalID(e.ConsumerID)
		k := e.OutletKey()
		if c == "" || k == "" {
			continue
		}
		acc := byConsumer[c]
		if acc == nil {
			acc = &consumer{outlets: make(map[string]string)}
			byConsumer[c] = acc
		}
		acc.scans++
		if _, ok := acc.outlets[k]; !ok {
			acc.outlets[k] = domain.CanonicalID(e.OutletID)
		}
	}

	out := make([]domain.MultiOutletScan, 0)
	for id, acc := range byConsumer {
		if len(acc.outlets) < 2 {
			continue
		}
		ids := make([]string, 0, len(acc.outlets))
		for _, display := range acc.outlets {
			ids = append(ids, display)
		}
		sort.Strings(ids)
		out = append(out, domain.MultiOutletScan{ConsumerID: id, OutletIDs: ids, Scans: acc.scans})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsumerID < out[j].ConsumerID })
	return out
}
