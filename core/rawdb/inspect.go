package rawdb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/tenebra-network/gtenebra/log"
	"github.com/tenebra-network/gtenebra/tenebradb"
)

// InspectDatabase walks the entire key space and prints a per-table
// breakdown of entry counts and sizes.
func InspectDatabase(db tenebradb.Database, w io.Writer) error {
	type table struct {
		name   string
		prefix []byte
		count  uint64
		size   uint64
	}
	tables := []*table{
		{name: "Address rows", prefix: addressPrefix},
		{name: "Address first-seen index", prefix: addrSeenPrefix},
		{name: "Address balance index", prefix: balancePrefix},
		{name: "Block rows", prefix: blockPrefix},
		{name: "Block hash index", prefix: blockHashPrefix},
		{name: "Transaction rows", prefix: txPrefix},
		{name: "Transaction party index", prefix: txAddrPrefix},
		{name: "Transaction party counters", prefix: txAddrCountPfx},
		{name: "Name rows", prefix: namePrefix},
		{name: "Name owner index", prefix: nameOwnerPrefix},
		{name: "Name owner counters", prefix: nameOwnerCount},
		{name: "Name registration index", prefix: nameRegPrefix},
		{name: "Name unpaid set", prefix: nameUnpaidPfx},
		{name: "Stake set", prefix: stakePrefix},
		{name: "Penalty set", prefix: penaltyPrefix},
		{name: "Auth log", prefix: authLogPrefix},
		{name: "Metadata", prefix: []byte("meta:")},
	}

	it := db.NewIterator(nil, nil)
	defer it.Release()

	var (
		total       uint64
		totalSize   uint64
		unaccounted uint64
		logged      = 0
	)
	for it.Next() {
		key, value := it.Key(), it.Value()
		total++
		totalSize += uint64(len(key) + len(value))

		matched := false
		for _, t := range tables {
			if bytes.HasPrefix(key, t.prefix) {
				t.count++
				t.size += uint64(len(key) + len(value))
				matched = true
				break
			}
		}
		if !matched {
			unaccounted++
			if logged < 10 {
				log.Warn("Unaccounted database key", "key", fmt.Sprintf("%q", key))
				logged++
			}
		}
	}
	if err := it.Error(); err != nil {
		return err
	}

	out := tablewriter.NewWriter(w)
	out.SetHeader([]string{"Table", "Entries", "Size"})
	for _, t := range tables {
		out.Append([]string{t.name, fmt.Sprintf("%d", t.count), formatSize(t.size)})
	}
	out.SetFooter([]string{"Total", fmt.Sprintf("%d", total), formatSize(totalSize)})
	out.Render()

	if unaccounted > 0 {
		return fmt.Errorf("rawdb: %d keys outside the known schema", unaccounted)
	}
	return nil
}

func formatSize(size uint64) string {
	switch {
	case size >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(size)/(1<<30))
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
