package proc

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"golang.org/x/exp/slices"

	db "armos/debug"
)

type procRow struct {
	pid   Tpid
	state Tstate
	name  string
	sz    uint64
	wchan string
	cpu   int
}

// Procdump writes a listing of live processes and per-CPU dispatch
// statistics to w, for debugging.
func (t *Ptable) Procdump(w io.Writer) {
	rows := make([]procRow, 0, len(t.procs))
	disp := make([]float64, len(t.cpus))

	t.lock.Lock()
	for i := range t.procs {
		p := &t.procs[i]
		if p.state == UNUSED {
			continue
		}
		r := procRow{pid: p.pid, state: p.state, name: p.name, sz: p.sz, cpu: -1}
		// A channel may be another slot, so format it under the lock.
		if p.wchan != nil {
			r.wchan = fmt.Sprintf("%v", p.wchan)
		}
		if p.cpu != nil {
			r.cpu = p.cpu.id
		}
		rows = append(rows, r)
	}
	for i, c := range t.cpus {
		disp[i] = float64(c.ndispatch)
	}
	t.lock.Unlock()

	slices.SortFunc(rows, func(a, b procRow) int {
		return int(a.pid - b.pid)
	})
	for _, r := range rows {
		fmt.Fprintf(w, "%d %v %s %s", r.pid, r.state, r.name, humanize.IBytes(r.sz))
		if r.cpu >= 0 {
			fmt.Fprintf(w, " cpu %d", r.cpu)
		}
		if r.wchan != "" {
			fmt.Fprintf(w, " chan %s", r.wchan)
		}
		fmt.Fprintln(w)
	}
	mean, err := stats.Mean(disp)
	if err != nil {
		db.DPrintf(db.PROC_ERR, "procdump: mean err %v", err)
	}
	sd, err := stats.StandardDeviation(disp)
	if err != nil {
		db.DPrintf(db.PROC_ERR, "procdump: stddev err %v", err)
	}
	sum, _ := stats.Sum(disp)
	fmt.Fprintf(w, "cpus %d dispatches %.0f mean %.1f stddev %.1f\n", len(disp), sum, mean, sd)
}
