package compare

import "github.com/sarchlab/bpsim/trace"

// Workload is a synthetic branch trace that stresses one predictor
// characteristic.
type Workload struct {
	Name        string
	Description string
	Records     []trace.Record
}

// Trace returns the workload as a Trace for the harness.
func (w Workload) Trace() Trace {
	return RecordsTrace(w.Name, w.Records)
}

// GetWorkloads returns the standard set of synthetic workloads, each n
// branches long.
func GetWorkloads(n int) []Workload {
	return []Workload{
		alwaysTaken(n),
		loopExit(n),
		alternating(n),
		correlated(n),
		aliasing(n),
		noisy(n),
	}
}

// GetCoreWorkloads returns a minimal set of workloads for quick validation.
func GetCoreWorkloads(n int) []Workload {
	return []Workload{
		loopExit(n),
		correlated(n),
		noisy(n),
	}
}

// WorkloadTraces converts workloads to harness traces.
func WorkloadTraces(workloads []Workload) []Trace {
	traces := make([]Trace, 0, len(workloads))
	for _, w := range workloads {
		traces = append(traces, w.Trace())
	}
	return traces
}

// 1. Always taken - a single unconditional-looking branch
func alwaysTaken(n int) Workload {
	records := make([]trace.Record, n)
	for i := range records {
		records[i] = trace.Record{Addr: 0x401000, Taken: true}
	}

	return Workload{
		Name:        "always_taken",
		Description: "one branch, always taken - every predictor should converge",
		Records:     records,
	}
}

// 2. Loop exit - a backward branch taken 7 times then falling through
func loopExit(n int) Workload {
	records := make([]trace.Record, n)
	for i := range records {
		records[i] = trace.Record{Addr: 0x401010, Taken: i%8 != 7}
	}

	return Workload{
		Name:        "loop_exit",
		Description: "8-iteration loop branch - needs history to predict the exit",
		Records:     records,
	}
}

// 3. Alternating - T, N, T, N on one address
func alternating(n int) Workload {
	records := make([]trace.Record, n)
	for i := range records {
		records[i] = trace.Record{Addr: 0x401020, Taken: i%2 == 0}
	}

	return Workload{
		Name:        "alternating",
		Description: "one branch flipping every time - defeats a bare counter",
		Records:     records,
	}
}

// 4. Correlated - the second branch repeats the outcome of the first
func correlated(n int) Workload {
	records := make([]trace.Record, 0, n)
	rng := newLCG(0x9E3779B97F4A7C15)

	for len(records) < n {
		first := rng.next()&1 == 1
		records = append(records, trace.Record{Addr: 0x402000, Taken: first})
		if len(records) < n {
			records = append(records, trace.Record{Addr: 0x402040, Taken: first})
		}
	}

	return Workload{
		Name:        "correlated",
		Description: "random branch followed by a branch with the same outcome",
		Records:     records,
	}
}

// 5. Aliasing - many biased branches spread over a wide address range
func aliasing(n int) Workload {
	records := make([]trace.Record, n)
	rng := newLCG(0x2545F4914F6CDD1D)

	for i := range records {
		slot := rng.next() % 4096
		records[i] = trace.Record{
			Addr:  0x500000 + slot*4,
			Taken: slot%4 != 0,
		}
	}

	return Workload{
		Name:        "aliasing",
		Description: "4096 biased branches - measures table interference",
		Records:     records,
	}
}

// 6. Noisy - a loop mixed with data-dependent branches
func noisy(n int) Workload {
	records := make([]trace.Record, n)
	rng := newLCG(0xD1B54A32D192ED03)

	for i := range records {
		v := rng.next()
		addr := 0x400000 + (v>>33)%64*4
		taken := i%7 != 6
		if addr%3 == 0 {
			taken = (v>>40)&1 == 1
		}
		records[i] = trace.Record{Addr: addr, Taken: taken}
	}

	return Workload{
		Name:        "noisy",
		Description: "64 branches, a third of them data dependent",
		Records:     records,
	}
}

// lcg is a 64-bit linear congruential generator with a fixed sequence.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state >> 11
}
