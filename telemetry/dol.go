package telemetry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/dol/components"
)

// DoL holds the division-of-labor indices for one time window.
type DoL struct {
	MinT          float64 `csv:"min_t"`
	MaxT          float64 `csv:"max_t"`
	Gautrais      float64 `csv:"gautrais"`
	Duarte        float64 `csv:"duarte"`
	GorelickTasks float64 `csv:"gorelick_tasks"`
	GorelickIndiv float64 `csv:"gorelick_indiv"`
	GorelickBoth  float64 `csv:"gorelick_both"`
}

// GorelickIndex is the mutual-information family of Gorelick et al. (2004).
type GorelickIndex struct {
	Tasks       float64 // I(task;agent) / H(task)
	Individuals float64 // I(task;agent) / H(agent)
	Both        float64 // I(task;agent) / sqrt(H(task) H(agent))
}

// Evaluate computes all indices over [minT, maxT].
func Evaluate(histories [][]components.Record, minT, maxT float64) DoL {
	g := Gorelick(histories, minT, maxT)
	return DoL{
		MinT:          minT,
		MaxT:          maxT,
		Gautrais:      Gautrais(histories, minT, maxT),
		Duarte:        Duarte(histories, minT, maxT),
		GorelickTasks: g.Tasks,
		GorelickIndiv: g.Individuals,
		GorelickBoth:  g.Both,
	}
}

// SlidingWindow evaluates windows of the given size ending at size,
// size+step, ... up to horizon.
func SlidingWindow(histories [][]components.Record, size, step, horizon float64) []DoL {
	if size <= 0 || step <= 0 {
		return nil
	}
	var out []DoL
	for k := 0; ; k++ {
		maxT := size + float64(k)*step
		if maxT > horizon {
			break
		}
		out = append(out, Evaluate(histories, maxT-size, maxT))
	}
	return out
}

// SwitchFrequency returns the fraction of adjacent history entries within
// [minT, maxT] whose tasks differ.
func SwitchFrequency(h []components.Record, minT, maxT float64) float64 {
	if len(h) <= 1 {
		return 0
	}
	var switches, checked int
	for i := 1; i < len(h); i++ {
		if h[i-1].T >= minT && h[i].T <= maxT {
			checked++
			if h[i].Task != h[i-1].Task {
				switches++
			}
		}
	}
	if checked == 0 {
		return 0
	}
	return float64(switches) / float64(checked)
}

// Gautrais returns the colony mean of 1 - 2*switch frequency (Gautrais et al. 2002).
func Gautrais(histories [][]components.Record, minT, maxT float64) float64 {
	if len(histories) == 0 {
		return 0
	}
	f := make([]float64, len(histories))
	for i, h := range histories {
		f[i] = 1 - 2*SwitchFrequency(h, minT, maxT)
	}
	return stat.Mean(f, nil)
}

// Duarte returns the specialization index of Duarte et al. (2012):
// mean(1 - switch frequency) / (p1^2 + p2^2) - 1, where p1 is the share of
// windowed observations spent nursing.
func Duarte(histories [][]components.Record, minT, maxT float64) float64 {
	if len(histories) == 0 {
		return 0
	}
	q := make([]float64, len(histories))
	var nursing, observed int
	for i, h := range histories {
		q[i] = 1 - SwitchFrequency(h, minT, maxT)
		for _, r := range h {
			if r.T >= minT && r.T <= maxT {
				observed++
				if r.Task == components.Nurse {
					nursing++
				}
			}
		}
	}
	if observed == 0 {
		return 0
	}
	p1 := float64(nursing) / float64(observed)
	p2 := 1 - p1
	return stat.Mean(q, nil)/(p1*p1+p2*p2) - 1
}

// TaskTime returns the time an agent spent in each labor task within
// [minT, maxT]. An entry lasts until the next one, or until maxT for the
// last entry; only intervals lying inside the window count.
func TaskTime(h []components.Record, minT, maxT float64) []float64 {
	out := make([]float64, components.NumLaborTasks)
	for i, r := range h {
		start := r.T
		end := maxT
		if i+1 < len(h) {
			end = h[i+1].T
		}
		if start >= minT && end <= maxT && start <= end {
			out[r.Task.Labor()] += end - start
		}
	}
	return out
}

// Gorelick computes the mutual-information indices from the agent x task
// time matrix. Terms with zero probability are left out of every sum.
func Gorelick(histories [][]components.Record, minT, maxT float64) GorelickIndex {
	n := len(histories)
	if n == 0 {
		return GorelickIndex{}
	}
	const k = components.NumLaborTasks

	m := mat.NewDense(n, k, nil)
	for i, h := range histories {
		m.SetRow(i, TaskTime(h, minT, maxT))
	}
	total := mat.Sum(m)
	if total <= 0 {
		return GorelickIndex{}
	}
	m.Scale(1/total, m)

	pTask := make([]float64, k)
	pInd := make([]float64, n)
	for i := 0; i < n; i++ {
		row := m.RawRowView(i)
		pInd[i] = floats.Sum(row)
		floats.Add(pTask, row)
	}

	joint := make([]float64, 0, n*k)
	independent := make([]float64, 0, n*k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			joint = append(joint, m.At(i, j))
			independent = append(independent, pInd[i]*pTask[j])
		}
	}

	hTask := stat.Entropy(pTask)
	hInd := stat.Entropy(pInd)
	mi := math.Max(stat.KullbackLeibler(joint, independent), 0)

	var g GorelickIndex
	if hTask > 0 {
		g.Tasks = mi / hTask
	}
	if hInd > 0 {
		g.Individuals = mi / hInd
	}
	if hTask > 0 && hInd > 0 {
		g.Both = mi / math.Sqrt(hTask*hInd)
	}
	return g
}
