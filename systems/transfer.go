package systems

import (
	"math"

	"github.com/pthm-cable/dol/components"
)

// IntSource draws uniform integers in [0, n).
type IntSource interface {
	IntN(n int) int
}

// Transfer summarizes one sharing round.
type Transfer struct {
	Receivers int     // Nurses that were offered food
	Offered   float64 // Nominal shares handed out
	Accepted  float64 // Food that fit into the receivers' crops
	Returned  float64 // Offered - Accepted, kept by the forager
}

// SelectPartners picks up to k distinct entries of pool uniformly at random
// with a partial Fisher-Yates shuffle. The pool is reordered in place and
// the returned slice aliases its first entries.
func SelectPartners(pool []int, k int, rng IntSource) []int {
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// ShareFood hands the forager's crop out to receivers following the
// strategy. Receivers are brought up to time t before their traits are
// read. The forager's crop is reduced by what the receivers accept, so
// crop before = crop after + Accepted.
func ShareFood(
	forager *components.Agent,
	receivers []*components.Agent,
	strategy Strategy,
	steepness, t, handlingTime float64,
) (Transfer, error) {
	var xfer Transfer
	if len(receivers) == 0 || forager.Crop <= 0 {
		return xfer, nil
	}

	traits := make([]float64, len(receivers))
	for i, r := range receivers {
		if err := r.UpdateFatBody(t); err != nil {
			return xfer, err
		}
		traits[i] = strategy.Trait(r)
	}
	fractions := strategy.Fractions(strategy.Trait(forager), traits, steepness)

	base := forager.Crop
	for i, r := range receivers {
		offer := math.Min(fractions[i]*base, forager.Crop)
		if offer <= 0 {
			continue
		}
		returned, err := r.HandleFood(offer, r.MaxCrop, t, handlingTime)
		if err != nil {
			return xfer, err
		}
		accepted := offer - returned
		forager.Crop -= accepted

		xfer.Receivers++
		xfer.Offered += offer
		xfer.Accepted += accepted
		xfer.Returned += returned
	}
	return xfer, nil
}
