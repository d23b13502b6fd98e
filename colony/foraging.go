package colony

import (
	"fmt"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/systems"
	"github.com/pthm-cable/dol/telemetry"
)

// updateForager runs a returning forager's cycle: energy decay, loading the
// foraging yield, converting part of it, sharing with the nurse pool and
// digesting the rest.
func (c *Colony) updateForager(a *components.Agent) error {
	if err := a.UpdateFatBody(c.t); err != nil {
		return err
	}
	discarded := a.LoadCrop(c.cfg.Foraging.ResourceAmount)
	collected := a.Crop
	a.ProcessCrop(c.cfg.Energy.ProportionFatBodyForager)

	c.phase(telemetry.PhaseShare)
	partners := systems.SelectPartners(c.pool, c.cfg.Sharing.MaxInteractions, c.rng)
	c.receivers = c.receivers[:0]
	c.crops = c.crops[:0]
	for _, id := range partners {
		r := c.agent(id)
		c.receivers = append(c.receivers, r)
		c.crops = append(c.crops, r.Crop)
	}

	xfer, err := systems.ShareFood(
		a, c.receivers, c.strategy,
		c.cfg.Sharing.Steepness, c.t, c.cfg.Foraging.FoodHandlingTime,
	)
	if err != nil {
		return fmt.Errorf("agent %d sharing at %v: %w", a.ID, c.t, err)
	}
	a.Digest()

	if c.collector != nil {
		c.collector.RecordTrip(collected)
		c.collector.RecordDiscard(discarded)
		c.collector.RecordTransfer(xfer.Receivers, xfer.Offered, xfer.Accepted, xfer.Returned)
	}
	if c.lifetimes != nil {
		c.lifetimes.RecordTrip(a.ID, collected)
		for i, r := range c.receivers {
			// receivers were brought up to c.t while sharing
			c.lifetimes.UpdateFatBody(r.ID, r.FatBody)
			if got := r.Crop - c.crops[i]; got > 0 {
				c.lifetimes.RecordGift(a.ID, r.ID, got)
			}
		}
	}
	return nil
}
