package race

import (
	"time"

	"github.com/san-kum/airace/internal/sched"
)

// crashPolicy is chosen once per agent from the arena mode, so the freeze
// cycle cannot run while training.
type crashPolicy interface {
	crash(a *Agent)
	cancel(a *Agent)
}

type trainingCrash struct{}

func (trainingCrash) crash(a *Agent) {
	a.AddReward(a.opts.Rewards.Crash)
	a.EndEpisode(Collision)
}

func (trainingCrash) cancel(*Agent) {}

// raceCrash freezes the aircraft, shows the explosion, respawns it at its
// last checkpoint and resumes, all on simulated time.
type raceCrash struct {
	sched   *sched.Scheduler
	visuals Visuals
	explode time.Duration
	respawn time.Duration
	timer   *sched.Timer
}

func (p *raceCrash) crash(a *Agent) {
	if p.timer != nil && p.timer.Pending() {
		return
	}
	a.flight.Freeze()
	p.visuals.SetAircraftVisible(false)
	p.visuals.SetEffectVisible(true)

	p.timer = p.sched.After(p.explode, func() {
		if err := a.arena.ResetAgentPosition(a, false); err != nil {
			a.logger.Error("respawn failed", "err", err)
		}
		a.logger.Debug("respawned", "next", a.next)
		p.timer = p.sched.After(p.respawn, func() {
			p.visuals.SetEffectVisible(false)
			p.visuals.SetAircraftVisible(true)
			a.flight.Thaw()
			p.timer = nil
		})
	})
}

// cancel abandons an in-flight freeze cycle and restores the aircraft.
func (p *raceCrash) cancel(a *Agent) {
	if p.timer == nil {
		return
	}
	p.timer.Cancel()
	p.timer = nil
	p.visuals.SetEffectVisible(false)
	p.visuals.SetAircraftVisible(true)
	if a.flight.Frozen() {
		a.flight.Thaw()
	}
}
