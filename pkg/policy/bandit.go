// Package policy implements the epsilon-greedy bandit that steers texture
// selection, with delayed sparse reward updates applied by the caller.
//
// The policy is deliberately tiny: a fixed arm set, an incremental-mean
// value estimate per arm, and a uniform exploration branch. The random
// source is injected so sessions are independent and tests deterministic.
package policy

import (
	"fmt"
	"math/rand"
)

// Arm tracks the running value estimate and trial count of one
// selectable texture.
type Arm struct {
	Value  float64 `msgpack:"value"`
	Trials int     `msgpack:"trials"`
}

// Bandit is an epsilon-greedy selector over a fixed set of arms.
// It is not safe for concurrent use; the engine owns it.
type Bandit struct {
	epsilon float64
	arms    []Arm
	rng     *rand.Rand
}

// NewBandit creates a bandit with n arms, all starting at zero value and
// zero trials. rng must not be shared with other goroutines.
func NewBandit(n int, epsilon float64, rng *rand.Rand) *Bandit {
	return &Bandit{
		epsilon: epsilon,
		arms:    make([]Arm, n),
		rng:     rng,
	}
}

// Select picks an arm index. With probability epsilon, or while every arm
// is untried, it picks uniformly at random; otherwise it picks the arm
// with the highest value estimate. Ties break toward the lowest index.
func (b *Bandit) Select() int {
	if b.rng.Float64() < b.epsilon || b.allUntried() {
		return b.rng.Intn(len(b.arms))
	}
	best := 0
	for i := 1; i < len(b.arms); i++ {
		if b.arms[i].Value > b.arms[best].Value {
			best = i
		}
	}
	return best
}

func (b *Bandit) allUntried() bool {
	for _, a := range b.arms {
		if a.Trials > 0 {
			return false
		}
	}
	return true
}

// Update applies a reward to an arm with an incremental mean, so the
// value is always the exact running mean of applied rewards. The caller
// clamps rewards to [-1,1] before calling.
func (b *Bandit) Update(arm int, reward float64) {
	a := &b.arms[arm]
	a.Value += (reward - a.Value) / float64(a.Trials+1)
	a.Trials++
}

// NumArms returns the number of arms.
func (b *Bandit) NumArms() int {
	return len(b.arms)
}

// State returns a copy of the per-arm statistics.
func (b *Bandit) State() State {
	s := State{Arms: make([]Arm, len(b.arms))}
	copy(s.Arms, b.arms)
	return s
}

// Restore replaces the per-arm statistics from a snapshot. The snapshot
// must carry the same number of arms.
func (b *Bandit) Restore(s State) error {
	if len(s.Arms) != len(b.arms) {
		return fmt.Errorf("policy: snapshot has %d arms, bandit has %d", len(s.Arms), len(b.arms))
	}
	copy(b.arms, s.Arms)
	return nil
}
