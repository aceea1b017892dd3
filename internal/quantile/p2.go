// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package quantile implements the P² online quantile estimator (Jain &
// Chlamtac, 1985): a fixed-memory approximation of the p-th quantile that
// updates in O(1) per observation without retaining samples.
package quantile

import "sort"

// Estimator tracks a single quantile p over a stream of float64
// observations.
type Estimator struct {
	p        float64
	n        [5]int
	nDesired [5]float64
	dn       [5]float64
	q        [5]float64
	count    int64
}

// New returns an Estimator for quantile p (0 < p < 1).
func New(p float64) *Estimator {
	return &Estimator{
		p:  p,
		dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

// Observe folds x into the estimate.
func (e *Estimator) Observe(x float64) {
	e.count++
	if e.count <= 5 {
		e.q[e.count-1] = x
		if e.count == 5 {
			sort.Float64s(e.q[:])
			for i := range e.n {
				e.n[i] = i + 1
			}
			e.nDesired = [5]float64{1, 1 + 2*e.p, 1 + 4*e.p, 3 + 2*e.p, 5}
		}
		return
	}

	var k int
	switch {
	case x < e.q[0]:
		e.q[0] = x
		k = 0
	case x >= e.q[4]:
		e.q[4] = x
		k = 3
	default:
		k = 3
		for i := 1; i < 4; i++ {
			if x < e.q[i] {
				k = i - 1
				break
			}
		}
	}
	for i := k + 1; i < 5; i++ {
		e.n[i]++
	}
	for i := range e.nDesired {
		e.nDesired[i] += e.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := e.nDesired[i] - float64(e.n[i])
		if (d >= 1 && e.n[i+1]-e.n[i] > 1) || (d <= -1 && e.n[i-1]-e.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			qNew := e.parabolic(i, sign)
			if e.q[i-1] < qNew && qNew < e.q[i+1] {
				e.q[i] = qNew
			} else {
				e.q[i] = e.linear(i, sign)
			}
			e.n[i] += sign
		}
	}
}

func (e *Estimator) parabolic(i, sign int) float64 {
	d := float64(sign)
	np1, nm1, ni := float64(e.n[i+1]), float64(e.n[i-1]), float64(e.n[i])
	return e.q[i] + d/(np1-nm1)*(
		(ni-nm1+d)*(e.q[i+1]-e.q[i])/(np1-ni)+
			(np1-ni-d)*(e.q[i]-e.q[i-1])/(ni-nm1))
}

func (e *Estimator) linear(i, sign int) float64 {
	d := float64(sign)
	return e.q[i] + d*(e.q[i+sign]-e.q[i])/(float64(e.n[i+sign])-float64(e.n[i]))
}

// Value returns the current quantile estimate. Before 5 observations it
// returns the most recent raw sample; with none at all, 0.
func (e *Estimator) Value() float64 {
	switch {
	case e.count == 0:
		return 0
	case e.count < 5:
		return e.q[e.count-1]
	default:
		return e.q[2]
	}
}

// Count reports the number of observations folded in so far.
func (e *Estimator) Count() int64 { return e.count }
