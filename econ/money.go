// Package econ implements the company/market economy layer (spec.md §4.H):
// item registry, production recipes, company productivity throttled by the
// local electricity network, and the government budget used to price and
// gate WorldCommands.
package econ

import "fmt"

// Money is an integer amount of cents, avoiding float accumulation error
// across a long-running simulation.
type Money int64

// NewMoney constructs a Money value from whole currency units.
func NewMoney(units int64) Money { return Money(units * 100) }

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign, m = "-", -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

// Add returns m+o.
func (m Money) Add(o Money) Money { return m + o }

// Sub returns m-o.
func (m Money) Sub(o Money) Money { return m - o }
