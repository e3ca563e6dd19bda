package core

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AnnualizedMean scales the mean per period log return by the number of
// periods in a trading year.
func AnnualizedMean(returns []float64, periodsPerYear int) float64 {
	return stat.Mean(returns, nil) * float64(periodsPerYear)
}

// AnnualizedVolatility scales the population standard deviation (divide by
// n, not n-1) by the square root of the periods in a trading year.
func AnnualizedVolatility(returns []float64, periodsPerYear int) float64 {
	return stat.PopStdDev(returns, nil) * math.Sqrt(float64(periodsPerYear))
}

// SharpeRatio is the annualized excess return over the annualized
// volatility. A constant series has zero volatility and an empty series has
// no mean, both surface as a non finite ratio for the ranking stage to drop.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) (ratio, mean, vol float64) {
	mean = AnnualizedMean(returns, periodsPerYear)
	vol = AnnualizedVolatility(returns, periodsPerYear)
	ratio = (mean - riskFreeRate) / vol
	return
}
