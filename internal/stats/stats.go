// Package stats holds the closed-form estimators behind policy seeding:
// standard-normal CDF approximations, safety stock and reorder point.
package stats

import "math"

// Acklam's rational-polynomial approximation of the inverse standard-normal
// CDF. Relative error is below 1.15e-9 over the open interval (0, 1).
var (
	invA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00,
	}
	invB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	invC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00,
	}
	invD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00,
	}
)

const (
	invLow  = 0.02425
	invHigh = 1 - invLow
)

// InverseNormalCDF returns the standard-normal quantile z such that
// P(Z <= z) = p. For p outside the open interval (0, 1) it returns 0; that
// degenerate behavior is part of the contract, callers treat out-of-range
// service levels as "no safety buffer" rather than an error.
func InverseNormalCDF(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}

	switch {
	case p < invLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((invC[0]*q+invC[1])*q+invC[2])*q+invC[3])*q+invC[4])*q + invC[5]) /
			((((invD[0]*q+invD[1])*q+invD[2])*q+invD[3])*q + 1)
	case p > invHigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((invC[0]*q+invC[1])*q+invC[2])*q+invC[3])*q+invC[4])*q + invC[5]) /
			((((invD[0]*q+invD[1])*q+invD[2])*q+invD[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((invA[0]*r+invA[1])*r+invA[2])*r+invA[3])*r+invA[4])*r + invA[5]) * q /
			(((((invB[0]*r+invB[1])*r+invB[2])*r+invB[3])*r+invB[4])*r + 1)
	}
}

// NormalCDF returns P(Z <= x) for the standard normal distribution.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// SafetyStock sizes the buffer above expected lead-time demand for a target
// cycle service level, combining demand and lead-time variability under an
// independence assumption:
//
//	var = ltMean*dStd^2 + dMean^2*ltStd^2
//	SS  = max(0, round(z * sqrt(var)))
func SafetyStock(demandMean, demandStd, leadTimeMean, leadTimeStd, serviceLevelPct float64) int {
	z := InverseNormalCDF(serviceLevelPct / 100)
	variance := leadTimeMean*demandStd*demandStd + demandMean*demandMean*leadTimeStd*leadTimeStd
	ss := math.Round(z * math.Sqrt(variance))
	if ss < 0 {
		return 0
	}
	return int(ss)
}

// ReorderPoint is expected demand over the lead time plus safety stock.
func ReorderPoint(demandMean, leadTimeMean float64, safetyStock int) int {
	return int(math.Round(demandMean*leadTimeMean)) + safetyStock
}
