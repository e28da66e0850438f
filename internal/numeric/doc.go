// Package numeric holds the arithmetic policy shared by every derived
// feature: epsilon-guarded division, quadrant aggregates and the final
// inf/NaN normalization pass.
//
// All ratios in the feature set are computed as num / (den + ε). The guard
// keeps a zero denominator from producing an infinity; anything that still
// ends up non-finite is replaced with zero by Clean before a vector is used.
package numeric
