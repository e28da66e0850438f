package features

import (
	"math"

	"udderwatch/internal/numeric"
)

// Quadrant column sets.
var (
	FlowQuadrants         = []string{"FlujoMedio_DI", "FlujoMedio_DD", "FlujoMedio_TI", "FlujoMedio_TD"}
	ConductivityQuadrants = []string{"Conductividad_DI", "Conductividad_DD", "Conductividad_TI", "Conductividad_TD"}
	ProductionQuadrants   = []string{"Produccion_DI", "Produccion_DD", "Produccion_TI", "Produccion_TD"}
	FlowMaxQuadrants      = []string{"FlujoMax_DI", "FlujoMax_DD", "FlujoMax_TI", "FlujoMax_TD"}
	BloodQuadrants        = []string{"Sangre_DI", "Sangre_DD", "Sangre_TI", "Sangre_TD"}
)

// Derived column names referenced outside this package.
const (
	FlowMean              = "FlujoMedio_promedio"
	ConductivityMean      = "Conductividad_promedio"
	ProductionMean        = "Produccion_promedio"
	ProductionTotal       = "Produccion_total"
	ConductivityRelRange  = "Conductividad_rango_relativo"
	FlowAsymmetry         = "Indice_asimetria_flujo"
	ConductivityAsymmetry = "Indice_asimetria_conductividad"
)

// Family is a group of derived columns computed together from a declared
// set of inputs. A family is skipped as a unit when its inputs are absent.
//
// Compute receives one row of input values in Requires order (for an AnyOf
// family, only the present inputs, in declared order) and returns one value
// per Outputs entry.
type Family struct {
	Name     string
	Requires []string
	// AnyOf families run when at least one listed input is present.
	AnyOf   bool
	Outputs []string
	Compute func(p numeric.Policy, in []float64) []float64
}

// DefaultFamilies returns the session-level feature families in dependency
// order: later families read columns produced by earlier ones.
func DefaultFamilies() []Family {
	return []Family{
		{
			Name:     "flow_quadrants",
			Requires: FlowQuadrants,
			Outputs:  []string{"FlujoMedio_promedio", "FlujoMedio_std", "FlujoMedio_izq", "FlujoMedio_der"},
			Compute: func(_ numeric.Policy, q []float64) []float64 {
				di, dd, ti, td := q[0], q[1], q[2], q[3]
				return []float64{
					numeric.Mean(q),
					numeric.StdDev(q),
					(di + ti) / 2,
					(dd + td) / 2,
				}
			},
		},
		{
			Name:     "conductivity_quadrants",
			Requires: ConductivityQuadrants,
			Outputs: []string{
				"Conductividad_promedio", "Conductividad_std", "Conductividad_rango",
				"Conductividad_diff_max_prom", "Conductividad_diff_min_prom",
				"Conductividad_izq", "Conductividad_der",
			},
			Compute: func(_ numeric.Policy, q []float64) []float64 {
				di, dd, ti, td := q[0], q[1], q[2], q[3]
				mean := numeric.Mean(q)
				hi, lo := numeric.Max(q), numeric.Min(q)
				return []float64{
					mean,
					numeric.StdDev(q),
					hi - lo,
					hi - mean,
					mean - lo,
					(di + ti) / 2,
					(dd + td) / 2,
				}
			},
		},
		{
			Name:     "flow_conductivity_ratio",
			Requires: []string{"FlujoMedio_promedio", "Conductividad_promedio"},
			Outputs:  []string{"FlujoConductividad_ratio"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "production_quadrants",
			Requires: ProductionQuadrants,
			Outputs: []string{
				"Produccion_promedio", "Produccion_total", "Produccion_izq", "Produccion_der",
				"Produccion_diff_lados", "Produccion_std", "Produccion_ratio_lados", "Produccion_rango",
			},
			Compute: func(p numeric.Policy, q []float64) []float64 {
				di, dd, ti, td := q[0], q[1], q[2], q[3]
				left, right := di+ti, dd+td
				hiSide, loSide := left, right
				if right > left {
					hiSide, loSide = right, left
				}
				return []float64{
					numeric.Mean(q),
					numeric.Sum(q),
					left,
					right,
					math.Abs(left - right),
					numeric.StdDev(q),
					p.Div(hiSide, loSide),
					numeric.Range(q),
				}
			},
		},
		{
			Name:     "production_efficiency",
			Requires: []string{"FlujoMedio_promedio", "Produccion_promedio"},
			Outputs:  []string{"Eficiencia_flujo_produccion"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "flow_sides",
			Requires: []string{"FlujoMedio_izq", "FlujoMedio_der"},
			Outputs:  []string{"Flujo_diff_lados"},
			Compute: func(_ numeric.Policy, in []float64) []float64 {
				return []float64{math.Abs(in[0] - in[1])}
			},
		},
		{
			Name:     "conductivity_sides",
			Requires: []string{"Conductividad_izq", "Conductividad_der"},
			Outputs:  []string{"Conductividad_diff_lados"},
			Compute: func(_ numeric.Policy, in []float64) []float64 {
				return []float64{math.Abs(in[0] - in[1])}
			},
		},
		{
			Name:     "flow_asymmetry",
			Requires: []string{"FlujoMedio_std", "FlujoMedio_promedio"},
			Outputs:  []string{"Indice_asimetria_flujo", "CV_flujo"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				v := p.Div(in[0], in[1])
				return []float64{v, v}
			},
		},
		{
			Name:     "conductivity_asymmetry",
			Requires: []string{"Conductividad_std", "Conductividad_promedio"},
			Outputs:  []string{"Indice_asimetria_conductividad", "CV_conductividad"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				v := p.Div(in[0], in[1])
				return []float64{v, v}
			},
		},
		{
			Name:     "flow_extremes",
			Requires: FlowQuadrants,
			Outputs:  []string{"Flujo_ratio_max_min"},
			Compute: func(p numeric.Policy, q []float64) []float64 {
				return []float64{p.Div(numeric.Max(q), numeric.Min(q))}
			},
		},
		{
			Name:     "physiological_efficiency",
			Requires: []string{"Produccion_promedio", "Conductividad_promedio", "FlujoMedio_promedio"},
			Outputs:  []string{"Eficiencia_conductividad", "Flujo_conductividad_balance"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1]), p.Div(in[2], in[1])}
			},
		},
		{
			Name:     "flow_per_kg",
			Requires: []string{"FlujoMedio_promedio", "Produccion_total"},
			Outputs:  []string{"Flujo_por_kg"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "conductivity_per_kg",
			Requires: []string{"Conductividad_promedio", "Produccion_total"},
			Outputs:  []string{"Conductividad_por_kg"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "conductivity_over_flow",
			Requires: []string{"Conductividad_promedio", "FlujoMedio_promedio"},
			Outputs:  []string{"Conductividad_sobre_flujo"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "conductivity_relative_range",
			Requires: []string{"Conductividad_rango", "Conductividad_promedio"},
			Outputs:  []string{"Conductividad_rango_relativo"},
			Compute: func(p numeric.Policy, in []float64) []float64 {
				return []float64{p.Div(in[0], in[1])}
			},
		},
		{
			Name:     "total_variability",
			Requires: []string{"FlujoMedio_std", "Conductividad_std"},
			Outputs:  []string{"Indice_variabilidad_total"},
			Compute: func(_ numeric.Policy, in []float64) []float64 {
				return []float64{(in[0] + in[1]) / 2}
			},
		},
		{
			Name:     "anomaly_score",
			Requires: []string{ConductivityRelRange, FlowAsymmetry, ConductivityAsymmetry},
			AnyOf:    true,
			Outputs:  []string{"Score_anomalia_simple"},
			Compute: func(_ numeric.Policy, in []float64) []float64 {
				return []float64{numeric.Sum(in)}
			},
		},
	}
}
