package schema

// instantColumns is the instant classifier's training-time input order.
var instantColumns = []string{
	"Producción (kg)", "Número de ordeño", "Estado_Ubre",
	"FlujoMedio_DI", "FlujoMedio_DD", "FlujoMedio_TI", "FlujoMedio_TD",
	"Sangre_DI", "Sangre_DD", "Sangre_TI", "Sangre_TD",
	"Conductividad_DI", "Conductividad_DD", "Conductividad_TI", "Conductividad_TD",
	"FlujoMax_DI", "FlujoMax_DD", "FlujoMax_TI", "FlujoMax_TD",
	"Produccion_DI", "Produccion_DD", "Produccion_TI", "Produccion_TD",
	"FlujoMedio_promedio", "Conductividad_promedio",
	"FlujoMedio_std", "Conductividad_std", "Conductividad_rango",
	"Conductividad_diff_max_prom", "Conductividad_diff_min_prom",
	"FlujoMedio_izq", "FlujoMedio_der", "Conductividad_izq", "Conductividad_der",
	"FlujoConductividad_ratio", "Produccion_promedio", "Produccion_total",
	"Produccion_izq", "Produccion_der", "Produccion_diff_lados", "Produccion_std",
	"Produccion_ratio_lados", "Produccion_rango", "Eficiencia_flujo_produccion",
	"Flujo_diff_lados", "Conductividad_diff_lados", "Indice_asimetria_flujo",
	"Indice_asimetria_conductividad", "Flujo_ratio_max_min",
	"Eficiencia_conductividad", "Flujo_conductividad_balance",
	"Flujo_por_kg", "Conductividad_por_kg", "Conductividad_sobre_flujo",
	"CV_flujo", "CV_conductividad", "Conductividad_rango_relativo",
	"Indice_variabilidad_total", "Score_anomalia_simple",
	"Produccion_promedio_prev", "Conductividad_promedio_prev",
	"delta_produccion_promedio", "delta_conductividad_promedio",
	"tasa_cambio_produccion", "tasa_cambio_conductividad",
}

// lagBaseFeatures are the columns the horizon stage lags 1..K records back.
var lagBaseFeatures = []string{
	"CV_conductividad", "CV_flujo", "Conductividad_DD", "Conductividad_DI",
	"Conductividad_TD", "Conductividad_TI", "Conductividad_der",
	"Conductividad_diff_lados", "Conductividad_diff_max_prom",
	"Conductividad_diff_min_prom", "Conductividad_izq", "Conductividad_por_kg",
	"Conductividad_promedio", "Conductividad_promedio_prev",
	"Conductividad_rango", "Conductividad_rango_relativo",
	"Conductividad_sobre_flujo", "Conductividad_std", "Eficiencia_conductividad",
	"Eficiencia_flujo_produccion", "Estado_Ubre", "FlujoConductividad_ratio",
	"FlujoMax_DD", "FlujoMax_DI", "FlujoMax_TD", "FlujoMax_TI", "FlujoMedio_DD",
	"FlujoMedio_DI", "FlujoMedio_TD", "FlujoMedio_TI", "FlujoMedio_der",
	"FlujoMedio_izq", "FlujoMedio_promedio", "FlujoMedio_std",
	"Flujo_conductividad_balance", "Flujo_diff_lados", "Flujo_por_kg",
	"Flujo_ratio_max_min", "Indice_asimetria_conductividad",
	"Indice_asimetria_flujo", "Indice_variabilidad_total", "Número de ordeño",
	"Produccion_DD", "Produccion_DI", "Produccion_TD", "Produccion_TI",
	"Produccion_der", "Produccion_diff_lados", "Produccion_izq",
	"Produccion_promedio", "Produccion_promedio_prev", "Produccion_rango",
	"Produccion_ratio_lados", "Produccion_std", "Produccion_total",
	"Producción (kg)", "Score_anomalia_simple", "delta_conductividad_promedio",
	"delta_produccion_promedio", "prob_xgb", "tasa_cambio_conductividad",
	"tasa_cambio_produccion",
}

// excludedColumns never reach a classifier even when a schema names them.
var excludedColumns = []string{
	"vaca", "vaca_id", "fecha", "EOPO_ID", "EO/PO", "Destino Leche",
	"Mastitis", "Hora de inicio", "Archivo_origen", "Duración (mm:ss)",
}

// InstantColumns returns a copy of the default instant classifier schema.
func InstantColumns() []string { return append([]string(nil), instantColumns...) }

// LagBaseFeatures returns a copy of the default lag feature list.
func LagBaseFeatures() []string { return append([]string(nil), lagBaseFeatures...) }

// ExcludedColumns returns a copy of the identifier and label columns that
// are always withheld from classifiers.
func ExcludedColumns() []string { return append([]string(nil), excludedColumns...) }
