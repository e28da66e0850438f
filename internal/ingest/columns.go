package ingest

import (
	"fmt"
	"regexp"
)

// Well-known raw columns.
const (
	StartTimeColumn = "Hora de inicio"
	SourceColumn    = "Archivo_origen"
	ShiftColumn     = "EO/PO"
	ShiftIDColumn   = "EOPO_ID"
)

// NoiseColumns are operator annotations removed before cleaning.
var NoiseColumns = []string{
	"Patada",
	"Pezones no encontrados",
	"Incompleto",
	"Pezón",
	"Razón de la desviación",
	"RCS (* 1000 células / ml)",
	"Usuario",
	"Acción",
}

var quadrantFamilies = []string{"FlujoMedio", "Sangre", "Conductividad", "FlujoMax", "Produccion"}

// Renames maps disambiguated raw headers to feature column names.
func Renames() map[string]string {
	m := map[string]string{"Ubre": "Estado_Ubre"}
	for i, family := range quadrantFamilies {
		for _, q := range []string{"DI", "DD", "TI", "TD"} {
			raw := q
			if i > 0 {
				raw = fmt.Sprintf("%s.%d", q, i)
			}
			m[raw] = family + "_" + q
		}
	}
	return m
}

// dedupe suffixes repeated names with .1, .2 and so on, and names blank
// headers by position.
func dedupe(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	for j, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", j)
		}
		name := h
		for taken[name] {
			counts[h]++
			name = fmt.Sprintf("%s.%d", h, counts[h])
		}
		taken[name] = true
		out[j] = name
	}
	return out
}

var digitRun = regexp.MustCompile(`\d+`)

// EntityID is the first digit run of a file stem, or the stem itself.
func EntityID(stem string) string {
	if m := digitRun.FindString(stem); m != "" {
		return m
	}
	return stem
}
