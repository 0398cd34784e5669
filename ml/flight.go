package ml

import "time"

// Flight types accepted in TIPOVUELO.
const (
	FlightTypeInternational = "I"
	FlightTypeNational      = "N"
)

// FlightRecord is a single flight as seen by the encoder. FechaI and FechaO are
// only populated for training data.
type FlightRecord struct {
	Opera     string
	TipoVuelo string
	Mes       int

	FechaI time.Time
	FechaO time.Time
}

var carriers = []string{
	"American Airlines",
	"Air Canada",
	"Air France",
	"Aeromexico",
	"Aerolineas Argentinas",
	"Austral",
	"Avianca",
	"Alitalia",
	"British Airways",
	"Copa Air",
	"Delta Air",
	"Gol Trans",
	"Iberia",
	"K.L.M.",
	"Qantas Airways",
	"United Airlines",
	"Grupo LATAM",
	"Sky Airline",
	"Latin American Wings",
	"Plus Ultra Lineas Aereas",
	"JetSmart SPA",
	"Oceanair Linhas Aereas",
	"Lacsa",
}

var knownCarriers = func() map[string]struct{} {
	set := make(map[string]struct{}, len(carriers))
	for _, c := range carriers {
		set[c] = struct{}{}
	}
	return set
}()

// Carriers returns the operators the prediction service accepts.
func Carriers() []string {
	out := make([]string, len(carriers))
	copy(out, carriers)
	return out
}

// IsKnownCarrier reports whether name is one of Carriers.
func IsKnownCarrier(name string) bool {
	_, ok := knownCarriers[name]
	return ok
}

// FlightTypes returns the accepted TIPOVUELO values.
func FlightTypes() []string {
	return []string{FlightTypeInternational, FlightTypeNational}
}

// IsKnownFlightType reports whether t is international or national.
func IsKnownFlightType(t string) bool {
	return t == FlightTypeInternational || t == FlightTypeNational
}

// HasSchedule reports whether both timestamps needed for labelling are set.
func (r FlightRecord) HasSchedule() bool {
	return !r.FechaI.IsZero() && !r.FechaO.IsZero()
}
