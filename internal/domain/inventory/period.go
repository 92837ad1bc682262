package inventory

import "time"

// Period identifica un mes calendario de una sucursal.
type Period struct {
	Year  int
	Month int // 1-12
}

// PeriodOf devuelve el período calendario que contiene t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Valid indica si el período tiene un mes y año utilizables.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 1970
}

// Bounds devuelve [inicio, fin) del período en la zona loc.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
