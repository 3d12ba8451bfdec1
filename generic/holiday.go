package generic

import "strings"

// =============================================================================
// LOCATION - Where an employee works, for holiday membership
// =============================================================================

// Location is the holiday hierarchy an employee belongs to. Country is the
// widest scope, City the narrowest.
type Location struct {
	Country string
	Region  string
	City    string
}

func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Country, l.Region, l.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// =============================================================================
// HOLIDAY - A non-working date for some part of the hierarchy
// =============================================================================

// Holiday is a non-working date. Its Scope says which part of the location
// hierarchy observes it: an empty Country means everyone, a Country-only
// scope covers every region and city inside it, and so on down.
type Holiday struct {
	ID        string
	Date      Date
	Name      string
	Scope     Location
	Recurring bool // same month/day every year
}

// AppliesTo reports whether an employee at loc observes the holiday.
func (h Holiday) AppliesTo(loc Location) bool {
	if h.Scope.Country == "" {
		return true
	}
	if !strings.EqualFold(h.Scope.Country, loc.Country) {
		return false
	}
	if h.Scope.Region != "" && !strings.EqualFold(h.Scope.Region, loc.Region) {
		return false
	}
	if h.Scope.City != "" && !strings.EqualFold(h.Scope.City, loc.City) {
		return false
	}
	return true
}

// OccursOn reports whether the holiday falls on d, honoring Recurring.
func (h Holiday) OccursOn(d Date) bool {
	if h.Recurring {
		return h.Date.Month() == d.Month() && h.Date.Day() == d.Day()
	}
	return h.Date.Equal(d)
}

// =============================================================================
// HOLIDAY LOOKUP - Predicates the engine consults once per iterated day
// =============================================================================

// HolidayLookup answers "is this date a holiday?" for one employee's
// location. The engine treats it as a synchronous pure function.
type HolidayLookup interface {
	IsHoliday(date Date) bool
}

// HolidayFunc adapts a plain function to HolidayLookup.
type HolidayFunc func(Date) bool

func (f HolidayFunc) IsHoliday(d Date) bool { return f(d) }

// NoHolidays is a lookup for when holidays are disabled.
var NoHolidays HolidayLookup = HolidayFunc(func(Date) bool { return false })

// HolidayCalendar provides holiday lookup across locations.
type HolidayCalendar interface {
	IsHoliday(loc Location, date Date) bool
}

// Bind fixes a calendar to one location.
func Bind(cal HolidayCalendar, loc Location) HolidayLookup {
	if cal == nil {
		return NoHolidays
	}
	return HolidayFunc(func(d Date) bool { return cal.IsHoliday(loc, d) })
}

// HolidaySet is a prefetched set of holiday dates for one location. Callers
// whose holiday source does I/O build one per request so the engine's
// per-day lookups never leave memory.
type HolidaySet struct {
	dates map[Date]string
}

// NewHolidaySet expands the holidays that apply to loc over period into a
// set of concrete dates. Recurring holidays are placed in every year the
// period touches.
func NewHolidaySet(holidays []Holiday, loc Location, period Period) HolidaySet {
	set := HolidaySet{dates: make(map[Date]string)}
	for _, h := range holidays {
		if !h.AppliesTo(loc) {
			continue
		}
		if !h.Recurring {
			if period.Contains(h.Date) {
				set.dates[h.Date] = h.Name
			}
			continue
		}
		for y := period.Start.Year(); y <= period.End.Year(); y++ {
			// A Feb 29 recurring holiday only exists in leap years.
			if h.Date.Day() > DaysInMonth(y, h.Date.Month()) {
				continue
			}
			d := NewDate(y, h.Date.Month(), h.Date.Day())
			if period.Contains(d) {
				set.dates[d] = h.Name
			}
		}
	}
	return set
}

func (s HolidaySet) IsHoliday(d Date) bool {
	_, ok := s.dates[d]
	return ok
}

// Name returns the holiday name for d, if any.
func (s HolidaySet) Name(d Date) (string, bool) {
	name, ok := s.dates[d]
	return name, ok
}

func (s HolidaySet) Len() int { return len(s.dates) }
