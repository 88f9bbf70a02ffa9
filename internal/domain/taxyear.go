package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// ukTime is the zone HMRC deadlines are expressed in.
var ukTime = loadUKLocation()

func loadUKLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}

// TaxYear identifies a UK tax year running from 6 April to 5 April.
// The zero value is not a valid tax year; use NewTaxYear.
type TaxYear struct {
	StartYear int `yaml:"start_year" json:"start_year"`
}

// NewTaxYear returns the tax year beginning on 6 April of startYear.
func NewTaxYear(startYear int) TaxYear {
	return TaxYear{StartYear: startYear}
}

// TaxYearFor returns the tax year containing t (evaluated in UK local time).
func TaxYearFor(t time.Time) TaxYear {
	local := t.In(ukTime)
	year := local.Year()
	if local.Month() < time.April || (local.Month() == time.April && local.Day() < 6) {
		year--
	}
	return TaxYear{StartYear: year}
}

// CurrentTaxYear returns the tax year containing the supplied wall-clock time.
func CurrentTaxYear(now func() time.Time) TaxYear {
	return TaxYearFor(now())
}

// ParseTaxYear accepts "2025/26", "2025-26" or "2025".
func ParseTaxYear(s string) (TaxYear, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TaxYear{}, fmt.Errorf("tax year is required")
	}
	sep := strings.IndexAny(s, "/-")
	head := s
	if sep >= 0 {
		head = s[:sep]
	}
	start, err := strconv.Atoi(head)
	if err != nil || len(head) != 4 {
		return TaxYear{}, fmt.Errorf("invalid tax year %q: expected YYYY/YY", s)
	}
	if sep >= 0 {
		tail := s[sep+1:]
		end, err := strconv.Atoi(tail)
		if err != nil || len(tail) != 2 || end != (start+1)%100 {
			return TaxYear{}, fmt.Errorf("invalid tax year %q: end year must follow start year", s)
		}
	}
	return TaxYear{StartYear: start}, nil
}

// IsZero reports whether the tax year is unset.
func (ty TaxYear) IsZero() bool {
	return ty.StartYear == 0
}

// Start returns 6 April of the start year, 00:00 UK time.
func (ty TaxYear) Start() time.Time {
	return time.Date(ty.StartYear, time.April, 6, 0, 0, 0, 0, ukTime)
}

// End returns the last instant of 5 April in the following year.
func (ty TaxYear) End() time.Time {
	return ty.Next().Start().Add(-time.Nanosecond)
}

// Contains reports whether t falls within the tax year.
func (ty TaxYear) Contains(t time.Time) bool {
	return !t.Before(ty.Start()) && !t.After(ty.End())
}

// PaperFilingDeadline is 31 October after the tax year ends.
func (ty TaxYear) PaperFilingDeadline() time.Time {
	return endOfDay(ty.StartYear+1, time.October, 31)
}

// OnlineFilingDeadline is 31 January after the tax year ends.
func (ty TaxYear) OnlineFilingDeadline() time.Time {
	return endOfDay(ty.StartYear+2, time.January, 31)
}

// PaymentDeadline is the balancing payment date, 31 January after the tax year ends.
// It is also the due date of the first payment on account for the following year.
func (ty TaxYear) PaymentDeadline() time.Time {
	return endOfDay(ty.StartYear+2, time.January, 31)
}

// SecondPaymentOnAccountDate is 31 July after the balancing payment date.
func (ty TaxYear) SecondPaymentOnAccountDate() time.Time {
	return endOfDay(ty.StartYear+2, time.July, 31)
}

// Next returns the following tax year.
func (ty TaxYear) Next() TaxYear {
	return TaxYear{StartYear: ty.StartYear + 1}
}

// Previous returns the preceding tax year.
func (ty TaxYear) Previous() TaxYear {
	return TaxYear{StartYear: ty.StartYear - 1}
}

// Label formats the year the way HMRC prints it, e.g. "2025/26".
func (ty TaxYear) Label() string {
	return fmt.Sprintf("%d/%02d", ty.StartYear, (ty.StartYear+1)%100)
}

// APIFormat formats the year as used in HMRC API paths, e.g. "2025-26".
func (ty TaxYear) APIFormat() string {
	return fmt.Sprintf("%d-%02d", ty.StartYear, (ty.StartYear+1)%100)
}

func (ty TaxYear) String() string {
	return ty.Label()
}

func endOfDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 23, 59, 59, 0, ukTime)
}
