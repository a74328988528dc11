package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar wraps scmhub/calendar to anchor synthetic series on real
// trading sessions.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	// Simple suffix to MIC mapping (ISO 10383); bare tickers default to NYSE.
	mic := "xnys"
	if strings.HasSuffix(symbol, ".L") {
		mic = "xlon"
	} else if strings.HasSuffix(symbol, ".PA") {
		mic = "xpar"
	} else if strings.HasSuffix(symbol, ".DE") {
		mic = "xfra"
	} else if strings.HasSuffix(symbol, ".T") {
		mic = "xtks"
	} else if strings.HasSuffix(symbol, ".HK") {
		mic = "xhkg"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		// Simple fallback: Mon-Fri, New York hours
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// LastTradingDay walks backwards from t to the most recent trading day.
// Synthetic bar series end on this day so generated timestamps land inside
// a real session of the symbol's venue.
func (tc *TradingCalendar) LastTradingDay(t time.Time) time.Time {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	for i := 0; i < 14; i++ {
		if tc.IsTradingDay(t) {
			return t
		}
		t = t.AddDate(0, 0, -1)
	}
	// Two weeks without a session means calendar data is off; give up and
	// use the original time.
	return t
}
