package market

import (
	"time"

	"github.com/marketdeck/marketdeck/pkg/models"
	"github.com/marketdeck/marketdeck/pkg/utils"
)

// EvaluateStatus decides the market status for the given instant against a
// freshly fetched holiday calendar. Rules apply in strict priority order:
//
//  1. the date is in the holiday set -> HOLIDAY with the holiday description
//  2. Saturday or Sunday            -> CLOSED "Weekend"
//  3. inside the 9:15-15:30 session -> OPEN   "Market is open"
//  4. otherwise                     -> CLOSED "Market is closed"
//
// Callers that fail to fetch the calendar pass an empty set; the weekday and
// session rules still produce a best-effort answer.
func EvaluateStatus(now time.Time, holidays models.HolidayCalendar) models.MarketStatus {
	now = utils.ToIST(now)

	st := models.MarketStatus{
		Date: utils.FormatDisplayDate(now),
		Time: utils.FormatDisplayTime(now),
	}

	switch {
	case holidayFor(now, holidays) != "":
		st.Status = models.StatusHoliday
		st.Reason = holidayFor(now, holidays)
	case utils.IsWeekend(now):
		st.Status = models.StatusClosed
		st.Reason = "Weekend"
	case utils.InSessionWindow(now):
		st.Status = models.StatusOpen
		st.Reason = "Market is open"
	default:
		st.Status = models.StatusClosed
		st.Reason = "Market is closed"
	}
	return st
}

func holidayFor(now time.Time, holidays models.HolidayCalendar) string {
	return holidays[utils.FormatDateIST(now)]
}
