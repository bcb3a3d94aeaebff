package extraction

import (
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/domain"
)

// italianMonths is indexed by month number minus one.
var italianMonths = [12]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

var monthAlternation = strings.Join(italianMonths[:], "|")

func italianMonth(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	for i, m := range italianMonths {
		if m == name {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// textualDate parses "<day> <month name> <year>" captures.
func textualDate(day, month, year string) (domain.Date, bool) {
	m, ok := italianMonth(month)
	if !ok {
		return domain.Date{}, false
	}
	d, err1 := strconv.Atoi(day)
	y, err2 := strconv.Atoi(year)
	if err1 != nil || err2 != nil {
		return domain.Date{}, false
	}
	return domain.NewDate(y, m, d)
}

// numericDate parses day/month/year captures.
func numericDate(day, month, year string) (domain.Date, bool) {
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	y, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 {
		return domain.Date{}, false
	}
	return domain.NewDate(y, time.Month(m), d)
}
