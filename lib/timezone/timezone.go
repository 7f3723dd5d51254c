package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force timezone to be IST because the portal renders dates in IST and
// our runners may end up in other regions, which causes disturbances
// when manipulating dates based on <time.Time>.Year()/Month()/Day()/...
func Now() time.Time {
	return time.Now().In(Location)
}

// parses a DD/MM/YYYY date string the way the portal renders it.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("02/01/2006", s, Location)
}
