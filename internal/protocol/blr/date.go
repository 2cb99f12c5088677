package blr

import "time"

// EncodeDate converts a calendar date to Firebird's signed 32-bit modified
// Julian day offset. All divisions are floor division;
// Go's integer division truncates toward zero, so the helpers below
// supply the floor semantics the conversion formula assumes.
func EncodeDate(t time.Time) int32 {
	year, month, day := t.Date()
	i := int(month) + 9
	jy := year + floorDiv(i, 12) - 1
	jm := floorMod(i, 12)
	c := floorDiv(jy, 100)
	jy -= 100 * c
	j := floorDiv(146097*c, 4) + floorDiv(1461*jy, 4) + floorDiv(153*jm+2, 5) + day - 678882
	return int32(j)
}

// EncodeTime converts a time-of-day to Firebird's time word: units of 100
// microseconds (1/10000 of a second) since midnight.
func EncodeTime(t time.Time) int32 {
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	v := secs*10000 + t.Nanosecond()/1000/100
	return int32(v)
}

// DecodeDate is the inverse of EncodeDate, used by tests to check the
// round-trip law.
func DecodeDate(j int32) time.Time {
	// Firebird julian offset 0 == 1858-11-17 (the modified Julian day epoch).
	epoch := time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)
	return epoch.AddDate(0, 0, int(j))
}

// DecodeTime is the inverse of EncodeTime.
func DecodeTime(v int32) time.Time {
	tenthsOfMicros := int64(v)
	totalSeconds := tenthsOfMicros / 10000
	remainder := tenthsOfMicros % 10000
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	micros := remainder * 100
	return time.Date(0, 1, 1, int(h), int(m), int(s), int(micros*1000), time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
