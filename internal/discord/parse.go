package discord

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotSettlement reports a message that is not a settlement request at
// all, as opposed to one with unusable arguments.
var ErrNotSettlement = errors.New("not a settlement request")

// ErrArgCount reports a settlement command with the wrong number of date
// arguments.
var ErrArgCount = errors.New("wrong number of date arguments")

// DateRange is the inclusive settlement window of one request.
type DateRange struct {
	Start time.Time
	End   time.Time
}

const commandPrefix = "!정산"

var dateArgPattern = regexp.MustCompile(`^\d{8}$`)

// ParseSettleMessage decides whether a chat message asks for a settlement
// and derives its date range. Two forms are accepted: the explicit command
// "!정산 YYMMDDHH YYMMDDHH", and the conversational form mentioning two
// month/day pairs together with the word 정산.
func ParseSettleMessage(content string, now time.Time) (DateRange, error) {
	fields := strings.Fields(content)
	if len(fields) > 0 && fields[0] == commandPrefix {
		if len(fields) != 3 {
			return DateRange{}, ErrArgCount
		}
		return ParseRangeArgs(fields[1], fields[2])
	}

	if !strings.Contains(content, "정산") {
		return DateRange{}, ErrNotSettlement
	}
	return parseSpokenRange(content, now)
}

// ParseRangeArgs derives the settlement window from two 8-digit YYMMDDHH
// arguments. The century is assumed to be 20xx. The trailing hour digits are
// accepted for compatibility but the window always spans whole days: the
// start is pinned to 00:00:00 and the end to 23:59:59.
func ParseRangeArgs(startArg, endArg string) (DateRange, error) {
	if !dateArgPattern.MatchString(startArg) || !dateArgPattern.MatchString(endArg) {
		return DateRange{}, fmt.Errorf("date arguments must be 8 digits (YYMMDDHH)")
	}
	start, err := parseDateArg(startArg, false)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseDateArg(endArg, true)
	if err != nil {
		return DateRange{}, err
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", startArg, endArg)
	}
	return DateRange{Start: start, End: end}, nil
}

func parseDateArg(arg string, endOfDay bool) (time.Time, error) {
	year, _ := strconv.Atoi(arg[0:2])
	month, _ := strconv.Atoi(arg[2:4])
	day, _ := strconv.Atoi(arg[4:6])

	t := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes out-of-range components; a round-trip mismatch
	// means the date never existed.
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("no such date: %s", arg)
	}
	if endOfDay {
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return t, nil
}

// parseSpokenRange handles the conversational form, e.g.
// "6월 1일부터 6월 3일까지 정산해줘". The digit runs immediately before the
// first and last 월/일 units give the two dates; the year is the current
// one. Anything that does not scan cleanly is treated as ordinary chatter.
func parseSpokenRange(content string, now time.Time) (DateRange, error) {
	runes := []rune(content)
	firstMonth := digitsBefore(runes, indexOfRune(runes, '월'))
	firstDay := digitsBefore(runes, indexOfRune(runes, '일'))
	lastMonth := digitsBefore(runes, lastIndexOfRune(runes, '월'))
	lastDay := digitsBefore(runes, lastIndexOfRune(runes, '일'))
	if firstMonth < 0 || firstDay < 0 || lastMonth < 0 || lastDay < 0 {
		return DateRange{}, ErrNotSettlement
	}

	year := now.Year() % 100
	startArg := fmt.Sprintf("%02d%02d%02d00", year, firstMonth, firstDay)
	endArg := fmt.Sprintf("%02d%02d%02d23", year, lastMonth, lastDay)
	rng, err := ParseRangeArgs(startArg, endArg)
	if err != nil {
		return DateRange{}, ErrNotSettlement
	}
	return rng, nil
}

// digitsBefore returns the number formed by the digit run ending just before
// index unitIdx, or -1 when there is none.
func digitsBefore(runes []rune, unitIdx int) int {
	if unitIdx <= 0 {
		return -1
	}
	i := unitIdx - 1
	for i >= 0 && runes[i] >= '0' && runes[i] <= '9' {
		i--
	}
	if i == unitIdx-1 {
		return -1
	}
	n, err := strconv.Atoi(string(runes[i+1 : unitIdx]))
	if err != nil {
		return -1
	}
	return n
}

func indexOfRune(runes []rune, r rune) int {
	for i, c := range runes {
		if c == r {
			return i
		}
	}
	return -1
}

func lastIndexOfRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
