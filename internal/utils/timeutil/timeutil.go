package timeutil

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	mu  sync.RWMutex
	loc = time.FixedZone("BRT", -3*3600)
)

// SetLocation 设置业务时区，加载失败保留默认 UTC-3
func SetLocation(name string) error {
	l, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	mu.Lock()
	loc = l
	mu.Unlock()
	return nil
}

// Location 业务时区（平台结算按巴西当地日历日）
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return loc
}

// Date 日历日，不含时区
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf 取 t 自身时区下的日历日，用于 DATE 列读出的时间
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// BusinessDate 取业务时区下的日历日
func BusinessDate(t time.Time) Date {
	return DateOf(t.In(Location()))
}

func (d Date) key() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

func (d Date) Before(o Date) bool { return d.key() < o.key() }
func (d Date) After(o Date) bool  { return d.key() > o.key() }
func (d Date) Equal(o Date) bool  { return d.key() == o.key() }

// Time 业务时区零点
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, Location())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate 解析 2006-01-02，返回业务时区零点
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), Location())
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDateTime 兼容常见格式；只有日期时返回当日零点
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, Location()); err == nil {
			return t, nil
		}
	}
	return ParseDate(s)
}

// EndOfDay 当日 23:59:59.999999999（业务时区）
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.In(Location()).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), Location())
}

// WithinInclusive start <= t <= end
func WithinInclusive(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
