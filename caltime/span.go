// Package caltime 提供日曆感知的時間跨度型別。
//
// 拍賣回合的長度若以「天」為單位，回合結束時間必須落在場地時區的同一個
// 牆上時刻，而不是固定加上 24 小時；跨越日光節約時間轉換時兩者會相差
// 一小時。Span 以月、日與時鐘時間三個欄位分開保存，AddTo 先做日曆運算
// 再加上時鐘時間，與 Postgres interval 的語意一致。
package caltime

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Span 表示一段日曆時間跨度。Months 與 Days 參與日曆運算（保留當地牆上
// 時刻），Clock 是絕對的時鐘時間部分。
type Span struct {
	Months int
	Days   int
	Clock  time.Duration
}

// AddTo 將跨度加到指定時間上。t 的位置(Location)決定日曆運算的時區，
// 呼叫端應先以場地時區呼叫 t.In(loc)。
func (s Span) AddTo(t time.Time) time.Time {
	return t.AddDate(0, s.Months, s.Days).Add(s.Clock)
}

// IsZero 回報跨度是否為零。
func (s Span) IsZero() bool {
	return s.Months == 0 && s.Days == 0 && s.Clock == 0
}

// String 輸出如 "1mo2d3h30m0s" 的緊湊格式，可被 Parse 還原。
func (s Span) String() string {
	var b strings.Builder
	if s.Months != 0 {
		fmt.Fprintf(&b, "%dmo", s.Months)
	}
	if s.Days != 0 {
		fmt.Fprintf(&b, "%dd", s.Days)
	}
	if s.Clock != 0 || b.Len() == 0 {
		b.WriteString(s.Clock.String())
	}
	return b.String()
}

// Parse 解析緊湊格式的跨度，例如 "1mo"、"2d"、"1d12h"、"90m"。
// 月(mo)與日(d)的部分必須出現在時鐘時間之前。
func Parse(raw string) (Span, error) {
	var span Span
	rest := strings.TrimSpace(raw)
	if rest == "" {
		return Span{}, fmt.Errorf("empty span")
	}

	neg := false
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	}

	// 逐段取出 "<number>mo" 與 "<number>d" 前綴
	for {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			break
		}
		if strings.HasPrefix(rest[i:], "mo") {
			n, err := strconv.Atoi(rest[:i])
			if err != nil {
				return Span{}, fmt.Errorf("invalid months in span %q: %w", raw, err)
			}
			span.Months = n
			rest = rest[i+2:]
			continue
		}
		// "d" 後面不能接字母，否則是 duration 單位的一部分（沒有這種單位，
		// 但保守處理）
		if rest[i] == 'd' {
			n, err := strconv.Atoi(rest[:i])
			if err != nil {
				return Span{}, fmt.Errorf("invalid days in span %q: %w", raw, err)
			}
			span.Days = n
			rest = rest[i+1:]
			continue
		}
		break
	}

	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return Span{}, fmt.Errorf("invalid clock part in span %q: %w", raw, err)
		}
		span.Clock = d
	}
	if span.IsZero() {
		return Span{}, fmt.Errorf("zero span %q", raw)
	}
	if neg {
		span.Months, span.Days, span.Clock = -span.Months, -span.Days, -span.Clock
	}
	return span, nil
}

// MarshalJSON 以緊湊字串格式輸出。
func (s Span) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

func (s *Span) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("span must be a JSON string: %w", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// GormDataType 讓 gorm 將此型別對應到 interval 欄位。
func (Span) GormDataType() string {
	return "interval"
}

// Value 輸出 Postgres interval 的輸入格式。
func (s Span) Value() (driver.Value, error) {
	clock := s.Clock
	sign := ""
	if clock < 0 {
		sign = "-"
		clock = -clock
	}
	h := clock / time.Hour
	m := (clock % time.Hour) / time.Minute
	sec := (clock % time.Minute) / time.Second
	micro := (clock % time.Second) / time.Microsecond
	out := fmt.Sprintf("%d mons %d days %s%02d:%02d:%02d", s.Months, s.Days, sign, h, m, sec)
	if micro != 0 {
		out += fmt.Sprintf(".%06d", micro)
	}
	return out, nil
}

// Scan 解析 Postgres interval 的文字輸出格式，
// 例如 "1 mon 2 days 03:30:00"、"1 day"、"-00:05:00"、"2 years 1 mon"。
func (s *Span) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = Span{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into caltime.Span", src)
	}

	var out Span
	fields := strings.Fields(raw)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.Contains(f, ":") {
			clock, err := parseClock(f)
			if err != nil {
				return fmt.Errorf("invalid interval clock %q: %w", f, err)
			}
			out.Clock = clock
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("invalid interval %q", raw)
		}
		if i+1 >= len(fields) {
			return fmt.Errorf("invalid interval %q: dangling number", raw)
		}
		i++
		switch unit := strings.TrimSuffix(fields[i], "s"); unit {
		case "year":
			out.Months += n * 12
		case "mon":
			out.Months += n
		case "day":
			out.Days += n
		default:
			return fmt.Errorf("invalid interval unit %q", fields[i])
		}
	}
	*s = out
	return nil
}

func parseClock(f string) (time.Duration, error) {
	neg := false
	if strings.HasPrefix(f, "-") {
		neg = true
		f = f[1:]
	}
	parts := strings.SplitN(f, ":", 3)
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second))
	if neg {
		d = -d
	}
	return d, nil
}
