package cart

import "time"

// RTC register selectors written to 4000-5FFF.
const (
	rtcSeconds  = 0x08
	rtcMinutes  = 0x09
	rtcHours    = 0x0A
	rtcDayLow   = 0x0B
	rtcDayHigh  = 0x0C
	rtcDayLimit = 512
)

// nowUnix is the wall clock the RTC follows; tests replace it.
var nowUnix = func() int64 { return time.Now().Unix() }

// rtc is the MBC3 clock. Live counters advance from wall time when touched;
// the CPU only ever sees the latched copy.
type rtc struct {
	sec, min, hour byte
	day            uint16
	halt, carry    bool

	latched [5]byte
	last    int64
}

func (r *rtc) update() {
	now := nowUnix()
	elapsed := now - r.last
	r.last = now
	if r.halt || elapsed <= 0 {
		return
	}
	total := int64(r.sec) + elapsed
	r.sec = byte(total % 60)
	total = int64(r.min) + total/60
	r.min = byte(total % 60)
	total = int64(r.hour) + total/60
	r.hour = byte(total % 24)
	days := int64(r.day) + total/24
	if days >= rtcDayLimit {
		r.carry = true
		days %= rtcDayLimit
	}
	r.day = uint16(days)
}

func (r *rtc) dayHigh() byte {
	v := byte(r.day>>8) & 0x01
	if r.halt {
		v |= 0x40
	}
	if r.carry {
		v |= 0x80
	}
	return v
}

func (r *rtc) latch() {
	r.update()
	r.latched = [5]byte{r.sec, r.min, r.hour, byte(r.day), r.dayHigh()}
}

func (r *rtc) set(reg, v byte) {
	r.update()
	switch reg {
	case rtcSeconds:
		r.sec = v & 0x3F
	case rtcMinutes:
		r.min = v & 0x3F
	case rtcHours:
		r.hour = v & 0x1F
	case rtcDayLow:
		r.day = r.day&0x100 | uint16(v)
	case rtcDayHigh:
		r.day = r.day&0x0FF | uint16(v&0x01)<<8
		r.halt = v&0x40 != 0
		r.carry = v&0x80 != 0
	}
	r.latched[reg-rtcSeconds] = r.readLive(reg)
}

func (r *rtc) readLive(reg byte) byte {
	switch reg {
	case rtcSeconds:
		return r.sec
	case rtcMinutes:
		return r.min
	case rtcHours:
		return r.hour
	case rtcDayLow:
		return byte(r.day)
	}
	return r.dayHigh()
}
