// Package dayclose builds the daily closing message (napi zárás).
package dayclose

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/order"
	"github.com/noah-isme/ntak-rms/internal/pricing"
)

var (
	ErrInvalidDayType     = errors.New("unknown day type")
	ErrMissingBusinessDay = errors.New("business day is required")
	ErrMissingOpening     = errors.New("opening and closing time are required unless the venue was closed")
	ErrInvalidWindow      = errors.New("closing time is before opening time")
	ErrNegativeTips       = errors.New("tips cannot be negative")
)

// Params carries the raw fields of a daily closing.
type Params struct {
	// BusinessDay defaults to the opening date when zero.
	BusinessDay time.Time
	Type        catalog.DayType
	Open        time.Time
	Close       time.Time
	Tips        pricing.Money
}

// Closing is a validated daily closing.
type Closing struct {
	day   time.Time
	typ   catalog.DayType
	open  time.Time
	close time.Time
	tips  pricing.Money
}

// New validates p and returns the closing.
func New(p Params) (Closing, error) {
	if !p.Type.Valid() {
		return Closing{}, fmt.Errorf("day close: %w: %q", ErrInvalidDayType, p.Type)
	}
	if p.Tips < 0 {
		return Closing{}, fmt.Errorf("day close: %w", ErrNegativeTips)
	}
	c := Closing{day: p.BusinessDay, typ: p.Type, tips: p.Tips}
	if p.Type == catalog.DayClosed {
		if c.day.IsZero() {
			c.day = p.Open
		}
		if c.day.IsZero() {
			return Closing{}, fmt.Errorf("day close: %w", ErrMissingBusinessDay)
		}
		return c, nil
	}
	if p.Open.IsZero() || p.Close.IsZero() {
		return Closing{}, fmt.Errorf("day close: %w", ErrMissingOpening)
	}
	if p.Close.Before(p.Open) {
		return Closing{}, fmt.Errorf("day close: %w", ErrInvalidWindow)
	}
	if c.day.IsZero() {
		c.day = p.Open
	}
	c.open = p.Open
	c.close = p.Close
	return c, nil
}

func (c Closing) Type() catalog.DayType { return c.typ }
func (c Closing) Tips() pricing.Money   { return c.tips }

// Payload is the wire form of the closing (zarasiInformaciok).
type Payload struct {
	BusinessDay string        `json:"targynap"`
	Type        string        `json:"targynapBesorolasa"`
	OpenedAt    *string       `json:"nyitasIdopontja"`
	ClosedAt    *string       `json:"zarasIdopontja"`
	Tips        pricing.Money `json:"osszesBorravalo"`
}

// Payload renders the closing with timestamps in loc, Budapest when nil.
// Opening and closing times are null for days the venue was closed.
func (c Closing) Payload(loc *time.Location) Payload {
	if loc == nil {
		loc = order.Budapest
	}
	p := Payload{
		BusinessDay: c.day.In(loc).Format(time.DateOnly),
		Type:        string(c.typ),
		Tips:        c.tips,
	}
	if c.typ != catalog.DayClosed {
		open := c.open.In(loc).Format(time.RFC3339)
		closed := c.close.In(loc).Format(time.RFC3339)
		p.OpenedAt = &open
		p.ClosedAt = &closed
	}
	return p
}

// Request is the JSON form of a daily closing accepted by the API.
type Request struct {
	BusinessDay string     `json:"businessDay,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Type        string     `json:"type" validate:"required"`
	Open        *time.Time `json:"open,omitempty"`
	Close       *time.Time `json:"close,omitempty"`
	Tips        int64      `json:"tips"`
}

// Closing validates the request and converts it.
func (r Request) Closing() (Closing, error) {
	p := Params{Type: catalog.DayType(r.Type), Tips: r.Tips}
	if r.BusinessDay != "" {
		day, err := time.ParseInLocation(time.DateOnly, r.BusinessDay, order.Budapest)
		if err != nil {
			return Closing{}, fmt.Errorf("day close: business day: %w", err)
		}
		p.BusinessDay = day
	}
	if r.Open != nil {
		p.Open = *r.Open
	}
	if r.Close != nil {
		p.Close = *r.Close
	}
	return New(p)
}
