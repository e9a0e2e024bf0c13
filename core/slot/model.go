// Package slot manages per (pincode, slot, date) delivery capacity. Capacity is
// counted in bookings and in total order weight; both limits are enforced on the
// same record.
package slot

import (
	"time"

	"github.com/pkg/errors"
)

var (
	// Declines, surfaced to the caller for user-facing messaging.
	ErrSlotFull           = errors.New("slot: no delivery capacity remaining")
	ErrSlotWeightExceeded = errors.New("slot: weight capacity exceeded")
	ErrSlotClosed         = errors.New("slot: slot closed for bookings")

	ErrNoZoneForPincode = errors.New("slot: no zone serves pincode")
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusFull      Status = "FULL"
	StatusClosed    Status = "CLOSED"
)

// SlotRecord is an entity. Live capacity for one slot on one date in one pincode.
// Invariant: CurrentBookings <= MaxCapacity and CurrentWeight <= MaxWeight.
type SlotRecord struct {
	Pincode         string    `json:"pincode"`
	SlotID          string    `json:"slotId"`
	Date            string    `json:"date"`
	MaxCapacity     int64     `json:"maxCapacity"`
	CurrentBookings int64     `json:"currentBookings"`
	MaxWeight       float64   `json:"maxWeight"`
	CurrentWeight   float64   `json:"currentWeight"`
	DeliveryCharge  float64   `json:"deliveryCharge"`
	Status          Status    `json:"status"`
	Version         int64     `json:"-"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

func (r SlotRecord) WithinCapacity() bool {
	return r.CurrentBookings <= r.MaxCapacity && r.CurrentWeight <= r.MaxWeight
}

type LegState string

const (
	LegReserved LegState = "RESERVED"
	LegReleased LegState = "RELEASED"
)

// SlotLeg records one booking taken against a slot record, with the amounts to
// return on release. Release is idempotent per leg.
type SlotLeg struct {
	LegID   string   `json:"legId"`
	Pincode string   `json:"pincode"`
	SlotID  string   `json:"slotId"`
	Date    string   `json:"date"`
	Weight  float64  `json:"weight"`
	State   LegState `json:"state"`
}

// Availability is the read-only headroom view returned to checkout flows.
type Availability struct {
	SlotID            string  `json:"slotId"`
	Name              string  `json:"name"`
	StartTime         string  `json:"startTime"`
	EndTime           string  `json:"endTime"`
	RemainingCapacity int64   `json:"remainingCapacity"`
	RemainingWeight   float64 `json:"remainingWeight"`
	Charge            float64 `json:"charge"`
	Status            Status  `json:"status"`
}

// SlotTemplate is static configuration: the shape every (pincode, date) record of
// this slot is seeded from.
type SlotTemplate struct {
	SlotID         string   `json:"slotId"         yaml:"slotId"         mapstructure:"slotId"`
	Name           string   `json:"name"           yaml:"name"           mapstructure:"name"`
	StartTime      string   `json:"startTime"      yaml:"startTime"      mapstructure:"startTime"`
	EndTime        string   `json:"endTime"        yaml:"endTime"        mapstructure:"endTime"`
	MaxCapacity    int64    `json:"maxCapacity"    yaml:"maxCapacity"    mapstructure:"maxCapacity"`
	MaxWeightKg    float64  `json:"maxWeightKg"    yaml:"maxWeightKg"    mapstructure:"maxWeightKg"`
	DeliveryCharge float64  `json:"deliveryCharge" yaml:"deliveryCharge" mapstructure:"deliveryCharge"`
	DaysAvailable  []string `json:"daysAvailable"  yaml:"daysAvailable"  mapstructure:"daysAvailable"`
}

type Zone struct {
	Name     string         `json:"name"     yaml:"name"     mapstructure:"name"`
	Pincodes []string       `json:"pincodes" yaml:"pincodes" mapstructure:"pincodes"`
	Slots    []SlotTemplate `json:"slots"    yaml:"slots"    mapstructure:"slots"`
}

// Zones is loaded once at startup and never mutated; resolution is a pure lookup.
type Zones []Zone

// Validate is run eagerly at startup so malformed zone configuration fails fast.
func (z Zones) Validate() error {
	if len(z) == 0 {
		return errors.New("no zones configured")
	}
	seen := map[string]string{}
	for _, zone := range z {
		if zone.Name == "" {
			return errors.New("zone missing name")
		}
		if len(zone.Slots) == 0 {
			return errors.Errorf("zone %s has no slots", zone.Name)
		}
		for _, pincode := range zone.Pincodes {
			if other, ok := seen[pincode]; ok {
				return errors.Errorf("pincode %s in zones %s and %s", pincode, other, zone.Name)
			}
			seen[pincode] = zone.Name
		}
		for _, tmpl := range zone.Slots {
			if tmpl.SlotID == "" {
				return errors.Errorf("zone %s has slot with no id", zone.Name)
			}
			if tmpl.MaxCapacity < 1 || tmpl.MaxWeightKg <= 0 {
				return errors.Errorf("zone %s slot %s has no capacity", zone.Name, tmpl.SlotID)
			}
		}
	}
	return nil
}

func (z Zones) Resolve(pincode string) (Zone, bool) {
	for _, zone := range z {
		for _, p := range zone.Pincodes {
			if p == pincode {
				return zone, true
			}
		}
	}
	return Zone{}, false
}

func (zone Zone) Template(slotID string) (SlotTemplate, bool) {
	for _, tmpl := range zone.Slots {
		if tmpl.SlotID == slotID {
			return tmpl, true
		}
	}
	return SlotTemplate{}, false
}
