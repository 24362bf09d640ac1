package model

import "time"

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// TripType classifies a trip.
type TripType string

// Trip types.
const (
	TripLeisure TripType = "LEISURE"
	TripWork    TripType = "WORK"
	TripFlying  TripType = "FLYING"
	TripFamily  TripType = "FAMILY"
)

// Destination is where a trip goes.
type Destination struct {
	City     string  `json:"city,omitempty"`
	Country  string  `json:"country,omitempty"`
	Lat      float64 `json:"lat,omitempty" validate:"gte=-90,lte=90"`
	Lon      float64 `json:"lon,omitempty" validate:"gte=-180,lte=180"`
	Timezone string  `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Trip spans one or more calendar days.
type Trip struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name" validate:"required"`
	Type        TripType    `json:"type" validate:"required,oneof=LEISURE WORK FLYING FAMILY"`
	StartDate   string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string      `json:"end_date" validate:"required,datetime=2006-01-02"`
	Destination Destination `json:"destination"`
	Notes       string      `json:"notes,omitempty"`
}

// DayStatus is how a calendar day is spent.
type DayStatus string

// Day statuses.
const (
	DayWorkingHome    DayStatus = "WORKING_HOME"
	DayWorkingOffice  DayStatus = "WORKING_OFFICE"
	DayTravel         DayStatus = "TRAVEL"
	DayVacation       DayStatus = "VACATION"
	DayWeekendHoliday DayStatus = "WEEKEND_HOLIDAY"
	DayPTO            DayStatus = "PTO"
	DayChoiceDay      DayStatus = "CHOICE_DAY"
)

// Day is the stored status of one calendar date.
type Day struct {
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	Status      DayStatus `json:"status" validate:"required,oneof=WORKING_HOME WORKING_OFFICE TRAVEL VACATION WEEKEND_HOLIDAY PTO CHOICE_DAY"`
	TripID      *int64    `json:"trip_id,omitempty"`
	TripName    string    `json:"trip_name,omitempty"`
	PTOFraction float64   `json:"pto_fraction" validate:"gte=0,lte=1"`
	Location    string    `json:"location,omitempty"`

	// Implicit marks a computed default that has no stored row.
	Implicit bool `json:"implicit,omitempty"`
}

// Event is a time-bounded entry interpreted in its own IANA timezone.
type Event struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title" validate:"required"`
	StartAt  time.Time `json:"start_at" validate:"required"`
	EndAt    time.Time `json:"end_at" validate:"required,gtefield=StartAt"`
	Timezone string    `json:"timezone" validate:"required,timezone"`
	IsAllDay bool      `json:"is_all_day"`
	TripID   *int64    `json:"trip_id,omitempty"`
	Location string    `json:"location,omitempty"`
	URL      string    `json:"url,omitempty" validate:"omitempty,url"`
}
