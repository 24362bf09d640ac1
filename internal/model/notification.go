package model

import "time"

// Channel is the delivery mechanism used to reach a notification recipient.
type Channel string

// Notification channels.
const (
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelEmail    Channel = "EMAIL"
)

// NotificationPerson is a recipient of threshold alerts.
type NotificationPerson struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name" validate:"required"`
	Phone            string    `json:"phone,omitempty" validate:"omitempty,e164"`
	Email            string    `json:"email,omitempty" validate:"omitempty,email"`
	PreferredChannel Channel   `json:"preferred_channel" validate:"required,oneof=SMS WHATSAPP EMAIL"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// AmmoThreshold notifies PersonID when the total available rounds of
// Caliber drop below MinRounds.
type AmmoThreshold struct {
	ID        int64     `json:"id"`
	Caliber   string    `json:"caliber" validate:"required"`
	MinRounds int       `json:"min_rounds" validate:"gt=0"`
	PersonID  int64     `json:"person_id" validate:"gt=0"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`

	// Joined field (not always populated).
	PersonName string `json:"person_name,omitempty"`
}

// Crossed reports whether total is below the threshold minimum.
func (t *AmmoThreshold) Crossed(total int) bool {
	return t.Enabled && total < t.MinRounds
}
