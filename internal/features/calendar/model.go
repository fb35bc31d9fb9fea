package calendar

import "time"

// Token is the per-user Google credential row
type Token struct {
	ID                string     `bson:"_id" json:"id"`
	UserID            string     `bson:"user_id" json:"user_id"`
	AccessToken       string     `bson:"access_token" json:"-"`
	RefreshToken      string     `bson:"refresh_token" json:"-"`
	TokenExpiry       time.Time  `bson:"token_expiry" json:"token_expiry"`
	WebhookChannelID  string     `bson:"webhook_channel_id,omitempty" json:"webhook_channel_id,omitempty"`
	WebhookResourceID string     `bson:"webhook_resource_id,omitempty" json:"webhook_resource_id,omitempty"`
	WebhookExpiry     *time.Time `bson:"webhook_expiry,omitempty" json:"webhook_expiry,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at" json:"updated_at"`
}

// EventSync maps a visit to the Google event created for one user
type EventSync struct {
	ID            string    `bson:"_id" json:"id"`
	VisitaID      string    `bson:"visita_id" json:"visita_id"`
	GoogleEventID string    `bson:"google_event_id" json:"google_event_id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	LastSyncedAt  time.Time `bson:"last_synced_at" json:"last_synced_at"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// Event statuses on the provider side
const (
	EventConfirmed = "confirmed"
	EventCancelled = "cancelled"
)

// Event is the provider-neutral shape of a calendar event
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Status      string
}

type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Channel is a push notification subscription
type Channel struct {
	ID         string
	ResourceID string
	Expiration time.Time
}

// Notification carries the X-Goog-* headers of a webhook call
type Notification struct {
	ChannelID     string
	ResourceID    string
	ResourceState string
}

const (
	ResourceStateSync   = "sync"
	ResourceStateExists = "exists"
)

type ConnectionStatus struct {
	Connected     bool       `json:"connected"`
	ConnectedAt   *time.Time `json:"connectedAt,omitempty"`
	WebhookExpiry *time.Time `json:"webhookExpiry,omitempty"`
}

type AuthorizationStart struct {
	AuthURL   string    `json:"authUrl"`
	State     string    `json:"state"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExchangeRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

type SyncRequest struct {
	Action   string `json:"action" validate:"required,oneof=create update delete"`
	VisitaID string `json:"visitaId" validate:"required"`
}
