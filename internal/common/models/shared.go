package models

import "time"

// Log is the document written by the asynchronous log sink
type Log struct {
	Message       string    `bson:"message" json:"message"`
	Level         string    `bson:"level" json:"level"`
	LogLevelId    int       `bson:"log_level_id" json:"log_level_id"`
	IpAddress     string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserID        string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Caller        string    `bson:"caller,omitempty" json:"caller,omitempty"`
	Fields        any       `bson:"fields,omitempty" json:"fields,omitempty"`
	ApplicationID string    `bson:"application_id" json:"application_id"`
	CreatedOnUtc  time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
