package models

import "time"

// Data types a share can carry.
const (
	DataTypeFile = "file"
	DataTypeText = "text"
	DataTypeURL  = "url"
)

// ShareID is the composite identifier of a share: the owning user plus
// the creation timestamp, unique per user.
type ShareID struct {
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// Share is one fan-out item. TargetDevices is the set of device names
// still owed a copy; it shrinks on each consumption and the share row is
// deleted the moment it empties.
//
// Data holds a filename for DataTypeFile and the literal content for
// DataTypeText/DataTypeURL. AutoOpen and Encrypted are opaque flags
// forwarded to the consuming client.
type Share struct {
	Username      string    `json:"username"`
	Timestamp     time.Time `json:"timestamp"`
	TargetDevices []string  `json:"targetDevices"`
	DataType      string    `json:"dataType"`
	Data          string    `json:"data"`
	AutoOpen      bool      `json:"autoOpen"`
	Encrypted     bool      `json:"encrypted"`
}

// ID returns the composite identifier of the share.
func (s *Share) ID() ShareID {
	return ShareID{Username: s.Username, Timestamp: s.Timestamp}
}
