package events

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindNewCard          Kind = "EventNewCard"
	KindRemoveCard       Kind = "EventRemoveCard"
	KindNewLibrary       Kind = "EventNewLibrary"
	KindRemoveLibrary    Kind = "EventRemoveLibrary"
	KindStreamIsReady    Kind = "EventStreamIsReady"
	KindStreamStats      Kind = "EventStreamStats"
	KindStartedScanning  Kind = "EventStartedScanning"
	KindStoppedScanning  Kind = "EventStoppedScanning"
	KindAuthOk           Kind = "EventAuthOk"
	KindAuthErr          Kind = "EventAuthErr"
	KindMediafileMatched Kind = "EventMediafileMatched"
)

// AuthID is the id carried by authentication replies
const AuthID int64 = -1

// Message is a push notification sent to websocket subscribers.
// It serializes to {"id": <id>, "type": <kind>, ...fields}.
type Message struct {
	ID   int64
	Kind Kind

	LibraryID *int64
	Mediafile *int64
	Stats     map[string]string
}

func NewCard(mediaID, libraryID int64) Message {
	return Message{ID: mediaID, Kind: KindNewCard, LibraryID: &libraryID}
}

func RemoveCard(mediaID int64) Message {
	return Message{ID: mediaID, Kind: KindRemoveCard}
}

func NewLibrary(id int64) Message {
	return Message{ID: id, Kind: KindNewLibrary}
}

func RemoveLibrary(id int64) Message {
	return Message{ID: id, Kind: KindRemoveLibrary}
}

func StartedScanning(libraryID int64) Message {
	return Message{ID: libraryID, Kind: KindStartedScanning}
}

func StoppedScanning(libraryID int64) Message {
	return Message{ID: libraryID, Kind: KindStoppedScanning}
}

func StreamIsReady(id int64) Message {
	return Message{ID: id, Kind: KindStreamIsReady}
}

func StreamStats(id int64, stats map[string]string) Message {
	return Message{ID: id, Kind: KindStreamStats, Stats: stats}
}

func AuthOk() Message {
	return Message{ID: AuthID, Kind: KindAuthOk}
}

func AuthErr() Message {
	return Message{ID: AuthID, Kind: KindAuthErr}
}

// MediafileMatched reports that a file was bound to the media id
func MediafileMatched(mediaID, mediafileID, libraryID int64) Message {
	return Message{ID: mediaID, Kind: KindMediafileMatched, Mediafile: &mediafileID, LibraryID: &libraryID}
}

type wireMessage struct {
	ID        int64             `json:"id"`
	Type      Kind              `json:"type"`
	LibID     *int64            `json:"lib_id,omitempty"`
	LibraryID *int64            `json:"library_id,omitempty"`
	Mediafile *int64            `json:"mediafile,omitempty"`
	Stats     map[string]string `json:"stats,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{ID: m.ID, Type: m.Kind, Stats: m.Stats}
	switch m.Kind {
	case KindNewCard:
		w.LibID = m.LibraryID
	case KindMediafileMatched:
		w.LibraryID = m.LibraryID
		w.Mediafile = m.Mediafile
	}
	return json.Marshal(w)
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Type == "" {
		return fmt.Errorf("event without a type")
	}

	*m = Message{ID: w.ID, Kind: w.Type, Mediafile: w.Mediafile, Stats: w.Stats}
	m.LibraryID = w.LibraryID
	if w.LibID != nil {
		m.LibraryID = w.LibID
	}
	return nil
}

// Publisher delivers messages to every subscriber
type Publisher interface {
	Publish(msg Message)
}

// PublisherFunc adapts a function to a Publisher
type PublisherFunc func(msg Message)

func (f PublisherFunc) Publish(msg Message) {
	f(msg)
}

// Discard drops every message
var Discard Publisher = PublisherFunc(func(Message) {})
