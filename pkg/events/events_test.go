package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "new card carries the library",
			msg:  NewCard(12, 3),
			want: `{"id":12,"type":"EventNewCard","lib_id":3}`,
		},
		{
			name: "remove card",
			msg:  RemoveCard(12),
			want: `{"id":12,"type":"EventRemoveCard"}`,
		},
		{
			name: "new library",
			msg:  NewLibrary(4),
			want: `{"id":4,"type":"EventNewLibrary"}`,
		},
		{
			name: "auth ok uses the reserved id",
			msg:  AuthOk(),
			want: `{"id":-1,"type":"EventAuthOk"}`,
		},
		{
			name: "mediafile matched",
			msg:  MediafileMatched(7, 9, 2),
			want: `{"id":7,"type":"EventMediafileMatched","library_id":2,"mediafile":9}`,
		},
		{
			name: "stream stats",
			msg:  StreamStats(5, map[string]string{"speed": "2x"}),
			want: `{"id":5,"type":"EventStreamStats","stats":{"speed":"2x"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestMessage_UnmarshalJSON(t *testing.T) {
	t.Run("new card", func(t *testing.T) {
		var msg Message
		err := json.Unmarshal([]byte(`{"id":12,"type":"EventNewCard","lib_id":3}`), &msg)
		require.NoError(t, err)
		assert.Equal(t, NewCard(12, 3), msg)
	})

	t.Run("missing type", func(t *testing.T) {
		var msg Message
		err := json.Unmarshal([]byte(`{"id":12}`), &msg)
		assert.Error(t, err)
	})
}

func TestPublisherFunc(t *testing.T) {
	var got []Message
	p := PublisherFunc(func(m Message) {
		got = append(got, m)
	})

	p.Publish(NewLibrary(1))
	Discard.Publish(NewLibrary(2))

	assert.Equal(t, []Message{NewLibrary(1)}, got)
}
