package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    State
		wantErr bool
	}{
		{name: "active", raw: "active", want: Active},
		{name: "background mixed case", raw: " Background ", want: Background},
		{name: "inactive is not a transition", raw: "inactive", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseState(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBroadcasterDeliversInOrderAndUnsubscribes(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()
	var got []string
	unsubA := b.Subscribe(func(s State) { got = append(got, "a:"+string(s)) })
	b.Subscribe(func(s State) { got = append(got, "b:"+string(s)) })

	b.Publish(Active)
	unsubA()
	b.Publish(Background)

	assert.Equal(t, []string{"a:active", "b:active", "b:background"}, got)
}
