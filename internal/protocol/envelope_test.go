package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env, err := Encode(TypePing, PingPayload{Timestamp: 1234567890}, 42)
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypePing, decoded.Type)
	assert.EqualValues(t, 42, decoded.Timestamp)

	var payload PingPayload
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.EqualValues(t, 1234567890, payload.Timestamp)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"BOGUS","payload":{},"timestamp":1}`))
	require.Error(t, err)
	var invalid *InvalidFrame
	require.ErrorAs(t, err, &invalid)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.Error(t, err)
}

func TestMessageTypeValid(t *testing.T) {
	assert.True(t, TypeJoin.Valid())
	assert.False(t, MessageType("NOT_A_TYPE").Valid())
}
