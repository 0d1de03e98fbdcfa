package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTxEnvelope(t *testing.T) {
	env, err := DecodeTxEnvelope([]byte(`{"type":"casino/move","value":{"player":"alice","sessionId":3,"payload":{"action":"hit"}},"nonce":"5","signer":"alice"}`))
	require.NoError(t, err)
	require.Equal(t, "casino/move", env.Type)
	require.Equal(t, "5", env.Nonce)
	require.Equal(t, "alice", env.Signer)

	var mv CasinoMoveTx
	require.NoError(t, json.Unmarshal(env.Value, &mv))
	require.Equal(t, "alice", mv.Player)
	require.Equal(t, uint64(3), mv.SessionID)
	require.JSONEq(t, `{"action":"hit"}`, string(mv.Payload))
}

func TestDecodeTxEnvelopeRejectsBadInput(t *testing.T) {
	_, err := DecodeTxEnvelope([]byte(`not json`))
	require.Error(t, err)

	_, err = DecodeTxEnvelope([]byte(`{"value":{}}`))
	require.Error(t, err)
}

func TestStartGameTxShape(t *testing.T) {
	raw := []byte(`{"player":"bob","game":"roulette","pool":"tournament"}`)
	var tx CasinoStartGameTx
	require.NoError(t, json.Unmarshal(raw, &tx))
	require.Equal(t, "roulette", tx.Game)
	require.Equal(t, "tournament", tx.Pool)
	require.Zero(t, tx.Stake)
}
