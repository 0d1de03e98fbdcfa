package games

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSicboResolve(t *testing.T) {
	cases := []struct {
		name string
		bet  sicboBet
		dice [3]uint8
		mult uint32
		win  bool
	}{
		{"small wins", sicboBet{kind: sicboSmall}, [3]uint8{1, 2, 4}, 1, true},
		{"small killed by triple", sicboBet{kind: sicboSmall}, [3]uint8{2, 2, 2}, 1, false},
		{"big wins", sicboBet{kind: sicboBig}, [3]uint8{6, 5, 1}, 1, true},
		{"big killed by triple", sicboBet{kind: sicboBig}, [3]uint8{5, 5, 5}, 1, false},
		{"odd", sicboBet{kind: sicboOdd}, [3]uint8{1, 2, 4}, 1, true},
		{"even", sicboBet{kind: sicboEven}, [3]uint8{2, 2, 4}, 1, true},
		{"specific triple hit", sicboBet{kind: sicboSpecificTriple, number: 4}, [3]uint8{4, 4, 4}, 180, true},
		{"specific triple miss", sicboBet{kind: sicboSpecificTriple, number: 4}, [3]uint8{5, 5, 5}, 180, false},
		{"any triple", sicboBet{kind: sicboAnyTriple}, [3]uint8{5, 5, 5}, 30, true},
		{"specific double", sicboBet{kind: sicboSpecificDouble, number: 3}, [3]uint8{3, 3, 6}, 10, true},
		{"double satisfied by triple", sicboBet{kind: sicboSpecificDouble, number: 3}, [3]uint8{3, 3, 3}, 10, true},
		{"double miss", sicboBet{kind: sicboSpecificDouble, number: 3}, [3]uint8{3, 4, 6}, 10, false},
		{"total 4", sicboBet{kind: sicboTotal, number: 4}, [3]uint8{1, 1, 2}, 60, true},
		{"total 10", sicboBet{kind: sicboTotal, number: 10}, [3]uint8{2, 3, 5}, 6, true},
		{"total miss", sicboBet{kind: sicboTotal, number: 9}, [3]uint8{2, 3, 5}, 6, false},
		{"single one die", sicboBet{kind: sicboSingle, number: 5}, [3]uint8{5, 2, 1}, 1, true},
		{"single two dice", sicboBet{kind: sicboSingle, number: 5}, [3]uint8{5, 5, 1}, 2, true},
		{"single three dice", sicboBet{kind: sicboSingle, number: 5}, [3]uint8{5, 5, 5}, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mult, win := sicboResolve(tc.bet, tc.dice)
			require.Equal(t, tc.win, win)
			if win {
				require.Equal(t, tc.mult, mult)
			}
		})
	}
}

func TestSicboValidation(t *testing.T) {
	blob, _, err := Init(SicBo, Context{}, testStream(0))
	require.NoError(t, err)

	_, _, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"bet","kind":"total","number":3,"amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"bet","kind":"single","number":7,"amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"bet","kind":"domino","amount":10}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidPayload)

	_, _, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"roll"}`), testStream(1))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestSicboRollSettles(t *testing.T) {
	blob, res, err := Init(SicBo, Context{}, testStream(0))
	require.NoError(t, err)
	require.Equal(t, KindContinue, res.Outcome.Kind)

	blob, res, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"bet","kind":"small","amount":100}`), testStream(1))
	require.NoError(t, err)
	require.Equal(t, int64(100), res.Outcome.Delta)

	// Mirror the move stream to know the dice in advance.
	mirror := testStream(2)
	var dice [3]uint8
	for i := range dice {
		dice[i] = mirror.RollDie()
	}
	total := dice[0] + dice[1] + dice[2]
	triple := dice[0] == dice[1] && dice[1] == dice[2]

	blob, res, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"roll"}`), testStream(2))
	require.NoError(t, err)
	require.True(t, res.Outcome.Terminal())
	require.NotNil(t, res.WinningNumber)
	require.Equal(t, total, *res.WinningNumber)

	if !triple && total >= 4 && total <= 10 {
		require.Equal(t, KindWin, res.Outcome.Kind)
		require.Equal(t, uint64(200), res.Outcome.Amount)
	} else {
		require.Equal(t, KindLossPreDeducted, res.Outcome.Kind)
		require.Equal(t, uint64(100), res.Outcome.Amount)
	}

	st, err := decodeSicbo(blob)
	require.NoError(t, err)
	require.Equal(t, sicboStageDone, st.stage)
	require.Equal(t, dice, st.dice)

	_, _, err = ProcessMove(SicBo, Context{}, blob, []byte(`{"action":"roll"}`), testStream(3))
	require.ErrorIs(t, err, ErrInvalidMove)
}

func TestSicboDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeSicbo([]byte{sicboV1, 0, 1, 2})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeSicbo([]byte{0x42, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformedState)

	_, err = decodeSicbo(newBlobWriter(sicboV1).u8(0).u8(7).u8(1).u8(1).u8(0).done())
	require.ErrorIs(t, err, ErrMalformedState)
}
