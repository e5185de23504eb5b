package atl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGameJSON(t *testing.T) {
	t.Parallel()

	game, err := ParseGameJSON([]byte(`{
		"player_count": 2,
		"labeling": [[0], []],
		"transitions": [[[1, 0], [0, 0]], [[1]]],
		"moves": [[2, 2], [1, 1]]
	}`))
	require.NoError(t, err)

	require.Equal(t, 2, game.PlayerCount())
	require.Equal(t, 0, game.InitialState())
	require.Equal(t, []int{0}, game.Labels(0))
	require.Empty(t, game.Labels(1))
	require.Equal(t, []int{2, 2}, game.MoveCount(0))
	require.Equal(t, []int{1, 1}, game.MoveCount(1))
	require.Equal(t, 1, game.Transition(0, []int{0, 0}))
	require.Equal(t, 0, game.Transition(0, []int{0, 1}))
	require.Equal(t, 1, game.Transition(1, []int{0, 0}))

	encoded, err := json.Marshal(game.Transitions)
	require.NoError(t, err)
	require.JSONEq(t, `[[[1, 0], [0, 0]], [[1]]]`, string(encoded))
}

func TestParseGameJSONDerivesMoves(t *testing.T) {
	t.Parallel()

	game, err := ParseGameJSON([]byte(`{"player_count": 2, "transitions": [[[0, 0, 0]]]}`))
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, game.MoveCount(0))
	require.Nil(t, game.Labels(0))
}

func TestParseGameJSONErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no players",
			input: `{"player_count": 0, "transitions": [0]}`,
			want:  "player_count must be at least 1, got 0",
		},
		{
			name:  "no states",
			input: `{"player_count": 1, "transitions": []}`,
			want:  "transitions must describe at least one state",
		},
		{
			name:  "unknown target",
			input: `{"player_count": 1, "transitions": [[5]]}`,
			want:  "state 0: transition leads to unknown state 5",
		},
		{
			name:  "too shallow",
			input: `{"player_count": 2, "transitions": [[0]]}`,
			want:  "state 0: transitions for player 1 are missing",
		},
		{
			name:  "too deep",
			input: `{"player_count": 1, "transitions": [[[0]]]}`,
			want:  "state 0: transitions nest deeper than 1 players",
		},
		{
			name:  "player without moves",
			input: `{"player_count": 1, "transitions": [[]]}`,
			want:  "state 0: player 0 has no moves",
		},
		{
			name:  "ragged tree",
			input: `{"player_count": 2, "transitions": [[[0, 0], [0]]]}`,
			want:  "player 1 has a different number of moves depending on earlier choices",
		},
		{
			name:  "moves disagree with transitions",
			input: `{"player_count": 2, "transitions": [[[0, 0]]], "moves": [[1, 1]]}`,
			want:  "state 0: moves [1 1] do not match transitions [1 2]",
		},
		{
			name:  "moves for the wrong number of states",
			input: `{"player_count": 1, "transitions": [[0]], "moves": [[1], [1]]}`,
			want:  "moves describes 2 states but transitions 1",
		},
		{
			name:  "labeling for unknown states",
			input: `{"player_count": 1, "transitions": [[0]], "labeling": [[], [1]]}`,
			want:  "labeling describes 2 states but transitions only 1",
		},
		{
			name:  "leaf is not a number",
			input: `{"player_count": 1, "transitions": [["a"]]}`,
			want:  "transition leaf must be a state index",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseGameJSON([]byte(tc.input))
			require.ErrorContains(t, err, tc.want)
		})
	}
}
