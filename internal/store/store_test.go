package store

import "testing"

func TestUnlockedNormalAndCoinbaseWindows(t *testing.T) {
	cases := []struct {
		name        string
		blockHeight uint64
		current     uint64
		coinbase    bool
		want        bool
	}{
		{"below window", 100, 105, false, false},
		{"exactly at window", 100, 110, false, true},
		{"well past window", 100, 200, false, true},
		{"coinbase below window", 100, 159, true, false},
		{"coinbase exactly at window", 100, 160, true, true},
		{"current before block height", 100, 50, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Unlocked(tc.blockHeight, tc.current, tc.coinbase)
			if got != tc.want {
				t.Fatalf("Unlocked(%d, %d, %v) = %v, want %v", tc.blockHeight, tc.current, tc.coinbase, got, tc.want)
			}
		})
	}
}
