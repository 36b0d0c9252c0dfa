package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVQuantityRoundsToCentilitres(t *testing.T) {
	cases := map[float64]string{
		12 * 1.2:  "14.4",
		144:       "144",
		0:         "0",
		2.005001:  "2.01",
		0.1 + 0.2: "0.3",
		1870.56:   "1870.56",
	}
	for in, want := range cases {
		require.Equal(t, want, csvQuantity(in), "input %v", in)
	}
}
