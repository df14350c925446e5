package monopitch_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/pitch/monopitch"
	"github.com/cwbudde/algo-pitch/dsp/pitch/pyin"
)

func ExampleTracker() {
	const sr = 16000.0

	pp := pyin.DefaultParams(80, 1000, sr, nil)
	tracker, err := monopitch.NewTracker(pp, monopitch.ParamsFromPYin(pp))
	if err != nil {
		panic(err)
	}

	x := make([]float64, 8000)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
	}

	if _, err := tracker.Process(x); err != nil {
		panic(err)
	}
	track, err := tracker.Flush()
	if err != nil {
		panic(err)
	}

	fmt.Printf("%d hops, hop 60 at %.0f Hz\n", len(track), track[60])
	// Output:
	// 125 hops, hop 60 at 440 Hz
}
