// This file contains code to help debugging, and is
// separated in from the rest in order not to litter
// the main code with debugging stuff

package main

import (
	"fmt"
	"io"

	"github.com/524D/mslab/internal/spectrum"
)

// debugPoints prints the spectrum points with index in range r (e.g. "3:6")
func debugPoints(w io.Writer, r string, points []spectrum.Point) error {
	if r == `` || len(points) == 0 {
		return nil
	}
	debugMin, debugMax, err := parseIntRange(r, 0, len(points)-1)
	if err != nil {
		return fmt.Errorf("debug range %q: %w", r, err)
	}
	for i := debugMin; i <= debugMax; i++ {
		p := points[i]
		fmt.Fprintf(w, "%d mass:%f intens:%g\n", i, p.Mass, p.Intensity)
	}
	return nil
}
