// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"regexp"
	"strconv"
)

var ErrRangeSpec = errors.New("invalid range specified")

var (
	intRangeRe   = regexp.MustCompile(`^\s*(\-?\d*):(\-?\d*)\s*$`)
	floatRangeRe = regexp.MustCompile(`^\s*([-+]?[0-9]*\.?[0-9]*(?:[eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*(?:[eE][-+]?[0-9]+)?)\s*$`)
)

// Parse string like "-12:6" into 2 values, -12 and 6
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned.
// An empty string selects the default range.
func parseIntRange(r string, min int, max int) (int, int, error) {
	minOut, maxOut := min, max
	if r == `` {
		return minOut, maxOut, nil
	}
	m := intRangeRe.FindStringSubmatch(r)
	if m == nil {
		return minOut, maxOut, ErrRangeSpec
	}
	if m[1] != `` {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if m[2] != `` {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// Parse string like "-12.01e1:+6" into 2 values, -120.1 and 6.0
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12.01e1:"), the default is assigned.
// An empty string selects the default range.
func parseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	minOut, maxOut := min, max
	if r == `` {
		return minOut, maxOut, nil
	}
	m := floatRangeRe.FindStringSubmatch(r)
	if m == nil {
		return minOut, maxOut, ErrRangeSpec
	}
	var err error
	if m[1] != `` {
		if minOut, err = strconv.ParseFloat(m[1], 64); err != nil {
			return min, max, ErrRangeSpec
		}
		if minOut < min {
			minOut = min
		}
	}
	if m[2] != `` {
		if maxOut, err = strconv.ParseFloat(m[2], 64); err != nil {
			return min, max, ErrRangeSpec
		}
		if maxOut > max {
			maxOut = max
		}
	}
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}
