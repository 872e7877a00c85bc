package main

import (
	"errors"
	"fmt"

	"github.com/npratt/tminus/internal/countdown"
)

// parseDuration converts a duration typed on the command line to seconds.
func parseDuration(text string) (int, error) {
	seconds, ok := countdown.ParseDuration(text)
	if !ok {
		return 0, fmt.Errorf("invalid duration %q (try 25m, 90 or 1:30)", text)
	}
	return seconds, nil
}

// startSeconds picks the countdown length for `tminus start` from its
// positional argument or --duration. Zero means neither was given.
func startSeconds(args []string, flagValue string, flagSet bool) (int, error) {
	switch {
	case len(args) > 0 && flagSet:
		return 0, errors.New("give the duration as an argument or with --duration, not both")
	case len(args) > 0:
		return parseDuration(args[0])
	case flagSet:
		return parseDuration(flagValue)
	}
	return 0, nil
}
