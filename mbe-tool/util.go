package main

import (
	"fmt"
	"io"
	"os"

	"mbe-go/mbe"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// / Log an error message.
func Error(msg string, ap ...interface{}) {
	fmt.Fprint(stderr, "mbe: error: ")
	fmt.Fprintf(stderr, msg, ap...)
	fmt.Fprint(stderr, "\n")
}

// / Log an informational message.
func Info(msg string, ap ...interface{}) {
	fmt.Fprint(stdout, "mbe: ")
	fmt.Fprintf(stdout, msg, ap...)
	fmt.Fprint(stdout, "\n")
}

// / Log a warning message.
func Warning(msg string, ap ...interface{}) {
	fmt.Fprint(stderr, "mbe: warning: ")
	fmt.Fprintf(stderr, msg, ap...)
	fmt.Fprint(stderr, "\n")
}

// SpellcheckString returns the word closest to text, or "" if none is close.
func SpellcheckString(text string, words ...string) string {
	const kAllowReplacements = true
	const kMaxValidEditDistance = 3

	minDistance := kMaxValidEditDistance + 1
	result := ""
	for _, word := range words {
		distance := mbe.EditDistance(word, text, kAllowReplacements, kMaxValidEditDistance)
		if distance < minDistance {
			minDistance = distance
			result = word
		}
	}
	return result
}
