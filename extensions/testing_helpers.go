package extensions

import (
	"errors"
	"math"
	"testing"
)

func AssertAreEqual[T comparable](t *testing.T, name string, expected T, actual T) {
	t.Helper()
	if expected != actual {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, actual)
	}
}

func AssertPtrEqual[T comparable](t *testing.T, name string, expected T, actual *T) {
	t.Helper()
	if actual == nil {
		t.Fatalf("value mismatch for %s, expected %v, got nil", name, expected)
	}
	if expected != *actual {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, *actual)
	}
}

func AssertNillability[T comparable](t *testing.T, name string, expected bool, actual *T) {
	t.Helper()
	if (actual == nil) != expected {
		t.Fatalf("value mismatch for %s, expected %v, got %v", name, expected, (actual == nil))
	}
}

func AssertInDelta(t *testing.T, name string, expected, actual, delta float64) {
	t.Helper()
	if math.IsNaN(actual) || math.Abs(expected-actual) > delta {
		t.Fatalf("value mismatch for %s, expected %v within %v, got %v", name, expected, delta, actual)
	}
}

func AssertErrorIs(t *testing.T, name string, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error mismatch for %s, expected %v in chain, got %v", name, target, err)
	}
}
