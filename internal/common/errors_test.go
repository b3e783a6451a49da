package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{ErrorNotFound, ErrorStorage, ErrorRemoteStore, ErrorInternal, ErrorValidation, ErrorUnknownCollection, ErrInvalidToken, ErrTokenExpired}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("purge conversations/abc: %w", ErrorNotFound)
	if !errors.Is(err, ErrorNotFound) {
		t.Fatalf("wrapped error lost its sentinel: %v", err)
	}
}
