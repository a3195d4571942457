package service

import (
	"strings"
	"testing"
)

func TestNewReference(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref, err := NewReference()
		if err != nil {
			t.Fatal(err)
		}
		if len(ref) != ReferenceLength {
			t.Fatalf("len(%q) = %d", ref, len(ref))
		}
		for _, r := range ref {
			if !strings.ContainsRune(referenceAlphabet, r) {
				t.Fatalf("reference %q has char %q outside base-36 upper case", ref, r)
			}
		}
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference %q after %d draws", ref, i)
		}
		seen[ref] = struct{}{}
	}
}
