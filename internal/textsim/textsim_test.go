package textsim

import (
	"math"
	"testing"
)

func TestCosineIdentical(t *testing.T) {
	text := "possible nil dereference when the lookup misses"
	if got := Cosine(NewVector(text), NewVector(text)); got != 1.0 {
		t.Fatalf("Cosine(identical) = %v, want 1.0", got)
	}
}

func TestCosineDisjoint(t *testing.T) {
	a := NewVector("unchecked error return from close")
	b := NewVector("password logged at debug level")
	if got := Cosine(a, b); got != 0 {
		t.Fatalf("Cosine(disjoint) = %v, want 0", got)
	}
}

func TestCosinePartialOverlap(t *testing.T) {
	a := NewVector("the timeout value is never validated")
	b := NewVector("the retry value is never bounded")
	got := Cosine(a, b)
	if got <= 0 || got >= 1 {
		t.Fatalf("Cosine(partial) = %v, want between 0 and 1", got)
	}
	if got != Cosine(b, a) {
		t.Fatalf("Cosine not symmetric")
	}
}

func TestCosineNilVectors(t *testing.T) {
	valid := NewVector("hello world tokens")
	cases := []struct {
		name string
		a, b *Vector
	}{
		{"both nil", nil, nil},
		{"a nil", nil, valid},
		{"b nil", valid, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); got != 0 {
				t.Fatalf("Cosine = %v, want 0", got)
			}
		})
	}
}

func TestNewVectorShortTokensOnly(t *testing.T) {
	if NewVector("a an it to") != nil {
		t.Fatal("expected nil vector for short tokens")
	}
	if NewVector("") != nil {
		t.Fatal("expected nil vector for empty text")
	}
}

func TestNewVectorNorm(t *testing.T) {
	// "error error handling" -> error:2, handling:1 -> sqrt(5)
	vec := NewVector("error error handling")
	if vec == nil {
		t.Fatal("expected vector")
	}
	want := math.Sqrt(5)
	if math.Abs(vec.norm-want) > 0.0001 {
		t.Fatalf("norm = %v, want %v", vec.norm, want)
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"mixed case and punctuation", "Unchecked error, returned from Close()!", []string{"unchecked", "error", "returned", "from", "close"}},
		{"drops short tokens", "a to the quick fix", []string{"the", "quick", "fix"}},
		{"identifiers with digits", "sha256 checksum md5", []string{"sha256", "checksum", "md5"}},
		{"empty", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("Tokenize() = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("token[%d] = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestCosineRephrasedComment(t *testing.T) {
	original := NewVector("The database handle is never closed when the query fails, leaking the connection.")
	rephrased := NewVector("The database handle is never closed if the query fails, which leaks the connection.")
	unrelated := NewVector("Consider renaming this helper; the current name hides that it mutates its receiver.")

	if got := Cosine(original, rephrased); got < 0.8 {
		t.Fatalf("rephrased similarity = %v, want >= 0.8", got)
	}
	if got := Cosine(original, unrelated); got >= 0.5 {
		t.Fatalf("unrelated similarity = %v, want < 0.5", got)
	}
}
