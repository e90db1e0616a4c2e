package identity_test

import (
	"testing"

	"github.com/dantte-lp/procheckd/internal/container"
	"github.com/dantte-lp/procheckd/internal/identity"
)

func TestApplicationIdentifierEqual(t *testing.T) {
	t.Parallel()

	a := identity.Concrete([]byte("abc"))
	b := identity.Concrete([]byte("abc"))
	c := identity.Concrete([]byte("xyz"))

	if !a.Equal(b) {
		t.Error("identical Concrete identifiers should be equal")
	}
	if a.Equal(c) {
		t.Error("different Concrete identifiers should not be equal")
	}

	lu1 := identity.LocallyUniqueIdentifier()
	lu2 := identity.LocallyUniqueIdentifier()
	if lu1.Equal(lu2) {
		t.Error("LocallyUnique must never equal anything, including itself")
	}
	if lu1.Equal(lu1) {
		t.Error("LocallyUnique must never equal itself")
	}

	ab1 := identity.Absent()
	if ab1.Equal(ab1) {
		t.Error("Absent must never equal itself")
	}
}

func TestShortIdentifierFixedRejectsZero(t *testing.T) {
	t.Parallel()

	if _, err := identity.Fixed(0); err == nil {
		t.Fatal("Fixed(0) should be rejected")
	}
	s, err := identity.Fixed(42)
	if err != nil {
		t.Fatalf("Fixed(42): %v", err)
	}
	v, ok := s.Value()
	if !ok || v != 42 {
		t.Errorf("Value() = %d, %v; want 42, true", v, ok)
	}
}

func TestShortIdentifierEqual(t *testing.T) {
	t.Parallel()

	a, _ := identity.Fixed(7)
	b, _ := identity.Fixed(7)
	c, _ := identity.Fixed(8)

	if !a.Equal(b) {
		t.Error("Fixed(7) should equal Fixed(7)")
	}
	if a.Equal(c) {
		t.Error("Fixed(7) should not equal Fixed(8)")
	}

	lu := identity.LocallyUniqueShort()
	if lu.Equal(lu) {
		t.Error("LocallyUnique short id must never equal itself")
	}
	if a.Equal(lu) {
		t.Error("Fixed must never equal LocallyUnique")
	}
}

func TestCompressLocallyUniqueIsLocallyUnique(t *testing.T) {
	t.Parallel()

	got := identity.Compress(identity.LocallyUniqueIdentifier())
	if !got.IsLocallyUnique() {
		t.Error("Compress(LocallyUnique) must be LocallyUnique")
	}

	got = identity.Compress(identity.Absent())
	if !got.IsLocallyUnique() {
		t.Error("Compress(Absent) must be LocallyUnique")
	}
}

func TestCompressIsDeterministicAndNonZero(t *testing.T) {
	t.Parallel()

	id := identity.Concrete([]byte("com.example.app"))
	a := identity.Compress(id)
	b := identity.Compress(id)
	if !a.Equal(b) {
		t.Error("Compress must be a pure function")
	}
	v, ok := a.Value()
	if !ok {
		t.Fatal("expected a Fixed short identifier")
	}
	if v == 0 {
		t.Error("Compress must never produce Fixed(0)")
	}
}

func TestDefaultPolicyPrefersEmbeddedID(t *testing.T) {
	t.Parallel()

	data := make([]byte, 768+8)
	embedded := []byte{0, 0, 0, 0, 0, 0, 0, 42}
	copy(data[len(data)-8:], embedded)

	in := identity.Input{
		Payload: []byte("payload bytes"),
		Accepted: container.Footer{
			Type: container.CredentialRsa3072KeyWithID,
			Data: data,
		},
		HasAccepted: true,
	}

	got := identity.DefaultPolicy{}.Identify(in)
	if got.Kind() != identity.KindConcrete {
		t.Fatalf("Kind() = %v, want Concrete", got.Kind())
	}
	if string(got.Bytes()) != string(embedded) {
		t.Errorf("Bytes() = %v, want %v", got.Bytes(), embedded)
	}
}

func TestDefaultPolicyFallsBackToPayloadHash(t *testing.T) {
	t.Parallel()

	in := identity.Input{Payload: []byte("payload bytes"), HasAccepted: false}

	got1 := identity.DefaultPolicy{}.Identify(in)
	got2 := identity.DefaultPolicy{}.Identify(in)

	if got1.Kind() != identity.KindConcrete {
		t.Fatalf("Kind() = %v, want Concrete", got1.Kind())
	}
	if !got1.Equal(got2) {
		t.Error("payload-hash fallback must be deterministic across calls")
	}
}

func TestDefaultPolicyNoPayloadIsLocallyUnique(t *testing.T) {
	t.Parallel()

	got := identity.DefaultPolicy{}.Identify(identity.Input{})
	if got.Kind() != identity.KindLocallyUnique {
		t.Fatalf("Kind() = %v, want LocallyUnique", got.Kind())
	}
}
