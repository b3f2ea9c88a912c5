package ui

import "testing"

func TestKeyStableAcrossCopies(t *testing.T) {
	a := NewTemplate("views/home.fsc", []byte("<div>home</div>"))
	b := a.Clone()

	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestKeyDistinguishesNameAndBody(t *testing.T) {
	base := NewTemplate("views/home.fsc", []byte("<div>home</div>"))
	renamed := NewTemplate("views/about.fsc", []byte("<div>home</div>"))
	edited := NewTemplate("views/home.fsc", []byte("<div>edited</div>"))

	if base.Key() == renamed.Key() {
		t.Fatal("expected different keys for different names")
	}
	if base.Key() == edited.Key() {
		t.Fatal("expected different keys for different bodies")
	}
}

func TestKeyNoBoundaryCollision(t *testing.T) {
	a := Template{Name: "ab", Body: []byte("c")}
	b := Template{Name: "a", Body: []byte("bc")}

	if a.Key() == b.Key() {
		t.Fatal("expected name/body boundary to affect the key")
	}
}

func TestEqual(t *testing.T) {
	a := NewTemplate("views/home.fsc", []byte("body"))
	b := NewTemplate("views/home.fsc", []byte("body"))
	c := NewTemplate("views/home.fsc", []byte("other"))

	if !a.Equal(b) {
		t.Fatal("expected structurally equal templates to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected different bodies to compare unequal")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := []byte("original")
	a := NewTemplate("views/home.fsc", src)
	b := a.Clone()

	b.Body[0] = 'X'
	if string(a.Body) != "original" {
		t.Fatalf("expected clone mutation to leave the source intact, got %q", a.Body)
	}

	src[0] = 'Y'
	if string(a.Body) != "original" {
		t.Fatalf("expected constructor to copy the caller's buffer, got %q", a.Body)
	}
}

func TestEmpty(t *testing.T) {
	if !(Template{}).Empty() {
		t.Fatal("expected zero template to be empty")
	}
	if NewTemplate("views/home.fsc", nil).Empty() {
		t.Fatal("expected named template to be non-empty")
	}
}
