package driptest

import "testing"

func TestDeriveConditionDeterministic(t *testing.T) {
	const seed = "d34c1970ae90acf3405f2d99dcaca16d0c7db379f4beafcfdf667b9d69ce350d"

	a := DeriveCondition(t, seed, "m/44'/234'/0'")
	b := DeriveCondition(t, seed, "m/44'/234'/0'")
	if !a.Equals(b) {
		t.Fatalf("same path must derive the same condition: %s != %s", a, b)
	}

	c := DeriveCondition(t, seed, "m/44'/234'/1'")
	if a.Equals(c) {
		t.Fatal("different paths must derive different conditions")
	}

	direct := DeriveCondition(t, seed, "")
	if direct.Equals(a) {
		t.Fatal("derived key must differ from the seed key")
	}
}
