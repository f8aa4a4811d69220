package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("GIGBOOK_TEST_VALUE", "   ")
	if got := Get("GIGBOOK_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback got %q", got)
	}
	t.Setenv("GIGBOOK_TEST_VALUE", " set ")
	if got := Get("GIGBOOK_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected trimmed value got %q", got)
	}
}

func TestFirstReturnsEarliestNonBlank(t *testing.T) {
	t.Setenv("GIGBOOK_TEST_A", "")
	t.Setenv("GIGBOOK_TEST_B", "b")
	got, ok := First("GIGBOOK_TEST_A", "GIGBOOK_TEST_B")
	if !ok || got != "b" {
		t.Fatalf("expected b got %q ok=%v", got, ok)
	}
	if _, ok := First("GIGBOOK_TEST_A"); ok {
		t.Fatal("expected no value")
	}
}
