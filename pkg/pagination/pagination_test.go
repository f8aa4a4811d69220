package pagination

import "testing"

func TestNormalize(t *testing.T) {
	got := Normalize(Params{Page: 0, Limit: 0})
	if got.Page != 1 || got.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults %+v", got)
	}
	got = Normalize(Params{Page: 3, Limit: 1000})
	if got.Page != 3 || got.Limit != MaxLimit {
		t.Fatalf("unexpected clamp %+v", got)
	}
}

func TestOffsetAndHasMore(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	if p.Offset() != 10 {
		t.Fatalf("expected offset 10, got %d", p.Offset())
	}
	if !HasMore(p, 21) {
		t.Fatalf("expected more rows past 20 of 21")
	}
	if HasMore(p, 20) {
		t.Fatalf("expected no more rows at exactly 20")
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](nil, 3, Params{Page: 1, Limit: 2})
	if page.Items == nil || len(page.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", page.Items)
	}
	if !page.HasMore || page.Total != 3 || page.Limit != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}
