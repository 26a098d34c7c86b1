package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, PerPage: DefaultPerPage}},
		{Params{Page: -3, PerPage: 500}, Params{Page: 1, PerPage: MaxPerPage}},
		{Params{Page: 4, PerPage: 20}, Params{Page: 4, PerPage: 20}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, PerPage: 10}
	if got := p.Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}

	meta := NewMeta(p, 21)
	if meta.LastPage != 3 || meta.Total != 21 || meta.CurrentPage != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	if empty := NewMeta(Params{}, 0); empty.LastPage != 1 || empty.PerPage != DefaultPerPage {
		t.Fatalf("unexpected empty meta %+v", empty)
	}
}
