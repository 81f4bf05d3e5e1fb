package ordered_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/memflat/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		entries []entry
		deletes []string
		want    []entry
	}{
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			want: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "a", v: 3},
			},
			want: []entry{
				{k: "a", v: 3},
				{k: "b", v: 2},
			},
		},
		{
			entries: []entry{
				{k: "a", v: 1},
				{k: "b", v: 2},
				{k: "c", v: 3},
			},
			deletes: []string{"b", "z"},
			want: []entry{
				{k: "a", v: 1},
				{k: "c", v: 3},
			},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, entry := range test.entries {
			m.Store(entry.k, entry.v)
		}
		for _, k := range test.deletes {
			m.Delete(k)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", ti, m.Size(), len(test.want))
			continue
		}
		m = m.Clone()
		var got []entry
		for k, v := range m.Iter() {
			got = append(got, entry{k: k, v: v})
		}
		if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(entry{})); diff != "" {
			t.Errorf("test %d: unexpected entries (-want +got):\n%s", ti, diff)
		}
		gotValues := slices.Collect(m.Values())
		var wantValues []int
		for _, e := range test.want {
			wantValues = append(wantValues, e.v)
		}
		if !cmp.Equal(gotValues, wantValues) {
			t.Errorf("test %d: got values %v but want %v", ti, gotValues, wantValues)
		}
	}
}
