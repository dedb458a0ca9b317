package analysis

import (
	"sync"
	"testing"
)

func TestStoreLastWriteWinsKeepsPosition(t *testing.T) {
	s := NewStore()
	s.Put(Record{Kind: KindSummary, Sheet: "default", RunID: "1"})
	s.Put(Record{Kind: KindOutliers, Sheet: "default", RunID: "1"})
	s.Put(Record{Kind: KindSummary, Sheet: "default", RunID: "2"})

	recs := s.Records()
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Kind != KindSummary || recs[0].RunID != "2" {
		t.Fatalf("first record = %+v", recs[0])
	}
	if got, ok := s.Get(KindOutliers, "default"); !ok || got.Kind != KindOutliers {
		t.Fatalf("Get outliers = %+v, %v", got, ok)
	}
	if _, ok := s.Get(KindOutliers, "other"); ok {
		t.Fatalf("unexpected record for other sheet")
	}
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("len after reset = %d", s.Len())
	}
}

func TestStoreReserveFixesOrder(t *testing.T) {
	s := NewStore()
	s.Reserve("a", KindOverview, KindSummary)
	s.Reserve("b", KindOverview)
	s.Put(Record{Kind: KindOverview, Sheet: "b"})
	s.Put(Record{Kind: KindSummary, Sheet: "a"})
	s.Put(Record{Kind: KindOverview, Sheet: "a"})

	recs := s.Records()
	if len(recs) != 3 || s.Len() != 3 {
		t.Fatalf("records = %+v", recs)
	}
	got := []string{recs[0].Sheet + string(recs[0].Kind), recs[1].Sheet + string(recs[1].Kind), recs[2].Sheet + string(recs[2].Kind)}
	want := []string{"aoverview", "asummary", "boverview"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	s.Reserve("c", KindTemporal)
	if s.Len() != 3 || len(s.ByKind(KindTemporal)) != 0 {
		t.Fatalf("reserved but unwritten keys must stay hidden")
	}
}

func TestStoreByKindAndConcurrency(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for _, sheet := range []string{"a", "b", "c", "d"} {
		for _, k := range Kinds() {
			wg.Add(1)
			go func(k Kind, sheet string) {
				defer wg.Done()
				s.Put(Record{Kind: k, Sheet: sheet})
			}(k, sheet)
		}
	}
	wg.Wait()
	if s.Len() != 4*len(Kinds()) {
		t.Fatalf("len = %d", s.Len())
	}
	if n := len(s.ByKind(KindTemporal)); n != 4 {
		t.Fatalf("ByKind = %d, want 4", n)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"stats": KindSummary, "corr": KindCorrelation, "Dates": KindTemporal, "info": KindOverview} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("charts"); err == nil {
		t.Fatalf("expected error for unknown pass")
	}
}
