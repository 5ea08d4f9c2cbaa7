package core

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDescribe_Numeric(t *testing.T) {
	tbl := mustLoad(t, "v,s\n1,a\n2,b\n3,a\n4,NA\n")

	sum, err := Describe(tbl, Classify(tbl))
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Numeric) != 1 || len(sum.Categorical) != 1 {
		t.Fatalf("summary sizes = %d/%d, want 1/1", len(sum.Numeric), len(sum.Categorical))
	}

	ns := sum.Numeric[0]
	if ns.Column != "v" || ns.Count != 4 {
		t.Errorf("column/count = %s/%d, want v/4", ns.Column, ns.Count)
	}
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"mean", ns.Mean, 2.5},
		{"std", ns.Std, math.Sqrt(5.0 / 3.0)},
		{"min", ns.Min, 1},
		{"25%", ns.Q1, 1.75},
		{"50%", ns.Median, 2.5},
		{"75%", ns.Q3, 3.25},
		{"max", ns.Max, 4},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s is nil", c.name)
			continue
		}
		if !approx(*c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, *c.got, c.want)
		}
	}
}

func TestDescribe_Categorical(t *testing.T) {
	tbl := mustLoad(t, "v,s\n1,a\n2,b\n3,a\n4,NA\n")

	sum, err := Describe(tbl, Classify(tbl))
	if err != nil {
		t.Fatal(err)
	}
	cs := sum.Categorical[0]
	if cs.Count != 3 || cs.Unique != 2 || cs.Freq != 2 {
		t.Errorf("count/unique/freq = %d/%d/%d, want 3/2/2", cs.Count, cs.Unique, cs.Freq)
	}
	if cs.Top == nil || *cs.Top != "a" {
		t.Errorf("top = %v, want a", cs.Top)
	}
}

func TestDescribe_TopTieKeepsFirstSeen(t *testing.T) {
	tbl := mustLoad(t, "s\nb\na\n")

	sum, err := Describe(tbl, Classify(tbl))
	if err != nil {
		t.Fatal(err)
	}
	if top := sum.Categorical[0].Top; top == nil || *top != "b" {
		t.Errorf("top = %v, want b", top)
	}
}

func TestDescribe_UndefinedStatistics(t *testing.T) {
	tbl := mustLoad(t, "one,none,s\n5,NA,NA\n")
	// An all-null column loads as float; treat s as categorical explicitly
	sets := ColumnSets{Numeric: []string{"one", "none"}, Categorical: []string{"s"}}

	sum, err := Describe(tbl, sets)
	if err != nil {
		t.Fatal(err)
	}

	one := sum.Numeric[0]
	if one.Std != nil {
		t.Errorf("std of a single value = %v, want nil", *one.Std)
	}
	if one.Mean == nil || *one.Mean != 5 {
		t.Errorf("mean = %v, want 5", one.Mean)
	}

	none := sum.Numeric[1]
	if none.Count != 0 || none.Mean != nil || none.Min != nil || none.Max != nil {
		t.Errorf("all-null column summary = %+v, want only zero count", none)
	}

	cs := sum.Categorical[0]
	if cs.Count != 0 || cs.Unique != 0 || cs.Top != nil {
		t.Errorf("all-null categorical summary = %+v", cs)
	}
}

func TestDescribe_UnknownColumn(t *testing.T) {
	tbl := mustLoad(t, "v\n1\n")
	_, err := Describe(tbl, ColumnSets{Numeric: []string{"missing"}})
	if MapError(err).Code != "COL001" {
		t.Errorf("code = %s, want COL001 (err %v)", MapError(err).Code, err)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{0.25, 17.5},
		{0.5, 25},
		{0.75, 32.5},
		{1, 40},
	}
	for _, tt := range tests {
		if got := quantile(sorted, tt.p); !approx(got, tt.want) {
			t.Errorf("quantile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := quantile([]float64{7}, 0.75); got != 7 {
		t.Errorf("quantile of one value = %v, want 7", got)
	}
	if got := quantile([]float64{1, math.Inf(1), math.Inf(1)}, 0.5); !math.IsInf(got, 1) {
		t.Errorf("quantile on an infinite rank = %v, want +Inf", got)
	}
}
