package document

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestInt_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Int
	}{
		{`12`, 12},
		{`"12"`, 12},
		{`" 7 "`, 7},
		{`""`, 0},
		{`null`, 0},
		{`true`, 1},
		{`false`, 0},
		{`-1`, -1},
		{`"-1"`, -1},
		{`3.0`, 3},
	}
	for _, tt := range tests {
		var got Int
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}

	var bad Int
	if err := json.Unmarshal([]byte(`"abc"`), &bad); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestFlag_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`"on"`, true},
		{`""`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		var got Flag
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIDSet(t *testing.T) {
	var s IDSet
	s.Add(5)
	s.Add(9)
	s.Add(5)
	s.Add(0)
	s.Add(-2)
	if !reflect.DeepEqual(s, IDSet{5, 9}) {
		t.Errorf("set = %v, want [5 9]", s)
	}
	if !s.Has(9) || s.Has(3) {
		t.Error("Has() mismatch")
	}

	data, _ := json.Marshal(IDSet(nil))
	if string(data) != "[]" {
		t.Errorf("nil set encodes as %s, want []", data)
	}
}

func TestIDSet_UnmarshalLegacyString(t *testing.T) {
	tests := []struct {
		in   string
		want IDSet
	}{
		{`"5,"`, IDSet{5}},
		{`"5,9,14,"`, IDSet{5, 9, 14}},
		{`""`, nil},
		{`[5, "9", 5]`, IDSet{5, 9}},
		{`null`, nil},
	}
	for _, tt := range tests {
		var got IDSet
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitJoinIDs(t *testing.T) {
	if got := SplitIDs("1, 2,,x,3,"); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("SplitIDs() = %v", got)
	}
	if got := SplitIDs(""); got != nil {
		t.Errorf("SplitIDs(\"\") = %v, want nil", got)
	}
	if got := JoinIDs([]int64{42, 7}); got != "42,7" {
		t.Errorf("JoinIDs() = %q", got)
	}
}

func TestParse_Current(t *testing.T) {
	in := `{
		"version": 2,
		"phases": [{
			"id": "3", "title": "Onboarding", "sort": 0,
			"cycles": [{
				"id": 4, "title": "Week 1",
				"steps": [{"id": 8, "rollovertext": "Intro Video", "completionmodules": "42",
					"linksingleactivity": "1", "completionexpectedcmid": 42}]
			}]
		}],
		"phaseDeletes": [5],
		"cycleDeletes": "9,",
		"stepDeletes": []
	}`
	doc, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Phases) != 1 || doc.Phases[0].ID != 3 {
		t.Fatalf("phases = %+v", doc.Phases)
	}
	step := doc.Phases[0].Cycles[0].Steps[0]
	if step.RolloverText != "Intro Video" || !step.LinkSingleActivity || step.CompletionExpectedCmid != 42 {
		t.Errorf("step = %+v", step)
	}
	if !reflect.DeepEqual(step.GatingIDs(), []int64{42}) {
		t.Errorf("GatingIDs() = %v", step.GatingIDs())
	}
	if !reflect.DeepEqual(doc.Deletions.Phases, IDSet{5}) {
		t.Errorf("phase deletes = %v", doc.Deletions.Phases)
	}
	if !reflect.DeepEqual(doc.Deletions.Cycles, IDSet{9}) {
		t.Errorf("cycle deletes = %v", doc.Deletions.Cycles)
	}
}

func TestParse_MissingPhases(t *testing.T) {
	doc, err := Parse([]byte(`{"phaseDeletes": "5,"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Phases == nil || len(doc.Phases) != 0 {
		t.Errorf("phases = %#v, want empty slice", doc.Phases)
	}
	if doc.Version != Version {
		t.Errorf("version = %d, want %d", doc.Version, Version)
	}
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(doc.Phases) != 0 {
		t.Errorf("phases = %v", doc.Phases)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"phases": {`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
	if doc := ParseLenient([]byte(`not json`), time.UTC); len(doc.Phases) != 0 || doc.Version != Version {
		t.Errorf("ParseLenient() = %+v", doc)
	}
}

func TestParse_MigratesLegacyPicker(t *testing.T) {
	in := `{"phases":[{"id":1,"cycles":[{"id":1,"steps":[
		{"id":1,"expectedcomplete":"1","completionexpected_day":"15","completionexpected_month":"3",
		 "completionexpected_year":"2024","completionexpected_hour":"9","completionexpected_minute":"30"},
		{"id":2,"expectedcomplete":"1"},
		{"id":3,"expectedcomplete":"0","completionexpected_day":"1","completionexpected_month":"1","completionexpected_year":"2024"},
		{"id":4,"expectedcomplete":"1","completionexpectedcmid":42}
	]}]}]}`
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	doc, err := ParseInLocation([]byte(in), loc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	steps := doc.Phases[0].Cycles[0].Steps

	want := time.Date(2024, 3, 15, 9, 30, 0, 0, loc).Unix()
	if steps[0].CompletionExpectedCmid != -1 || int64(steps[0].CompletionExpectedDatetime) != want {
		t.Errorf("picker step = cmid %d at %d, want -1 at %d", steps[0].CompletionExpectedCmid, steps[0].CompletionExpectedDatetime, want)
	}
	if steps[1].CompletionExpectedCmid != -1 || steps[1].CompletionExpectedDatetime != 0 {
		t.Errorf("checkbox-only step = %+v", steps[1])
	}
	if steps[2].CompletionExpectedCmid != 0 || steps[2].CompletionExpectedDatetime != 0 {
		t.Errorf("unchecked step = %+v", steps[2])
	}
	if steps[3].CompletionExpectedCmid != 42 {
		t.Errorf("explicit reference overwritten: %+v", steps[3])
	}
}

func TestParse_CurrentVersionIgnoresLegacyFields(t *testing.T) {
	in := `{"version":2,"phases":[{"id":1,"cycles":[{"id":1,"steps":[{"id":1,"expectedcomplete":"1"}]}]}]}`
	doc, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.Phases[0].Cycles[0].Steps[0].CompletionExpectedCmid; got != 0 {
		t.Errorf("cmid = %d, want 0", got)
	}
}

func TestEncode(t *testing.T) {
	doc := New()
	doc.Phases = append(doc.Phases, Phase{ID: 1, Title: "Onboarding"})
	doc.Deletions.Steps.Add(14)

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"version":2`, `"cycles":[]`, `"stepDeletes":[14]`, `"phaseDeletes":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoded %s missing %s", s, want)
		}
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Encode()): %v", err)
	}
	if back.Phases[0].Title != "Onboarding" || !back.Deletions.Steps.Has(14) {
		t.Errorf("round trip = %+v", back)
	}
}

func TestDecode(t *testing.T) {
	if got := Decode[Cycle](""); got.ID != 0 || got.Title != "" {
		t.Errorf("Decode(\"\") = %+v", got)
	}
	if got := Decode[Cycle]("{broken"); got.ID != 0 {
		t.Errorf("Decode(malformed) = %+v", got)
	}
	if got := Decode[Step](`{"id":"7","rollovertext":"Quiz"}`); got.ID != 7 || got.RolloverText != "Quiz" {
		t.Errorf("Decode(step) = %+v", got)
	}
}

func TestObjectives(t *testing.T) {
	o := ParseObjectives([]byte(`{"learningobjectives":[
		{"index":0,"id":0,"name":"Explain"},
		{"index":1,"id":3,"name":"Apply"},
		{"index":2,"id":1,"name":"Evaluate"}]}`))
	if len(o.LearningObjectives) != 3 {
		t.Fatalf("objectives = %v", o.LearningObjectives)
	}
	if got := o.Numbers([]int64{1, 3, 99}); got != "3, 2" {
		t.Errorf("Numbers() = %q, want \"3, 2\"", got)
	}
	if lo, ok := o.Find(3); !ok || lo.Name != "Apply" {
		t.Errorf("Find(3) = %+v, %v", lo, ok)
	}

	for _, in := range []string{``, `garbage`, `{}`} {
		if got := ParseObjectives([]byte(in)); got.LearningObjectives == nil || len(got.LearningObjectives) != 0 {
			t.Errorf("ParseObjectives(%q) = %+v", in, got)
		}
	}
}

func TestObjectives_EncodeRenumbers(t *testing.T) {
	o := Objectives{LearningObjectives: []Objective{{Index: 5, ID: 2, Name: "b"}, {Index: 0, ID: 1, Name: "a"}}}
	data, err := o.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back := ParseObjectives(data)
	if back.LearningObjectives[0].Index != 0 || back.LearningObjectives[1].Index != 1 {
		t.Errorf("indexes = %+v", back.LearningObjectives)
	}
}

func TestExpectedReadable(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC).Unix()
	tests := []struct {
		ref, epoch int64
		want       string
	}{
		{ExpectedNone, ts, NoExpectedDate},
		{ExpectedCustom, ts, "15/03/24, 09:30"},
		{42, ts, "15/03/24, 09:30"},
		{ExpectedCustom, 0, ""},
	}
	for _, tt := range tests {
		if got := ExpectedReadable(tt.ref, tt.epoch, time.UTC); got != tt.want {
			t.Errorf("ExpectedReadable(%d, %d) = %q, want %q", tt.ref, tt.epoch, got, tt.want)
		}
	}
}
