package domain

import "testing"

func TestParseLabelSet(t *testing.T) {
	tests := []struct {
		name     string
		labels   string
		positive string
		negative string
		wantErr  bool
	}{
		{"canonical", "anxiety,depression,happy,lonely,neutral", "happy,neutral", "anxiety,depression,lonely", false},
		{"mixed case and spaces", " Anxiety, DEPRESSION ,happy,lonely,neutral", "happy, neutral", "anxiety,depression,lonely", false},
		{"unknown label", "anxiety,angry", "anxiety", "angry", true},
		{"duplicate label", "happy,happy,lonely", "happy", "lonely", true},
		{"label missing from groups", "anxiety,depression,happy,lonely,neutral", "happy", "anxiety,depression,lonely", true},
		{"label in both groups", "happy,lonely", "happy,lonely", "lonely", true},
		{"group label not in set", "happy,lonely", "happy,neutral", "lonely", true},
		{"empty", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabelSet(tt.labels, tt.positive, tt.negative)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLabelSet() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLabelSet_ValidateAgainst(t *testing.T) {
	ls := DefaultLabelSet()

	if err := ls.ValidateAgainst([]string{"anxiety", "depression", "happy", "lonely", "neutral"}); err != nil {
		t.Errorf("matching labels rejected: %v", err)
	}
	if err := ls.ValidateAgainst([]string{"Anxiety", "Depression", "Happy", "Lonely", "Neutral"}); err != nil {
		t.Errorf("case differences should be accepted: %v", err)
	}
	if err := ls.ValidateAgainst([]string{"depression", "anxiety", "happy", "lonely", "neutral"}); err == nil {
		t.Error("reordered labels must be rejected")
	}
	if err := ls.ValidateAgainst([]string{"anxiety", "depression", "happy", "lonely"}); err == nil {
		t.Error("short label list must be rejected")
	}
}

func TestLabelSet_Index(t *testing.T) {
	ls := DefaultLabelSet()
	if got := ls.Index(EmotionHappy); got != 2 {
		t.Errorf("Index(happy) = %d, want 2", got)
	}
	if got := ls.Index(EmotionUncertain); got != -1 {
		t.Errorf("Index(uncertain) = %d, want -1", got)
	}
}

func TestEmotion_Title(t *testing.T) {
	if got := EmotionDepression.Title(); got != "Depression" {
		t.Errorf("Title() = %q", got)
	}
}

func TestParseActivityRanges(t *testing.T) {
	ranges, err := ParseActivityRanges("depression:201-210, anxiety:301-310,lonely:401-410,neutral:501-510,happy:601-610")
	if err != nil {
		t.Fatalf("ParseActivityRanges() error = %v", err)
	}
	want := DefaultActivityRanges()
	for e, r := range want {
		if ranges[e] != r {
			t.Errorf("range[%s] = %+v, want %+v", e, ranges[e], r)
		}
	}

	bad := []string{
		"depression:201-210,anxiety:205-310",
		"depression:210-201",
		"sad:1-2",
		"depression",
		"depression:1-x",
		"happy:1-2,happy:3-4",
	}
	for _, s := range bad {
		if _, err := ParseActivityRanges(s); err == nil {
			t.Errorf("ParseActivityRanges(%q) should fail", s)
		}
	}
}

func TestIDRange_Contains(t *testing.T) {
	r := IDRange{Min: 201, Max: 210}
	for id, want := range map[int]bool{200: false, 201: true, 205: true, 210: true, 211: false} {
		if got := r.Contains(id); got != want {
			t.Errorf("Contains(%d) = %v, want %v", id, got, want)
		}
	}
}
