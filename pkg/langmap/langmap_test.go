package langmap

import "testing"

func TestToServiceCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"hi", "hin_Deva"},
		{"en", "eng_Latn"},
		{"kok", "gom_Deva"},
		{"mni_mei", "mni_Mtei"},
		{"ur", "urd_Arab"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ToServiceCode(tt.code); got != tt.want {
				t.Errorf("ToServiceCode(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestToServiceCode_UnknownPassesThrough(t *testing.T) {
	// Codes outside the table are sent to the endpoint unchanged.
	for _, code := range []string{"fr", "de", "zh", "xx_Yyyy"} {
		if got := ToServiceCode(code); got != code {
			t.Errorf("ToServiceCode(%q) = %q, want identity", code, got)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("ta"); got != "Tamil" {
		t.Errorf("Name(ta) = %q, want Tamil", got)
	}
	if got := Name("fr"); got != "fr" {
		t.Errorf("Name(fr) = %q, want fr", got)
	}
	if got := Name(""); got != DefaultName {
		t.Errorf("Name(\"\") = %q, want %q", got, DefaultName)
	}
}

func TestTag_UnknownName(t *testing.T) {
	if got := Tag("Klingon"); got != "Klingon" {
		t.Errorf("Tag(Klingon) = %q, want identity", got)
	}
}

func TestFromServiceCode(t *testing.T) {
	tests := map[string]string{
		"hin_Deva": "hi",
		"eng_Latn": "en",
		"snd_Deva": "sd_deva",
		"fr":       "fr",
	}
	for tag, want := range tests {
		if got := FromServiceCode(tag); got != want {
			t.Errorf("FromServiceCode(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestTablesAreTotal(t *testing.T) {
	// Every named language must have a tag.
	for _, code := range Languages() {
		name := Name(code)
		if _, ok := tags[name]; !ok {
			t.Errorf("language %q (%s) has no service tag", code, name)
		}
	}
	if len(Languages()) != 26 {
		t.Errorf("Languages() returned %d codes, want 26", len(Languages()))
	}
}
