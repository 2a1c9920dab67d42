package records

import "testing"

func TestLogoFilenameFromWebsite(t *testing.T) {
	cases := []struct {
		website string
		want    string
	}{
		{"https://www.acme-corp.com/about", "acme-corp.png"},
		{"http://Example.COM", "example.png"},
		{"shop.vendor.io", "shop.png"},
		{"https://acme.co.uk", "acme.png"},
	}
	for _, tc := range cases {
		if got := LogoFilename(tc.website, nil, "ignored"); got != tc.want {
			t.Errorf("LogoFilename(%q) = %q, want %q", tc.website, got, tc.want)
		}
	}
}

func TestLogoFilenameFromSocials(t *testing.T) {
	got := LogoFilename("", []string{"https://facebook.com/acme"}, "Acme Coffee Co")
	if got != "AcmeCoffeeCo.png" {
		t.Fatalf("social fallback = %q, want AcmeCoffeeCo.png", got)
	}
}

func TestLogoFilenameEmpty(t *testing.T) {
	if got := LogoFilename("", nil, "Acme"); got != "" {
		t.Fatalf("expected empty logo filename, got %q", got)
	}
	if got := LogoFilename("", []string{"https://facebook.com/acme"}, "  "); got != "" {
		t.Fatalf("expected empty logo filename for blank name, got %q", got)
	}
}

func TestJobSettingsClone(t *testing.T) {
	settings := JobSettings{
		InputPath:     "in.xlsx",
		OutputColumns: DefaultOutputColumns(),
	}
	clone := settings.Clone()
	clone.OutputColumns[0].OutputHeader = "mutated"
	if settings.OutputColumns[0].OutputHeader == "mutated" {
		t.Fatal("Clone shares OutputColumns backing array with original")
	}
}

func TestJobSettingsValidate(t *testing.T) {
	valid := JobSettings{
		InputPath:     "in.xlsx",
		OutputPath:    "out.xlsx",
		ColumnMapping: ColumnMapping{Name: "Merchant"},
		StartRow:      2,
		EndRow:        2,
		Mode:          ModeBasic,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	headerRow := valid
	headerRow.StartRow = 1
	if err := headerRow.Validate(); err == nil {
		t.Fatal("start row 1 (header) should be rejected")
	}

	inverted := valid
	inverted.EndRow = 1
	if err := inverted.Validate(); err == nil {
		t.Fatal("end row before start row should be rejected")
	}

	badMode := valid
	badMode.Mode = "turbo"
	if err := badMode.Validate(); err == nil {
		t.Fatal("unknown mode should be rejected")
	}
}

func TestFieldValueJoinsLists(t *testing.T) {
	rec := ResolvedRecord{
		Socials:         []string{"https://facebook.com/a", "https://x.com/a"},
		EvidenceLinks:   []string{"https://a.example", "https://b.example"},
		AccumulatedCost: 0.025,
	}
	if got, ok := rec.FieldValue("socials"); !ok || got != "https://facebook.com/a, https://x.com/a" {
		t.Fatalf("socials projection = %q, ok=%v", got, ok)
	}
	if got, ok := rec.FieldValue("accumulated_cost"); !ok || got != "0.0250" {
		t.Fatalf("cost projection = %q, ok=%v", got, ok)
	}
	if _, ok := rec.FieldValue("nonsense"); ok {
		t.Fatal("unknown field should report ok=false")
	}
}
