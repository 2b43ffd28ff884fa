package albumtype

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		album    string
		wantType Type
		strategy Strategy
	}{
		{"plain album", "Random Access Memories", TypeNormal, StrategyApply},
		{"remastered suffix", "X (Remastered)", TypeReissue, StrategyMarkAndUpdate},
		{"greatest hits", "Greatest Hits", TypeCompilation, StrategyMarkAndSkip},
		{"best of", "The Best Of Everything", TypeCompilation, StrategyMarkAndSkip},
		{"anthology", "Anthology 2", TypeCompilation, StrategyMarkAndSkip},
		{"b-sides hyphenated", "B-Sides and Rarities", TypeSpecial, StrategyMarkAndSkip},
		{"demos", "Early Demos", TypeSpecial, StrategyMarkAndSkip},
		{"vault", "From the Vault", TypeSpecial, StrategyMarkAndSkip},
		{"anniversary edition", "Album [25th Anniversary]", TypeReissue, StrategyMarkAndUpdate},
		{"deluxe", "Midnight Deluxe Edition", TypeReissue, StrategyMarkAndUpdate},
		{"re-issue hyphenated", "Classic Re-Issue", TypeReissue, StrategyMarkAndUpdate},
		{"special wins over reissue", "Demos (Remastered)", TypeSpecial, StrategyMarkAndSkip},
		{"compilation wins over reissue", "Greatest Hits (Deluxe)", TypeCompilation, StrategyMarkAndSkip},
		{"word boundary respected", "Demonstration", TypeNormal, StrategyApply},
		{"empty name", "", TypeNormal, StrategyApply},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.album)
			if got.Type != tc.wantType {
				t.Fatalf("Detect(%q) type = %s, want %s (pattern %q)", tc.album, got.Type, tc.wantType, got.Pattern)
			}
			if got.Strategy != tc.strategy {
				t.Fatalf("Detect(%q) strategy = %s, want %s", tc.album, got.Strategy, tc.strategy)
			}
		})
	}
}

func TestDetectReturnsMatchedPattern(t *testing.T) {
	got := Detect("Greatest Hits Vol. 2")
	if got.Pattern != "greatest hits" {
		t.Fatalf("pattern = %q, want %q", got.Pattern, "greatest hits")
	}
	if normal := Detect("Blue"); normal.Pattern != "" {
		t.Fatalf("normal album pattern = %q, want empty", normal.Pattern)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello-World_Album", "hello world album"},
		{"Album (Deluxe) [2020]", "album deluxe 2020"},
		{"  spaced   out  ", "spaced out"},
		{"MiXeD CaSe", "mixed case"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
