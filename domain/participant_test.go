package domain

import "testing"

func TestUserConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     UserConfig
		wantErr bool
	}{
		{"empty accepted", UserConfig{}, true},
		{"preferred not in accepted", UserConfig{Accepted: []Token{"USDC"}, Preferred: "USDT"}, true},
		{"duplicate accepted", UserConfig{Accepted: []Token{"USDC", "USDC"}, Preferred: "USDC"}, true},
		{"valid, no rank", UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC"}, false},
		{
			"rank mismatched length",
			UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC", Rank: []Token{"USDC"}},
			true,
		},
		{
			"rank[0] != preferred",
			UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC", Rank: []Token{"USDT", "USDC"}},
			true,
		},
		{
			"rank token outside accepted",
			UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC", Rank: []Token{"USDC", "DAI"}},
			true,
		},
		{
			"valid with rank",
			UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC", Rank: []Token{"USDC", "USDT"}},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRankOrDefault(t *testing.T) {
	cfg := UserConfig{Accepted: []Token{"USDC", "USDT", "DAI"}, Preferred: "USDT"}
	got := cfg.RankOrDefault()
	want := []Token{"USDT", "USDC", "DAI"}
	if len(got) != len(want) {
		t.Fatalf("RankOrDefault() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RankOrDefault() = %v, want %v", got, want)
		}
	}

	explicit := UserConfig{Accepted: []Token{"USDC", "USDT"}, Preferred: "USDC", Rank: []Token{"USDC", "USDT"}}
	if got := explicit.RankOrDefault(); got[0] != "USDC" || got[1] != "USDT" {
		t.Fatalf("RankOrDefault() did not return explicit rank: %v", got)
	}
}

func TestConfigured(t *testing.T) {
	if (UserConfig{}).Configured() {
		t.Fatal("zero-value UserConfig reported as Configured")
	}
	if !(UserConfig{Accepted: []Token{"USDC"}, Preferred: "USDC"}).Configured() {
		t.Fatal("UserConfig with Accepted set reported as unconfigured")
	}
}
