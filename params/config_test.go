package params

import "testing"

func TestBaseBlockValue(t *testing.T) {
	cfg := MainnetChainConfig
	tests := []struct {
		last uint64
		want uint64
	}{
		{0, 25},
		{1, 25},
		{324, 25},
		{325, 1},
		{326, 1},
		{1000000, 1},
	}
	for _, tt := range tests {
		if got := cfg.BaseBlockValue(tt.last); got != tt.want {
			t.Errorf("BaseBlockValue(%d) = %d, want %d", tt.last, got, tt.want)
		}
	}
}

func TestClampWork(t *testing.T) {
	cfg := MainnetChainConfig
	if got := cfg.ClampWork(50); got != cfg.MinWork {
		t.Errorf("ClampWork(50) = %d, want %d", got, cfg.MinWork)
	}
	if got := cfg.ClampWork(200000); got != cfg.MaxWork {
		t.Errorf("ClampWork(200000) = %d, want %d", got, cfg.MaxWork)
	}
	if got := cfg.ClampWork(5000); got != 5000 {
		t.Errorf("ClampWork(5000) = %d, want 5000", got)
	}
}

func TestCopyIsDetached(t *testing.T) {
	cpy := MainnetChainConfig.Copy()
	cpy.NameCost = 1
	if MainnetChainConfig.NameCost == 1 {
		t.Fatal("mutating a copy changed the shared config")
	}
}
