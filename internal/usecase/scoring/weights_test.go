package scoring

import (
	"strings"
	"testing"
)

func TestDefaultWeights_Valid(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr string
	}{
		{
			name:    "sum below one",
			weights: Weights{BM25: 0.3, Semantic: 0.25, LegalContext: 0.25, DomainAuthority: 0.1},
			wantErr: "must sum to 1.0",
		},
		{
			name:    "sum above one",
			weights: Weights{BM25: 0.5, Semantic: 0.25, LegalContext: 0.25, DomainAuthority: 0.1, TitleBoost: 0.1},
			wantErr: "must sum to 1.0",
		},
		{
			name:    "negative weight",
			weights: Weights{BM25: -0.1, Semantic: 0.5, LegalContext: 0.3, DomainAuthority: 0.2, TitleBoost: 0.1},
			wantErr: "between 0 and 1",
		},
		{
			name:    "weight above one",
			weights: Weights{BM25: 1.2, Semantic: 0, LegalContext: 0, DomainAuthority: 0, TitleBoost: 0},
			wantErr: "between 0 and 1",
		},
		{
			name:    "custom valid split",
			weights: Weights{BM25: 0.4, Semantic: 0.3, LegalContext: 0.1, DomainAuthority: 0.1, TitleBoost: 0.1},
		},
	}

	for _, tt := range tests {
		err := tt.weights.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error = %q, want substring %q", tt.name, err.Error(), tt.wantErr)
		}
	}
}
