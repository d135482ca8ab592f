package price

import (
	"errors"
	"testing"
)

func TestParseVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "plain br", in: "399,99", want: 399.99},
		{name: "thousands", in: "R$ 1.299,90", want: 1299.90},
		{name: "millions", in: "R$ 1.234.567,89", want: 1234567.89},
		{name: "with prefix text", in: "à vista R$ 2.149,00 no PIX", want: 2149.00},
		{name: "multiline", in: "De: R$ 500,00\nPor: R$ 450,00", want: 500.00},
		{name: "plain decimal", in: "12.99", want: 12.99},
		{name: "integer", in: "350", want: 350},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNoPrice(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "indisponível", "R$ --"} {
		if _, err := Parse(in); !errors.Is(err, ErrNoPrice) {
			t.Fatalf("Parse(%q): expected ErrNoPrice, got %v", in, err)
		}
	}
}
