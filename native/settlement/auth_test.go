package settlement

import (
	"context"
	"errors"
	"testing"
)

func TestContextAuthenticator(t *testing.T) {
	alice := ledgerTestAddress(0x01)
	bob := ledgerTestAddress(0x02)
	auth := ContextAuthenticator{}

	ctx := WithCaller(context.Background(), alice)
	if err := auth.RequireCaller(ctx, alice); err != nil {
		t.Fatalf("matching caller: %v", err)
	}
	if err := auth.RequireCaller(ctx, bob); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("mismatched caller = %v, want ErrUnauthorized", err)
	}
	if err := auth.RequireCaller(context.Background(), alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing caller = %v, want ErrUnauthorized", err)
	}
}

func TestCallerFromContext(t *testing.T) {
	alice := ledgerTestAddress(0x01)
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatalf("expected no caller on empty context")
	}
	caller, ok := CallerFromContext(WithCaller(context.Background(), alice))
	if !ok || caller != alice {
		t.Fatalf("caller = %x, ok = %v", caller, ok)
	}
}

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"FUND", "FUND", false},
		{"fund", "FUND", false},
		{"  usdc1 ", "USDC1", false},
		{"", "", true},
		{"   ", "", true},
		{"FU-ND", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeToken(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeToken(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeToken(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
