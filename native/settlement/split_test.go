package settlement

import (
	"errors"
	"math/big"
	"testing"
)

var defaultTiers = []uint32{5000, 3000, 2000}

func TestSplitThreeRecipients(t *testing.T) {
	result, err := Split(big.NewInt(1000), 1000, defaultTiers, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.AdminFee.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("admin fee = %s, want 100", result.AdminFee)
	}
	want := []int64{450, 270, 180}
	if len(result.Shares) != len(want) {
		t.Fatalf("shares = %d, want %d", len(result.Shares), len(want))
	}
	for i, share := range result.Shares {
		if share.Cmp(big.NewInt(want[i])) != 0 {
			t.Fatalf("share[%d] = %s, want %d", i, share, want[i])
		}
	}
	if result.Remainder.Sign() != 0 {
		t.Fatalf("remainder = %s, want 0", result.Remainder)
	}
}

func TestSplitTruncationDust(t *testing.T) {
	// 1003 leaves dust at both the admin cut and the tier divisions.
	pool := big.NewInt(1003)
	result, err := Split(pool, 1000, defaultTiers, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	total := result.TotalPaid()
	total.Add(total, result.Remainder)
	if total.Cmp(pool) != 0 {
		t.Fatalf("fee + shares + remainder = %s, want %s", total, pool)
	}
	if result.Remainder.Sign() <= 0 {
		t.Fatalf("expected positive dust, got %s", result.Remainder)
	}
}

func TestSplitFewerRecipientsThanTiers(t *testing.T) {
	result, err := Split(big.NewInt(1000), 0, defaultTiers, 1)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(result.Shares) != 1 {
		t.Fatalf("shares = %d, want 1", len(result.Shares))
	}
	if result.Shares[0].Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("share = %s, want 500", result.Shares[0])
	}
	// Unpaid tiers stay in the remainder.
	if result.Remainder.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("remainder = %s, want 500", result.Remainder)
	}
}

func TestSplitNoAdminFee(t *testing.T) {
	result, err := Split(big.NewInt(900), 0, defaultTiers, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.AdminFee.Sign() != 0 {
		t.Fatalf("admin fee = %s, want 0", result.AdminFee)
	}
	want := []int64{450, 270, 180}
	for i, share := range result.Shares {
		if share.Cmp(big.NewInt(want[i])) != 0 {
			t.Fatalf("share[%d] = %s, want %d", i, share, want[i])
		}
	}
}

func TestSplitValidations(t *testing.T) {
	if _, err := Split(big.NewInt(-1), 0, defaultTiers, 3); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("negative pool = %v, want ErrInvalidPool", err)
	}
	if _, err := Split(big.NewInt(100), BpsDenominator+1, defaultTiers, 3); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatalf("fee over denominator = %v, want ErrFeeOutOfRange", err)
	}
	if _, err := Split(big.NewInt(100), 0, []uint32{6000, 6000}, 2); !errors.Is(err, ErrFeeOutOfRange) {
		t.Fatalf("tiers over denominator = %v, want ErrFeeOutOfRange", err)
	}
}

func TestSplitEmptyPool(t *testing.T) {
	result, err := Split(nil, 1000, defaultTiers, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if result.AdminFee.Sign() != 0 || result.Remainder.Sign() != 0 {
		t.Fatalf("nil pool should split to zero, got fee=%s remainder=%s", result.AdminFee, result.Remainder)
	}
}

func TestSplitClampRecipients(t *testing.T) {
	result, err := Split(big.NewInt(1000), 0, defaultTiers, 10)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(result.Shares) != len(defaultTiers) {
		t.Fatalf("shares = %d, want %d", len(result.Shares), len(defaultTiers))
	}
}
