package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestCartctl_BoltSession(t *testing.T) {
	ctx := t.Context()
	base := []string{"--backend", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "cart.db"), "--log-level", "error"}

	run := func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		err := Execute(ctx, append(append([]string{}, base...), args...), &stdout, &stderr)
		return stdout.String(), err
	}

	out, err := run("list")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out)

	out, err = run("add", "--id", "a", "--title", "Shoe", "--image", "u", "--price", "10")
	require.NoError(t, err)
	assert.Equal(t, "a\n", out)

	_, err = run("add", "--id", "a", "--title", "Shoe", "--price", "10")
	require.NoError(t, err)
	_, err = run("inc", "a")
	require.NoError(t, err)

	// every invocation is a fresh process-like session reading the persisted cart
	out, err = run("list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Shoe")
	assert.Equal(t, "3", strings.Fields(lines[1])[2])

	for i := 0; i < 3; i++ {
		_, err = run("dec", "a")
		require.NoError(t, err)
	}

	out, err = run("list")
	require.NoError(t, err)
	assert.Equal(t, "cart is empty\n", out)
}

func TestCartctl_Errors(t *testing.T) {
	ctx := t.Context()
	boltPath := filepath.Join(t.TempDir(), "cart.db")

	tests := []struct {
		name      string
		args      []string
		wantError string
	}{
		{
			name:      "unknown id",
			args:      []string{"--backend", "memory", "inc", "missing"},
			wantError: "cart item not found",
		},
		{
			name:      "unsupported backend",
			args:      []string{"--backend", "sqlite", "list"},
			wantError: "invalid configuration: backend[sqlite] is not supported",
		},
		{
			name:      "bad price",
			args:      []string{"--backend", "bolt", "--bolt-path", boltPath, "add", "--price", "ten"},
			wantError: "price[ten] is not valid",
		},
		{
			name:      "bad currency",
			args:      []string{"--backend", "memory", "--currency", "DOLLARS", "list"},
			wantError: "currency[DOLLARS] is not valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := Execute(ctx, tt.args, &stdout, &stderr)
			require.ErrorContains(t, err, tt.wantError)
		})
	}
}

func TestCartctl_AddGeneratesID(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), []string{"--backend", "memory", "add", "--title", "Hat", "--price", "5"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(stdout.String()), 36)
}

func TestPrintItems(t *testing.T) {
	var out bytes.Buffer
	err := printItems(&out, []domain.CartItem{
		{ID: "a", Title: "Shoe", Price: decimal.RequireFromString("10.5"), Quantity: 2},
	}, currency.USD)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "TITLE", "QTY", "PRICE"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "10.50")
}
