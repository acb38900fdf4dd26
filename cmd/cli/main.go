package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/auth"
)

// options are the connection settings shared by every command.
type options struct {
	baseURL        string
	timeout        time.Duration
	account        string
	token          string
	idempotencyKey string
	decimals       uint8
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "vaultledger-cli",
		Short:         "VaultLedger CLI tool",
		Long:          `A command line interface for interacting with the VaultLedger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the VaultLedger API")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&opts.account, "account", os.Getenv("VAULTLEDGER_ACCOUNT"), "Caller address sent as "+middleware.AccountHeader)
	flags.StringVar(&opts.token, "token", os.Getenv("VAULTLEDGER_TOKEN"), "Bearer token")
	flags.StringVar(&opts.idempotencyKey, "idempotency-key", "", "Idempotency key for mutating requests")
	flags.Uint8Var(&opts.decimals, "decimals", 0, "Decimals of amount arguments; 0 means base units")

	rootCmd.AddCommand(
		balanceCmd(opts),
		capCmd(opts),
		totalsCmd(opts),
		reconcileCmd(opts),
		depositCmd(opts),
		withdrawCmd(opts),
		sweepCmd(opts),
		setCapCmd(opts),
		tokenCmd(),
	)

	return rootCmd
}

func balanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balance ACCOUNT [ASSET]",
		Short: "Show one balance, or every balance of an account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/balances"
			if len(args) == 2 {
				path += "/" + url.PathEscape(args[1])
			}
			return opts.call(cmd, http.MethodGet, path, nil)
		},
	}
}

func capCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cap",
		Short: "Show the native deposit cap at the current oracle price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, http.MethodGet, "/api/v1/cap", nil)
		},
	}
}

func totalsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show deposit and withdrawal counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, http.MethodGet, "/api/v1/totals", nil)
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Compare recorded balances with custody holdings (owner)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := opts.do(cmd, http.MethodGet, "/api/v1/reconciliation", nil)
			if err != nil {
				return err
			}

			var report dto.ReconciliationResponse
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				status := "ok"
				if !r.IsReconciled {
					status = "MISMATCH"
				}
				fmt.Fprintf(out, "%-44s recorded=%s held=%s surplus=%s deficit=%s %s\n",
					truncate(r.Asset, 44), r.Recorded, r.Held, r.Surplus, r.Deficit, status)
			}

			if report.Discrepancies > 0 || !report.LedgerConsistent {
				return fmt.Errorf("reconciliation FAILED: %d discrepancies, ledger consistent: %v",
					report.Discrepancies, report.LedgerConsistent)
			}

			fmt.Fprintf(out, "Reconciliation PASSED (%d assets)\n", report.ReconciledAssets)
			return nil
		},
	}
}

func depositCmd(opts *options) *cobra.Command {
	var asset, txHash string

	cmd := &cobra.Command{
		Use:   "deposit AMOUNT",
		Short: "Deposit native value, or a token with --asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := opts.amount(args[0])
			if err != nil {
				return err
			}

			if asset == "" || strings.EqualFold(asset, domain.NativeAssetAlias) {
				return opts.call(cmd, http.MethodPost, "/api/v1/deposits/native", dto.DepositNativeRequest{Amount: amount, TxHash: txHash})
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/deposits/token", dto.AssetAmountRequest{Asset: asset, Amount: amount})
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "Token address; empty deposits native value")
	cmd.Flags().StringVar(&txHash, "tx", "", "Hash of the transfer that sent native value to custody")

	return cmd
}

func withdrawCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ASSET AMOUNT",
		Short: "Withdraw from the caller's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := opts.amount(args[1])
			if err != nil {
				return err
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/withdrawals", dto.AssetAmountRequest{Asset: args[0], Amount: amount})
		},
	}
}

func sweepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep ASSET AMOUNT",
		Short: "Send raw token holdings to the owner (owner)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := opts.amount(args[1])
			if err != nil {
				return err
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/admin/sweep", dto.AssetAmountRequest{Asset: args[0], Amount: amount})
		},
	}
}

func setCapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-cap CAP",
		Short: "Replace the per-operation withdrawal cap (owner)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capValue, err := opts.amount(args[0])
			if err != nil {
				return err
			}
			return opts.call(cmd, http.MethodPut, "/api/v1/admin/withdrawal-cap", dto.SetWithdrawalCapRequest{Cap: capValue})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token ACCOUNT",
		Short: "Issue a bearer token for ACCOUNT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("a signing secret is required (--secret or JWT_SECRET)")
			}

			account, err := domain.ParseAccount(args[0])
			if err != nil {
				return err
			}

			token, err := auth.NewJWTManager(secret, ttl).Generate(domain.Principal{Account: account, Role: domain.Role(role)})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC signing secret")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "Role claim: user or owner")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

// amount converts a command line amount to base units.
func (o *options) amount(s string) (string, error) {
	v, err := domain.ParseUnits(s, o.decimals)
	if err != nil {
		return "", err
	}
	return v.Dec(), nil
}

// call sends the request and prints the JSON response.
func (o *options) call(cmd *cobra.Command, method, path string, body any) error {
	resp, err := o.do(cmd, method, path, body)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func (o *options) do(cmd *cobra.Command, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(o.baseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.account != "" {
		req.Header.Set(middleware.AccountHeader, o.account)
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	if o.idempotencyKey != "" && method != http.MethodGet {
		req.Header.Set(middleware.IdempotencyKeyHeader, o.idempotencyKey)
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return nil, fmt.Errorf("%s %s failed (status %d): %s: %s", method, path, resp.StatusCode, apiErr.Error, apiErr.Message)
			}
			return nil, fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("%s %s failed (status %d): %s", method, path, resp.StatusCode, truncate(strings.TrimSpace(string(data)), 200))
	}

	return data, nil
}

func printJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
