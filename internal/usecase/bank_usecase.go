package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
)

// BankUseCase runs the custodial ledger operations. Every mutating operation
// is CHECK -> EFFECT -> INTERACTION inside one transaction; the transfer is the
// last step before commit and any error rolls everything back.
type BankUseCase struct {
	txManager   TransactionManager
	stateRepo   BankStateRepository
	ledger      *LedgerStore
	outboxRepo  OutboxRepository
	capPolicy   *CapPolicy
	withdrawals *WithdrawalPolicy
	transfers   *TransferGateway
	proofs      NativeDepositVerifier
	claims      DepositClaimRepository
	access      AccessControl
	retrier     Retrier
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	guard       executionGuard
	now         func() time.Time
}

// BankConfig holds dependencies of BankUseCase. Retrier, Metrics and Logger are optional.
// With NativeDeposits set, every native deposit must cite a mined transfer into
// custody, and Claims keeps each transfer from being credited twice.
type BankConfig struct {
	TxManager        TransactionManager
	StateRepo        BankStateRepository
	Ledger           *LedgerStore
	OutboxRepo       OutboxRepository
	CapPolicy        *CapPolicy
	WithdrawalPolicy *WithdrawalPolicy
	Transfers        *TransferGateway
	NativeDeposits   NativeDepositVerifier
	Claims           DepositClaimRepository
	Access           AccessControl
	Retrier          Retrier
	IDGen            IDGenerator
	Metrics          *metrics.Metrics
	Logger           *zerolog.Logger
}

// NewBankUseCase creates a new BankUseCase.
func NewBankUseCase(cfg BankConfig) *BankUseCase {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	withdrawals := cfg.WithdrawalPolicy
	if withdrawals == nil {
		withdrawals = NewWithdrawalPolicy()
	}

	return &BankUseCase{
		txManager:   cfg.TxManager,
		stateRepo:   cfg.StateRepo,
		ledger:      cfg.Ledger,
		outboxRepo:  cfg.OutboxRepo,
		capPolicy:   cfg.CapPolicy,
		withdrawals: withdrawals,
		transfers:   cfg.Transfers,
		proofs:      cfg.NativeDeposits,
		claims:      cfg.Claims,
		access:      cfg.Access,
		retrier:     cfg.Retrier,
		idGen:       cfg.IDGen,
		metrics:     cfg.Metrics,
		logger:      logger.With().Str("component", "bank").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// DepositNativeInput represents input for a native deposit.
// TxHash names the on-chain transfer that carried the value, when proofs are required.
type DepositNativeInput struct {
	Caller domain.Account
	Amount *uint256.Int
	TxHash common.Hash
}

// DepositTokenInput represents input for a token deposit.
type DepositTokenInput struct {
	Caller domain.Account
	Asset  domain.AssetID
	Amount *uint256.Int
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	Caller domain.Account
	Asset  domain.AssetID
	Amount *uint256.Int
}

// SweepInput represents input for an owner sweep.
type SweepInput struct {
	Caller domain.Account
	Asset  domain.AssetID
	Amount *uint256.Int
}

// SetWithdrawalCapInput represents input for a withdrawal cap change.
type SetWithdrawalCapInput struct {
	Caller domain.Account
	Cap    *uint256.Int
}

// DepositNative credits native value that arrived with the call, bounded by the live USD cap.
func (uc *BankUseCase) DepositNative(ctx context.Context, input DepositNativeInput) (*domain.DepositCompleted, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpDepositNative, err)
	}
	if uc.proofs != nil && input.TxHash == (common.Hash{}) {
		return nil, uc.fail(OpDepositNative, fmt.Errorf("%w: tx hash required", domain.ErrDepositUnproven))
	}

	var (
		completed *domain.DepositCompleted
		snapshot  domain.CapSnapshot
		total     *uint256.Int
	)

	err := uc.execute(ctx, OpDepositNative, func(ctx context.Context, tx Transaction, state *domain.BankState) error {
		if err := uc.verifyNativeDeposit(ctx, input); err != nil {
			return err
		}

		var err error
		snapshot, err = uc.capPolicy.CheckDeposit(ctx, input.Amount, state.NativeTotal)
		if err != nil {
			return err
		}

		newBalance, err := uc.ledger.Credit(ctx, tx, input.Caller, domain.NativeAsset, input.Amount)
		if err != nil {
			return err
		}

		proof, err := uc.claimNativeDeposit(ctx, tx, input)
		if err != nil {
			return err
		}

		nativeTotal, overflow := new(uint256.Int).AddOverflow(state.NativeTotal, input.Amount)
		if overflow {
			return fmt.Errorf("%w: native total", domain.ErrArithmeticOverflow)
		}
		state.NativeTotal = nativeTotal
		total = nativeTotal
		state.TotalDeposits++
		if err := uc.updateState(ctx, tx, state); err != nil {
			return err
		}

		completed = &domain.DepositCompleted{
			Account:    input.Caller,
			Asset:      domain.NativeAsset,
			Amount:     new(uint256.Int).Set(input.Amount),
			NewBalance: newBalance,
			TxHash:     proof,
			At:         uc.now(),
		}
		if err := uc.recordEvent(ctx, tx, positionID(input.Caller, domain.NativeAsset), domain.AggregateTypePosition, domain.EventTypeDepositCompleted, completed.Payload()); err != nil {
			return err
		}

		return uc.transfers.PullIn(ctx, domain.NativeAsset, input.Caller, input.Amount)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Deposits.WithLabelValues(metrics.AssetKind(true)).Inc()
		uc.observeCap(snapshot)
		uc.observeNativeTotal(total)
	}

	return completed, nil
}

// DepositToken credits a token deposit and pulls the tokens into custody.
// Token deposits are not bounded by the USD cap.
func (uc *BankUseCase) DepositToken(ctx context.Context, input DepositTokenInput) (*domain.DepositCompleted, error) {
	if err := domain.ValidateTokenAsset(input.Asset); err != nil {
		return nil, uc.fail(OpDepositToken, err)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpDepositToken, err)
	}

	var completed *domain.DepositCompleted

	err := uc.execute(ctx, OpDepositToken, func(ctx context.Context, tx Transaction, state *domain.BankState) error {
		newBalance, err := uc.ledger.Credit(ctx, tx, input.Caller, input.Asset, input.Amount)
		if err != nil {
			return err
		}

		state.TotalDeposits++
		if err := uc.updateState(ctx, tx, state); err != nil {
			return err
		}

		completed = &domain.DepositCompleted{
			Account:    input.Caller,
			Asset:      input.Asset,
			Amount:     new(uint256.Int).Set(input.Amount),
			NewBalance: newBalance,
			At:         uc.now(),
		}
		if err := uc.recordEvent(ctx, tx, positionID(input.Caller, input.Asset), domain.AggregateTypePosition, domain.EventTypeDepositCompleted, completed.Payload()); err != nil {
			return err
		}

		if err := uc.transfers.PullIn(ctx, input.Asset, input.Caller, input.Amount); err != nil {
			uc.countTransferFailure("in", input.Asset)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Deposits.WithLabelValues(metrics.AssetKind(false)).Inc()
	}

	return completed, nil
}

// Withdraw debits the caller and pushes the value out of custody.
func (uc *BankUseCase) Withdraw(ctx context.Context, input WithdrawInput) (*domain.WithdrawalCompleted, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpWithdraw, err)
	}

	var (
		completed *domain.WithdrawalCompleted
		total     *uint256.Int
	)

	err := uc.execute(ctx, OpWithdraw, func(ctx context.Context, tx Transaction, state *domain.BankState) error {
		balance, err := uc.ledger.LockedBalance(ctx, tx, input.Caller, input.Asset)
		if err != nil {
			return err
		}

		if err := uc.withdrawals.Check(input.Amount, balance, state.WithdrawalCap); err != nil {
			return err
		}

		newBalance, err := uc.ledger.Debit(ctx, tx, input.Caller, input.Asset, input.Amount)
		if err != nil {
			return err
		}

		if domain.IsNative(input.Asset) {
			nativeTotal, underflow := new(uint256.Int).SubOverflow(state.NativeTotal, input.Amount)
			if underflow {
				return fmt.Errorf("%w: native total below withdrawal", domain.ErrArithmeticOverflow)
			}
			state.NativeTotal = nativeTotal
			total = nativeTotal
		}
		state.TotalWithdrawals++
		if err := uc.updateState(ctx, tx, state); err != nil {
			return err
		}

		completed = &domain.WithdrawalCompleted{
			Account:    input.Caller,
			Asset:      input.Asset,
			Amount:     new(uint256.Int).Set(input.Amount),
			NewBalance: newBalance,
			At:         uc.now(),
		}
		if err := uc.recordEvent(ctx, tx, positionID(input.Caller, input.Asset), domain.AggregateTypePosition, domain.EventTypeWithdrawalCompleted, completed.Payload()); err != nil {
			return err
		}

		completed.PendingTx, err = uc.pushOut(ctx, tx, OpWithdraw, input.Asset, input.Caller, input.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Withdrawals.WithLabelValues(metrics.AssetKind(domain.IsNative(input.Asset))).Inc()
		uc.observeNativeTotal(total)
	}

	return completed, nil
}

// AdminSweep sends raw token holdings of custody to the owner. No ledger entry changes.
func (uc *BankUseCase) AdminSweep(ctx context.Context, input SweepInput) (*domain.Swept, error) {
	if !uc.access.IsOwner(input.Caller) {
		return nil, uc.fail(OpAdminSweep, domain.ErrUnauthorized)
	}
	if err := domain.ValidateTokenAsset(input.Asset); err != nil {
		return nil, uc.fail(OpAdminSweep, err)
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, uc.fail(OpAdminSweep, err)
	}

	owner := uc.access.Owner()
	var swept *domain.Swept

	err := uc.execute(ctx, OpAdminSweep, func(ctx context.Context, tx Transaction, _ *domain.BankState) error {
		swept = &domain.Swept{
			Asset:  input.Asset,
			To:     owner,
			Amount: new(uint256.Int).Set(input.Amount),
			At:     uc.now(),
		}
		if err := uc.recordEvent(ctx, tx, domain.BankAggregateID, domain.AggregateTypeBank, domain.EventTypeSwept, swept.Payload()); err != nil {
			return err
		}

		var err error
		swept.PendingTx, err = uc.pushOut(ctx, tx, OpAdminSweep, input.Asset, owner, input.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Sweeps.Inc()
	}

	return swept, nil
}

// SetWithdrawalCap replaces the per-operation withdrawal cap. Owner only.
func (uc *BankUseCase) SetWithdrawalCap(ctx context.Context, input SetWithdrawalCapInput) (*domain.WithdrawalCapUpdated, error) {
	if !uc.access.IsOwner(input.Caller) {
		return nil, uc.fail(OpSetWithdrawalCap, domain.ErrUnauthorized)
	}
	if err := domain.ValidateAmount(input.Cap); err != nil {
		return nil, uc.fail(OpSetWithdrawalCap, err)
	}

	var updated *domain.WithdrawalCapUpdated

	err := uc.execute(ctx, OpSetWithdrawalCap, func(ctx context.Context, tx Transaction, state *domain.BankState) error {
		updated = &domain.WithdrawalCapUpdated{
			PreviousCap: new(uint256.Int).Set(state.WithdrawalCap),
			NewCap:      new(uint256.Int).Set(input.Cap),
			At:          uc.now(),
		}

		state.WithdrawalCap = new(uint256.Int).Set(input.Cap)
		if err := uc.updateState(ctx, tx, state); err != nil {
			return err
		}

		return uc.recordEvent(ctx, tx, domain.BankAggregateID, domain.AggregateTypeBank, domain.EventTypeWithdrawalCapUpdated, updated.Payload())
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CapUpdates.Inc()
	}

	return updated, nil
}

// BalanceOf returns the committed balance of account in asset.
func (uc *BankUseCase) BalanceOf(ctx context.Context, account domain.Account, asset domain.AssetID) (*uint256.Int, error) {
	return uc.ledger.BalanceOf(ctx, account, asset)
}

// CurrentNativeCap recomputes the native deposit cap from a fresh price.
func (uc *BankUseCase) CurrentNativeCap(ctx context.Context) (domain.CapSnapshot, error) {
	snapshot, err := uc.capPolicy.CurrentCap(ctx)
	if err != nil {
		return domain.CapSnapshot{}, err
	}

	uc.observeCap(snapshot)

	return snapshot, nil
}

// Totals returns the aggregate counters and the configured withdrawal cap.
func (uc *BankUseCase) Totals(ctx context.Context) (*domain.BankState, error) {
	return uc.stateRepo.Get(ctx)
}

// execute runs fn inside the execution guard and one transaction holding the
// bank state lock. fn must perform its transfer interaction as its last step.
func (uc *BankUseCase) execute(ctx context.Context, op string, fn func(ctx context.Context, tx Transaction, state *domain.BankState) error) error {
	start := time.Now()

	ctx, release, err := uc.guard.enter(ctx)
	if err != nil {
		return uc.fail(op, err)
	}
	defer release()

	// Once the slot is held the operation runs to commit or rollback even if
	// the caller goes away: a payout may already be on its way.
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	tx, state, err := uc.beginLocked(txCtx)
	if err != nil {
		return uc.fail(op, err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx, state); err != nil {
		return uc.fail(op, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		// The interaction already happened; the ledger no longer reflects it.
		uc.logger.Error().Err(err).Str("operation", op).Msg("commit failed after transfer interaction")
		if uc.metrics != nil {
			uc.metrics.CommitFailures.Inc()
		}
		return uc.fail(op, err)
	}

	if uc.metrics != nil {
		uc.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	uc.logger.Debug().Str("operation", op).Dur("duration", time.Since(start)).Msg("operation committed")

	return nil
}

// beginLocked opens a transaction and locks the bank state row, retrying lock contention.
func (uc *BankUseCase) beginLocked(ctx context.Context) (Transaction, *domain.BankState, error) {
	var (
		tx    Transaction
		state *domain.BankState
	)

	open := func() error {
		t, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}

		s, err := uc.stateRepo.GetForUpdate(ctx, t)
		if err != nil {
			_ = t.Rollback(ctx)
			return err
		}

		tx, state = t, s
		return nil
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, open)
	} else {
		err = open()
	}
	if err != nil {
		return nil, nil, err
	}

	return tx, state, nil
}

// verifyNativeDeposit checks the on-chain proof of a native deposit, if proofs are required.
func (uc *BankUseCase) verifyNativeDeposit(ctx context.Context, input DepositNativeInput) error {
	if uc.proofs == nil {
		return nil
	}
	return uc.proofs.VerifyNativeDeposit(ctx, input.TxHash, input.Caller, uc.transfers.Custody(), input.Amount)
}

// claimNativeDeposit marks the proving transfer as used inside tx.
func (uc *BankUseCase) claimNativeDeposit(ctx context.Context, tx Transaction, input DepositNativeInput) (common.Hash, error) {
	if uc.proofs == nil {
		return common.Hash{}, nil
	}
	if uc.claims == nil {
		return common.Hash{}, errors.New("native deposit proofs need a claim repository")
	}

	err := uc.claims.Claim(ctx, tx, &domain.DepositClaim{
		TxHash:    input.TxHash,
		Account:   input.Caller,
		Amount:    new(uint256.Int).Set(input.Amount),
		ClaimedAt: uc.now(),
	})
	if err != nil {
		return common.Hash{}, err
	}
	return input.TxHash, nil
}

// pushOut sends value out of custody as the last step of an operation. A
// payout broadcast without a receipt keeps the ledger effect: the operation
// commits and a transfer.pending event records the hash for reconciliation.
func (uc *BankUseCase) pushOut(ctx context.Context, tx Transaction, op string, asset domain.AssetID, to domain.Account, amount *uint256.Int) (common.Hash, error) {
	err := uc.transfers.PushOut(ctx, asset, to, amount)
	if err == nil {
		return common.Hash{}, nil
	}

	hash, pending := domain.PendingTxHash(err)
	if !pending {
		uc.countTransferFailure("out", asset)
		return common.Hash{}, err
	}

	uc.logger.Warn().Err(err).
		Str("operation", op).
		Str("tx", hash.Hex()).
		Msg("payout broadcast without receipt, committing as pending")
	if uc.metrics != nil {
		uc.metrics.PendingTransfers.WithLabelValues(metrics.AssetKind(domain.IsNative(asset))).Inc()
	}

	event := &domain.TransferPending{
		Operation: op,
		TxHash:    hash,
		Asset:     asset,
		To:        to,
		Amount:    new(uint256.Int).Set(amount),
		At:        uc.now(),
	}
	if err := uc.recordEvent(ctx, tx, hash.Hex(), domain.AggregateTypeTransfer, domain.EventTypeTransferPending, event.Payload()); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

func (uc *BankUseCase) updateState(ctx context.Context, tx Transaction, state *domain.BankState) error {
	state.UpdatedAt = uc.now()
	return uc.stateRepo.Update(ctx, tx, state)
}

func (uc *BankUseCase) recordEvent(ctx context.Context, tx Transaction, aggregateID, aggregateType, eventType string, payload map[string]any) error {
	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     uc.now(),
		Published:     false,
	})
}

func (uc *BankUseCase) fail(op string, err error) error {
	if uc.metrics != nil {
		uc.metrics.OperationErrors.WithLabelValues(op, ErrorKind(err)).Inc()
	}
	uc.logger.Debug().Err(err).Str("operation", op).Msg("operation rejected")
	return err
}

func (uc *BankUseCase) countTransferFailure(direction string, asset domain.AssetID) {
	if uc.metrics != nil {
		uc.metrics.TransferFailures.WithLabelValues(direction, metrics.AssetKind(domain.IsNative(asset))).Inc()
	}
}

func (uc *BankUseCase) observeCap(snapshot domain.CapSnapshot) {
	if uc.metrics == nil || snapshot.NativeCap == nil || snapshot.Price.Price == nil {
		return
	}
	uc.metrics.OraclePrice.Set(decimal.NewFromBigInt(snapshot.Price.Price, -int32(snapshot.Price.Decimals)).InexactFloat64())
	uc.metrics.NativeCap.Set(decimal.NewFromBigInt(snapshot.NativeCap.ToBig(), -int32(domain.NativeDecimals)).InexactFloat64())
}

func (uc *BankUseCase) observeNativeTotal(total *uint256.Int) {
	if uc.metrics == nil || total == nil {
		return
	}
	uc.metrics.NativeDeposited.Set(decimal.NewFromBigInt(total.ToBig(), -int32(domain.NativeDecimals)).InexactFloat64())
}

func positionID(account domain.Account, asset domain.AssetID) string {
	return domain.LedgerKey{Account: account, Asset: asset}.String()
}

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, domain.ErrInvalidTokenFunction):
		return "invalid_token_function"
	case errors.Is(err, domain.ErrInvalidAmountFormat):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, domain.ErrInvalidTxHash):
		return "invalid_tx_hash"
	case errors.Is(err, domain.ErrDepositUnproven):
		return "deposit_unproven"
	case errors.Is(err, domain.ErrDepositAlreadyClaimed):
		return "deposit_already_claimed"
	case errors.Is(err, domain.ErrStateNotFound):
		return "state_not_found"
	case errors.Is(err, domain.ErrDepositExceedsCap):
		return "deposit_exceeds_cap"
	case errors.Is(err, domain.ErrExceedsWithdrawalCap):
		return "exceeds_withdrawal_cap"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, domain.ErrTransferPending):
		return "transfer_pending"
	case errors.Is(err, domain.ErrCalculationFailed), errors.Is(err, domain.ErrInvalidPrice):
		return "calculation_failed"
	case errors.Is(err, domain.ErrArithmeticOverflow):
		return "arithmetic_overflow"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
