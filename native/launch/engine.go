package launch

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"launchfund/core/events"
	"launchfund/core/types"
	"launchfund/native/convert"
)

var (
	errNilState = errors.New("launch engine: state not configured")
	errNilToken = errors.New("launch engine: token ledger not configured")

	// ErrCampaignNotFound is returned when the campaign id has no ledger entry.
	ErrCampaignNotFound = errors.New("launch: campaign not found")
	// ErrCampaignExists rejects creation against an already used id.
	ErrCampaignExists = errors.New("launch: campaign already exists")
	// ErrCampaignNotActive rejects trades against a closed campaign.
	ErrCampaignNotActive = errors.New("launch: campaign not active")
	// ErrCampaignEnded rejects trades after the campaign end time.
	ErrCampaignEnded = errors.New("launch: campaign ended")
	// ErrUnauthorized rejects creator-only operations from other callers.
	ErrUnauthorized = errors.New("launch: unauthorized")
	// ErrInsufficientFunds is returned when a balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("launch: insufficient funds")
	// ErrInsufficientLiquidity rejects trades that would drain more from the
	// real reserves than they hold.
	ErrInsufficientLiquidity = errors.New("launch: insufficient liquidity")
	// ErrMilestoneTooEarly rejects withdrawals before the milestone unlock time.
	ErrMilestoneTooEarly = errors.New("launch: milestone unlock time not reached")
	// ErrMilestoneNotReached rejects withdrawals while the pool is below the
	// milestone threshold.
	ErrMilestoneNotReached = errors.New("launch: milestone pool threshold not reached")
	// ErrAllMilestonesComplete rejects withdrawals once every milestone has
	// been released.
	ErrAllMilestonesComplete = errors.New("launch: all milestones complete")
	// ErrEmergencyNotEligible rejects emergency withdrawals while the
	// campaign is still running and fully funded.
	ErrEmergencyNotEligible = errors.New("launch: emergency withdrawal not eligible")
)

type engineState interface {
	CampaignGet(id string) (*Campaign, bool, error)
	CampaignPut(c *Campaign) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// TokenLedger is the external collaborator managing fungible campaign tokens.
// Each call is atomic and fails closed on insufficient authority or balance.
type TokenLedger interface {
	Mint(mintID string, to [20]byte, amount uint64) error
	Burn(mintID string, from [20]byte, amount uint64) error
	Transfer(mintID string, from [20]byte, to [20]byte, amount uint64) error
}

// ConversionRouter folds funding shares into the pool and converts deferred
// amounts at withdrawal time. convert.Router satisfies this.
type ConversionRouter interface {
	RouteContribution(strategy convert.Strategy, baseAmount uint64, source [20]byte, dest [20]byte) convert.Result
	ConvertPayout(baseAmount uint64, source [20]byte, dest [20]byte) (uint64, bool)
}

// Engine wires the launch-funding business logic with persistence, the token
// ledger, the conversion router and event emission. Operations against one
// campaign are serialised by the hosting ledger; the engine itself keeps no
// per-campaign state.
type Engine struct {
	state   engineState
	tokens  TokenLedger
	router  ConversionRouter
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a launch engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger configures the token collaborator.
func (e *Engine) SetTokenLedger(tokens TokenLedger) { e.tokens = tokens }

// SetRouter configures the conversion router. A nil router defers every
// funding share as base currency.
func (e *Engine) SetRouter(router ConversionRouter) { e.router = router }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceBase: big.NewInt(0), BalanceStable: big.NewInt(0)}
	}
	if acc.BalanceBase == nil {
		acc.BalanceBase = big.NewInt(0)
	}
	if acc.BalanceStable == nil {
		acc.BalanceStable = big.NewInt(0)
	}
	return acc
}

func addU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func subU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

func (e *Engine) loadCampaign(id string) (*Campaign, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrCampaignNotFound
	}
	campaign, ok, err := e.state.CampaignGet(trimmed)
	if err != nil {
		return nil, err
	}
	if !ok || campaign == nil {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// CampaignParams collects the immutable identities and curve constants fixed
// at campaign creation.
type CampaignParams struct {
	ID                   string
	Creator              [20]byte
	Vault                [20]byte
	TokenMint            string
	Name                 string
	Description          string
	TokenName            string
	TokenSymbol          string
	TargetAmount         uint64
	TotalSupply          uint64
	CreatorAllocation    uint64
	VirtualBaseReserves  uint64
	VirtualTokenReserves uint64
	FundingRatio         uint8
	Strategy             convert.Strategy
	Milestones           []Milestone
	EndTime              int64
}

// CreateCampaign initialises the ledger entry, seeds the curve reserves with
// the tradeable supply and mints the creator allocation.
func (e *Engine) CreateCampaign(params CampaignParams) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.tokens == nil {
		return nil, errNilToken
	}
	tradeable, err := subU64(params.TotalSupply, params.CreatorAllocation)
	if err != nil {
		return nil, ErrSupplyMismatch
	}
	campaign := &Campaign{
		ID:                   strings.TrimSpace(params.ID),
		Creator:              params.Creator,
		Vault:                params.Vault,
		TokenMint:            strings.TrimSpace(params.TokenMint),
		Name:                 strings.TrimSpace(params.Name),
		Description:          strings.TrimSpace(params.Description),
		TokenName:            strings.TrimSpace(params.TokenName),
		TokenSymbol:          strings.TrimSpace(params.TokenSymbol),
		TargetAmount:         params.TargetAmount,
		VirtualBaseReserves:  params.VirtualBaseReserves,
		VirtualTokenReserves: params.VirtualTokenReserves,
		RealTokenReserves:    tradeable,
		TradeableSupply:      tradeable,
		CreatorAllocation:    params.CreatorAllocation,
		TotalSupply:          params.TotalSupply,
		FundingRatio:         params.FundingRatio,
		ConversionStrategy:   params.Strategy,
		Milestones:           append([]Milestone{}, params.Milestones...),
		IsActive:             true,
		CreatedAt:            e.now(),
		EndTime:              params.EndTime,
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}
	if existing, ok, err := e.state.CampaignGet(campaign.ID); err != nil {
		return nil, err
	} else if ok && existing != nil {
		return nil, ErrCampaignExists
	}
	if campaign.CreatorAllocation > 0 {
		if err := e.tokens.Mint(campaign.TokenMint, campaign.Creator, campaign.CreatorAllocation); err != nil {
			return nil, err
		}
	}
	if err := e.state.CampaignPut(campaign); err != nil {
		return nil, err
	}
	e.emit(CampaignCreatedEvent(campaign))
	return campaign.Clone(), nil
}

// PurchaseReceipt reports the amounts settled by a buy.
type PurchaseReceipt struct {
	BaseIn           uint64
	TokensOut        uint64
	Fee              uint64
	FundingShare     uint64
	LiquidityShare   uint64
	FundingStable    uint64
	FundingBase      uint64
	NewBaseReserves  uint64
	NewTokenReserves uint64
}

// Buy prices baseIn against the curve, splits the proceeds, updates reserves
// and pool balances and mints the purchased tokens. A conversion failure
// inside the router never fails the buy; it defers that funding increment to
// base-currency accounting.
func (e *Engine) Buy(buyer [20]byte, campaignID string, baseIn uint64) (*PurchaseReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.tokens == nil {
		return nil, errNilToken
	}
	if baseIn == 0 {
		return nil, ErrInvalidAmount
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.IsActive {
		return nil, ErrCampaignNotActive
	}
	now := e.now()
	if campaign.EndTime > 0 && now >= campaign.EndTime {
		return nil, ErrCampaignEnded
	}

	split, err := SplitBuyProceeds(baseIn, campaign.FundingRatio, campaign.GoalReached())
	if err != nil {
		return nil, err
	}
	combinedBase, err := addU64(campaign.VirtualBaseReserves, campaign.RealBaseReserves)
	if err != nil {
		return nil, err
	}
	combinedToken, err := addU64(campaign.VirtualTokenReserves, campaign.RealTokenReserves)
	if err != nil {
		return nil, err
	}
	tokensOut, err := QuoteBuy(split.LiquidityShare, combinedBase, combinedToken)
	if err != nil {
		return nil, err
	}
	if tokensOut == 0 {
		return nil, ErrInvalidAmount
	}
	if tokensOut > campaign.RealTokenReserves {
		return nil, ErrInsufficientLiquidity
	}

	buyerAccount, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return nil, err
	}
	buyerAccount = ensureAccount(buyerAccount)
	cost := new(big.Int).SetUint64(baseIn)
	if buyerAccount.BalanceBase.Cmp(cost) < 0 {
		return nil, ErrInsufficientFunds
	}

	newRealBase, err := addU64(campaign.RealBaseReserves, split.LiquidityShare)
	if err != nil {
		return nil, err
	}
	newRaised, err := addU64(campaign.RaisedAmount, split.Net())
	if err != nil {
		return nil, err
	}

	result := convert.Result{BaseAmount: split.FundingShare}
	if split.FundingShare > 0 && e.router != nil {
		result = e.router.RouteContribution(campaign.ConversionStrategy, split.FundingShare, campaign.Vault, campaign.Vault)
	}
	newPoolStable, err := addU64(campaign.FundingPoolAmount, result.StableAmount)
	if err != nil {
		return nil, err
	}
	newPoolBase, err := addU64(campaign.FundingPoolBaseAmount, result.BaseAmount)
	if err != nil {
		return nil, err
	}

	// All computation succeeded; mint first so a token-ledger rejection cannot
	// strand partial balance movements, then apply the account updates and the
	// campaign write. The hosting ledger commits these as one transition.
	if err := e.tokens.Mint(campaign.TokenMint, buyer, tokensOut); err != nil {
		return nil, err
	}
	buyerAccount.BalanceBase = new(big.Int).Sub(buyerAccount.BalanceBase, cost)
	if err := e.state.PutAccount(buyer[:], buyerAccount); err != nil {
		return nil, err
	}
	vaultAccount, err := e.state.GetAccount(campaign.Vault[:])
	if err != nil {
		return nil, err
	}
	vaultAccount = ensureAccount(vaultAccount)
	vaultAccount.BalanceBase = new(big.Int).Add(vaultAccount.BalanceBase, new(big.Int).SetUint64(baseIn-split.Fee))
	if err := e.state.PutAccount(campaign.Vault[:], vaultAccount); err != nil {
		return nil, err
	}
	if split.Fee > 0 {
		creatorAccount, err := e.state.GetAccount(campaign.Creator[:])
		if err != nil {
			return nil, err
		}
		creatorAccount = ensureAccount(creatorAccount)
		creatorAccount.BalanceBase = new(big.Int).Add(creatorAccount.BalanceBase, new(big.Int).SetUint64(split.Fee))
		if err := e.state.PutAccount(campaign.Creator[:], creatorAccount); err != nil {
			return nil, err
		}
	}

	campaign.RealBaseReserves = newRealBase
	campaign.RealTokenReserves -= tokensOut
	campaign.RaisedAmount = newRaised
	campaign.FundingPoolAmount = newPoolStable
	campaign.FundingPoolBaseAmount = newPoolBase
	if err := e.state.CampaignPut(campaign); err != nil {
		return nil, err
	}

	receipt := &PurchaseReceipt{
		BaseIn:           baseIn,
		TokensOut:        tokensOut,
		Fee:              split.Fee,
		FundingShare:     split.FundingShare,
		LiquidityShare:   split.LiquidityShare,
		FundingStable:    result.StableAmount,
		FundingBase:      result.BaseAmount,
		NewBaseReserves:  campaign.RealBaseReserves,
		NewTokenReserves: campaign.RealTokenReserves,
	}
	e.emit(TokensPurchasedEvent(campaign, buyer, receipt))
	return receipt, nil
}

// SaleReceipt reports the amounts settled by a sell.
type SaleReceipt struct {
	TokensIn         uint64
	BaseOut          uint64
	Fee              uint64
	Net              uint64
	NewBaseReserves  uint64
	NewTokenReserves uint64
}

// Sell prices tokensIn against the curve, burns the tokens and pays the
// seller the full net amount; the fee still flows to the creator and nothing
// is routed to the funding pool.
func (e *Engine) Sell(seller [20]byte, campaignID string, tokensIn uint64) (*SaleReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.tokens == nil {
		return nil, errNilToken
	}
	if tokensIn == 0 {
		return nil, ErrInvalidAmount
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.IsActive {
		return nil, ErrCampaignNotActive
	}
	if campaign.EndTime > 0 && e.now() >= campaign.EndTime {
		return nil, ErrCampaignEnded
	}

	combinedBase, err := addU64(campaign.VirtualBaseReserves, campaign.RealBaseReserves)
	if err != nil {
		return nil, err
	}
	combinedToken, err := addU64(campaign.VirtualTokenReserves, campaign.RealTokenReserves)
	if err != nil {
		return nil, err
	}
	baseOut, err := QuoteSell(tokensIn, combinedBase, combinedToken)
	if err != nil {
		return nil, err
	}
	if baseOut == 0 {
		return nil, ErrInvalidAmount
	}
	if baseOut > campaign.RealBaseReserves {
		return nil, ErrInsufficientLiquidity
	}
	newRealToken, err := addU64(campaign.RealTokenReserves, tokensIn)
	if err != nil {
		return nil, err
	}
	if newRealToken > campaign.TradeableSupply {
		return nil, ErrInvalidAmount
	}
	fee, err := TradeFee(baseOut)
	if err != nil {
		return nil, err
	}
	net := baseOut - fee

	vaultAccount, err := e.state.GetAccount(campaign.Vault[:])
	if err != nil {
		return nil, err
	}
	vaultAccount = ensureAccount(vaultAccount)
	payout := new(big.Int).SetUint64(baseOut)
	if vaultAccount.BalanceBase.Cmp(payout) < 0 {
		return nil, ErrInsufficientFunds
	}

	// Every check passed; the burn precedes the balance movements so a
	// token-ledger rejection cannot strand a partial payout.
	if err := e.tokens.Burn(campaign.TokenMint, seller, tokensIn); err != nil {
		return nil, err
	}
	vaultAccount.BalanceBase = new(big.Int).Sub(vaultAccount.BalanceBase, payout)
	if err := e.state.PutAccount(campaign.Vault[:], vaultAccount); err != nil {
		return nil, err
	}
	sellerAccount, err := e.state.GetAccount(seller[:])
	if err != nil {
		return nil, err
	}
	sellerAccount = ensureAccount(sellerAccount)
	sellerAccount.BalanceBase = new(big.Int).Add(sellerAccount.BalanceBase, new(big.Int).SetUint64(net))
	if err := e.state.PutAccount(seller[:], sellerAccount); err != nil {
		return nil, err
	}
	if fee > 0 {
		creatorAccount, err := e.state.GetAccount(campaign.Creator[:])
		if err != nil {
			return nil, err
		}
		creatorAccount = ensureAccount(creatorAccount)
		creatorAccount.BalanceBase = new(big.Int).Add(creatorAccount.BalanceBase, new(big.Int).SetUint64(fee))
		if err := e.state.PutAccount(campaign.Creator[:], creatorAccount); err != nil {
			return nil, err
		}
	}

	campaign.RealBaseReserves -= baseOut
	campaign.RealTokenReserves = newRealToken
	if err := e.state.CampaignPut(campaign); err != nil {
		return nil, err
	}

	receipt := &SaleReceipt{
		TokensIn:         tokensIn,
		BaseOut:          baseOut,
		Fee:              fee,
		Net:              net,
		NewBaseReserves:  campaign.RealBaseReserves,
		NewTokenReserves: campaign.RealTokenReserves,
	}
	e.emit(TokensSoldEvent(campaign.ID, seller, receipt))
	return receipt, nil
}

// WithdrawMilestone releases the next milestone tranche to the creator. The
// payout is the current pool balance divided evenly across the remaining
// milestones. Deferred base-currency pool funds are converted on the way out;
// if that conversion fails the tranche is paid in base currency directly and
// the milestone still advances.
func (e *Engine) WithdrawMilestone(caller [20]byte, campaignID string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	if int(campaign.CurrentMilestoneIndex) >= len(campaign.Milestones) {
		return 0, ErrAllMilestonesComplete
	}
	if caller != campaign.Creator {
		return 0, ErrUnauthorized
	}
	milestone := campaign.Milestones[campaign.CurrentMilestoneIndex]
	if e.now() < milestone.UnlockTime {
		return 0, ErrMilestoneTooEarly
	}
	pool := campaign.PoolBalance()
	if pool < milestone.RequiredPoolAmount {
		return 0, ErrMilestoneNotReached
	}

	remaining := uint64(campaign.MilestonesRemaining())
	payout := pool / remaining
	stablePart := payout
	if stablePart > campaign.FundingPoolAmount {
		stablePart = campaign.FundingPoolAmount
	}
	basePart := payout - stablePart

	if stablePart > 0 {
		if err := e.transferStable(campaign.Vault, campaign.Creator, stablePart); err != nil {
			return 0, err
		}
	}
	if basePart > 0 {
		if _, ok := e.convertPayout(basePart, campaign.Vault, campaign.Creator); !ok {
			// Fallback: the tranche moves out in base currency instead.
			if err := e.transferBase(campaign.Vault, campaign.Creator, basePart); err != nil {
				return 0, err
			}
		}
	}

	campaign.FundingPoolAmount -= stablePart
	campaign.FundingPoolBaseAmount -= basePart
	newWithdrawn, err := addU64(campaign.FundsWithdrawn, payout)
	if err != nil {
		return 0, err
	}
	campaign.FundsWithdrawn = newWithdrawn
	campaign.CurrentMilestoneIndex++
	if int(campaign.CurrentMilestoneIndex) >= len(campaign.Milestones) {
		campaign.IsActive = false
	}
	if err := e.state.CampaignPut(campaign); err != nil {
		return 0, err
	}
	e.emit(MilestoneWithdrawnEvent(campaign.ID, campaign.CurrentMilestoneIndex-1, payout, campaign.PoolBalance()))
	return payout, nil
}

// EmergencyWithdraw releases pool funds outside the milestone schedule for
// campaign-failure wind-down. It is permitted only after the end time or
// while the pool is below target, never advances the milestone pointer and is
// capped at the current pool balance.
func (e *Engine) EmergencyWithdraw(caller [20]byte, campaignID string, amount uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return err
	}
	if caller != campaign.Creator {
		return ErrUnauthorized
	}
	now := e.now()
	expired := campaign.EndTime > 0 && now >= campaign.EndTime
	if !expired && campaign.PoolBalance() >= campaign.TargetAmount {
		return ErrEmergencyNotEligible
	}
	if amount > campaign.PoolBalance() {
		return ErrInsufficientFunds
	}

	stablePart := amount
	if stablePart > campaign.FundingPoolAmount {
		stablePart = campaign.FundingPoolAmount
	}
	basePart := amount - stablePart
	if stablePart > 0 {
		if err := e.transferStable(campaign.Vault, campaign.Creator, stablePart); err != nil {
			return err
		}
	}
	if basePart > 0 {
		if err := e.transferBase(campaign.Vault, campaign.Creator, basePart); err != nil {
			return err
		}
	}

	campaign.FundingPoolAmount -= stablePart
	campaign.FundingPoolBaseAmount -= basePart
	newWithdrawn, err := addU64(campaign.FundsWithdrawn, amount)
	if err != nil {
		return err
	}
	campaign.FundsWithdrawn = newWithdrawn
	if err := e.state.CampaignPut(campaign); err != nil {
		return err
	}
	e.emit(EmergencyWithdrawnEvent(campaign.ID, amount, campaign.PoolBalance()))
	return nil
}

// EndCampaign closes the campaign to further trading. Historical state is
// retained for audit.
func (e *Engine) EndCampaign(caller [20]byte, campaignID string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return err
	}
	if caller != campaign.Creator {
		return ErrUnauthorized
	}
	if !campaign.IsActive {
		return ErrCampaignNotActive
	}
	campaign.IsActive = false
	if err := e.state.CampaignPut(campaign); err != nil {
		return err
	}
	e.emit(CampaignEndedEvent(campaign.ID, campaign.Creator))
	return nil
}

// TokenPrice returns the marginal curve price for the campaign token without
// mutating state.
func (e *Engine) TokenPrice(campaignID string, tokenDecimals uint8) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return 0, err
	}
	combinedBase, err := addU64(campaign.VirtualBaseReserves, campaign.RealBaseReserves)
	if err != nil {
		return 0, err
	}
	combinedToken, err := addU64(campaign.VirtualTokenReserves, campaign.RealTokenReserves)
	if err != nil {
		return 0, err
	}
	return SpotPrice(combinedBase, combinedToken, tokenDecimals)
}

// Campaign returns a copy of the ledger entry for callers outside the engine.
func (e *Engine) Campaign(campaignID string) (*Campaign, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	campaign, err := e.loadCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	return campaign.Clone(), nil
}

func (e *Engine) convertPayout(baseAmount uint64, source, dest [20]byte) (uint64, bool) {
	if e.router == nil {
		return 0, false
	}
	return e.router.ConvertPayout(baseAmount, source, dest)
}

func (e *Engine) transferStable(from, to [20]byte, amount uint64) error {
	return e.transfer(from, to, amount, true)
}

func (e *Engine) transferBase(from, to [20]byte, amount uint64) error {
	return e.transfer(from, to, amount, false)
}

func (e *Engine) transfer(from, to [20]byte, amount uint64, stable bool) error {
	value := new(big.Int).SetUint64(amount)
	fromAccount, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAccount = ensureAccount(fromAccount)
	balance := fromAccount.BalanceBase
	if stable {
		balance = fromAccount.BalanceStable
	}
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: vault underfunded", ErrInsufficientFunds)
	}
	if stable {
		fromAccount.BalanceStable = new(big.Int).Sub(fromAccount.BalanceStable, value)
	} else {
		fromAccount.BalanceBase = new(big.Int).Sub(fromAccount.BalanceBase, value)
	}
	if err := e.state.PutAccount(from[:], fromAccount); err != nil {
		return err
	}
	toAccount, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAccount = ensureAccount(toAccount)
	if stable {
		toAccount.BalanceStable = new(big.Int).Add(toAccount.BalanceStable, value)
	} else {
		toAccount.BalanceBase = new(big.Int).Add(toAccount.BalanceBase, value)
	}
	return e.state.PutAccount(to[:], toAccount)
}
