package launch

import (
	"errors"
	"fmt"
	"strings"

	"launchfund/native/convert"
)

// Funding ratio bounds, in percent of post-fee buy proceeds.
const (
	MinFundingRatio = 10
	MaxFundingRatio = 90
)

var (
	// ErrFundingRatioOutOfRange rejects campaigns whose funding ratio falls
	// outside [MinFundingRatio, MaxFundingRatio].
	ErrFundingRatioOutOfRange = errors.New("launch: funding ratio out of range")
	// ErrSupplyMismatch rejects campaigns whose tradeable supply and creator
	// allocation do not sum to the total supply.
	ErrSupplyMismatch = errors.New("launch: tradeable supply plus creator allocation must equal total supply")
)

// Milestone is a creator-defined gate controlling incremental release of the
// funding pool.
type Milestone struct {
	Name               string `json:"name"`
	RequiredPoolAmount uint64 `json:"requiredPoolAmount"`
	UnlockTime         int64  `json:"unlockTime"`
}

// Campaign is the durable ledger entry for a single token launch. Reserves,
// pool balances and milestone progress are mutated only through the engine.
type Campaign struct {
	ID          string   `json:"id"`
	Creator     [20]byte `json:"creator"`
	Vault       [20]byte `json:"vault"`
	TokenMint   string   `json:"tokenMint"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TokenName   string   `json:"tokenName"`
	TokenSymbol string   `json:"tokenSymbol"`

	TargetAmount uint64 `json:"targetAmount"`
	RaisedAmount uint64 `json:"raisedAmount"`
	// FundingPoolAmount holds the stable-denominated pool component;
	// FundingPoolBaseAmount the base-denominated component awaiting
	// conversion. Creator withdrawals draw from these two fields only.
	FundingPoolAmount     uint64 `json:"fundingPoolAmount"`
	FundingPoolBaseAmount uint64 `json:"fundingPoolBaseAmount"`

	// Virtual reserves seed the curve and are never depleted; only the real
	// reserves are debited and credited by trades.
	VirtualBaseReserves  uint64 `json:"virtualBaseReserves"`
	VirtualTokenReserves uint64 `json:"virtualTokenReserves"`
	RealBaseReserves     uint64 `json:"realBaseReserves"`
	RealTokenReserves    uint64 `json:"realTokenReserves"`

	TradeableSupply   uint64 `json:"tradeableSupply"`
	CreatorAllocation uint64 `json:"creatorAllocation"`
	TotalSupply       uint64 `json:"totalSupply"`

	FundingRatio       uint8            `json:"fundingRatio"`
	ConversionStrategy convert.Strategy `json:"conversionStrategy"`

	Milestones            []Milestone `json:"milestones"`
	CurrentMilestoneIndex uint32      `json:"currentMilestoneIndex"`

	FundsWithdrawn uint64 `json:"fundsWithdrawn"`
	IsActive       bool   `json:"isActive"`
	CreatedAt      int64  `json:"createdAt"`
	EndTime        int64  `json:"endTime"`
}

// Clone returns a deep copy of the campaign so callers can mutate the result
// without touching shared state.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Milestones = append([]Milestone{}, c.Milestones...)
	return &clone
}

// PoolBalance returns the funds available to creator withdrawals: the stable
// pool component plus the base component still awaiting conversion. The two
// components carry different denominations; gating on their sum preserves the
// source semantics while the split fields keep the units auditable.
func (c *Campaign) PoolBalance() uint64 {
	total := c.FundingPoolAmount + c.FundingPoolBaseAmount
	if total < c.FundingPoolAmount {
		return ^uint64(0)
	}
	return total
}

// GoalReached reports whether the funding pool has met the campaign target.
// Post-goal buys route nothing to the pool.
func (c *Campaign) GoalReached() bool {
	return c.PoolBalance() >= c.TargetAmount
}

// MilestonesRemaining counts the milestones not yet withdrawn.
func (c *Campaign) MilestonesRemaining() int {
	remaining := len(c.Milestones) - int(c.CurrentMilestoneIndex)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Validate checks the structural invariants fixed at creation time.
func (c *Campaign) Validate() error {
	if c == nil {
		return errors.New("launch: campaign must not be nil")
	}
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("launch: campaign id required")
	}
	if strings.TrimSpace(c.TokenMint) == "" {
		return errors.New("launch: token mint required")
	}
	if c.FundingRatio < MinFundingRatio || c.FundingRatio > MaxFundingRatio {
		return fmt.Errorf("%w: %d", ErrFundingRatioOutOfRange, c.FundingRatio)
	}
	if !c.ConversionStrategy.Valid() {
		return fmt.Errorf("launch: invalid conversion strategy %d", c.ConversionStrategy)
	}
	sum := c.TradeableSupply + c.CreatorAllocation
	if sum < c.TradeableSupply || sum != c.TotalSupply {
		return ErrSupplyMismatch
	}
	if c.RealTokenReserves > c.TradeableSupply {
		return errors.New("launch: real token reserves exceed tradeable supply")
	}
	if c.VirtualBaseReserves == 0 || c.VirtualTokenReserves == 0 {
		return errors.New("launch: virtual reserves required")
	}
	for i, m := range c.Milestones {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("launch: milestone %d name required", i)
		}
		if i > 0 && m.UnlockTime < c.Milestones[i-1].UnlockTime {
			return fmt.Errorf("launch: milestone %d unlock time regresses", i)
		}
	}
	return nil
}
