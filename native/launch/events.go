package launch

import (
	"encoding/hex"
	"strconv"

	"launchfund/core/events"
	"launchfund/core/types"
)

const (
	// EventTypeCampaignCreated is emitted when a campaign ledger entry is initialised.
	EventTypeCampaignCreated = "launch.campaign.created"
	// EventTypeTokensPurchased is emitted for every successful buy.
	EventTypeTokensPurchased = "launch.trade.purchased"
	// EventTypeTokensSold is emitted for every successful sell.
	EventTypeTokensSold = "launch.trade.sold"
	// EventTypeMilestoneWithdrawn is emitted when a milestone releases pool funds.
	EventTypeMilestoneWithdrawn = "launch.milestone.withdrawn"
	// EventTypeEmergencyWithdrawn is emitted for emergency wind-down withdrawals.
	EventTypeEmergencyWithdrawn = "launch.emergency.withdrawn"
	// EventTypeCampaignEnded is emitted when the creator closes the campaign.
	EventTypeCampaignEnded = "launch.campaign.ended"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// CampaignCreatedEvent announces a freshly initialised campaign.
func CampaignCreatedEvent(c *Campaign) *types.Event {
	return &types.Event{
		Type: EventTypeCampaignCreated,
		Attributes: map[string]string{
			"campaign":     c.ID,
			"creator":      hexAddr(c.Creator),
			"tokenMint":    c.TokenMint,
			"targetAmount": u64(c.TargetAmount),
			"totalSupply":  u64(c.TotalSupply),
			"fundingRatio": u64(uint64(c.FundingRatio)),
			"strategy":     c.ConversionStrategy.String(),
		},
	}
}

// TokensPurchasedEvent captures a buy's amounts, how the funding share was
// denominated and the post-trade reserves.
func TokensPurchasedEvent(c *Campaign, buyer [20]byte, receipt *PurchaseReceipt) *types.Event {
	return &types.Event{
		Type: EventTypeTokensPurchased,
		Attributes: map[string]string{
			"campaign":        c.ID,
			"buyer":           hexAddr(buyer),
			"strategy":        c.ConversionStrategy.String(),
			"baseIn":          u64(receipt.BaseIn),
			"tokensOut":       u64(receipt.TokensOut),
			"fee":             u64(receipt.Fee),
			"fundingAmount":   u64(receipt.FundingShare),
			"fundingStable":   u64(receipt.FundingStable),
			"fundingBase":     u64(receipt.FundingBase),
			"liquidityAmount": u64(receipt.LiquidityShare),
			"baseReserves":    u64(receipt.NewBaseReserves),
			"tokenReserves":   u64(receipt.NewTokenReserves),
		},
	}
}

// TokensSoldEvent mirrors the purchase event for sells.
func TokensSoldEvent(campaignID string, seller [20]byte, receipt *SaleReceipt) *types.Event {
	return &types.Event{
		Type: EventTypeTokensSold,
		Attributes: map[string]string{
			"campaign":      campaignID,
			"seller":        hexAddr(seller),
			"tokensIn":      u64(receipt.TokensIn),
			"baseOut":       u64(receipt.BaseOut),
			"fee":           u64(receipt.Fee),
			"baseReserves":  u64(receipt.NewBaseReserves),
			"tokenReserves": u64(receipt.NewTokenReserves),
		},
	}
}

// MilestoneWithdrawnEvent records a milestone release and the remaining pool.
func MilestoneWithdrawnEvent(campaignID string, index uint32, amount, remainingPool uint64) *types.Event {
	return &types.Event{
		Type: EventTypeMilestoneWithdrawn,
		Attributes: map[string]string{
			"campaign":      campaignID,
			"milestone":     u64(uint64(index)),
			"amount":        u64(amount),
			"remainingPool": u64(remainingPool),
		},
	}
}

// EmergencyWithdrawnEvent records a wind-down withdrawal outside the
// milestone schedule.
func EmergencyWithdrawnEvent(campaignID string, amount, remainingPool uint64) *types.Event {
	return &types.Event{
		Type: EventTypeEmergencyWithdrawn,
		Attributes: map[string]string{
			"campaign":      campaignID,
			"amount":        u64(amount),
			"remainingPool": u64(remainingPool),
		},
	}
}

// CampaignEndedEvent records the campaign being closed.
func CampaignEndedEvent(campaignID string, creator [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeCampaignEnded,
		Attributes: map[string]string{
			"campaign": campaignID,
			"creator":  hexAddr(creator),
		},
	}
}
