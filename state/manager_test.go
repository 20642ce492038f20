package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"launchfund/core/types"
	"launchfund/native/convert"
	"launchfund/native/launch"
	"launchfund/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func sampleCampaign(id string) *launch.Campaign {
	return &launch.Campaign{
		ID:                    id,
		Creator:               [20]byte{0x01},
		Vault:                 [20]byte{0x02},
		TokenMint:             "mint-" + id,
		Name:                  "Launch",
		Description:           "A token launch",
		TokenName:             "Token",
		TokenSymbol:           "TKN",
		TargetAmount:          500_000_000,
		RaisedAmount:          10_000,
		FundingPoolAmount:     2_000,
		FundingPoolBaseAmount: 1_500,
		VirtualBaseReserves:   30_000_000_000,
		VirtualTokenReserves:  1_073_000_000_000_000,
		RealBaseReserves:      8_000,
		RealTokenReserves:     999_999_000_000_000,
		TradeableSupply:       1_000_000_000_000_000,
		CreatorAllocation:     0,
		TotalSupply:           1_000_000_000_000_000,
		FundingRatio:          20,
		ConversionStrategy:    convert.StrategyHybrid,
		Milestones: []launch.Milestone{
			{Name: "alpha", RequiredPoolAmount: 1_000, UnlockTime: 1_700_000_000},
			{Name: "beta", RequiredPoolAmount: 2_000, UnlockTime: 1_700_100_000},
		},
		CurrentMilestoneIndex: 1,
		FundsWithdrawn:        500,
		IsActive:              true,
		CreatedAt:             1_699_000_000,
		EndTime:               1_701_000_000,
	}
}

func TestCampaignRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	campaign := sampleCampaign("camp-1")
	require.NoError(t, manager.CampaignPut(campaign))

	loaded, ok, err := manager.CampaignGet("camp-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, campaign, loaded)
}

func TestCampaignGetMissing(t *testing.T) {
	manager := newTestManager(t)
	loaded, ok, err := manager.CampaignGet("absent")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, loaded)
}

func TestCampaignListSorted(t *testing.T) {
	manager := newTestManager(t)
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, manager.CampaignPut(sampleCampaign(id)))
	}
	// Re-writing an existing campaign must not duplicate the index entry.
	require.NoError(t, manager.CampaignPut(sampleCampaign("alpha")))

	ids, err := manager.CampaignList()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}

func TestCampaignPutRequiresID(t *testing.T) {
	manager := newTestManager(t)
	require.Error(t, manager.CampaignPut(&launch.Campaign{}))
	require.Error(t, manager.CampaignPut(nil))
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	addr := []byte{0x01, 0x02, 0x03}
	account := &types.Account{
		Nonce:         7,
		BalanceBase:   big.NewInt(1_000_000_000),
		BalanceStable: big.NewInt(250),
	}
	require.NoError(t, manager.PutAccount(addr, account))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, account, loaded)

	missing, err := manager.GetAccount([]byte{0xff})
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAccountNilBalancesNormalised(t *testing.T) {
	manager := newTestManager(t)
	addr := []byte{0x09}
	require.NoError(t, manager.PutAccount(addr, &types.Account{Nonce: 1}))

	loaded, err := manager.GetAccount(addr)
	require.NoError(t, err)
	require.NotNil(t, loaded.BalanceBase)
	require.NotNil(t, loaded.BalanceStable)
	require.Zero(t, loaded.BalanceBase.Sign())
}

func TestTokenBalanceAndSupply(t *testing.T) {
	manager := newTestManager(t)
	holder := [20]byte{0x05}

	_, ok, err := manager.TokenBalanceGet("mint-1", holder)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, manager.TokenBalancePut("mint-1", holder, 1_234))
	amount, ok, err := manager.TokenBalanceGet("mint-1", holder)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1_234), amount)

	require.NoError(t, manager.TokenSupplyPut("mint-1", 9_999))
	supply, ok, err := manager.TokenSupplyGet("mint-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(9_999), supply)
}
