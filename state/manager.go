package state

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"launchfund/core/types"
	"launchfund/native/convert"
	"launchfund/native/launch"
	"launchfund/storage"
)

var (
	campaignPrefix = []byte("launch/campaign/")
	campaignIndex  = []byte("launch/campaigns")
	accountPrefix  = []byte("launch/account/")
	balancePrefix  = []byte("bank/balance/")
	supplyPrefix   = []byte("bank/supply/")
)

// Manager persists campaigns, accounts and token balances in the underlying
// key-value database. It satisfies the launch engine's state contract and the
// bank ledger's store contract.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

func campaignKey(id string) []byte {
	return append(append([]byte{}, campaignPrefix...), strings.TrimSpace(id)...)
}

func accountKey(addr []byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr...)
}

func balanceKey(mintID string, holder [20]byte) []byte {
	key := append(append([]byte{}, balancePrefix...), strings.TrimSpace(mintID)...)
	key = append(key, '/')
	return append(key, holder[:]...)
}

func supplyKey(mintID string) []byte {
	return append(append([]byte{}, supplyPrefix...), strings.TrimSpace(mintID)...)
}

// RLP cannot encode signed integers or interface-typed fields, so campaigns
// are persisted through a stored mirror with unsigned timestamps.
type storedMilestone struct {
	Name               string
	RequiredPoolAmount uint64
	UnlockTime         uint64
}

type storedCampaign struct {
	ID                    string
	Creator               [20]byte
	Vault                 [20]byte
	TokenMint             string
	Name                  string
	Description           string
	TokenName             string
	TokenSymbol           string
	TargetAmount          uint64
	RaisedAmount          uint64
	FundingPoolAmount     uint64
	FundingPoolBaseAmount uint64
	VirtualBaseReserves   uint64
	VirtualTokenReserves  uint64
	RealBaseReserves      uint64
	RealTokenReserves     uint64
	TradeableSupply       uint64
	CreatorAllocation     uint64
	TotalSupply           uint64
	FundingRatio          uint8
	ConversionStrategy    uint8
	Milestones            []storedMilestone
	CurrentMilestoneIndex uint32
	FundsWithdrawn        uint64
	IsActive              bool
	CreatedAt             uint64
	EndTime               uint64
}

func int64ToUint64(value int64) uint64 {
	if value < 0 {
		return 0
	}
	return uint64(value)
}

func uint64ToInt64(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("state: value %d exceeds int64 range", value)
	}
	return int64(value), nil
}

func toStoredCampaign(c *launch.Campaign) storedCampaign {
	stored := storedCampaign{
		ID:                    c.ID,
		Creator:               c.Creator,
		Vault:                 c.Vault,
		TokenMint:             c.TokenMint,
		Name:                  c.Name,
		Description:           c.Description,
		TokenName:             c.TokenName,
		TokenSymbol:           c.TokenSymbol,
		TargetAmount:          c.TargetAmount,
		RaisedAmount:          c.RaisedAmount,
		FundingPoolAmount:     c.FundingPoolAmount,
		FundingPoolBaseAmount: c.FundingPoolBaseAmount,
		VirtualBaseReserves:   c.VirtualBaseReserves,
		VirtualTokenReserves:  c.VirtualTokenReserves,
		RealBaseReserves:      c.RealBaseReserves,
		RealTokenReserves:     c.RealTokenReserves,
		TradeableSupply:       c.TradeableSupply,
		CreatorAllocation:     c.CreatorAllocation,
		TotalSupply:           c.TotalSupply,
		FundingRatio:          c.FundingRatio,
		ConversionStrategy:    uint8(c.ConversionStrategy),
		CurrentMilestoneIndex: c.CurrentMilestoneIndex,
		FundsWithdrawn:        c.FundsWithdrawn,
		IsActive:              c.IsActive,
		CreatedAt:             int64ToUint64(c.CreatedAt),
		EndTime:               int64ToUint64(c.EndTime),
	}
	stored.Milestones = make([]storedMilestone, 0, len(c.Milestones))
	for _, milestone := range c.Milestones {
		stored.Milestones = append(stored.Milestones, storedMilestone{
			Name:               milestone.Name,
			RequiredPoolAmount: milestone.RequiredPoolAmount,
			UnlockTime:         int64ToUint64(milestone.UnlockTime),
		})
	}
	return stored
}

func fromStoredCampaign(stored *storedCampaign) (*launch.Campaign, error) {
	createdAt, err := uint64ToInt64(stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	endTime, err := uint64ToInt64(stored.EndTime)
	if err != nil {
		return nil, err
	}
	campaign := &launch.Campaign{
		ID:                    stored.ID,
		Creator:               stored.Creator,
		Vault:                 stored.Vault,
		TokenMint:             stored.TokenMint,
		Name:                  stored.Name,
		Description:           stored.Description,
		TokenName:             stored.TokenName,
		TokenSymbol:           stored.TokenSymbol,
		TargetAmount:          stored.TargetAmount,
		RaisedAmount:          stored.RaisedAmount,
		FundingPoolAmount:     stored.FundingPoolAmount,
		FundingPoolBaseAmount: stored.FundingPoolBaseAmount,
		VirtualBaseReserves:   stored.VirtualBaseReserves,
		VirtualTokenReserves:  stored.VirtualTokenReserves,
		RealBaseReserves:      stored.RealBaseReserves,
		RealTokenReserves:     stored.RealTokenReserves,
		TradeableSupply:       stored.TradeableSupply,
		CreatorAllocation:     stored.CreatorAllocation,
		TotalSupply:           stored.TotalSupply,
		FundingRatio:          stored.FundingRatio,
		ConversionStrategy:    convert.Strategy(stored.ConversionStrategy),
		CurrentMilestoneIndex: stored.CurrentMilestoneIndex,
		FundsWithdrawn:        stored.FundsWithdrawn,
		IsActive:              stored.IsActive,
		CreatedAt:             createdAt,
		EndTime:               endTime,
	}
	campaign.Milestones = make([]launch.Milestone, 0, len(stored.Milestones))
	for _, milestone := range stored.Milestones {
		unlock, err := uint64ToInt64(milestone.UnlockTime)
		if err != nil {
			return nil, err
		}
		campaign.Milestones = append(campaign.Milestones, launch.Milestone{
			Name:               milestone.Name,
			RequiredPoolAmount: milestone.RequiredPoolAmount,
			UnlockTime:         unlock,
		})
	}
	return campaign, nil
}

// CampaignGet loads the ledger entry stored under the supplied id.
func (m *Manager) CampaignGet(id string) (*launch.Campaign, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state: manager not initialised")
	}
	var stored storedCampaign
	ok, err := m.kvGet(campaignKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	campaign, err := fromStoredCampaign(&stored)
	if err != nil {
		return nil, false, err
	}
	return campaign, true, nil
}

// CampaignPut stores the ledger entry and maintains the campaign index.
func (m *Manager) CampaignPut(c *launch.Campaign) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("state: campaign id required")
	}
	if err := m.kvPut(campaignKey(c.ID), toStoredCampaign(c)); err != nil {
		return err
	}
	ids, err := m.CampaignList()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == c.ID {
			return nil
		}
	}
	ids = append(ids, c.ID)
	sort.Strings(ids)
	return m.kvPut(campaignIndex, ids)
}

// CampaignList returns the ids of every stored campaign in sorted order.
func (m *Manager) CampaignList() ([]string, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager not initialised")
	}
	var ids []string
	if _, err := m.kvGet(campaignIndex, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

type storedAccount struct {
	Nonce         uint64
	BalanceBase   *big.Int
	BalanceStable *big.Int
}

// GetAccount loads the account stored under addr, or nil when absent.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager not initialised")
	}
	var stored storedAccount
	ok, err := m.kvGet(accountKey(addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	account := &types.Account{Nonce: stored.Nonce, BalanceBase: stored.BalanceBase, BalanceStable: stored.BalanceStable}
	if account.BalanceBase == nil {
		account.BalanceBase = big.NewInt(0)
	}
	if account.BalanceStable == nil {
		account.BalanceStable = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the account under addr.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	if account == nil {
		return fmt.Errorf("state: account must not be nil")
	}
	stored := storedAccount{Nonce: account.Nonce, BalanceBase: account.BalanceBase, BalanceStable: account.BalanceStable}
	if stored.BalanceBase == nil {
		stored.BalanceBase = big.NewInt(0)
	}
	if stored.BalanceStable == nil {
		stored.BalanceStable = big.NewInt(0)
	}
	return m.kvPut(accountKey(addr), stored)
}

// TokenBalanceGet reports the token balance for mint/holder.
func (m *Manager) TokenBalanceGet(mintID string, holder [20]byte) (uint64, bool, error) {
	if m == nil || m.db == nil {
		return 0, false, fmt.Errorf("state: manager not initialised")
	}
	var amount uint64
	ok, err := m.kvGet(balanceKey(mintID, holder), &amount)
	return amount, ok, err
}

// TokenBalancePut stores the token balance for mint/holder.
func (m *Manager) TokenBalancePut(mintID string, holder [20]byte, amount uint64) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	return m.kvPut(balanceKey(mintID, holder), amount)
}

// TokenSupplyGet reports the issued supply for the mint.
func (m *Manager) TokenSupplyGet(mintID string) (uint64, bool, error) {
	if m == nil || m.db == nil {
		return 0, false, fmt.Errorf("state: manager not initialised")
	}
	var amount uint64
	ok, err := m.kvGet(supplyKey(mintID), &amount)
	return amount, ok, err
}

// TokenSupplyPut stores the issued supply for the mint.
func (m *Manager) TokenSupplyPut(mintID string, amount uint64) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not initialised")
	}
	return m.kvPut(supplyKey(mintID), amount)
}
