package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/beehive/membership/cmd/engine/models"
)

// fakeStore is an in-memory Store for unit tests. It mimics the schema
// constraints that matter to the services: the reward idempotency tuple,
// non-negative balances and the status-guarded transitions.
type fakeStore struct {
	members    map[string]*models.Member
	owned      map[string]map[int]time.Time
	placements map[string][]models.Placement
	rewards    map[uuid.UUID]*models.LayerReward
	rewardSeq  int
	rewardOrd  map[uuid.UUID]int
	timers     map[uuid.UUID]*models.CountdownTimer
	balances   map[string]*models.UserBalance
	counters   map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:    make(map[string]*models.Member),
		owned:      make(map[string]map[int]time.Time),
		placements: make(map[string][]models.Placement),
		rewards:    make(map[uuid.UUID]*models.LayerReward),
		rewardOrd:  make(map[uuid.UUID]int),
		timers:     make(map[uuid.UUID]*models.CountdownTimer),
		balances:   make(map[string]*models.UserBalance),
		counters:   map[string]int64{"activation_sequence": 0, "activated_members": 0},
	}
}

func (s *fakeStore) Members() MemberStore { return fakeMembers{s} }

func (s *fakeStore) Placements() PlacementStore { return fakePlacements{s} }

func (s *fakeStore) Rewards() RewardStore { return fakeRewards{s} }

func (s *fakeStore) Timers() TimerStore { return fakeTimers{s} }

func (s *fakeStore) Balances() BalanceStore { return fakeBalances{s} }

func (s *fakeStore) Counters() CounterStore { return fakeCounters{s} }

func (s *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

// seedMember installs a member at the given level owning every level up
// to it.
func (s *fakeStore) seedMember(wallet string, level int) {
	s.members[wallet] = &models.Member{WalletAddress: wallet, CurrentLevel: level}
	s.owned[wallet] = make(map[int]time.Time)
	for l := 1; l <= level; l++ {
		s.owned[wallet][l] = time.Time{}
	}
	s.balances[wallet] = &models.UserBalance{WalletAddress: wallet}
}

func (s *fakeStore) seedPlacement(member, root string, layer int, position string) {
	s.placements[member] = append(s.placements[member], models.Placement{
		MemberWallet:     member,
		MatrixRootWallet: root,
		Layer:            layer,
		Position:         position,
	})
}

type fakeMembers struct{ s *fakeStore }

func (f fakeMembers) Get(_ context.Context, wallet string) (*models.Member, error) {
	m, ok := f.s.members[wallet]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (f fakeMembers) Create(_ context.Context, member *models.Member) error {
	if _, ok := f.s.members[member.WalletAddress]; ok {
		return nil
	}
	copied := *member
	f.s.members[member.WalletAddress] = &copied
	f.s.owned[member.WalletAddress] = make(map[int]time.Time)
	return nil
}

func (f fakeMembers) SetLevel(_ context.Context, wallet string, level int) error {
	m, ok := f.s.members[wallet]
	if !ok {
		return fmt.Errorf("no member %s", wallet)
	}
	if level > m.CurrentLevel {
		m.CurrentLevel = level
	}
	return nil
}

func (f fakeMembers) SetActivation(_ context.Context, wallet string, sequence int64, at time.Time) error {
	m, ok := f.s.members[wallet]
	if !ok {
		return fmt.Errorf("no member %s", wallet)
	}
	if m.ActivationSequence == nil {
		m.ActivationSequence = &sequence
		m.ActivationTime = &at
	}
	return nil
}

func (f fakeMembers) AddLevel(_ context.Context, wallet string, level int, at time.Time) (bool, error) {
	owned, ok := f.s.owned[wallet]
	if !ok {
		owned = make(map[int]time.Time)
		f.s.owned[wallet] = owned
	}
	if _, exists := owned[level]; exists {
		return false, nil
	}
	owned[level] = at
	return true, nil
}

func (f fakeMembers) LevelsOwned(_ context.Context, wallet string) ([]int, error) {
	var levels []int
	for level := range f.s.owned[wallet] {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels, nil
}

type fakePlacements struct{ s *fakeStore }

func (f fakePlacements) ByMember(_ context.Context, wallet string) ([]models.Placement, error) {
	placements := append([]models.Placement(nil), f.s.placements[wallet]...)
	sort.SliceStable(placements, func(i, j int) bool { return placements[i].Layer < placements[j].Layer })
	return placements, nil
}

func (f fakePlacements) DirectReferralCount(_ context.Context, wallet string) (int, error) {
	count := 0
	for _, list := range f.s.placements {
		for _, p := range list {
			if p.MatrixRootWallet == wallet && p.Layer == 1 {
				count++
			}
		}
	}
	return count, nil
}

type fakeRewards struct{ s *fakeStore }

func (f fakeRewards) Insert(_ context.Context, reward *models.LayerReward) (bool, error) {
	for _, existing := range f.s.rewards {
		if existing.TriggeringMemberWallet == reward.TriggeringMemberWallet &&
			existing.RecipientWallet == reward.RecipientWallet &&
			existing.MatrixLayer == reward.MatrixLayer &&
			existing.TriggeringNFTLevel == reward.TriggeringNFTLevel {
			return false, nil
		}
	}
	copied := *reward
	f.s.rewards[reward.ID] = &copied
	f.s.rewardSeq++
	f.s.rewardOrd[reward.ID] = f.s.rewardSeq
	return true, nil
}

func (f fakeRewards) GetForUpdate(_ context.Context, id uuid.UUID) (*models.LayerReward, error) {
	r, ok := f.s.rewards[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f fakeRewards) CountForRecipientLayer(_ context.Context, recipient string, layer int) (int, error) {
	count := 0
	for _, r := range f.s.rewards {
		if r.RecipientWallet == recipient && r.MatrixLayer == layer {
			count++
		}
	}
	return count, nil
}

func (f fakeRewards) ListByRecipient(_ context.Context, recipient string, status models.RewardStatus, limit int) ([]models.LayerReward, error) {
	var out []models.LayerReward
	for _, r := range f.s.rewards {
		if r.RecipientWallet == recipient && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return f.s.rewardOrd[out[i].ID] > f.s.rewardOrd[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeRewards) ListPendingReady(_ context.Context, recipient string, level int) ([]models.LayerReward, error) {
	var out []models.LayerReward
	for _, r := range f.s.rewards {
		if r.RecipientWallet == recipient && r.Status == models.StatusPending && r.RequiredLevel <= level {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return f.s.rewardOrd[out[i].ID] < f.s.rewardOrd[out[j].ID]
	})
	return out, nil
}

func (f fakeRewards) transition(id uuid.UUID, from, to models.RewardStatus) error {
	r, ok := f.s.rewards[id]
	if !ok || r.Status != from {
		return &models.InvalidStateTransitionError{From: from, To: to}
	}
	r.Status = to
	return nil
}

func (f fakeRewards) MarkClaimable(_ context.Context, id uuid.UUID) error {
	if err := f.transition(id, models.StatusPending, models.StatusClaimable); err != nil {
		return err
	}
	f.s.rewards[id].ExpiresAt = nil
	return nil
}

func (f fakeRewards) MarkClaimed(_ context.Context, id uuid.UUID, at time.Time) error {
	if err := f.transition(id, models.StatusClaimable, models.StatusClaimed); err != nil {
		return err
	}
	f.s.rewards[id].ClaimedAt = &at
	return nil
}

func (f fakeRewards) MarkExpired(_ context.Context, id uuid.UUID) error {
	return f.transition(id, models.StatusPending, models.StatusExpired)
}

func (f fakeRewards) MarkRolledUp(_ context.Context, id uuid.UUID) error {
	return f.transition(id, models.StatusExpired, models.StatusRolledUp)
}

type fakeTimers struct{ s *fakeStore }

func (f fakeTimers) Create(_ context.Context, timer *models.CountdownTimer) error {
	copied := *timer
	f.s.timers[timer.RewardID] = &copied
	return nil
}

func (f fakeTimers) ActiveByReward(_ context.Context, rewardID uuid.UUID) (*models.CountdownTimer, error) {
	t, ok := f.s.timers[rewardID]
	if !ok || !t.IsActive {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f fakeTimers) Deactivate(_ context.Context, rewardID uuid.UUID) error {
	if t, ok := f.s.timers[rewardID]; ok {
		t.IsActive = false
	}
	return nil
}

func (f fakeTimers) DueBatch(_ context.Context, now time.Time, limit int) ([]models.CountdownTimer, error) {
	var due []models.CountdownTimer
	for _, t := range f.s.timers {
		if t.IsActive && t.EndTime.Before(now) {
			due = append(due, *t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EndTime.Before(due[j].EndTime) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type fakeBalances struct{ s *fakeStore }

func (f fakeBalances) Get(_ context.Context, wallet string) (*models.UserBalance, error) {
	b, ok := f.s.balances[wallet]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (f fakeBalances) Ensure(_ context.Context, wallet string) error {
	if _, ok := f.s.balances[wallet]; !ok {
		f.s.balances[wallet] = &models.UserBalance{WalletAddress: wallet}
	}
	return nil
}

func (f fakeBalances) AdjustUSDC(_ context.Context, wallet string, claimable, pending, claimedTotal int64) error {
	b, ok := f.s.balances[wallet]
	if !ok {
		return fmt.Errorf("no balance row for wallet %s", wallet)
	}
	if b.USDCClaimable+claimable < 0 || b.USDCPending+pending < 0 || b.USDCClaimedTotal+claimedTotal < 0 {
		return fmt.Errorf("balance constraint violated for wallet %s", wallet)
	}
	b.USDCClaimable += claimable
	b.USDCPending += pending
	b.USDCClaimedTotal += claimedTotal
	return nil
}

func (f fakeBalances) AdjustBCC(_ context.Context, wallet string, transferable, locked int64) error {
	b, ok := f.s.balances[wallet]
	if !ok {
		return fmt.Errorf("no balance row for wallet %s", wallet)
	}
	if b.BCCTransferable+transferable < 0 || b.BCCLocked+locked < 0 {
		return fmt.Errorf("balance constraint violated for wallet %s", wallet)
	}
	b.BCCTransferable += transferable
	b.BCCLocked += locked
	return nil
}

func (f fakeBalances) ReleaseBCC(_ context.Context, wallet string, amount int64) (int64, error) {
	b, ok := f.s.balances[wallet]
	if !ok {
		return 0, fmt.Errorf("no balance row for wallet %s", wallet)
	}
	released := amount
	if released > b.BCCLocked {
		released = b.BCCLocked
	}
	if released <= 0 {
		return 0, nil
	}
	b.BCCLocked -= released
	b.BCCTransferable += released
	return released, nil
}

type fakeCounters struct{ s *fakeStore }

func (f fakeCounters) NextActivationSequence(_ context.Context) (int64, error) {
	f.s.counters["activation_sequence"]++
	return f.s.counters["activation_sequence"], nil
}

func (f fakeCounters) IncrementActivatedMembers(_ context.Context) (int64, error) {
	f.s.counters["activated_members"]++
	return f.s.counters["activated_members"], nil
}

func (f fakeCounters) ActivatedMembers(_ context.Context) (int64, error) {
	return f.s.counters["activated_members"], nil
}
