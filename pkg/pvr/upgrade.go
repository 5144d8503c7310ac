// Copyright 2025 Certen Protocol
//
// On-chain protocol upgrade voting (spec.md §4.2 rules 1-3, §8 scenario 5).
// The Misc subtree keys below are the only persisted state; the Registry
// itself never changes shape, only which version is selected.

package pvr

import (
	"encoding/binary"
	"sort"

	"github.com/driveplatform/core/pkg/store"
)

var (
	keyCurrentVersion = []byte("pvr:current_version")
	keyNextVersion    = []byte("pvr:next_version")
	keyVersionVotes   = []byte("pvr:version_votes:") // + validator pro-tem id
)

// Upgrader tracks per-node version votes and advances current/next across
// epoch boundaries. It holds no selector logic itself — that stays in
// Registry — only the voting/activation state machine.
type Upgrader struct {
	votes map[string]uint32 // validatorID -> voted protocol version
}

// NewUpgrader returns an Upgrader with no recorded votes.
func NewUpgrader() *Upgrader {
	return &Upgrader{votes: make(map[string]uint32)}
}

// RecordVote records validatorID's vote for protocolVersion. Only the most
// recent vote per validator within an epoch counts.
func (u *Upgrader) RecordVote(validatorID string, protocolVersion uint32) {
	u.votes[validatorID] = protocolVersion
}

// Tally returns the protocol version with the most votes, and whether it
// cleared the required threshold out of totalValidators (spec.md leaves
// the exact quorum fraction to the block host; callers pass it in).
func (u *Upgrader) Tally(totalValidators int, thresholdNumerator, thresholdDenominator int) (winner uint32, passed bool) {
	counts := make(map[uint32]int)
	for _, v := range u.votes {
		counts[v]++
	}
	versions := make([]uint32, 0, len(counts))
	for v := range counts {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	var best uint32
	var bestCount int
	for _, v := range versions {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	if totalValidators == 0 {
		return 0, false
	}
	passed = bestCount*thresholdDenominator >= totalValidators*thresholdNumerator
	return best, passed
}

// ClearVotes wipes per-node version-vote information (spec.md §4.2 step 1).
func (u *Upgrader) ClearVotes() {
	u.votes = make(map[string]uint32)
}

// ActivateEpochBoundary implements spec.md §4.2 steps 2-3: it writes
// current/next to the Misc subtree, and — if the previously written
// "next" has already survived one full epoch — promotes it to current.
func ActivateEpochBoundary(tx *store.Transaction, winner uint32, winnerPassed bool) error {
	current, next, err := ReadVersions(tx)
	if err != nil {
		return err
	}

	var ops []store.Op
	if next != 0 && current != next {
		// "next" was set at least one epoch boundary ago: activate it now.
		current = next
	}
	if winnerPassed && winner > current {
		next = winner
	}

	ops = append(ops,
		store.Insert([]string{"Misc"}, keyCurrentVersion, store.NewItem(encodeVersion(current))),
		store.Insert([]string{"Misc"}, keyNextVersion, store.NewItem(encodeVersion(next))),
	)
	return tx.Apply(ops)
}

// ReadVersions returns the current/next protocol versions persisted in
// the Misc subtree, defaulting both to 1 if never written.
func ReadVersions(tx *store.Transaction) (current, next uint32, err error) {
	current = 1
	if elem, ok := tx.Get([]string{"Misc"}, keyCurrentVersion); ok {
		current = decodeVersion(elem.Item)
	}
	if elem, ok := tx.Get([]string{"Misc"}, keyNextVersion); ok {
		next = decodeVersion(elem.Item)
	}
	return current, next, nil
}

func encodeVersion(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeVersion(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}
