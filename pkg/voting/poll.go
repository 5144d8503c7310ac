// Copyright 2025 Certen Protocol

package voting

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"sort"

	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/store"
)

const (
	contendersKey = "contenders"
	endHeightKey  = "end_height"
	balanceIDKey  = "balance_id"
)

// DefaultVoteDurationBlocks is how long a contested-index poll accepts
// votes after opening, absent any contract-level override (spec.md
// §4.7 leaves the exact window unspecified). Scaled off
// blockdriver.EpochLengthBlocks' ~1-day-at-3s-blocks cadence to roughly
// two weeks, matching the contested-resource voting window of the
// platform this spec describes.
const DefaultVoteDurationBlocks = 14 * 28800

// Contender is one identity competing for a contested index slot.
type Contender struct {
	OwnerID    schema.Identifier
	DocumentID schema.Identifier
}

// PollRef names one contested vote poll by its full store path.
type PollRef struct {
	ContractID schema.Identifier
	DocType    string
	IndexName  string
	PollKey    string
}

func (r PollRef) path() []string {
	return state.VotePollPath(r.ContractID, r.DocType, r.IndexName, r.PollKey)
}

// OpenOrJoinVotePoll handles a contested insert (spec.md §4.7): if no
// poll exists yet for this index key, it opens one with doc's owner as
// the sole contender and a zero-balance prefunded specialized balance;
// otherwise it appends a new contender to the existing poll, rejecting
// the join once currentHeight has reached the poll's end height.
func OpenOrJoinVotePoll(tx *store.Transaction, ref PollRef, contender Contender, currentHeight, endHeight uint64, balanceID schema.Identifier) ([]store.Op, error) {
	path := ref.path()
	if _, exists := tx.Get(path, []byte(endHeightKey)); !exists {
		contenders := []Contender{contender}
		return []store.Op{
			store.Insert(path, []byte(contendersKey), store.NewItem(encodeContenders(contenders))),
			store.Insert(path, []byte(endHeightKey), store.NewItem(encodeHeight(endHeight))),
			store.Insert(path, []byte(balanceIDKey), store.NewItem(balanceID[:])),
		}, nil
	}

	existingEnd, _ := EndHeight(tx, ref)
	if currentHeight >= existingEnd {
		return nil, ErrPollClosed
	}
	contenders, err := readContenders(tx, ref)
	if err != nil {
		return nil, err
	}
	contenders = append(contenders, contender)
	return []store.Op{store.Insert(path, []byte(contendersKey), store.NewItem(encodeContenders(contenders)))}, nil
}

// EndHeight returns the height at which ref stops accepting votes.
func EndHeight(tx *store.Transaction, ref PollRef) (uint64, bool) {
	elem, exists := tx.Get(ref.path(), []byte(endHeightKey))
	if !exists {
		return 0, false
	}
	return decodeHeight(elem.Item), true
}

// BalanceID returns the prefunded specialized balance backing ref.
func BalanceID(tx *store.Transaction, ref PollRef) (schema.Identifier, bool) {
	elem, exists := tx.Get(ref.path(), []byte(balanceIDKey))
	if !exists || len(elem.Item) != 32 {
		return schema.Identifier{}, false
	}
	var id schema.Identifier
	copy(id[:], elem.Item)
	return id, true
}

func readContenders(tx *store.Transaction, ref PollRef) ([]Contender, error) {
	elem, exists := tx.Get(ref.path(), []byte(contendersKey))
	if !exists {
		return nil, ErrPollNotFound
	}
	var out []Contender
	if err := json.Unmarshal(elem.Item, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeContenders(c []Contender) []byte {
	b, _ := json.Marshal(c)
	return b
}

func encodeHeight(h uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, h)
	return b
}

func decodeHeight(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// winningContender applies the tie-break rule: lexicographic ascending
// on the 32-byte contender owner Identifier (decided open question,
// spec.md §9).
func winningContender(tallies map[schema.Identifier]int, contenders []Contender) Contender {
	best := contenders[0]
	bestVotes := tallies[best.OwnerID]
	for _, c := range contenders[1:] {
		votes := tallies[c.OwnerID]
		if votes > bestVotes || (votes == bestVotes && bytes.Compare(c.OwnerID[:], best.OwnerID[:]) < 0) {
			best, bestVotes = c, votes
		}
	}
	return best
}

func sortContenders(contenders []Contender) {
	sort.Slice(contenders, func(i, j int) bool {
		return bytes.Compare(contenders[i].OwnerID[:], contenders[j].OwnerID[:]) < 0
	})
}
