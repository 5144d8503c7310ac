// Copyright 2025 Certen Protocol

package blockdriver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/rs/zerolog"

	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/statetransition"
	"github.com/driveplatform/core/pkg/store"
	"github.com/driveplatform/core/pkg/voting"
)

// protocolUpgradeQuorumNumerator / Denominator is the BFT supermajority
// fraction a protocol version's votes must clear to activate (spec.md
// §4.2 leaves the exact fraction to the block host). It is fixed here and
// does not come from configuration.
const (
	protocolUpgradeQuorumNumerator   = 2
	protocolUpgradeQuorumDenominator = 3
)

// EpochLengthBlocks is the number of blocks per epoch (spec.md §4.2: the
// unit protocol-version activation and fee-refund eligibility are
// measured against).
const EpochLengthBlocks = 28800 // ~1 day at 3s blocks, matching the base repo's day-long epoch cadence

// Application is BD: the ABCI++ application driving one block's
// transactions through STE and persisting the resulting authenticated
// store. Grounded on the base repo's ValidatorApp (same mutex-guarded
// struct, same method set, same "capture header fields in FinalizeBlock,
// apply them in Commit" sequencing), generalized from ValidatorBlock/
// bundle transactions to Envelope-wrapped state transitions.
type Application struct {
	mu sync.Mutex

	store    *store.Store
	engine   *statetransition.Engine
	upgrader *pvr.Upgrader
	logger   zerolog.Logger

	validatorCount int
	currentHeight  int64

	blockTx     *store.Transaction
	blockHeight int64

	// Contested-vote-poll bookkeeping (spec.md §4.7). AS has no
	// generic "enumerate every open subtree" query (spec.md §4.1), so
	// BD tracks which polls are open, which contract compiled each
	// one's document type, and each contender's full document, purely
	// in memory, updated as DocumentsBatch/DataContract transitions
	// are dispatched. Lost on restart, same as every other in-process
	// field here (blockTx, upgrader's votes).
	openPolls   map[string]voting.PollRef
	contracts   map[schema.Identifier]*schema.DataContract
	pendingDocs map[schema.Identifier]map[schema.Identifier]*schema.Document
}

// NewApplication wires BD against an authenticated store and the
// versioned-method registry, cost accountant, and data trigger engine
// every transition is validated and priced against.
func NewApplication(registry *pvr.Registry, accountant *costs.Accountant, triggers *datatrigger.Engine, validatorCount int, logger zerolog.Logger) *Application {
	return &Application{
		store:          store.New(),
		engine:         statetransition.NewEngine(registry, accountant, triggers),
		upgrader:       pvr.NewUpgrader(),
		logger:         logger,
		validatorCount: validatorCount,
		openPolls:      make(map[string]voting.PollRef),
		contracts:      make(map[schema.Identifier]*schema.DataContract),
		pendingDocs:    make(map[schema.Identifier]map[schema.Identifier]*schema.Document),
	}
}

var _ abcitypes.Application = (*Application)(nil)

// Info reports BD's current height and app hash. Both live only in
// memory, so after a process restart Info reports height 0 and the
// empty store's hash.
func (app *Application) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	return &abcitypes.ResponseInfo{
		Data:             "driveplatform-core",
		Version:          "v0",
		AppVersion:       1,
		LastBlockHeight:  app.currentHeight,
		LastBlockAppHash: app.store.RootHash(),
	}, nil
}

// InitChain sets up the genesis protocol version.
func (app *Application) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	tx := app.store.StartTransaction()
	if err := pvr.ActivateEpochBoundary(tx, 1, true); err != nil {
		return nil, fmt.Errorf("blockdriver: genesis version activation: %w", err)
	}
	if _, err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("blockdriver: genesis commit: %w", err)
	}

	return &abcitypes.ResponseInitChain{AppHash: app.store.RootHash()}, nil
}

// CheckTx runs only the structural decode, leaving full validation to
// FinalizeBlock (spec.md §4.5: CheckTx cannot know the final block
// height a transition will land at, so deeper checks are deferred).
func (app *Application) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	if _, _, err := Decode(req.Tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasWanted: 1}, nil
}

// PrepareProposal accepts the mempool's transaction order unchanged.
func (app *Application) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

// ProcessProposal rejects a proposed block outright if any transaction
// fails to decode; full validation still happens per-transition in
// FinalizeBlock.
func (app *Application) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	for _, tx := range req.Txs {
		if _, _, err := Decode(tx); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// FinalizeBlock runs every transaction through the STE pipeline inside
// one block-scoped store.Transaction. A ConsensusError rejects only
// that transaction (spec.md §4.5 steps 1-7); a fatal apply error aborts
// the whole block by returning a non-nil error, which causes CometBFT to
// halt the node rather than commit an inconsistent state (spec.md §4.5
// step 8: "errors ... are fatal").
func (app *Application) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.blockHeight = req.Height
	app.blockTx = app.store.StartTransaction()

	current, _, err := pvr.ReadVersions(app.blockTx)
	if err != nil {
		return nil, fmt.Errorf("blockdriver: reading protocol version: %w", err)
	}
	epoch := uint16(req.Height / EpochLengthBlocks)

	txResults := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, raw := range req.Txs {
		result, fatal := app.applyOne(raw, current, epoch)
		if fatal != nil {
			// A step-8 apply failure corrupts the block's working
			// transaction; the only safe move is to halt rather than
			// commit a partially-applied block (spec.md §4.5 step 8).
			return nil, fmt.Errorf("blockdriver: fatal error applying tx %d: %w", i, fatal)
		}
		txResults[i] = result
	}

	if err := app.resolveEndedVotePolls(uint64(req.Height), epoch); err != nil {
		return nil, fmt.Errorf("blockdriver: resolving ended vote polls: %w", err)
	}
	if req.Height%EpochLengthBlocks == 0 {
		app.tallyProtocolUpgrade()
	}

	return &abcitypes.ResponseFinalizeBlock{TxResults: txResults}, nil
}

// resolveEndedVotePolls runs spec.md §4.7's sweep against every poll BD
// currently tracks as open, applying winners through SE and dropping
// resolved refs from app.openPolls. Cheap no-op when no poll is open.
func (app *Application) resolveEndedVotePolls(height uint64, epoch uint16) error {
	if len(app.openPolls) == 0 {
		return nil
	}
	refs := make([]voting.PollRef, 0, len(app.openPolls))
	for _, ref := range app.openPolls {
		refs = append(refs, ref)
	}

	ops, resolved, err := voting.CheckForEndedVotePolls(app.blockTx, app.store, refs, height, uint64(epoch), app.contracts, app.pendingDocs)
	if err != nil {
		return err
	}
	if len(ops) > 0 {
		if err := app.blockTx.Apply(ops); err != nil {
			return err
		}
	}
	for _, r := range resolved {
		delete(app.openPolls, pollRefKey(r.Ref))
		app.logger.Info().
			Str("contract_id", r.Ref.ContractID.String()).
			Str("doc_type", r.Ref.DocType).
			Str("winner", r.Winner.OwnerID.String()).
			Uint64("refund", r.Refund).
			Msg("resolved contested vote poll")
	}
	return nil
}

// tallyProtocolUpgrade runs spec.md §4.2's epoch-boundary procedure:
// tally this epoch's recorded protocol-version votes, activate the
// winner if it cleared quorum, then clear per-node vote state for the
// next epoch.
func (app *Application) tallyProtocolUpgrade() {
	winner, passed := app.upgrader.Tally(app.validatorCount, protocolUpgradeQuorumNumerator, protocolUpgradeQuorumDenominator)
	if err := pvr.ActivateEpochBoundary(app.blockTx, winner, passed); err != nil {
		app.logger.Error().Err(err).Msg("failed to activate epoch boundary protocol version")
	}
	app.upgrader.ClearVotes()
}

func pollRefKey(ref voting.PollRef) string {
	return ref.ContractID.String() + "/" + ref.DocType + "/" + ref.IndexName + "/" + ref.PollKey
}

// applyOne decodes and dispatches a single transaction. Its second
// return value is non-nil only for a fatal (step-8) error; a rejected
// (steps 1-7) transition is reported through the ExecTxResult's code
// instead and never propagates as an error.
func (app *Application) applyOne(raw []byte, protocolVersion uint32, epoch uint16) (*abcitypes.ExecTxResult, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	kind, transition, err := Decode(raw)
	if err != nil {
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}

	payerID := schema.Identifier{}
	if parsed, perr := schema.ParseIdentifier(env.PayerID); perr == nil {
		payerID = parsed
	}

	dctx := statetransition.DispatchContext{
		ProtocolVersion: protocolVersion,
		CurrentEpoch:    epoch,
		PayerID:         payerID,
	}
	_, cerr, fatal := app.engine.Dispatch(app.blockTx, dctx, transition)
	if fatal != nil {
		app.logger.Error().Err(fatal).Str("kind", string(kind)).Msg("fatal error applying transition, aborting block")
		return nil, fatal
	}
	if cerr != nil {
		return &abcitypes.ExecTxResult{Code: 2, Log: cerr.Error()}, nil
	}
	app.trackTransition(transition)
	return &abcitypes.ExecTxResult{
		Code: 0,
		Events: []abcitypes.Event{{
			Type: "state_transition",
			Attributes: []abcitypes.EventAttribute{
				{Key: "kind", Value: string(kind)},
			},
		}},
	}, nil
}

// trackTransition updates BD's in-memory poll/contract/vote bookkeeping
// after a transition dispatches successfully. This is the only place
// that keeps openPolls/contracts/pendingDocs in sync with what SE just
// committed into app.blockTx, since AS itself exposes no "list open
// polls" query for resolveEndedVotePolls to discover them from scratch.
func (app *Application) trackTransition(transition any) {
	switch t := transition.(type) {
	case *statetransition.DataContractCreateTransition:
		app.contracts[t.Contract.ID] = t.Contract
	case *statetransition.DataContractUpdateTransition:
		app.contracts[t.Contract.ID] = t.Contract
	case *statetransition.DocumentsBatchTransition:
		for _, e := range t.Entries {
			if e.Kind != datatrigger.ActionCreate {
				continue
			}
			dt, err := t.Contract.DocumentType(e.DocType)
			if err != nil {
				continue
			}
			idx, ok := dt.ContestedIndex()
			if !ok {
				continue
			}
			key, err := dt.EncodeIndexKey(e.Document, idx)
			if err != nil {
				continue
			}
			ref := voting.PollRef{ContractID: t.Contract.ID, DocType: dt.Name, IndexName: idx.Name, PollKey: hex.EncodeToString(key)}
			app.openPolls[pollRefKey(ref)] = ref
			if app.pendingDocs[t.Contract.ID] == nil {
				app.pendingDocs[t.Contract.ID] = make(map[schema.Identifier]*schema.Document)
			}
			app.pendingDocs[t.Contract.ID][e.Document.ID] = e.Document
		}
	case *statetransition.MasternodeVoteTransition:
		if t.IsProtocolVersionVote() {
			app.upgrader.RecordVote(hex.EncodeToString(t.VoterID[:]), t.ProtocolVersionVote)
		}
	}
}

// Commit finalizes the block's store.Transaction and reports the new
// app hash.
func (app *Application) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.blockTx != nil {
		if _, err := app.blockTx.Commit(); err != nil {
			return nil, fmt.Errorf("blockdriver: commit: %w", err)
		}
		app.blockTx = nil
	}
	app.currentHeight = app.blockHeight

	retainHeight := app.currentHeight - int64(EpochLengthBlocks)
	if retainHeight < 0 {
		retainHeight = 0
	}
	return &abcitypes.ResponseCommit{RetainHeight: retainHeight}, nil
}

// Query echoes the request's key together with the last committed
// height. It does not read the store and returns no value or proof; the
// full query surface lives in pkg/query.
func (app *Application) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	return &abcitypes.ResponseQuery{
		Code:   0,
		Height: app.currentHeight,
		Key:    req.Data,
	}, nil
}

func (app *Application) ExtendVote(ctx context.Context, req *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *Application) VerifyVoteExtension(ctx context.Context, req *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

// ListSnapshots advertises the single latest-state snapshot BD can
// serve, built from store.Export (spec.md §4.8: state-sync target).
func (app *Application) ListSnapshots(ctx context.Context, req *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	chunks, err := app.store.Export()
	if err != nil || len(chunks) == 0 {
		return &abcitypes.ResponseListSnapshots{}, nil
	}
	blob, err := store.MarshalSnapshot(chunks)
	if err != nil {
		return &abcitypes.ResponseListSnapshots{}, nil
	}

	return &abcitypes.ResponseListSnapshots{
		Snapshots: []*abcitypes.Snapshot{{
			Height: uint64(app.currentHeight),
			Format: 1,
			Chunks: 1,
			Hash:   app.store.RootHash(),
			Metadata: blob,
		}},
	}, nil
}

// OfferSnapshot accepts any snapshot whose advertised app hash it
// cannot already verify against (a fresh node has no committed state to
// compare against yet).
func (app *Application) OfferSnapshot(ctx context.Context, req *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	if req.Snapshot == nil || req.Snapshot.Chunks != 1 {
		return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_REJECT}, nil
	}
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ACCEPT}, nil
}

// LoadSnapshotChunk serves the single snapshot chunk this BD produces.
func (app *Application) LoadSnapshotChunk(ctx context.Context, req *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	chunks, err := app.store.Export()
	if err != nil {
		return &abcitypes.ResponseLoadSnapshotChunk{}, nil
	}
	blob, err := store.MarshalSnapshot(chunks)
	if err != nil {
		return &abcitypes.ResponseLoadSnapshotChunk{}, nil
	}
	return &abcitypes.ResponseLoadSnapshotChunk{Chunk: blob}, nil
}

// ApplySnapshotChunk imports the offered chunk wholesale and swaps it in
// as the store. It rejects the snapshot only when the chunk fails to
// decode or import; the imported root hash is not compared against the
// offered app hash.
func (app *Application) ApplySnapshotChunk(ctx context.Context, req *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	chunks, err := store.UnmarshalSnapshot(req.Chunk)
	if err != nil {
		return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_REJECT_SNAPSHOT}, nil
	}
	imported, err := store.Import(chunks)
	if err != nil {
		return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_REJECT_SNAPSHOT}, nil
	}

	app.store = imported
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ACCEPT}, nil
}
