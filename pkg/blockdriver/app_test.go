// Copyright 2025 Certen Protocol

package blockdriver

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"testing"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/rs/zerolog"

	"github.com/driveplatform/core/pkg/costs"
	"github.com/driveplatform/core/pkg/datatrigger"
	"github.com/driveplatform/core/pkg/pvr"
	"github.com/driveplatform/core/pkg/schema"
	"github.com/driveplatform/core/pkg/state"
	"github.com/driveplatform/core/pkg/statetransition"
	"github.com/driveplatform/core/pkg/voting"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	registry := pvr.New(pvr.Default())
	accountant := costs.New(nil, zerolog.Nop())
	triggers := datatrigger.NewEngine(nil)
	return NewApplication(registry, accountant, triggers, 1, zerolog.Nop())
}

func signedIdentityCreateEnvelope(t *testing.T, id schema.Identifier, outpoint byte) []byte {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	transition := &statetransition.IdentityCreateTransition{
		IdentityID: id,
		Keys: []state.IdentityKey{
			{KeyID: 0, Purpose: state.PurposeAuthentication, SecurityLevel: state.LevelMaster, Type: state.KeyTypeED25519, Data: pub},
		},
		InitialBalance: 5000,
	}
	transition.Outpoint[0] = outpoint
	sig := ed25519.Sign(priv, signingPayloadForTest(transition))
	transition.Signature = sig

	payload, err := json.Marshal(transition)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(Envelope{Kind: KindIdentityCreate, Payload: payload, PayerID: id.String()})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

// signingPayloadForTest mirrors IdentityCreateTransition.signingPayload,
// which is unexported and lives in pkg/statetransition; reproducing its
// exact field set here keeps this test package-boundary-clean while
// still producing a signature ValidateIdentityCreate accepts.
func signingPayloadForTest(t *statetransition.IdentityCreateTransition) []byte {
	b, _ := json.Marshal(struct {
		IdentityID schema.Identifier
		Outpoint   [36]byte
		Balance    uint64
	}{t.IdentityID, t.Outpoint, t.InitialBalance})
	return b
}

func TestApplicationCheckTxAcceptsWellFormedEnvelope(t *testing.T) {
	app := newTestApplication(t)
	raw := signedIdentityCreateEnvelope(t, schema.Identifier{9}, 1)

	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("expected code 0, got %d: %s", resp.Code, resp.Log)
	}
}

func TestApplicationCheckTxRejectsMalformedEnvelope(t *testing.T) {
	app := newTestApplication(t)
	resp, err := app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: []byte("garbage")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code == 0 {
		t.Fatal("expected a non-zero code for a malformed envelope")
	}
}

func TestApplicationInitChainSeedsProtocolVersion(t *testing.T) {
	app := newTestApplication(t)
	resp, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.AppHash) == 0 {
		t.Fatal("expected a non-empty genesis app hash")
	}
}

func TestApplicationFinalizeBlockAndCommitAppliesIdentityCreate(t *testing.T) {
	app := newTestApplication(t)
	raw := signedIdentityCreateEnvelope(t, schema.Identifier{10}, 2)

	finalizeResp, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 1, Txs: [][]byte{raw}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(finalizeResp.TxResults) != 1 || finalizeResp.TxResults[0].Code != 0 {
		t.Fatalf("expected tx to be accepted, got %+v", finalizeResp.TxResults)
	}

	commitResp, err := app.Commit(context.Background(), &abcitypes.RequestCommit{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if commitResp.RetainHeight != 0 {
		t.Fatalf("expected retain height 0 on an early block, got %d", commitResp.RetainHeight)
	}

	infoResp, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if infoResp.LastBlockHeight != 1 {
		t.Fatalf("expected last block height 1, got %d", infoResp.LastBlockHeight)
	}
}

func TestApplicationFinalizeBlockRecordsRejectionWithoutAborting(t *testing.T) {
	app := newTestApplication(t)
	raw := signedIdentityCreateEnvelope(t, schema.Identifier{11}, 3)
	bad := []byte("not an envelope at all")

	resp, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 1, Txs: [][]byte{bad, raw}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TxResults[0].Code == 0 {
		t.Fatal("expected the malformed tx to be rejected")
	}
	if resp.TxResults[1].Code != 0 {
		t.Fatalf("expected the well-formed tx to still be accepted, got %+v", resp.TxResults[1])
	}
}

func signedMasternodeProtocolVoteEnvelope(t *testing.T, voterID schema.Identifier, priv ed25519.PrivateKey, version uint32) []byte {
	t.Helper()
	transition := &statetransition.MasternodeVoteTransition{
		VoterID:             voterID,
		KeyID:               0,
		ProtocolVersionVote: version,
	}
	transition.Signature = ed25519.Sign(priv, masternodeVoteSigningPayloadForTest(transition))

	payload, err := json.Marshal(transition)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(Envelope{Kind: KindMasternodeVote, Payload: payload})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return raw
}

// masternodeVoteSigningPayloadForTest mirrors MasternodeVoteTransition.
// signingPayload, which is unexported and lives in pkg/statetransition.
func masternodeVoteSigningPayloadForTest(t *statetransition.MasternodeVoteTransition) []byte {
	b, _ := json.Marshal(struct {
		VoterID             schema.Identifier
		Poll                voting.PollRef
		Choice              schema.Identifier
		ProtocolVersionVote uint32
	}{t.VoterID, t.Poll, t.Choice, t.ProtocolVersionVote})
	return b
}

func TestApplicationFinalizeBlockActivatesProtocolUpgradeAtEpochBoundary(t *testing.T) {
	app := newTestApplication(t)

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	voterID := schema.Identifier{20}
	createTransition := &statetransition.IdentityCreateTransition{
		IdentityID: voterID,
		Keys: []state.IdentityKey{
			{KeyID: 0, Purpose: state.PurposeVoting, SecurityLevel: state.LevelHigh, Type: state.KeyTypeED25519, Data: pub},
			{KeyID: 1, Purpose: state.PurposeAuthentication, SecurityLevel: state.LevelMaster, Type: state.KeyTypeED25519, Data: pub},
		},
		InitialBalance: 1000,
	}
	createTransition.Outpoint[0] = 20
	createSig := ed25519.Sign(priv, signingPayloadForTest(createTransition))
	createTransition.Signature = createSig
	createPayload, _ := json.Marshal(createTransition)
	createRaw, _ := json.Marshal(Envelope{Kind: KindIdentityCreate, Payload: createPayload, PayerID: voterID.String()})

	if _, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 1, Txs: [][]byte{createRaw}}); err != nil {
		t.Fatalf("finalize identity create: %v", err)
	}
	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("commit identity create: %v", err)
	}

	voteRaw := signedMasternodeProtocolVoteEnvelope(t, voterID, priv, 2)
	finalizeResp, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: EpochLengthBlocks, Txs: [][]byte{voteRaw}})
	if err != nil {
		t.Fatalf("finalize vote: %v", err)
	}
	if finalizeResp.TxResults[0].Code != 0 {
		t.Fatalf("expected protocol-version vote to be accepted, got %+v", finalizeResp.TxResults[0])
	}
	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("commit vote: %v", err)
	}

	tx := app.store.StartTransaction()
	_, next, err := pvr.ReadVersions(tx)
	if err != nil {
		t.Fatalf("read versions: %v", err)
	}
	if next != 2 {
		t.Fatalf("expected next protocol version 2 to be queued after a unanimous quorum vote, got %d", next)
	}
}

func TestApplicationFinalizeBlockResolvesEndedVotePoll(t *testing.T) {
	app := newTestApplication(t)

	dt, err := schema.CompileDocumentType(schema.Identifier{30}, "note",
		map[string]*schema.Property{"title": {Name: "title", Type: schema.FieldTypeString}},
		nil,
		[]schema.Index{{Name: "byOwner", Properties: []string{"$ownerId"}, Unique: true, Contested: true}},
		true, false)
	if err != nil {
		t.Fatalf("compile document type: %v", err)
	}
	contract, err := schema.CompileDataContract(schema.Identifier{30}, schema.Identifier{31}, 1, []*schema.DocumentType{dt})
	if err != nil {
		t.Fatalf("compile data contract: %v", err)
	}

	owner := schema.Identifier{32}
	doc := &schema.Document{ID: schema.Identifier{33}, OwnerID: owner, DocumentType: "note", Values: map[string]interface{}{"title": "first"}}
	key, err := dt.EncodeIndexKey(doc, schema.Index{Name: "byOwner", Properties: []string{"$ownerId"}, Unique: true, Contested: true})
	if err != nil {
		t.Fatalf("encode index key: %v", err)
	}
	ref := voting.PollRef{ContractID: contract.ID, DocType: dt.Name, IndexName: "byOwner", PollKey: hex.EncodeToString(key)}

	openTx := app.store.StartTransaction()
	openOps, err := voting.OpenOrJoinVotePoll(openTx, ref, voting.Contender{OwnerID: owner, DocumentID: doc.ID}, 1, 5, schema.Identifier{34})
	if err != nil {
		t.Fatalf("open vote poll: %v", err)
	}
	if err := openTx.Apply(openOps); err != nil {
		t.Fatalf("apply open ops: %v", err)
	}
	if _, err := openTx.Commit(); err != nil {
		t.Fatalf("commit open ops: %v", err)
	}

	app.contracts[contract.ID] = contract
	app.pendingDocs[contract.ID] = map[schema.Identifier]*schema.Document{doc.ID: doc}
	app.openPolls[pollRefKey(ref)] = ref

	if _, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 10}); err != nil {
		t.Fatalf("finalize at poll end height: %v", err)
	}
	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, stillOpen := app.openPolls[pollRefKey(ref)]; stillOpen {
		t.Fatal("expected resolved poll to be dropped from openPolls")
	}

	checkTx := app.store.StartTransaction()
	if _, exists := checkTx.Get(state.DocumentPath(contract.ID, "note"), doc.ID[:]); !exists {
		t.Fatal("expected winning document to be applied after poll resolution")
	}
}

func TestApplicationListSnapshotsAfterCommit(t *testing.T) {
	app := newTestApplication(t)
	raw := signedIdentityCreateEnvelope(t, schema.Identifier{12}, 4)
	if _, err := app.FinalizeBlock(context.Background(), &abcitypes.RequestFinalizeBlock{Height: 1, Txs: [][]byte{raw}}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := app.Commit(context.Background(), &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	resp, err := app.ListSnapshots(context.Background(), &abcitypes.RequestListSnapshots{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(resp.Snapshots))
	}
}
