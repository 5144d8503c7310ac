// Copyright 2025 Certen Protocol

package store

import (
	"bytes"
	"testing"
)

func TestApplyAndCommitDeterministicRoot(t *testing.T) {
	s1 := New()
	s2 := New()

	ops := []Op{
		InsertTree(nil, []byte("Identities")),
		Insert([]string{"Identities"}, []byte("id-1"), NewItem([]byte("alice"))),
		Insert([]string{"Identities"}, []byte("id-2"), NewItem([]byte("bob"))),
	}

	tx1 := s1.StartTransaction()
	if err := tx1.Apply(ops); err != nil {
		t.Fatalf("apply on s1: %v", err)
	}
	root1, err := tx1.Commit()
	if err != nil {
		t.Fatalf("commit s1: %v", err)
	}

	tx2 := s2.StartTransaction()
	if err := tx2.Apply(ops); err != nil {
		t.Fatalf("apply on s2: %v", err)
	}
	root2, err := tx2.Commit()
	if err != nil {
		t.Fatalf("commit s2: %v", err)
	}

	if !bytes.Equal(root1, root2) {
		t.Fatalf("root mismatch: %x vs %x", root1, root2)
	}
}

func TestInsertIfNotExistsRejectsDuplicate(t *testing.T) {
	s := New()
	tx := s.StartTransaction()
	ops := []Op{
		InsertTree(nil, []byte("Contracts")),
		InsertIfNotExists([]string{"Contracts"}, []byte("c1"), NewItem([]byte("v1"))),
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx2 := s.StartTransaction()
	err := tx2.Apply([]Op{InsertIfNotExists([]string{"Contracts"}, []byte("c1"), NewItem([]byte("v2")))})
	if err == nil {
		t.Fatal("expected rejection on duplicate insert-if-not-exists")
	}
}

func TestBatchRejectedLeavesNoPartialEffect(t *testing.T) {
	s := New()
	tx := s.StartTransaction()
	ops := []Op{
		InsertTree(nil, []byte("Balances")),
		InsertEmptySumTree([]string{"Balances"}, []byte("pool")),
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// second apply: first op succeeds logically, second fails (deleting a
	// key that was never inserted) -> whole batch must be rejected.
	badOps := []Op{
		Insert([]string{"Balances", "pool"}, []byte("k1"), NewSumItem(10)),
		Delete([]string{"Balances", "pool"}, []byte("missing")),
	}
	if err := tx.Apply(badOps); err == nil {
		t.Fatal("expected batch rejection")
	}

	if _, exists := tx.Get([]string{"Balances", "pool"}, []byte("k1")); exists {
		t.Fatal("partial effect leaked from rejected batch")
	}
}

func TestSumTreeConsistency(t *testing.T) {
	s := New()
	tx := s.StartTransaction()
	ops := []Op{
		InsertTree(nil, []byte("Balances")),
		InsertEmptySumTree([]string{"Balances"}, []byte("pool")),
		Insert([]string{"Balances", "pool"}, []byte("a"), NewSumItem(100)),
		Insert([]string{"Balances", "pool"}, []byte("b"), NewSumItem(50)),
		SumItemDelta([]string{"Balances", "pool"}, []byte("a"), -20),
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	total, err := s.StartTransaction().SumValue([]string{"Balances", "pool"})
	if err != nil {
		t.Fatalf("sum value: %v", err)
	}
	if total != 130 {
		t.Fatalf("sum mismatch: got %d, want 130", total)
	}
}

func TestQueryWithProofVerifies(t *testing.T) {
	s := New()
	tx := s.StartTransaction()
	ops := []Op{
		InsertTree(nil, []byte("Contracts")),
		Insert([]string{"Contracts"}, []byte("c1"), NewItem([]byte("v1"))),
		Insert([]string{"Contracts"}, []byte("c2"), NewItem([]byte("v2"))),
		Insert([]string{"Contracts"}, []byte("c3"), NewItem([]byte("v3"))),
	}
	if err := tx.Apply(ops); err != nil {
		t.Fatalf("apply: %v", err)
	}
	root, err := tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	results, proofs, err := s.Query([]string{"Contracts"}, nil, nil, true)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 3 || len(proofs) != 3 {
		t.Fatalf("expected 3 results/proofs, got %d/%d", len(results), len(proofs))
	}

	for i, r := range results {
		leaf := leafHash(r.Key, encodeElement(r.Key, r.Element))
		ok, err := VerifyInclusionProof(leaf, proofs[i], root)
		if err != nil {
			t.Fatalf("verify proof %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("proof %d did not verify against root", i)
		}
	}
}
