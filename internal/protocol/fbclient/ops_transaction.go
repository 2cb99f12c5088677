package fbclient

import (
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// StartTransaction issues op_transaction against the attached database
// using the default read-write/concurrency/wait TPB. Use StartTransactionWithTPB to override it.
func (s *Session) StartTransaction() (int32, error) {
	return s.StartTransactionWithTPB(defaultTPB())
}

// StartTransactionWithTPB issues op_transaction with a caller-supplied TPB.
func (s *Session) StartTransactionWithTPB(tpb []byte) (int32, error) {
	if err := s.requireDBHandle(); err != nil {
		return 0, err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpTransaction))
	buf.int32(s.dbHandle)
	buf.opaque(tpb)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return 0, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("transaction", err)
	if err != nil {
		return 0, err
	}
	return resp.Handle, nil
}

// Commit issues op_commit, ending the transaction.
func (s *Session) Commit(transHandle int32) error {
	return s.simpleTransactionOp(wire.OpCommit, transHandle, "commit")
}

// Rollback issues op_rollback, ending the transaction and undoing its work.
func (s *Session) Rollback(transHandle int32) error {
	return s.simpleTransactionOp(wire.OpRollback, transHandle, "rollback")
}

// CommitRetaining issues op_commit_retaining: commits the work but keeps
// transHandle valid for further statements.
func (s *Session) CommitRetaining(transHandle int32) error {
	return s.simpleTransactionOp(wire.OpCommitRetain, transHandle, "commit_retaining")
}

// RollbackRetaining issues op_rollback_retaining, the rollback counterpart
// of CommitRetaining.
func (s *Session) RollbackRetaining(transHandle int32) error {
	return s.simpleTransactionOp(wire.OpRollbackRetain, transHandle, "rollback_retaining")
}

func (s *Session) simpleTransactionOp(op wire.Opcode, transHandle int32, name string) error {
	buf := newPacketBuilder()
	buf.int32(int32(op))
	buf.int32(transHandle)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	_, err := ExpectResponse(s.ch)
	s.observe(name, err)
	return err
}
