// Package wire implements the framed byte channel the Firebird wire
// protocol runs over: length-exact reads with word-alignment skipping,
// fully-buffered writes, and a pluggable symmetric cipher translator
// installed in place once authentication completes.
package wire

// Opcode identifies a Firebird wire protocol operation.
type Opcode int32

// Wire opcodes, per the subset of the protocol this client issues or
// consumes.
const (
	OpConnect        Opcode = 1
	OpExit           Opcode = 2
	OpAccept         Opcode = 3
	OpReject         Opcode = 4
	OpProtocol       Opcode = 5
	OpDisconnect     Opcode = 6
	OpResponse       Opcode = 9
	OpAttach         Opcode = 19
	OpCreate         Opcode = 20
	OpDetach         Opcode = 21
	OpTransaction    Opcode = 29
	OpCommit         Opcode = 30
	OpRollback       Opcode = 31
	OpOpenBlob       Opcode = 35
	OpGetSegment     Opcode = 36
	OpPutSegment     Opcode = 37
	OpCloseBlob      Opcode = 39
	OpInfoDatabase   Opcode = 40
	OpInfoTrans      Opcode = 42
	OpBatchSegments  Opcode = 44
	OpQueEvents      Opcode = 48
	OpCancelEvents   Opcode = 49
	OpCommitRetain   Opcode = 50
	OpEvent          Opcode = 52
	OpConnectReq     Opcode = 53
	OpCreateBlob2    Opcode = 57
	OpAllocStmt      Opcode = 62
	OpExecute        Opcode = 63
	OpExecImmediate  Opcode = 64
	OpFetch          Opcode = 65
	OpFetchResponse  Opcode = 66
	OpFreeStatement  Opcode = 67
	OpPrepareStmt    Opcode = 68
	OpInfoSQL        Opcode = 70
	OpDummy          Opcode = 71
	OpExecute2       Opcode = 76
	OpSQLResponse    Opcode = 78
	OpDropDatabase   Opcode = 81
	OpServiceAttach  Opcode = 82
	OpServiceDetach  Opcode = 83
	OpServiceInfo    Opcode = 84
	OpServiceStart   Opcode = 85
	OpRollbackRetain Opcode = 86
	OpTrustedAuth    Opcode = 90
	OpCancel         Opcode = 91
	OpContAuth       Opcode = 92
	OpPing           Opcode = 93
	OpAcceptData     Opcode = 94
	OpCrypt          Opcode = 96
	OpCondAccept     Opcode = 98
)

// Protocol versions this client negotiates, newest first isn't required —
// the connect packet lists them in ascending order (10, 11, 12, 13).
const (
	ProtocolVersion10 int32 = 10
	ProtocolVersion11 int32 = 11
	ProtocolVersion12 int32 = 12
	ProtocolVersion13 int32 = 13
)

// protocolFlag marks a protocol-version word as belonging to the masked
// scheme versions 11 and up use: the version rides in the low bits of a
// sign-extended 16-bit word (0xFFFF800B for 11, 0xFFFF800C for 12, ...).
// Version 10 predates the scheme and goes out as a plain 10.
const protocolFlag = 0x8000

// WireVersion returns the on-the-wire form of a negotiable protocol
// version for the connect packet's protocol descriptors.
func WireVersion(v int32) int32 {
	if v == ProtocolVersion10 {
		return v
	}
	return int32(int16(protocolFlag | uint16(v)))
}

// ArchGeneric is the advisory CPU/OS architecture value sent in the connect
// packet; Firebird's client libraries always send "generic".
const ArchGeneric int32 = 1

// ConnectVersion is the fixed connect-packet sub-version this client speaks.
const ConnectVersion int32 = 3

// ArchType is the fixed arch-type field of the connect packet (WIN_NT/generic
// value used by every modern client regardless of actual host OS).
const ArchType int32 = 36

// PType values bound the communication styles offered for each protocol
// descriptor in the connect packet (the min/max words of the 5-tuple).
const (
	PTypeRPC       int32 = 2 // ptype_rpc: strict request/response
	PTypeBatchSend int32 = 3 // ptype_batch_send: full-duplex, deferred packets
	PTypeLazySend  int32 = 5 // ptype_lazy_send: deferred packets with lazy flush
)

func (o Opcode) String() string {
	switch o {
	case OpConnect:
		return "op_connect"
	case OpExit:
		return "op_exit"
	case OpAccept:
		return "op_accept"
	case OpReject:
		return "op_reject"
	case OpProtocol:
		return "op_protocol"
	case OpDisconnect:
		return "op_disconnect"
	case OpResponse:
		return "op_response"
	case OpAttach:
		return "op_attach"
	case OpCreate:
		return "op_create"
	case OpDetach:
		return "op_detach"
	case OpTransaction:
		return "op_transaction"
	case OpCommit:
		return "op_commit"
	case OpRollback:
		return "op_rollback"
	case OpOpenBlob:
		return "op_open_blob"
	case OpGetSegment:
		return "op_get_segment"
	case OpPutSegment:
		return "op_put_segment"
	case OpCloseBlob:
		return "op_close_blob"
	case OpInfoDatabase:
		return "op_info_database"
	case OpInfoTrans:
		return "op_info_transaction"
	case OpBatchSegments:
		return "op_batch_segments"
	case OpQueEvents:
		return "op_que_events"
	case OpCancelEvents:
		return "op_cancel_events"
	case OpCommitRetain:
		return "op_commit_retaining"
	case OpEvent:
		return "op_event"
	case OpConnectReq:
		return "op_connect_request"
	case OpCreateBlob2:
		return "op_create_blob2"
	case OpAllocStmt:
		return "op_allocate_statement"
	case OpExecute:
		return "op_execute"
	case OpExecImmediate:
		return "op_exec_immediate"
	case OpFetch:
		return "op_fetch"
	case OpFetchResponse:
		return "op_fetch_response"
	case OpFreeStatement:
		return "op_free_statement"
	case OpPrepareStmt:
		return "op_prepare_statement"
	case OpInfoSQL:
		return "op_info_sql"
	case OpDummy:
		return "op_dummy"
	case OpExecute2:
		return "op_execute2"
	case OpSQLResponse:
		return "op_sql_response"
	case OpDropDatabase:
		return "op_drop_database"
	case OpServiceAttach:
		return "op_service_attach"
	case OpServiceDetach:
		return "op_service_detach"
	case OpServiceInfo:
		return "op_service_info"
	case OpServiceStart:
		return "op_service_start"
	case OpRollbackRetain:
		return "op_rollback_retaining"
	case OpTrustedAuth:
		return "op_trusted_auth"
	case OpCancel:
		return "op_cancel"
	case OpContAuth:
		return "op_cont_auth"
	case OpPing:
		return "op_ping"
	case OpAcceptData:
		return "op_accept_data"
	case OpCrypt:
		return "op_crypt"
	case OpCondAccept:
		return "op_cond_accept"
	default:
		return "op_unknown"
	}
}
