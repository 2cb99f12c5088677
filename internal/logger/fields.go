package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the wire protocol engine.
// Use these keys consistently so log lines can be aggregated and queried.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeySessionID   = "session_id"
	KeyRemoteAddr  = "remote_addr"
	KeyOperation   = "operation" // wire operation name: attach, execute, fetch, ...
	KeyOpcode      = "opcode"    // numeric wire opcode
	KeyDBHandle    = "db_handle"
	KeyTransHandle = "trans_handle"
	KeyStmtHandle  = "stmt_handle"
	KeyBlobID      = "blob_id"

	// ========================================================================
	// Authentication
	// ========================================================================
	KeyPluginName    = "plugin_name"
	KeyAcceptVersion = "accept_version"
	KeyWireCrypt     = "wire_crypt"

	// ========================================================================
	// Status / errors
	// ========================================================================
	KeyGDSCode   = "gds_code"
	KeySQLCode   = "sql_code"
	KeyErrorMsg  = "error_message"
	KeyError     = "error"
	KeyErrorCode = "error_code"

	// ========================================================================
	// I/O
	// ========================================================================
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"
	KeyRowCount     = "row_count"
	KeyMoreRows     = "more_rows"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyAttempt    = "attempt"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// SessionID returns a slog.Attr for the session identifier
func SessionID(id string) slog.Attr { return slog.String(KeySessionID, id) }

// RemoteAddr returns a slog.Attr for the server address
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }

// Operation returns a slog.Attr for the wire operation name
func Operation(name string) slog.Attr { return slog.String(KeyOperation, name) }

// Opcode returns a slog.Attr for the numeric wire opcode
func Opcode(op int32) slog.Attr { return slog.Int(KeyOpcode, int(op)) }

// DBHandle returns a slog.Attr for the database handle
func DBHandle(h int32) slog.Attr { return slog.Int(KeyDBHandle, int(h)) }

// TransHandle returns a slog.Attr for the transaction handle
func TransHandle(h int32) slog.Attr { return slog.Int(KeyTransHandle, int(h)) }

// StmtHandle returns a slog.Attr for the statement handle
func StmtHandle(h int32) slog.Attr { return slog.Int(KeyStmtHandle, int(h)) }

// BlobID returns a slog.Attr for an 8-byte BLOB identifier, hex-encoded
func BlobID(id [8]byte) slog.Attr { return slog.String(KeyBlobID, fmt.Sprintf("%x", id)) }

// PluginName returns a slog.Attr for the negotiated auth plugin name
func PluginName(name string) slog.Attr { return slog.String(KeyPluginName, name) }

// AcceptVersion returns a slog.Attr for the negotiated protocol version
func AcceptVersion(v int32) slog.Attr { return slog.Int(KeyAcceptVersion, int(v)) }

// WireCrypt returns a slog.Attr for whether wire encryption is active
func WireCrypt(on bool) slog.Attr { return slog.Bool(KeyWireCrypt, on) }

// GDSCode returns a slog.Attr for a gds error code
func GDSCode(code int32) slog.Attr { return slog.Int(KeyGDSCode, int(code)) }

// SQLCode returns a slog.Attr for the SQL error code
func SQLCode(code int32) slog.Attr { return slog.Int(KeySQLCode, int(code)) }

// ErrorMsg returns a slog.Attr for a formatted status-vector message
func ErrorMsg(msg string) slog.Attr { return slog.String(KeyErrorMsg, msg) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr { return slog.Int(KeyErrorCode, code) }

// BytesRead returns a slog.Attr for bytes read off the wire
func BytesRead(n int) slog.Attr { return slog.Int(KeyBytesRead, n) }

// BytesWritten returns a slog.Attr for bytes written to the wire
func BytesWritten(n int) slog.Attr { return slog.Int(KeyBytesWritten, n) }

// RowCount returns a slog.Attr for the number of rows fetched
func RowCount(n int) slog.Attr { return slog.Int(KeyRowCount, n) }

// MoreRows returns a slog.Attr for whether more rows remain after a fetch
func MoreRows(more bool) slog.Attr { return slog.Bool(KeyMoreRows, more) }

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }
