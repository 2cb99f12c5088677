// Package fbclient implements the operation issuer, the session state
// machine, and the event waiter: the layer that turns the wire, xdr, blr,
// status, and auth packages into the named Firebird client operations.
package fbclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veyronfb/fbwire/internal/logger"
	"github.com/veyronfb/fbwire/internal/protocol/auth"
	"github.com/veyronfb/fbwire/internal/protocol/blr"
	"github.com/veyronfb/fbwire/internal/protocol/charset"
	"github.com/veyronfb/fbwire/internal/protocol/fberr"
	"github.com/veyronfb/fbwire/internal/protocol/wire"
	"github.com/veyronfb/fbwire/internal/protocol/xdr"
	"github.com/veyronfb/fbwire/pkg/metrics"
)

// State is the session's connection lifecycle stage.
type State int

const (
	StateUnconnected State = iota
	StateAwaitingAccept
	StateAwaitingSRPProof
	StateEncrypted
	StateAttached
	StateDetached
)

// Config carries the session's connection parameters:
// user/password/role/filename/charset, plus the wire-crypt and auth
// plugin preferences that shape the connect packet's uid block.
type Config struct {
	Host      string
	Port      int
	Filename  string
	User      string
	Password  string
	Role      string
	Charset   string
	WireCrypt bool
	Timeout   time.Duration

	// AuthPlugin selects "Srp" or "Legacy_Auth"; empty disables plugin
	// auth entirely (no uid plugin fields are sent).
	AuthPlugin string
}

// Session is the single process-wide object per connection.
// Not safe for concurrent use: one request/response cycle is in flight at
// a time.
type Session struct {
	ID string

	cfg Config
	ch  *wire.Channel

	state State

	acceptVersion      int32
	acceptArchitecture int32
	acceptType         int32

	pluginName string
	pluginList string

	dbHandle int32

	blobHandles map[blr.BlobID]int32

	charset *charset.Charset

	metrics *metrics.Collector
	logCtx  *logger.LogContext
}

// Dial opens a TCP connection to cfg.Host:cfg.Port and wraps it in a
// Session ready for Connect.
func Dial(cfg Config, m *metrics.Collector) (*Session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fberr.NewOperational("dial", err)
	}

	ch := wire.NewChannel(conn)
	ch.SetTimeout(cfg.Timeout)
	ch.SetMetrics(m)

	cs, err := charset.Lookup(cfg.Charset)
	if err != nil {
		return nil, fberr.NewOperational("dial", err)
	}

	sessionID := uuid.NewString()
	return &Session{
		ID:          sessionID,
		cfg:         cfg,
		ch:          ch,
		state:       StateUnconnected,
		blobHandles: make(map[blr.BlobID]int32),
		charset:     cs,
		metrics:     m,
		logCtx:      logger.NewLogContext(sessionID).WithOperation("dial"),
	}, nil
}

// Charset returns the session's resolved Firebird charset, used to
// transcode textual parameters and (by external column decoders) result
// columns between UTF-8 and the wire encoding.
func (s *Session) Charset() *charset.Charset { return s.charset }

func (s *Session) observe(op string, err error) {
	s.metrics.ObserveOp(op, err)
	if err != nil {
		ctx := logger.WithContext(context.Background(), s.logCtx.WithOperation(op))
		logger.ErrorCtx(ctx, "operation failed", logger.Err(err))
	}
}

// requireDBHandle refuses to issue an operation whose required database
// handle is absent.
func (s *Session) requireDBHandle() error {
	if s.state != StateAttached {
		return fberr.NewOperational("require_db_handle", fmt.Errorf("no database attached"))
	}
	return nil
}

// Connect issues the connect packet and
// negotiates a protocol version and (optionally) an auth plugin. On
// return the session holds accept_version/architecture/type and, if
// wire-crypt was negotiated, has installed the Arc4 translator.
func (s *Session) Connect() error {
	var pluginReq *auth.PluginRequest
	var srpKeys *auth.ClientKeyPair
	var err error

	switch s.cfg.AuthPlugin {
	case "", "none":
		// no plugin negotiation
	case "Srp":
		pluginReq, srpKeys, err = auth.NewSrpRequest(s.cfg.WireCrypt)
		if err != nil {
			return err
		}
	case "Legacy_Auth":
		pluginReq = auth.NewLegacyAuthRequest(s.cfg.Password, s.cfg.WireCrypt)
	default:
		return auth.RejectUnknownPlugin(s.cfg.AuthPlugin)
	}

	uidBytes := auth.BuildUID(s.cfg.User, auth.EnvUser(), auth.EnvHost(), pluginReq)

	if err := s.sendConnectPacket(uidBytes); err != nil {
		return err
	}
	s.state = StateAwaitingAccept

	return s.readAccept(pluginReq, srpKeys)
}

func (s *Session) sendConnectPacket(uid []byte) error {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpConnect))
	buf.int32(int32(wire.OpAttach))
	buf.int32(wire.ConnectVersion)
	buf.int32(wire.ArchType)
	buf.str(s.cfg.Filename)
	buf.int32(4) // protocol count

	buf.opaque(uid)

	for _, v := range []int32{wire.ProtocolVersion10, wire.ProtocolVersion11, wire.ProtocolVersion12, wire.ProtocolVersion13} {
		buf.int32(wire.WireVersion(v))
		buf.int32(wire.ArchGeneric)
		buf.int32(0)
		buf.int32(5)
		buf.int32(2)
	}

	return s.ch.SendAll(buf.Bytes())
}

// readAccept reads op_accept / op_cond_accept / op_accept_data /
// op_reject and records the negotiated version, architecture, and type.
func (s *Session) readAccept(pluginReq *auth.PluginRequest, srpKeys *auth.ClientKeyPair) error {
	op, err := readOpcode(s.ch)
	if err != nil {
		return err
	}

	if op == wire.OpReject {
		return fberr.NewOperational("connect", fmt.Errorf("connection rejected by server"))
	}
	if op == wire.OpResponse {
		resp, err := readOpResponse(s.ch)
		if err != nil {
			return err
		}
		_ = resp
		return fberr.NewOperational("connect", fmt.Errorf("server returned op_response instead of accept"))
	}

	head, err := s.ch.RecvExact(12, false)
	if err != nil {
		return err
	}
	s.acceptVersion = int32(head[3])
	s.acceptArchitecture = be32(head[4:8])
	s.acceptType = be32(head[8:12])

	if op == wire.OpCondAccept || op == wire.OpAcceptData {
		return s.completeSRPContinuation(pluginReq, srpKeys)
	}
	return nil
}

// completeSRPContinuation finishes a conditional accept: parse server salt/public key, compute the client proof,
// send op_cont_auth, then op_crypt and install the Arc4 translator.
func (s *Session) completeSRPContinuation(pluginReq *auth.PluginRequest, srpKeys *auth.ClientKeyPair) error {
	data, err := xdr.ReadOpaque(chanReader{s.ch})
	if err != nil {
		return err
	}
	pluginName, err := xdr.ReadString(chanReader{s.ch})
	if err != nil {
		return err
	}
	s.pluginName = pluginName

	isAuthBytes, err := s.ch.RecvExact(4, false)
	if err != nil {
		return err
	}
	isAuthenticated := be32(isAuthBytes)

	if _, err := xdr.ReadOpaque(chanReader{s.ch}); err != nil { // keys, unused
		return err
	}

	if pluginName == "Legacy_Auth" && isAuthenticated == 0 {
		s.metrics.ObserveAuthFailure()
		return fberr.NewOperational("connect", fmt.Errorf("legacy auth rejected by server"))
	}

	if pluginName != "Srp" {
		return nil
	}
	if pluginReq == nil || srpKeys == nil {
		return fberr.NewOperational("connect", fmt.Errorf("server requested Srp continuation but no Srp negotiation was started"))
	}
	s.state = StateAwaitingSRPProof

	accept, err := auth.ParseSrpAcceptData(data)
	if err != nil {
		return err
	}

	// The proof is derived over the upper-cased account name, the same
	// form CNCT_login carries.
	proof, err := auth.CompleteHandshake(strings.ToUpper(s.cfg.User), s.cfg.Password, accept.ServerSalt, accept.ServerPublicKey, srpKeys)
	if err != nil {
		s.metrics.ObserveAuthFailure()
		return err
	}

	cont := newPacketBuilder()
	cont.int32(int32(wire.OpContAuth))
	cont.str(proof.ProofHex())
	cont.str(pluginReq.PluginName)
	cont.str(pluginReq.PluginList)
	cont.str("")
	if err := s.ch.SendAll(cont.Bytes()); err != nil {
		return err
	}
	if _, err := ExpectResponse(s.ch); err != nil {
		// The server rejects op_cont_auth with a status-vector error when
		// the client proof doesn't match its own derivation (a genuine SRP
		// proof mismatch, as opposed to the local precondition failures
		// above).
		s.metrics.ObserveAuthFailure()
		return err
	}

	cryptPkt := newPacketBuilder()
	cryptPkt.int32(int32(wire.OpCrypt))
	cryptPkt.str("Arc4")
	cryptPkt.str("Symmetric")
	if err := s.ch.SendAll(cryptPkt.Bytes()); err != nil {
		return err
	}

	readStream, writeStream, err := auth.NewArc4Translator(proof.SessionKey)
	if err != nil {
		return err
	}
	s.ch.InstallTranslator(readStream, writeStream)
	s.state = StateEncrypted

	if _, err := ExpectResponse(s.ch); err != nil {
		return err
	}
	return nil
}

// Attach issues op_attach.
func (s *Session) Attach() error {
	dpb := buildAttachDPB(s.cfg.Charset, s.cfg.User, s.cfg.Password, s.cfg.Role, passwordModeFor(s.acceptVersion))

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpAttach))
	buf.int32(0)
	buf.str(s.cfg.Filename)
	buf.opaque(dpb)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("attach", err)
	if err != nil {
		return err
	}

	s.dbHandle = resp.Handle
	s.state = StateAttached
	return nil
}

// Create issues op_create, the database-creation counterpart of Attach.
func (s *Session) Create(pageSize int32) error {
	dpb := buildCreateDPB(s.cfg.Charset, s.cfg.User, s.cfg.Password, s.cfg.Role, passwordModeFor(s.acceptVersion), pageSize)

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpCreate))
	buf.int32(0)
	buf.str(s.cfg.Filename)
	buf.opaque(dpb)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("create", err)
	if err != nil {
		return err
	}

	s.dbHandle = resp.Handle
	s.state = StateAttached
	return nil
}

// Detach issues op_detach, releasing the database handle.
func (s *Session) Detach() error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}

	buf := newPacketBuilder()
	buf.int32(int32(wire.OpDetach))
	buf.int32(s.dbHandle)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}

	_, err := ExpectResponse(s.ch)
	s.observe("detach", err)
	if err != nil {
		return err
	}
	s.state = StateDetached
	return s.ch.Close()
}

// DropDatabase issues op_drop_database.
func (s *Session) DropDatabase() error {
	if err := s.requireDBHandle(); err != nil {
		return err
	}
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpDropDatabase))
	buf.int32(s.dbHandle)
	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("drop_database", err)
	return err
}

// Ping issues op_ping, a liveness probe with no payload.
func (s *Session) Ping() error {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpPing))
	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("ping", err)
	return err
}

// DBHandle returns the attached database handle.
func (s *Session) DBHandle() int32 { return s.dbHandle }

// AcceptVersion returns the negotiated protocol version.
func (s *Session) AcceptVersion() int32 { return s.acceptVersion }

// PluginName returns the authentication plugin negotiated with the server
// ("" if none was negotiated).
func (s *Session) PluginName() string { return s.pluginName }

// WaitForEvent blocks for one decoded op_event frame on this session's
// channel, the primary-stream demux a QueEvents registration expects a
// caller to drive afterward.
func (s *Session) WaitForEvent() (*EventUpdate, error) {
	return WaitForEvent(s.ch)
}
