package fbclient

import (
	"github.com/veyronfb/fbwire/internal/protocol/wire"
)

// ServiceHandle is the integer handle a service_attach reply returns,
// analogous to dbHandle but scoped to the service manager (gbak/gsec-style
// operations) rather than a database attachment. Only the wire calls live
// here; the backup/restore/user-management front-ends that drive them
// belong to callers.
type ServiceHandle int32

// ServiceAttach issues op_service_attach, opening a service-manager
// session against spb (a Service Parameter Block built the same TLV way
// as a DPB). serviceName is conventionally "service_mgr".
func (s *Session) ServiceAttach(serviceName string, spb []byte) (ServiceHandle, error) {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpServiceAttach))
	buf.int32(0)
	buf.str(serviceName)
	buf.opaque(spb)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return 0, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("service_attach", err)
	if err != nil {
		return 0, err
	}
	return ServiceHandle(resp.Handle), nil
}

// ServiceDetach issues op_service_detach, releasing a service handle.
func (s *Session) ServiceDetach(handle ServiceHandle) error {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpServiceDetach))
	buf.int32(int32(handle))

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("service_detach", err)
	return err
}

// ServiceStart issues op_service_start, kicking off a long-running service
// task (backup, restore, user management, ...) described by spb.
func (s *Session) ServiceStart(handle ServiceHandle, spb []byte) error {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpServiceStart))
	buf.int32(int32(handle))
	buf.int32(0)
	buf.opaque(spb)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return err
	}
	_, err := ExpectResponse(s.ch)
	s.observe("service_start", err)
	return err
}

// ServiceInfo issues op_service_info, polling a running service task's
// progress/output via infoRequest and returning the raw reply buffer
// (callers decode it with the same cluster-of-tags grammar as
// info_database/info_sql results; the info-item catalogs belong to the
// caller, so no general-purpose decoder lives here).
func (s *Session) ServiceInfo(handle ServiceHandle, spb, infoRequest []byte, bufferSize int32) ([]byte, error) {
	buf := newPacketBuilder()
	buf.int32(int32(wire.OpServiceInfo))
	buf.int32(int32(handle))
	buf.int32(0)
	buf.opaque(spb)
	buf.opaque(infoRequest)
	buf.int32(bufferSize)

	if err := s.ch.SendAll(buf.Bytes()); err != nil {
		return nil, err
	}

	resp, err := ExpectResponse(s.ch)
	s.observe("service_info", err)
	if err != nil {
		return nil, err
	}
	return resp.Buffer, nil
}
