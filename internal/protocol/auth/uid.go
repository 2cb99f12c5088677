package auth

import (
	"bytes"
	"os"
	"strings"
)

// CNCT_* connect-parameter tags.
const (
	cnctUser             = 1
	cnctHost             = 4
	cnctUserVerification = 6
	cnctSpecificData     = 7
	cnctPluginName       = 8
	cnctLogin            = 9
	cnctPluginList       = 10
	cnctClientCrypt      = 11
)

// specificDataChunkSize is the per-triple payload limit packSpecificData
// splits CNCT_specific_data across.
const specificDataChunkSize = 254

// PluginRequest describes the plugin-specific contribution to the uid
// block: the plugin's name, the full plugin list offered, its
// specific_data payload, and whether wire crypt is requested.
type PluginRequest struct {
	PluginName   string
	PluginList   string
	SpecificData []byte
	WireCrypt    bool
}

// BuildUID assembles the CNCT_* parameter block sent in the connect
// packet's uid field. login is the account name the
// connection authenticates as (upper-cased into CNCT_login); osUser and
// host are the OS-reported identity CNCT_user/CNCT_host always carry. req
// is nil when no auth plugin is being negotiated.
func BuildUID(login, osUser, host string, req *PluginRequest) []byte {
	buf := new(bytes.Buffer)

	if req != nil {
		packParam(buf, cnctLogin, []byte(strings.ToUpper(login)))
		packParam(buf, cnctPluginName, []byte(req.PluginName))
		packParam(buf, cnctPluginList, []byte(req.PluginList))
		if len(req.SpecificData) > 0 {
			packSpecificData(buf, req.SpecificData)
		}
		packParam(buf, cnctClientCrypt, encodeClientCrypt(req.WireCrypt))
	}

	packParam(buf, cnctUser, []byte(osUser))
	packParam(buf, cnctHost, []byte(host))
	packParam(buf, cnctUserVerification, nil)

	return buf.Bytes()
}

func encodeClientCrypt(wireCrypt bool) []byte {
	if wireCrypt {
		return []byte{0, 0, 0, 1}
	}
	return []byte{0, 0, 0, 0}
}

// packParam appends a single [tag, len, value] triple.
func packParam(buf *bytes.Buffer, tag byte, v []byte) {
	buf.WriteByte(tag)
	buf.WriteByte(byte(len(v)))
	buf.Write(v)
}

// packSpecificData splits v into specificDataChunkSize-byte chunks, each
// prefixed [CNCT_specific_data, 255, chunk_index], with the final chunk
// tagged [CNCT_specific_data, len+1, chunk_index].
func packSpecificData(buf *bytes.Buffer, v []byte) {
	i := byte(0)
	for len(v) > specificDataChunkSize {
		buf.WriteByte(cnctSpecificData)
		buf.WriteByte(255)
		buf.WriteByte(i)
		buf.Write(v[:specificDataChunkSize])
		v = v[specificDataChunkSize:]
		i++
	}
	buf.WriteByte(cnctSpecificData)
	buf.WriteByte(byte(len(v) + 1))
	buf.WriteByte(i)
	buf.Write(v)
}

// EnvUser and EnvHost read the OS-reported user/host names the uid block
// embeds.
func EnvUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

func EnvHost() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return os.Getenv("COMPUTERNAME")
}
