// Package walker implements the generic SNMP table-walking primitive the
// neighbor drivers are built on. It converts credentials into live gosnmp
// sessions, manages a per-target connection pool, and executes GETNEXT-based
// lock-step column walks with correct end-of-table detection.
package walker

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// ─────────────────────────────────────────────────────────────────────────────
// Credentials
// ─────────────────────────────────────────────────────────────────────────────

// Credential is one SNMP authentication attempt. The orchestrator retries
// steps across the configured credential list; the walker itself never does.
type Credential struct {
	// Version is the SNMP version: "1", "2c", or "3". Empty means "2c".
	Version string

	// Community is the community string (v1/v2c only).
	Community string

	// V3 holds SNMPv3 security parameters (v3 only).
	V3 *V3Credential
}

// V3Credential holds a single set of SNMPv3 security parameters.
type V3Credential struct {
	Username       string
	AuthProtocol   string // noauth, md5, sha, sha224, sha256, sha384, sha512
	AuthPassphrase string
	PrivProtocol   string // nopriv, des, aes, aes192, aes256, aes192c, aes256c
	PrivPassphrase string
}

// Label returns a short identifier for logs and pool keys. It never contains
// a passphrase.
func (c Credential) Label() string {
	if c.V3 != nil {
		return "v3:" + c.V3.Username
	}
	v := c.Version
	if v == "" {
		v = "2c"
	}
	return "v" + v + ":" + c.Community
}

// ─────────────────────────────────────────────────────────────────────────────
// Session options + factory
// ─────────────────────────────────────────────────────────────────────────────

// Options carries transport parameters for new sessions. Zero-value fields
// fall back to documented defaults.
type Options struct {
	// Port is the SNMP UDP port (default 161).
	Port int

	// Timeout is the per-request timeout (default 3s).
	Timeout time.Duration

	// Retries is the number of retry attempts on timeout (default 2).
	Retries int
}

func (o *Options) defaults() {
	if o.Port <= 0 {
		o.Port = 161
	}
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 2
	}
}

// NewSession creates and connects a gosnmp session for target using the
// given credential. The caller is responsible for closing the connection
// when the session is no longer needed.
func NewSession(target string, cred Credential, opts Options) (*gosnmp.GoSNMP, error) {
	opts.defaults()

	g := &gosnmp.GoSNMP{
		Target:  target,
		Port:    uint16(opts.Port),
		Timeout: opts.Timeout,
		Retries: opts.Retries,
		MaxOids: 60,
	}

	version := cred.Version
	if version == "" {
		version = "2c"
	}
	switch version {
	case "1":
		g.Version = gosnmp.Version1
		g.Community = cred.Community
	case "2c":
		g.Version = gosnmp.Version2c
		g.Community = cred.Community
	case "3":
		g.Version = gosnmp.Version3
		g.SecurityModel = gosnmp.UserSecurityModel
		if cred.V3 == nil {
			return nil, fmt.Errorf("walker: v3 credential for %s has no security parameters", target)
		}
		g.MsgFlags = v3MsgFlags(*cred.V3)
		g.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 cred.V3.Username,
			AuthenticationProtocol:   mapAuthProto(cred.V3.AuthProtocol),
			AuthenticationPassphrase: cred.V3.AuthPassphrase,
			PrivacyProtocol:          mapPrivProto(cred.V3.PrivProtocol),
			PrivacyPassphrase:        cred.V3.PrivPassphrase,
		}
	default:
		return nil, fmt.Errorf("walker: unsupported SNMP version %q", cred.Version)
	}

	if err := g.Connect(); err != nil {
		return nil, fmt.Errorf("walker: connect %s:%d: %w", target, opts.Port, err)
	}
	return g, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SNMPv3 helpers
// ─────────────────────────────────────────────────────────────────────────────

func v3MsgFlags(cred V3Credential) gosnmp.SnmpV3MsgFlags {
	hasAuth := cred.AuthProtocol != "" && !strings.EqualFold(cred.AuthProtocol, "noauth")
	hasPriv := cred.PrivProtocol != "" && !strings.EqualFold(cred.PrivProtocol, "nopriv")

	switch {
	case hasAuth && hasPriv:
		return gosnmp.AuthPriv
	case hasAuth:
		return gosnmp.AuthNoPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func mapAuthProto(s string) gosnmp.SnmpV3AuthProtocol {
	switch strings.ToLower(s) {
	case "md5":
		return gosnmp.MD5
	case "sha":
		return gosnmp.SHA
	case "sha224":
		return gosnmp.SHA224
	case "sha256":
		return gosnmp.SHA256
	case "sha384":
		return gosnmp.SHA384
	case "sha512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func mapPrivProto(s string) gosnmp.SnmpV3PrivProtocol {
	switch strings.ToLower(s) {
	case "des":
		return gosnmp.DES
	case "aes":
		return gosnmp.AES
	case "aes192":
		return gosnmp.AES192
	case "aes256":
		return gosnmp.AES256
	case "aes192c":
		return gosnmp.AES192C
	case "aes256c":
		return gosnmp.AES256C
	default:
		return gosnmp.NoPriv
	}
}
