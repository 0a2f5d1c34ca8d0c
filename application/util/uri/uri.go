package uri

import (
	"net"
	"strconv"
	"strings"

	"http-conformance/application/http/failure"
	"http-conformance/application/util/rfc"
	"http-conformance/lib/types/pointer"

	"github.com/pkg/errors"
)

// URI is an absolute URI decomposed in a single pass by [Parse].
// It is never partially valid.
type URI struct {
	// Scheme is kept as received. Case-folding is up to the caller.
	Scheme    string
	Authority *Authority

	// Path is nil only when there is no authority and nothing follows the scheme.
	// A URI with authority but without '/' has an empty, non-nil path.
	Path     *string
	Query    *string
	Fragment *string
}

type Authority struct {
	UserInfo *string
	Host     string

	// NOTE: RFC 3986 allows a port of any length,
	// but we only connect to ports that fit into uint16.
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
	Port *uint16

	// IPv4 is set when Host matched IPv4address rather than reg-name.
	IPv4 bool
}

// Parse decomposes input into its components.
// Errors are either [*rfc.Violation] or wrap [failure.ErrUnsupported].
func Parse(input string) (URI, error) {
	var uri URI

	rest := input
	if idx := strings.LastIndexByte(rest, '#'); idx >= 0 {
		// Fragment is extracted as-is.
		uri.Fragment = pointer.To(rest[idx+1:])
		rest = rest[:idx]
	}

	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		// Query is extracted as-is.
		uri.Query = pointer.To(rest[idx+1:])
		rest = rest[:idx]
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return URI{}, rfc.New(rfc.RFC3986Sec1, input, rfc.NoPosition, "scheme part not found")
	}
	if colon == 0 {
		return URI{}, rfc.New(rfc.RFC3986Sec1, input, 0, "scheme part not found (empty scheme)")
	}

	uri.Scheme = rest[:colon]
	if v := checkScheme(uri.Scheme); v != nil {
		return URI{}, v
	}

	offset := colon + 1
	rest = rest[offset:]

	if !strings.HasPrefix(rest, "//") {
		// No authority. Everything else is the path.
		if v := checkPath(rest); v != nil {
			return URI{}, v.Shift(offset)
		}
		if rest != "" {
			uri.Path = pointer.To(rest)
		}
		return uri, nil
	}

	offset += 2
	rawAuthority, path := rest[2:], ""
	if idx := strings.IndexByte(rawAuthority, '/'); idx >= 0 {
		rawAuthority, path = rawAuthority[:idx], rawAuthority[idx:]
	}

	authority, err := parseAuthority(rawAuthority, offset)
	if err != nil {
		return URI{}, err
	}
	uri.Authority = &authority

	if v := checkPath(path); v != nil {
		return URI{}, v.Shift(offset + len(rawAuthority))
	}
	uri.Path = pointer.To(path)

	return uri, nil
}

// parseAuthority parses authority located at offset of the original input.
func parseAuthority(raw string, offset int) (Authority, error) {
	var authority Authority

	hostPort := raw
	if idx := strings.IndexByte(raw, '@'); idx >= 0 {
		userInfo := raw[:idx]
		if v := checkUserInfo(userInfo); v != nil {
			return Authority{}, v.Shift(offset)
		}
		authority.UserInfo = pointer.To(userInfo)

		hostPort = raw[idx+1:]
		offset += idx + 1
	}

	if strings.HasPrefix(hostPort, "[") {
		return Authority{}, errors.Wrapf(failure.ErrUnsupported,
			"IP-literal host %q is not supported (%s)", hostPort, rfc.RFC3986Sec3_2_2)
	}

	host := hostPort
	if idx := strings.LastIndexByte(hostPort, ':'); idx >= 0 {
		host = hostPort[:idx]

		port, hasPort, v := parsePort(hostPort[idx+1:])
		if v != nil {
			return Authority{}, v.Shift(offset + idx + 1)
		}
		if hasPort {
			authority.Port = pointer.To(port)
		}
	}

	if isIPv4(host) {
		authority.IPv4 = true
	} else if v := checkRegName(host); v != nil {
		return Authority{}, v.Shift(offset)
	}
	authority.Host = host

	return authority, nil
}

// parsePort validates port = *DIGIT. An empty port means there is no port.
func parsePort(s string) (port uint16, hasPort bool, v *rfc.Violation) {
	if s == "" {
		return 0, false, nil
	}

	for idx := 0; idx < len(s); idx++ {
		if !isDigit(s[idx]) {
			return 0, false, rfc.Newf(rfc.RFC3986Sec3_2_3, s[idx:idx+1], idx,
				"port contains non-DIGIT character %q", s[idx])
		}
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, rfc.New(rfc.RFC3986Sec3_2_3, s, 0, "port is out of range(0~65535)")
	}

	return uint16(n), true, nil
}

// CombinedPath returns the origin-form request target: path and query.
// An empty or absent path becomes "/", a rootless one gets a leading "/".
//
// Reference: https://datatracker.ietf.org/doc/html/rfc7230#section-5.3.1
func (u *URI) CombinedPath() string {
	b := new(strings.Builder)
	if u.Path == nil || *u.Path == "" {
		b.WriteByte('/')
	} else {
		if (*u.Path)[0] != '/' {
			b.WriteByte('/')
		}
		b.WriteString(*u.Path)
	}

	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(*u.Query)
	}

	return b.String()
}

func (u *URI) Host() string {
	if u.Authority == nil {
		return ""
	}
	return u.Authority.Host
}

// IsSecure reports whether the scheme asks for TLS.
func (u *URI) IsSecure() bool { return strings.EqualFold(u.Scheme, "https") }

// DefaultPort returns well-known port of the scheme, or 0 if unknown.
func (u *URI) DefaultPort() uint16 {
	switch strings.ToLower(u.Scheme) {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}

// EffectivePort returns explicit port if present, otherwise [URI.DefaultPort].
func (u *URI) EffectivePort() uint16 {
	if u.Authority != nil && u.Authority.Port != nil {
		return *u.Authority.Port
	}
	return u.DefaultPort()
}

// HostPort formats the authority for a Host header or a CONNECT target.
// The port is omitted when it was not given.
func (u *URI) HostPort() string {
	if u.Authority == nil {
		return ""
	}
	if u.Authority.Port == nil {
		return u.Authority.Host
	}
	return net.JoinHostPort(u.Authority.Host, strconv.FormatUint(uint64(*u.Authority.Port), 10))
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	b := new(strings.Builder)
	b.WriteString(u.Scheme)
	b.WriteByte(':')

	if u.Authority != nil {
		b.WriteString("//")
		if u.Authority.UserInfo != nil {
			b.WriteString(*u.Authority.UserInfo)
			b.WriteByte('@')
		}
		b.WriteString(u.Authority.Host)
		if u.Authority.Port != nil {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(*u.Authority.Port), 10))
		}
	}

	if u.Path != nil {
		b.WriteString(*u.Path)
	}

	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(*u.Query)
	}

	if u.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*u.Fragment)
	}

	return b.String()
}
