package mirsal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"

	utls "github.com/refraction-networking/utls"
)

// clientHellos are the browser fingerprints accepted by tls_hello.
var clientHellos = map[string]utls.ClientHelloID{
	"chrome":  utls.HelloChrome_Auto,
	"firefox": utls.HelloFirefox_Auto,
	"safari":  utls.HelloSafari_Auto,
	"edge":    utls.HelloEdge_Auto,
	"ios":     utls.HelloIOS_Auto,
}

// ClientHelloNames lists the accepted tls_hello values.
func ClientHelloNames() []string {
	names := make([]string, 0, len(clientHellos))
	for name := range clientHellos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newBaseTransport returns the transport under the mirsal round tripper.
// With an empty hello it is a clone of http.DefaultTransport; otherwise TLS
// connections are dialed with utls using the named browser ClientHello.
func newBaseTransport(hello string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if hello == "" {
		return transport, nil
	}
	helloID, ok := clientHellos[hello]
	if !ok {
		return nil, fmt.Errorf("unknown tls_hello %q", hello)
	}

	transport.ForceAttemptHTTP2 = false
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		tcpConn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		sniHost, _, err := net.SplitHostPort(addr)
		if err != nil {
			sniHost = addr
		}

		config := &utls.Config{
			ServerName: sniHost,
		}
		if transport.TLSClientConfig != nil {
			config.RootCAs = transport.TLSClientConfig.RootCAs
			config.InsecureSkipVerify = transport.TLSClientConfig.InsecureSkipVerify
		}

		uConn := utls.UClient(tcpConn, config, helloID)
		if err := uConn.BuildHandshakeState(); err != nil {
			tcpConn.Close()
			return nil, fmt.Errorf("building handshake state : %w", err)
		}

		// Browser hellos offer h2, which the transport cannot speak over a
		// custom dialer. Pin ALPN to http/1.1 before the handshake.
		foundALPN := false
		for _, ext := range uConn.Extensions {
			if alpnExt, ok := ext.(*utls.ALPNExtension); ok {
				alpnExt.AlpnProtocols = []string{"http/1.1"}
				foundALPN = true
				break
			}
		}
		if !foundALPN {
			tcpConn.Close()
			return nil, errors.New("could not find ALPNExtension")
		}

		if err := uConn.HandshakeContext(ctx); err != nil {
			tcpConn.Close()
			return nil, err
		}
		return uConn, nil
	}
	return transport, nil
}
