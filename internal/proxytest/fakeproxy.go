package proxytest

import (
	"bufio"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// DefaultConnectResponse is the success response of a well-behaved CONNECT
// proxy.
const DefaultConnectResponse = "HTTP/1.1 200 Connection Established\r\n\r\n"

// GenerateCert creates a self-signed server certificate for host and the
// pool trusting it.
func GenerateCert(t *testing.T, host string) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: host},
		DNSNames:              []string{host},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("failed to parse certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, pool
}

// ConnectProxy is a scripted HTTP CONNECT proxy for tests.
type ConnectProxy struct {
	// Response is written after the CONNECT request has been consumed.
	// Defaults to DefaultConnectResponse.
	Response string

	// Cert, when non-nil, makes the proxy run a TLS echo server on the
	// tunnel after a granting response, simulating the target.
	Cert *tls.Certificate

	listener net.Listener

	mu       sync.Mutex
	requests []string
}

// Start begins accepting on a loopback port and returns the proxy address.
// The listener is closed via t.Cleanup.
func (p *ConnectProxy) Start(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	p.listener = listener
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go p.serve(conn)
		}
	}()
	return listener.Addr().String()
}

// Requests returns the CONNECT request lines received so far.
func (p *ConnectProxy) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

func (p *ConnectProxy) serve(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	requestLine, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	p.mu.Lock()
	p.requests = append(p.requests, strings.TrimRight(requestLine, "\r\n"))
	p.mu.Unlock()

	// Drain headers up to the blank line.
	for {
		line, err := reader.ReadString('\n')
		if err != nil || line == "\r\n" || line == "\n" {
			break
		}
	}

	response := p.Response
	if response == "" {
		response = DefaultConnectResponse
	}
	if _, err := io.WriteString(conn, response); err != nil {
		return
	}

	if p.Cert != nil && strings.Contains(strings.SplitN(response, "\r\n", 2)[0], " 200 ") {
		serveTLSEcho(conn, *p.Cert)
	}
}

// SocksProxy is a scripted SOCKS5 proxy for tests.
type SocksProxy struct {
	// MethodReply is the two-byte method selection. Defaults to {5, 0}.
	MethodReply []byte

	// ConnectReply is the reply to the connect request. Defaults to a
	// success reply with an IPv4 bound address.
	ConnectReply []byte

	// Cert, when non-nil, makes the proxy run a TLS echo server on the
	// tunnel after a success reply, simulating the target.
	Cert *tls.Certificate

	listener net.Listener

	mu                 sync.Mutex
	bytesAfterGreeting int
}

// Start begins accepting on a loopback port and returns the proxy address.
func (p *SocksProxy) Start(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	p.listener = listener
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go p.serve(conn)
		}
	}()
	return listener.Addr().String()
}

// BytesAfterGreeting reports how many request bytes the client sent after
// the method selection was written. Used to assert that an auth rejection
// stops the client cold.
func (p *SocksProxy) BytesAfterGreeting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytesAfterGreeting
}

func (p *SocksProxy) serve(conn net.Conn) {
	defer conn.Close()

	// Greeting: VER NMETHODS METHODS...
	var hdr [2]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return
	}
	methods := make([]byte, int(hdr[1]))
	if _, err := io.ReadFull(conn, methods); err != nil {
		return
	}

	methodReply := p.MethodReply
	if methodReply == nil {
		methodReply = []byte{0x05, 0x00}
	}
	if _, err := conn.Write(methodReply); err != nil {
		return
	}

	if len(methodReply) == 2 && methodReply[1] != 0x00 {
		// Refused auth: count whatever the client still sends.
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		buf := make([]byte, 512)
		n, _ := conn.Read(buf)
		p.mu.Lock()
		p.bytesAfterGreeting = n
		p.mu.Unlock()
		return
	}

	// Connect request: VER CMD RSV ATYP then a domain-form address.
	var req [5]byte
	if _, err := io.ReadFull(conn, req[:]); err != nil {
		return
	}
	rest := make([]byte, int(req[4])+2)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return
	}

	connectReply := p.ConnectReply
	if connectReply == nil {
		connectReply = []byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
	}
	if _, err := conn.Write(connectReply); err != nil {
		return
	}

	if p.Cert != nil && len(connectReply) >= 2 && connectReply[1] == 0x00 {
		serveTLSEcho(conn, *p.Cert)
	}
}

// serveTLSEcho upgrades conn to a TLS server session and echoes every byte
// back to the client.
func serveTLSEcho(conn net.Conn, cert tls.Certificate) {
	tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
	if err := tlsConn.Handshake(); err != nil {
		return
	}
	defer tlsConn.Close()

	buf := make([]byte, 4096)
	for {
		n, err := tlsConn.Read(buf)
		if n > 0 {
			if _, werr := tlsConn.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
