// Package proxytest provides in-process fakes for testing the proxied
// transport: scripted HTTP CONNECT and SOCKS5 proxy servers, a loopback TLS
// echo target, and a descriptor-counting dialer for leak checks.
package proxytest
