package secure

import (
	"crypto/x509"
	"fmt"
	"os"
)

// TrustBundle assembles the root certificate pool used to validate the
// target's chain. With an empty caFile the system roots are returned.
// Otherwise the PEM file is loaded and either appended to the system roots
// or, with replaceSystem set, used on its own.
func TrustBundle(caFile string, replaceSystem bool) (*x509.CertPool, error) {
	var pool *x509.CertPool
	if replaceSystem {
		pool = x509.NewCertPool()
	} else {
		var err error
		pool, err = x509.SystemCertPool()
		if err != nil {
			return nil, &TrustError{Cause: err}
		}
	}

	if caFile == "" {
		return pool, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, &TrustError{Path: caFile, Cause: err}
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, &TrustError{Path: caFile, Cause: fmt.Errorf("no certificates parsed")}
	}
	return pool, nil
}
