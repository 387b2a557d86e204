package client

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"

	"github.com/pkg/errors"
)

// newTransport returns the transport used by the client; the ca file
// enables server verification against it and the crt/key pair enables
// mutual tls, each is optional
func newTransport(sslCaFile, sslCrtFile, sslKeyFile string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if sslCaFile == "" && sslCrtFile == "" && sslKeyFile == "" {
		return transport, nil
	}
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if sslCaFile != "" {
		bytes, err := os.ReadFile(sslCaFile)
		if err != nil {
			return nil, errors.Wrap(err, "SSL_CA_FILE")
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(bytes) {
			return nil, errors.Errorf("no certificates found in: %s", sslCaFile)
		}
		tlsConfig.RootCAs = caCertPool
	}
	switch {
	case sslCrtFile != "" && sslKeyFile != "":
		certificate, err := tls.LoadX509KeyPair(sslCrtFile, sslKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "SSL_CRT_FILE/SSL_KEY_FILE")
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
	case sslCrtFile != "" || sslKeyFile != "":
		return nil, errors.New("SSL_CRT_FILE and SSL_KEY_FILE must be provided together")
	}
	transport.TLSClientConfig = tlsConfig
	return transport, nil
}
