package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	pkgif "github.com/dep2p/go-quictun/pkg/interfaces"
)

// TestPKI 测试用证书集合：一个 CA 及其签发的服务端、客户端证书
//
// 服务端与客户端证书都包含 localhost、127.0.0.1 与 ::1。
type TestPKI struct {
	Dir    string
	Server pkgif.CertPaths
	Client pkgif.CertPaths

	caCert *x509.Certificate
	caKey  *ecdsa.PrivateKey
}

// GenerateTestPKI 在 dir 下生成测试证书（仅用于测试）
func GenerateTestPKI(dir string) (*TestPKI, error) {
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	caTemplate := &x509.Certificate{
		SerialNumber:          randomSerial(),
		Subject:               pkix.Name{CommonName: "quictun test CA"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}

	caPath := filepath.Join(dir, "ca.pem")
	if err := writePEM(caPath, "CERTIFICATE", caDER); err != nil {
		return nil, err
	}

	p := &TestPKI{
		Dir:    dir,
		caCert: caCert,
		caKey:  caKey,
		Server: pkgif.CertPaths{
			CA:   caPath,
			Cert: filepath.Join(dir, "server.pem"),
			Key:  filepath.Join(dir, "server-key.pem"),
		},
		Client: pkgif.CertPaths{
			CA:   caPath,
			Cert: filepath.Join(dir, "client.pem"),
			Key:  filepath.Join(dir, "client-key.pem"),
		},
	}
	if err := p.Issue(p.Server, "quictun test server"); err != nil {
		return nil, err
	}
	if err := p.Issue(p.Client, "quictun test client"); err != nil {
		return nil, err
	}
	return p, nil
}

// Issue 用 CA 签发新证书并写入 paths.Cert / paths.Key，覆盖已有文件
func (p *TestPKI) Issue(paths pkgif.CertPaths, commonName string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: randomSerial(),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, p.caCert, &key.PublicKey, p.caKey)
	if err != nil {
		return err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	// 先写私钥再写证书：监听方在证书事件到达时能读到匹配的私钥
	if err := writePEM(paths.Key, "EC PRIVATE KEY", keyDER); err != nil {
		return err
	}
	return writePEM(paths.Cert, "CERTIFICATE", der)
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func randomSerial() *big.Int {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return big.NewInt(time.Now().UnixNano())
	}
	return n
}
