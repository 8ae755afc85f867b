package tls

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// keyPairReloader 持有当前证书，文件变化时原子替换
type keyPairReloader struct {
	certPath string
	keyPath  string

	cert atomic.Pointer[tls.Certificate]

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func newKeyPairReloader(certPath, keyPath string) (*keyPairReloader, error) {
	r := &keyPairReloader{
		certPath: filepath.Clean(certPath),
		keyPath:  filepath.Clean(keyPath),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *keyPairReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certPath, r.keyPath)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrLoadKeyPair, r.certPath, err)
	}
	r.cert.Store(&cert)
	return nil
}

func (r *keyPairReloader) certificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

func (r *keyPairReloader) clientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// watch 监听证书与私钥所在目录
//
// 监听目录而不是文件：证书轮换通常以重命名替换文件，文件级监听会丢失。
func (r *keyPairReloader) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: watcher: %w", ErrLoadKeyPair, err)
	}

	dirs := map[string]struct{}{
		filepath.Dir(r.certPath): {},
		filepath.Dir(r.keyPath):  {},
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("%w: watch %s: %w", ErrLoadKeyPair, dir, err)
		}
	}

	r.watcher = w
	r.done = make(chan struct{})
	go r.loop()
	return nil
}

func (r *keyPairReloader) loop() {
	defer close(r.done)

	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !r.relevant(ev) {
				continue
			}
			if err := r.reload(); err != nil {
				// 证书与私钥可能尚未全部写完，下一个事件会再次尝试
				log.Warn("certificate reload failed, keeping previous", "cert", r.certPath, "err", err)
				continue
			}
			log.Info("certificate reloaded", "cert", r.certPath)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("certificate watcher error", "err", err)
		}
	}
}

func (r *keyPairReloader) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == r.certPath || name == r.keyPath
}

func (r *keyPairReloader) close() error {
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	<-r.done
	return err
}
