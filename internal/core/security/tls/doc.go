// Package tls 从 PEM 文件构建隧道两端的 mTLS 配置
//
// 两端使用同一 CA 签发的证书：
//
//   - 客户端：RootCAs 为 CA，握手时出示本端证书
//   - 服务端：ClientCAs 为 CA，要求并校验客户端证书
//
// 最低版本 TLS 1.3（QUIC 的要求）。证书加载失败返回包装 types.ErrTLS 的错误。
//
// # 热加载
//
// 启用 WithWatch 后，FileCertStore 用 fsnotify 监听证书所在目录，
// 证书或私钥文件变化时重新加载；新连接使用新证书，已建立的连接不受影响。
// 重新加载失败时保留上一份证书。
//
//	store := tls.NewFileCertStore(tls.WithWatch(true))
//	defer store.Close()
//
//	conf, pool, err := store.ClientConfig(paths)
package tls
