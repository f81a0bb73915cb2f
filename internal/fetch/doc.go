// Package fetch downloads donor pages over plain connections or
// through HTTP/HTTPS/SOCKS5 proxies.
//
// Requests imitate a desktop browser because donor sites frequently
// serve reduced pages to obvious bots. Response bodies go through a
// forgiving decode chain (content-encoding, charset detection, UTF-8
// repair) since donor servers are often misconfigured.
package fetch
