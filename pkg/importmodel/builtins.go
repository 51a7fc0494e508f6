package importmodel

import "strings"

// nodeSchemePrefix is the explicit scheme for Node.js built-in modules.
const nodeSchemePrefix = "node:"

// builtinModules mirrors Node.js module.builtinModules.
var builtinModules = map[string]struct{}{
	"_http_agent": {}, "_http_client": {}, "_http_common": {}, "_http_incoming": {},
	"_http_outgoing": {}, "_http_server": {}, "_stream_duplex": {}, "_stream_passthrough": {},
	"_stream_readable": {}, "_stream_transform": {}, "_stream_wrap": {}, "_stream_writable": {},
	"_tls_common": {}, "_tls_wrap": {},
	"assert": {}, "assert/strict": {}, "async_hooks": {}, "buffer": {}, "child_process": {},
	"cluster": {}, "console": {}, "constants": {}, "crypto": {}, "dgram": {},
	"diagnostics_channel": {}, "dns": {}, "dns/promises": {}, "domain": {}, "events": {},
	"fs": {}, "fs/promises": {}, "http": {}, "http2": {}, "https": {}, "inspector": {},
	"inspector/promises": {}, "module": {}, "net": {}, "os": {}, "path": {}, "path/posix": {},
	"path/win32": {}, "perf_hooks": {}, "process": {}, "punycode": {}, "querystring": {},
	"readline": {}, "readline/promises": {}, "repl": {}, "stream": {}, "stream/consumers": {},
	"stream/promises": {}, "stream/web": {}, "string_decoder": {}, "sys": {}, "timers": {},
	"timers/promises": {}, "tls": {}, "trace_events": {}, "tty": {}, "url": {}, "util": {},
	"util/types": {}, "v8": {}, "vm": {}, "wasi": {}, "worker_threads": {}, "zlib": {},
}

// schemeOnlyModules are only reachable through the node: scheme.
var schemeOnlyModules = map[string]struct{}{
	"sea": {}, "sqlite": {}, "test": {}, "test/reporters": {},
}

// IsBuiltin reports whether spec names a Node.js built-in module,
// with or without the node: scheme.
func IsBuiltin(spec string) bool {
	if name, ok := strings.CutPrefix(spec, nodeSchemePrefix); ok {
		if _, found := schemeOnlyModules[name]; found {
			return true
		}

		spec = name
	}

	_, found := builtinModules[spec]

	return found
}
