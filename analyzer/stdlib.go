package analyzer

// stdlibModules is the fixed allow-list of standard-library top-level module
// names. Imports whose root is listed here never count as external
// dependencies.
var stdlibModules = map[string]struct{}{
	"abc": {}, "argparse": {}, "ast": {}, "asyncio": {}, "base64": {},
	"collections": {}, "concurrent": {}, "contextlib": {}, "copy": {},
	"dataclasses": {}, "datetime": {}, "decimal": {}, "enum": {},
	"functools": {}, "hashlib": {}, "http": {}, "importlib": {},
	"inspect": {}, "io": {}, "itertools": {}, "json": {}, "logging": {},
	"math": {}, "os": {}, "pathlib": {}, "pickle": {}, "re": {},
	"shutil": {}, "socket": {}, "sqlite3": {}, "subprocess": {}, "sys": {},
	"tempfile": {}, "threading": {}, "time": {}, "traceback": {},
	"typing": {}, "unittest": {}, "urllib": {}, "uuid": {}, "warnings": {},
	"weakref": {},
}

func isStdlibModule(name string) bool {
	_, ok := stdlibModules[name]
	return ok
}
