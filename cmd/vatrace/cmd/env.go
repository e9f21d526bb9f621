package cmd

import (
	"strings"

	"github.com/thesyncim/vatrace"
)

const ldPreload = "LD_PRELOAD"

// preloadEnv returns environ with lib placed first in LD_PRELOAD and the
// VATRACE_* variables replaced by cfg. Existing preload entries are kept
// after lib; a previous occurrence of lib is dropped.
func preloadEnv(environ []string, lib string, cfg vatrace.Config) []string {
	override := cfg.Environ()
	overridden := make(map[string]bool, len(override))
	for _, kv := range override {
		overridden[envKey(kv)] = true
	}

	out := make([]string, 0, len(environ)+len(override)+1)
	preload := []string{lib}
	for _, kv := range environ {
		key := envKey(kv)
		switch {
		case key == ldPreload:
			for _, p := range strings.FieldsFunc(strings.TrimPrefix(kv, ldPreload+"="), isPreloadSep) {
				if p != lib {
					preload = append(preload, p)
				}
			}
		case overridden[key]:
		default:
			out = append(out, kv)
		}
	}

	out = append(out, ldPreload+"="+strings.Join(preload, ":"))
	return append(out, override...)
}

// ld.so accepts both spaces and colons between LD_PRELOAD entries.
func isPreloadSep(r rune) bool { return r == ':' || r == ' ' }

func envKey(kv string) string {
	if i := strings.IndexByte(kv, '='); i >= 0 {
		return kv[:i]
	}
	return kv
}
