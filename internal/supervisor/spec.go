package supervisor

import (
	"os"
	"os/exec"
	"sort"
)

// Spec is an immutable description of a process to launch: executable path,
// ordered arguments, working directory and environment overrides. Specs are
// built fresh for every launch from current path-resolution results and are
// never reused across spawns.
type Spec struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string
}

// buildCommand constructs a fresh *exec.Cmd for this spec. Environment
// overrides are appended to the inherited environment so later entries win.
func (s Spec) buildCommand() *exec.Cmd {
	// #nosec G204 -- path comes from the resolver or operator config
	cmd := exec.Command(s.Path, s.Args...)
	if s.Dir != "" {
		cmd.Dir = s.Dir
	}
	if len(s.Env) > 0 {
		env := os.Environ()
		keys := make([]string, 0, len(s.Env))
		for k := range s.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+s.Env[k])
		}
		cmd.Env = env
	}
	setSysProcAttr(cmd)
	return cmd
}
