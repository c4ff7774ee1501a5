package fsport

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/logger"
)

var log = logger.New("fsport:remote")

// Remote implements FileSystem over a single SSH destination ("user@host"
// or "host"), shelling out to ssh/rsync/scp (spec §1 "SSH/rsync/scp
// invocation for remote targets are specified only at the port level").
type Remote struct {
	destination string

	homeOnce sync.Once
	home     string
	homeErr  error
}

// NewRemote returns a Remote filesystem bound to destination.
func NewRemote(destination string) *Remote {
	return &Remote{destination: destination}
}

func (r *Remote) DisplayName() string { return r.destination }

// remoteHome fetches and memoizes the remote $HOME (spec §9: "Remote
// destinations cache the remote $HOME behind an exclusive-access memo").
func (r *Remote) remoteHome() (string, error) {
	r.homeOnce.Do(func() {
		out, err := r.run("echo $HOME", "")
		if err != nil {
			r.homeErr = err
			return
		}
		r.home = strings.TrimSpace(out)
	})
	return r.home, r.homeErr
}

func (r *Remote) ExpandHome(path string) string {
	home, err := r.remoteHome()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return home + "/" + rest
	}
	return path
}

func quotePath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

func (r *Remote) run(command, stdin string) (string, error) {
	cmd := exec.Command("ssh", r.destination, command)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &Error{Kind: Other, Path: r.destination, Err: fmt.Errorf("ssh %s: %s", command, stderr.String())}
	}
	return stdout.String(), nil
}

func (r *Remote) Exists(path string) bool {
	resolved := r.ExpandHome(path)
	out, err := r.run(fmt.Sprintf("test -e %s && echo 1 || echo 0", quotePath(resolved)), "")
	return err == nil && strings.TrimSpace(out) == "1"
}

func (r *Remote) Read(path string) (string, error) {
	resolved := r.ExpandHome(path)
	return r.run(fmt.Sprintf("cat %s", quotePath(resolved)), "")
}

func (r *Remote) Hash(path string) (string, error) {
	content, err := r.Read(path)
	if err != nil {
		return "", err
	}
	return asset.HashContent([]byte(content)), nil
}

func (r *Remote) MkdirAll(path string) error {
	resolved := r.ExpandHome(path)
	_, err := r.run(fmt.Sprintf("mkdir -p %s", quotePath(resolved)), "")
	return err
}

func (r *Remote) Write(path, content string) error {
	resolved := r.ExpandHome(path)
	dir := parentDir(resolved)
	if dir != "" {
		if _, err := r.run(fmt.Sprintf("mkdir -p %s", quotePath(dir)), ""); err != nil {
			return err
		}
	}
	_, err := r.run(fmt.Sprintf("cat > %s", quotePath(resolved)), content)
	return err
}

func (r *Remote) Remove(path string) error {
	resolved := r.ExpandHome(path)
	_, err := r.run(fmt.Sprintf("rm -f %s", quotePath(resolved)), "")
	return err
}

func parentDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// ProbeResult is one path's batched existence/hash probe outcome
// (spec §4.5 Stage 1 "For remote destinations, classification uses a
// batched hash probe").
type ProbeResult struct {
	Exists bool
	Hash   string // empty when Exists is false
}

// BatchProbe checks every path's existence and content hash in a single SSH
// round-trip: the probe script emits "0" for absent paths and "1 <hex>" for
// present ones, one line per queried path, and the client preserves input
// order (spec §4.5 "one round-trip per plan, not per file").
func (r *Remote) BatchProbe(paths []string) (map[string]ProbeResult, error) {
	results := make(map[string]ProbeResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	for _, p := range paths {
		resolved := quotePath(r.ExpandHome(p))
		script.WriteString(fmt.Sprintf(
			"if [ -e %s ]; then h=$(sha256sum %s 2>/dev/null | cut -d' ' -f1 || shasum -a 256 %s 2>/dev/null | cut -d' ' -f1); echo \"1 $h\"; else echo 0; fi\n",
			resolved, resolved, resolved))
	}

	out, err := r.run("sh", script.String())
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, p := range paths {
		if i >= len(lines) {
			results[p] = ProbeResult{Exists: false}
			continue
		}
		line := strings.TrimSpace(lines[i])
		if line == "0" || line == "" {
			results[p] = ProbeResult{Exists: false}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "1 "); ok {
			hex := strings.TrimSpace(rest)
			if hex == "" {
				results[p] = ProbeResult{Exists: true}
				continue
			}
			results[p] = ProbeResult{Exists: true, Hash: "sha256:" + hex}
			continue
		}
		results[p] = ProbeResult{Exists: true}
	}
	return results, nil
}

// hasWorkingRsync reports whether a local "rsync" binary is available,
// used by the sync engine's batch strategy decision (spec §4.5
// "Batch strategy": "> 10 files and a working rsync").
func hasWorkingRsync() bool {
	_, err := exec.LookPath("rsync")
	return err == nil
}

// HasWorkingRsync is the exported form of hasWorkingRsync for callers in
// pkg/sync.
func HasWorkingRsync() bool { return hasWorkingRsync() }

// RsyncStage invokes one rsync for the whole staged directory to the remote
// destination's base directory (spec §4.5 "one rsync invocation").
func RsyncStage(localDir, destination, remoteBase string) error {
	args := []string{"-a", localDir + "/", destination + ":" + remoteBase + "/"}
	cmd := exec.Command("rsync", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Kind: Other, Path: remoteBase, Err: fmt.Errorf("rsync: %s", stderr.String())}
	}
	log.Printf("rsync staged %s -> %s:%s", localDir, destination, remoteBase)
	return nil
}

// ScpStage invokes one "scp -r" for the whole staged directory, after
// creating the remote base directory via a single "ssh mkdir -p" call
// (spec §4.5 "Windows / scp-only environments").
func ScpStage(localDir, destination, remoteBase string) error {
	if _, err := (&Remote{destination: destination}).run(fmt.Sprintf("mkdir -p %s", quotePath(remoteBase)), ""); err != nil {
		return err
	}
	args := []string{"-r", localDir + "/.", destination + ":" + remoteBase}
	cmd := exec.Command("scp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Kind: Other, Path: remoteBase, Err: fmt.Errorf("scp: %s", stderr.String())}
	}
	log.Printf("scp staged %s -> %s:%s", localDir, destination, remoteBase)
	return nil
}
