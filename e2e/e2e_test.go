//go:build e2e

package e2e_test

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rogpeppe/go-internal/testscript"
)

const (
	channelName = "conda-forge"
	platform    = "linux-64"
	noarch      = "noarch"
)

var vivaBinary string

func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "viva-e2e-*")
	if err != nil {
		panic(err)
	}

	vivaBinary = filepath.Join(tmpDir, "viva")

	//nolint:gosec // Building binary with static arguments, not user input
	cmd := exec.Command("go", "build", "-o", vivaBinary, "./cmd/viva")
	cmd.Dir = ".."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		panic("failed to build viva binary: " + err.Error())
	}

	exitCode := m.Run()

	_ = os.RemoveAll(tmpDir)

	os.Exit(exitCode)
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   "testdata",
		Setup: setupE2E,
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"publish": cmdPublish,
		},
	})
}

type channelKey struct{}

func setupE2E(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	binDir := filepath.Dir(vivaBinary)
	currentPath := env.Getenv("PATH")
	env.Setenv("PATH", binDir+string(os.PathListSeparator)+currentPath)

	homeDir := filepath.Join(env.WorkDir, ".home")
	if err := os.MkdirAll(homeDir, 0o750); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_DATA_HOME", filepath.Join(homeDir, ".local", "share"))
	env.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	env.Setenv("XDG_CACHE_HOME", filepath.Join(homeDir, ".cache"))

	ch := newFixtureChannel()
	if err := ch.seed(); err != nil {
		return err
	}
	srv := httptest.NewServer(ch)
	env.Defer(srv.Close)
	env.Values[channelKey{}] = ch

	config := "default_channels:\n  - " + channelName + "\n" +
		"channel_alias: " + srv.URL + "\n" +
		"platform: " + platform + "\n"
	configFile := filepath.Join(homeDir, "viva.yaml")
	if err := os.WriteFile(configFile, []byte(config), 0o600); err != nil {
		return err
	}
	env.Setenv("VIVA_CONFIG", configFile)

	return nil
}

// cmdPublish adds a package to the script's channel:
//
//	publish <subdir> <name> <version> <build> [depends...]
func cmdPublish(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! publish")
	}
	if len(args) < 4 {
		ts.Fatalf("usage: publish subdir name version build [depends...]")
	}
	ch, ok := ts.Value(channelKey{}).(*fixtureChannel)
	if !ok {
		ts.Fatalf("no fixture channel")
	}
	pkg := fixturePackage{
		subdir:  args[0],
		name:    args[1],
		version: args[2],
		build:   args[3],
		depends: args[4:],
		files: map[string]string{
			"lib/site-packages/" + args[1] + "/__init__.py": "__version__ = \"" + args[2] + "\"\n",
		},
	}
	ts.Check(ch.publish(pkg))
}

type fixturePackage struct {
	subdir  string
	name    string
	version string
	build   string
	depends []string
	files   map[string]string
}

func (p fixturePackage) filename() string {
	return p.name + "-" + p.version + "-" + p.build + ".tar.gz"
}

type repodataRecord struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	SHA256      string   `json:"sha256"`
	Size        int64    `json:"size"`
	Subdir      string   `json:"subdir"`
}

// fixtureChannel serves a single conda channel from memory.
type fixtureChannel struct {
	mu       sync.Mutex
	archives map[string][]byte
	index    map[string]map[string]repodataRecord
}

func newFixtureChannel() *fixtureChannel {
	return &fixtureChannel{
		archives: make(map[string][]byte),
		index:    make(map[string]map[string]repodataRecord),
	}
}

func (c *fixtureChannel) seed() error {
	pkgs := []fixturePackage{
		{
			subdir: platform, name: "python", version: "3.12.0", build: "h0_0",
			files: map[string]string{
				"bin/python":   "#!/bin/sh\necho \"Python 3.12.0\"\n",
				"lib/os.py":    "sep = \"/\"\n",
				"info/LICENSE": "PSF\n",
			},
		},
		{
			subdir: noarch, name: "requests", version: "2.31.0", build: "py_0",
			depends: []string{"python >=3.12"},
			files: map[string]string{
				"lib/site-packages/requests/__init__.py": "__version__ = \"2.31.0\"\n",
			},
		},
		{
			subdir: noarch, name: "cookiecutter", version: "2.6.0", build: "py_0",
			depends: []string{"python >=3.12", "requests >=2.23"},
			files: map[string]string{
				"bin/cookiecutter": "#!/bin/sh\necho \"cookiecutter 2.6.0 $*\"\n",
			},
		},
	}
	for _, p := range pkgs {
		if err := c.publish(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *fixtureChannel) publish(p fixturePackage) error {
	data, err := tarGz(p.files)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)

	c.mu.Lock()
	defer c.mu.Unlock()
	fn := p.filename()
	c.archives[p.subdir+"/"+fn] = data
	if c.index[p.subdir] == nil {
		c.index[p.subdir] = make(map[string]repodataRecord)
	}
	c.index[p.subdir][fn] = repodataRecord{
		Name:    p.name,
		Version: p.version,
		Build:   p.build,
		Depends: p.depends,
		SHA256:  hex.EncodeToString(sum[:]),
		Size:    int64(len(data)),
		Subdir:  p.subdir,
	}
	return nil
}

func (c *fixtureChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/"+channelName+"/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	subdir, file, _ := strings.Cut(rest, "/")

	c.mu.Lock()
	defer c.mu.Unlock()

	if file == "repodata.json" {
		packages, ok := c.index[subdir]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"info":     map[string]string{"subdir": subdir},
			"packages": packages,
		})
		return
	}

	data, ok := c.archives[rest]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func tarGz(files map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range files {
		mode := int64(0o644)
		if strings.HasPrefix(name, "bin/") {
			mode = 0o755
		}
		hdr := &tar.Header{Name: name, Mode: mode, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
