package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/inamate/infomap/internal/document"
)

const (
	ConfigFile = "config.json"
	ImagesDir  = "images"

	// TimeFormat is the UTC stamp written to last_modified.
	TimeFormat = "2006-01-02T15:04:05Z"
)

// Store keeps projects as directories under a root:
//
//	<root>/<name>/config.json
//	<root>/<name>/images/<files>
//
// It is safe for concurrent use.
type Store struct {
	root     string
	defaults document.Defaults
	now      func() time.Time

	mu sync.Mutex
	// digest of the last config written per project, last_modified excluded
	digests map[string][blake2b.Size256]byte
}

func NewStore(root string, defaults document.Defaults) *Store {
	return &Store{
		root:     root,
		defaults: defaults,
		now:      time.Now,
		digests:  make(map[string][blake2b.Size256]byte),
	}
}

// Summary is a project as listed by List.
type Summary struct {
	Name         string `json:"name"`
	LastModified string `json:"lastModified,omitempty"`
	Areas        int    `json:"areas"`
	Images       int    `json:"images"`
}

func (s *Store) Root() string                    { return s.root }
func (s *Store) Defaults() document.Defaults     { return s.defaults }
func (s *Store) Dir(name string) string          { return filepath.Join(s.root, name) }
func (s *Store) ConfigPath(name string) string   { return filepath.Join(s.root, name, ConfigFile) }
func (s *Store) ImagesDir(name string) string    { return filepath.Join(s.root, name, ImagesDir) }
func (s *Store) ImagePath(name, p string) string { return filepath.Join(s.ImagesDir(name), p) }

// ValidateName rejects names that are empty or would escape the root.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "",
		name == ".", name == "..",
		strings.HasPrefix(name, "."),
		strings.ContainsAny(name, `/\:`+"\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// List returns every directory under the root that holds a config file,
// sorted by name. Unreadable configs are listed with zero counts.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, opError("list", s.root, ErrIO, err)
	}

	out := []Summary{}
	for _, e := range entries {
		if !e.IsDir() || ValidateName(e.Name()) != nil {
			continue
		}
		data, err := os.ReadFile(s.ConfigPath(e.Name()))
		if err != nil {
			continue
		}
		sum := Summary{Name: e.Name()}
		var head struct {
			LastModified string            `json:"last_modified"`
			Images       []json.RawMessage `json:"images"`
			InfoAreas    []json.RawMessage `json:"info_areas"`
		}
		if err := json.Unmarshal(data, &head); err == nil {
			sum.LastModified = head.LastModified
			sum.Areas = len(head.InfoAreas)
			sum.Images = len(head.Images)
		}
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Create makes a new project from doc, or an empty one when doc is nil.
func (s *Store) Create(name string, doc *document.Project) (*document.Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := s.Dir(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, opError("create", dir, ErrExists, nil)
	}
	if err := os.MkdirAll(s.ImagesDir(name), 0o755); err != nil {
		return nil, opError("create", dir, ErrIO, err)
	}

	if doc == nil {
		doc = document.NewEmptyProject(name, s.defaults)
	}
	doc.ProjectName = name
	if _, err := s.Save(name, doc); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	slog.Info("project created", "name", name)
	return doc, nil
}

// Load reads a project. It never substitutes a default document: a missing,
// empty, or corrupt config is reported with the matching error kind.
func (s *Store) Load(name string) (*document.Project, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path := s.ConfigPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, opError("load", path, ErrNotFound, err)
		}
		return nil, opError("load", path, ErrIO, err)
	}
	doc, err := decode(data)
	if err != nil {
		return nil, opError("load", path, errorKind(err), err)
	}
	if doc.ProjectName == "" {
		doc.ProjectName = name
	}
	return doc, nil
}

var errEmptyConfig = errors.New("no content")

func decode(data []byte) (*document.Project, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyConfig
	}
	var doc document.Project
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func errorKind(err error) error {
	if errors.Is(err, errEmptyConfig) {
		return ErrEmpty
	}
	return ErrParse
}

// Save writes doc to the project's config file. Images without recorded
// dimensions are probed first. When nothing but the timestamp would change
// the write is skipped and saved is false. On success doc receives the new
// timestamp and any probed dimensions; on failure doc is left untouched.
func (s *Store) Save(name string, doc *document.Project) (saved bool, err error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	path := s.ConfigPath(name)

	snapshot, err := doc.Clone()
	if err != nil {
		return false, opError("save", path, ErrIO, err)
	}
	s.backfillDimensions(name, snapshot)

	snapshot.LastModified = ""
	body, err := json.Marshal(snapshot)
	if err != nil {
		return false, opError("save", path, ErrIO, err)
	}
	digest := blake2b.Sum256(body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.digests[name]; ok && last == digest {
		return false, nil
	}

	snapshot.LastModified = s.now().UTC().Format(TimeFormat)
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return false, opError("save", path, ErrIO, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return false, opError("save", path, ErrIO, err)
	}

	s.digests[name] = digest
	doc.LastModified = snapshot.LastModified
	for _, img := range snapshot.Images {
		if c := doc.Image(img.ID); c != nil && !c.HasDimensions() {
			c.OriginalWidth, c.OriginalHeight = img.OriginalWidth, img.OriginalHeight
		}
	}
	slog.Debug("project saved", "name", name, "lastModified", doc.LastModified)
	return true, nil
}

// IsOwnWrite reports whether data is the config this store last wrote for
// the project, ignoring the timestamp.
func (s *Store) IsOwnWrite(name string, data []byte) bool {
	doc, err := decode(data)
	if err != nil {
		return false
	}
	doc.LastModified = ""
	body, err := json.Marshal(doc)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.digests[name]
	return ok && last == blake2b.Sum256(body)
}

func (s *Store) forget(name string) {
	s.mu.Lock()
	delete(s.digests, name)
	s.mu.Unlock()
}

// writeFileAtomic replaces path through a temporary file in the same
// directory so readers never see a partial config.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Copy duplicates a project. The config is cloned verbatim except for
// project_name and last_modified; every file under images/ is copied.
func (s *Store) Copy(src, dst string) error {
	if err := ValidateName(src); err != nil {
		return err
	}
	if err := ValidateName(dst); err != nil {
		return err
	}
	srcPath := s.ConfigPath(src)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return opError("copy", srcPath, ErrNotFound, err)
		}
		return opError("copy", srcPath, ErrIO, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return opError("copy", srcPath, ErrParse, err)
	}
	name, _ := json.Marshal(dst)
	stamp, _ := json.Marshal(s.now().UTC().Format(TimeFormat))
	fields["project_name"] = name
	fields["last_modified"] = stamp
	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return opError("copy", srcPath, ErrParse, err)
	}

	dstDir := s.Dir(dst)
	if _, err := os.Stat(dstDir); err == nil {
		return opError("copy", dstDir, ErrExists, nil)
	}
	if err := os.MkdirAll(s.ImagesDir(dst), 0o755); err != nil {
		return opError("copy", dstDir, ErrIO, err)
	}
	if err := copyDir(s.ImagesDir(src), s.ImagesDir(dst)); err != nil {
		os.RemoveAll(dstDir)
		return opError("copy", dstDir, ErrIO, err)
	}
	if err := writeFileAtomic(s.ConfigPath(dst), out); err != nil {
		os.RemoveAll(dstDir)
		return opError("copy", dstDir, ErrIO, err)
	}
	slog.Info("project copied", "from", src, "to", dst)
	return nil
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyFile copies one file, creating the destination directory.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return copyFile(src, dst)
}

// Delete removes a project directory and everything in it.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dir := s.Dir(name)
	if _, err := os.Stat(dir); err != nil {
		return opError("delete", dir, ErrNotFound, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return opError("delete", dir, ErrIO, err)
	}
	s.forget(name)
	slog.Info("project deleted", "name", name)
	return nil
}
