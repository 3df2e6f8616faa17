package dwpack

import (
	"fmt"
	"io/ioutil"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/util"
)

// ErrUnsafePath is returned when extracting an entry whose path would leave
// the destination directory.
var ErrUnsafePath = errors.New("entry path escapes the destination directory")

// ArchivePath converts a slash separated path to the backslash separated
// form stored in archives.
func ArchivePath(p string) string {
	return strings.Replace(p, "/", `\`, -1)
}

// SlashPath converts an archive path to a slash separated path.
func SlashPath(p string) string {
	return strings.Replace(p, `\`, "/", -1)
}

// PacName returns the name of the pac numbered index belonging to the cpk
// with the given base name, e.g. data00001.pac.
func PacName(base string, index int) string {
	return fmt.Sprintf("%s%05d.pac", base, index)
}

// PacBase returns the path prefix of the pacs of the cpk called name. When
// the first pac is not found next to the cpk, the language suffix of the
// cpk name (everything from the first underscore) is dropped.
func PacBase(fs billy.Filesystem, name string) string {
	dir, file := splitPath(name)
	base := strings.TrimSuffix(file, path.Ext(file))

	if _, err := fs.Stat(fs.Join(dir, PacName(base, 0))); err != nil {
		if i := strings.IndexByte(base, '_'); i >= 0 {
			base = base[:i]
		}
	}

	return fs.Join(dir, base)
}

func splitPath(name string) (dir, file string) {
	i := strings.LastIndexAny(name, `/\`)
	if i < 0 {
		return "", name
	}

	return name[:i], name[i+1:]
}

type file struct {
	// path in the filesystem
	path string
	// name in the archive
	name string
}

// listFiles returns the regular files under dir, recursively, sorted by
// archive path.
func listFiles(fs billy.Filesystem, dir string) ([]file, error) {
	fi, err := fs.Stat(dir)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	var files []file
	if err := walk(fs, dir, nil, &files); err != nil {
		return nil, err
	}

	return files, nil
}

func walk(fs billy.Filesystem, dir string, parents []string, files *[]file) error {
	infos, err := fs.ReadDir(fs.Join(append([]string{dir}, parents...)...))
	if err != nil {
		return err
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name() < infos[j].Name()
	})

	for _, info := range infos {
		elems := append(append([]string(nil), parents...), info.Name())
		if info.IsDir() {
			if err := walk(fs, dir, elems, files); err != nil {
				return err
			}

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		*files = append(*files, file{
			path: fs.Join(append([]string{dir}, elems...)...),
			name: strings.Join(elems, `\`),
		})
	}

	return nil
}

func readFile(fs billy.Filesystem, name string) ([]byte, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}

	defer f.Close()
	return ioutil.ReadAll(f)
}

func writeFile(fs billy.Filesystem, name string, data []byte) error {
	if dir, _ := splitPath(name); dir != "" {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return util.WriteFile(fs, name, data, 0644)
}

// destination returns where the entry with archive path name is extracted
// under dir.
func destination(fs billy.Filesystem, dir, name string) (string, error) {
	elems := []string{dir}
	for _, e := range strings.Split(SlashPath(name), "/") {
		switch e {
		case "", ".":
			continue
		case "..":
			return "", errors.Wrapf(ErrUnsafePath, "%s", name)
		}

		elems = append(elems, e)
	}

	if len(elems) == 1 {
		return "", errors.Wrapf(ErrUnsafePath, "%q", name)
	}

	return fs.Join(elems...), nil
}
