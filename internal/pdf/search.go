package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Search finds PDF files below a directory.
type Search struct {
	validator *Validator
}

// NewSearch creates a search that filters files through validator.
func NewSearch(validator *Validator) *Search {
	return &Search{validator: validator}
}

// SearchDirectory lists the PDF files below req.Directory whose names match
// req.Query. Matching is case-insensitive: a substring of the file name, or
// every query word found within some word of the name.
func (s *Search) SearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	query := strings.ToLower(strings.TrimSpace(req.Query))

	files, dir, err := s.walk(req.Directory, 0, func(name string) bool {
		return matchesQuery(name, query)
	})
	if err != nil {
		return nil, err
	}

	return &PDFSearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   dir,
		SearchQuery: req.Query,
	}, nil
}

// FindPDFsInDirectoryLimited returns at most limit PDF files below
// directory. A limit of zero means no limit.
func (s *Search) FindPDFsInDirectoryLimited(directory string, limit int) ([]FileInfo, error) {
	files, _, err := s.walk(directory, limit, func(string) bool { return true })
	return files, err
}

func (s *Search) walk(directory string, limit int, match func(name string) bool) ([]FileInfo, string, error) {
	if directory == "" {
		return nil, "", fmt.Errorf("directory cannot be empty")
	}
	root, err := filepath.Abs(directory)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("directory does not exist: %s", directory)
	}

	files := []FileInfo{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil //nolint:nilerr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		// WalkDir does not follow symlinks, so everything seen is below root.
		if d.Type()&fs.ModeSymlink != 0 || !isPDFName(d.Name()) || !match(d.Name()) {
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("error walking directory: %w", err)
	}
	return files, root, nil
}

// matchesQuery performs fuzzy matching on the filename
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	words := splitIntoWords(strings.TrimSuffix(name, ".pdf"))
	for _, q := range splitIntoWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits a string into lowercase words using common separators
func splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return strings.ContainsRune(" _-.()[]", r)
	})
}
