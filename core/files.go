package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/src-d/enry/v2"

	"github.com/defectlab/defectscan/internal/contract"
	"github.com/defectlab/defectscan/schema"
)

// DecodeBytes converts raw file bytes to text. Valid UTF-8 passes through
// unchanged; anything else is read byte-for-byte as Latin-1 so no input can
// fail decoding.
func DecodeBytes(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return string(runes)
}

// Digest returns the hex SHA-256 of raw content.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// DetectLanguage guesses the language from the file name and its content.
func DetectLanguage(name string, content []byte) string {
	lang := enry.GetLanguage(filepath.Base(name), content)
	if lang == "" {
		return "Other"
	}
	return lang
}

// AnalyzeBytes computes the full metrics report for one named blob of bytes.
// Metrics are memoized by content digest, so repeated content is extracted
// once no matter how many paths carry it.
func AnalyzeBytes(name string, raw []byte) *schema.FileReport {
	digest := Digest(raw)
	return &schema.FileReport{
		Path:      name,
		Language:  DetectLanguage(name, raw),
		SizeBytes: int64(len(raw)),
		Digest:    digest,
		Metrics:   cachedMetrics(digest, DecodeBytes(raw)),
	}
}

// AnalyzeFile reads and analyzes a single file on disk.
func AnalyzeFile(path string) (*schema.FileReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return AnalyzeBytes(path, raw), nil
}

// CollectFiles expands the given paths into a sorted, deduplicated list of
// regular files. Directories are walked recursively with excludes applied;
// explicitly listed files bypass the excludes.
func CollectFiles(paths []string, excludes []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		walkErr := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				contract.LogWarn(fmt.Sprintf("Skipping unreadable entry %s", path), err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel := filepath.ToSlash(path)
			if d.IsDir() {
				if path != p && contract.ShouldIgnore(rel+"/", excludes) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if contract.ShouldIgnore(rel, excludes) {
				return nil
			}
			add(path)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", p, walkErr)
		}
	}

	sort.Strings(files)
	return files, nil
}

// AnalyzeFiles runs the extractor over files with a bounded worker pool and
// returns reports sorted by path. Unreadable files are logged and skipped so
// one bad file never sinks a whole scan.
func AnalyzeFiles(cfg *contract.Config, files []string) []*schema.FileReport {
	fileCh := make(chan string, len(files))
	reportCh := make(chan *schema.FileReport, len(files))

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Go(func() {
			for f := range fileCh {
				report, err := AnalyzeFile(f)
				if err != nil {
					contract.LogWarn("Skipping unreadable file", err)
					continue
				}
				reportCh <- report
			}
		})
	}

	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	wg.Wait()
	close(reportCh)

	reports := make([]*schema.FileReport, 0, len(files))
	for r := range reportCh {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports
}
