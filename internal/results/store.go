// Package results persists plate reads to disk.
//
// Each read gets its own directory, result_<unix ms>, holding metadata.json,
// the cropped plate image and a copy of the source image.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// MetadataFile is the name of the record written in every result directory.
const MetadataFile = "metadata.json"

// Record is the metadata stored with a result.
type Record struct {
	OriginalImage  string `json:"originalImage"`
	Timestamp      int64  `json:"timestamp"`
	RecognizedText string `json:"recognizedText"`
	ProcessingDate string `json:"processingDate"`
}

// Store writes results under a root directory.
type Store struct {
	root string
	now  func() time.Time
	log  logrus.FieldLogger
}

// NewStore returns a store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{root: dir, now: time.Now, log: log}
}

// Root returns the directory results are written under.
func (s *Store) Root() string {
	return s.root
}

// Save writes a result for the image at originalPath and returns the result
// directory. plate is the cropped plate image; mimeType selects its file
// extension.
func (s *Store) Save(originalPath string, plate []byte, mimeType, text string) (string, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	now := s.now()
	dir, stamp, err := s.mkResultDir(now.UnixMilli())
	if err != nil {
		return "", err
	}

	record := Record{
		OriginalImage:  originalPath,
		Timestamp:      stamp,
		RecognizedText: text,
		ProcessingDate: now.UTC().Format(time.RFC3339Nano),
	}
	meta, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), meta, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	plateName := "plate" + extension(mimeType, originalPath)
	if err := os.WriteFile(filepath.Join(dir, plateName), plate, 0644); err != nil {
		return "", fmt.Errorf("failed to write plate image: %w", err)
	}

	if err := copyFile(originalPath, filepath.Join(dir, "original"+strings.ToLower(filepath.Ext(originalPath)))); err != nil {
		return "", fmt.Errorf("failed to copy original image: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"dir":  dir,
		"text": text,
	}).Info("recognition result saved")
	return dir, nil
}

// mkResultDir creates result_<stamp>, moving to the next millisecond while
// the name is taken.
func (s *Store) mkResultDir(stamp int64) (string, int64, error) {
	for {
		dir := filepath.Join(s.root, fmt.Sprintf("result_%d", stamp))
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, stamp, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", 0, fmt.Errorf("failed to create result directory: %w", err)
		}
		stamp++
	}
}

// Load reads the record in a result directory.
func Load(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	return &r, nil
}

func extension(mimeType, fallbackPath string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	if ext := filepath.Ext(fallbackPath); ext != "" {
		return strings.ToLower(ext)
	}
	return ".img"
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
