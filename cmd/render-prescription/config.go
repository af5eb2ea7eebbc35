package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gardar/rxscribe/pkg/rxpdf"
)

// yamlConfig mirrors the optional configuration file:
//
//	clinic:
//	  name: "Eye Care Clinic"
//	  address: "12 University Street"
//	  address_arabic: "١٢ شارع الجامعة"
//	  contact: "Tel: +1 555 0100"
//	  header: ["Eye Care Clinic", "عيادة العيون"]
//	letterhead: letterhead.pdf
//	digit_offset: -1.5
//	fonts:
//	  dirs: [/opt/fonts]
//	  search_system: true
//	  download: true
//	translation:
//	  google: true
//	  timeout: 5s
//	  max_failures: 3
//	  glossary:
//	    "Use sparingly": "استخدم باعتدال"
type yamlConfig struct {
	Clinic      *rxpdf.Clinic `yaml:"clinic"`
	Letterhead  string        `yaml:"letterhead"`
	DigitOffset *float64      `yaml:"digit_offset"`
	Fonts       struct {
		Dirs         []string `yaml:"dirs"`
		Latin        string   `yaml:"latin"`
		LatinBold    string   `yaml:"latin_bold"`
		CacheDir     string   `yaml:"cache_dir"`
		DownloadURL  string   `yaml:"download_url"`
		SearchSystem *bool    `yaml:"search_system"`
		Download     *bool    `yaml:"download"`
	} `yaml:"fonts"`
	Translation struct {
		Google      *bool             `yaml:"google"`
		Timeout     time.Duration     `yaml:"timeout"`
		MaxFailures *int              `yaml:"max_failures"`
		Glossary    map[string]string `yaml:"glossary"`
	} `yaml:"translation"`

	dir string
}

// loadConfig reads a YAML file. Relative paths inside it are resolved
// against the file's directory.
func loadConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	yc.dir = filepath.Dir(path)
	return &yc, nil
}

func (yc *yamlConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || yc.dir == "" {
		return p
	}
	return filepath.Join(yc.dir, p)
}

// google reports whether the Cloud Translation adapter may be used.
func (yc *yamlConfig) google() bool {
	return yc.Translation.Google == nil || *yc.Translation.Google
}
