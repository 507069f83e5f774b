// Package catalog holds the compiled-in seed content: the keyword
// response table, the knowledge paragraphs and the clinic directory.
package catalog

import (
	"embed"
	"fmt"

	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

type keywordFile struct {
	Keywords []struct {
		Keyword  string `yaml:"keyword"`
		Response string `yaml:"response"`
	} `yaml:"keywords"`
}

type knowledgeFile struct {
	Knowledge []string `yaml:"knowledge"`
}

type clinicFile struct {
	Clinics []struct {
		ID      int64   `yaml:"id"`
		Name    string  `yaml:"name"`
		Address string  `yaml:"address"`
		Lat     float64 `yaml:"lat"`
		Lng     float64 `yaml:"lng"`
		Phone   string  `yaml:"phone"`
	} `yaml:"clinics"`
}

func decode(name string, out any) error {
	raw, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// KeywordEntries returns the raw keyword entries in file order,
// duplicates included.
func KeywordEntries() ([]chat.Entry, error) {
	var f keywordFile
	if err := decode("keywords.yaml", &f); err != nil {
		return nil, err
	}
	entries := make([]chat.Entry, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		entries = append(entries, chat.NewEntry(k.Keyword, k.Response))
	}
	return entries, nil
}

// Keywords returns the keyword table built from KeywordEntries.
func Keywords() (chat.KeywordTable, error) {
	entries, err := KeywordEntries()
	if err != nil {
		return chat.KeywordTable{}, err
	}
	return chat.NewKeywordTable(entries), nil
}

// Knowledge returns the knowledge paragraphs in order.
func Knowledge() ([]string, error) {
	var f knowledgeFile
	if err := decode("knowledge.yaml", &f); err != nil {
		return nil, err
	}
	return f.Knowledge, nil
}

// Clinics returns the reference clinic list used to seed an empty table.
func Clinics() ([]clinic.Clinic, error) {
	var f clinicFile
	if err := decode("clinics.yaml", &f); err != nil {
		return nil, err
	}
	clinics := make([]clinic.Clinic, 0, len(f.Clinics))
	for _, c := range f.Clinics {
		clinics = append(clinics, clinic.Reconstruct(c.ID, c.Name, c.Address, c.Lat, c.Lng, c.Phone))
	}
	return clinics, nil
}
