package relabel

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/setlabel/internal/fsutil"
)

// ClassDictionary maps a raw class id to its class name.
type ClassDictionary map[uint32]string

// IDs returns the class ids in ascending order.
func (d ClassDictionary) IDs() []uint32 {
	ids := make([]uint32, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefinitionFormat identifies the layout of a class definition document.
type DefinitionFormat int

const (
	// FormatXML is the point_labeler labels.xml layout:
	// <config><label><name>car</name><id>10</id></label>...</config>
	FormatXML DefinitionFormat = iota
	// FormatYAML is the semantic-kitti.yaml layout: labels: {10: car, ...}
	FormatYAML
	// FormatJSON is {"labels": {"10": "car", ...}}.
	FormatJSON
)

func (f DefinitionFormat) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// DefinitionFormatFromPath picks the format from the file extension.
func DefinitionFormatFromPath(path string) (DefinitionFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: unrecognised definition document extension %q", ErrConfig, filepath.Ext(path))
}

// LoadClassDictionary reads and parses a definition document.
func LoadClassDictionary(fsys fsutil.FileSystem, path string) (ClassDictionary, error) {
	format, err := DefinitionFormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading definition document: %v", ErrConfig, err)
	}
	dict, err := ParseClassDictionary(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	diagf("Loaded %d class definitions from %s", len(dict), path)
	return dict, nil
}

type xmlLabelConfig struct {
	XMLName xml.Name   `xml:"config"`
	Labels  []xmlLabel `xml:"label"`
}

type xmlLabel struct {
	Name string `xml:"name"`
	ID   string `xml:"id"`
}

type labelDocument struct {
	Labels map[string]string `yaml:"labels"`
}

// ParseClassDictionary decodes a definition document. An empty document,
// an entry without a name or id, and a repeated id are all ErrConfig.
func ParseClassDictionary(data []byte, format DefinitionFormat) (ClassDictionary, error) {
	var pairs [][2]string
	switch format {
	case FormatXML:
		var doc xmlLabelConfig
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing label XML: %v", ErrConfig, err)
		}
		for _, l := range doc.Labels {
			pairs = append(pairs, [2]string{strings.TrimSpace(l.ID), strings.TrimSpace(l.Name)})
		}
	case FormatYAML, FormatJSON:
		// JSON is a subset of YAML, so one decoder serves both.
		var doc labelDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parsing label %s: %v", ErrConfig, format, err)
		}
		for id, name := range doc.Labels {
			pairs = append(pairs, [2]string{strings.TrimSpace(id), strings.TrimSpace(name)})
		}
	default:
		return nil, fmt.Errorf("%w: unknown definition format %d", ErrConfig, format)
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: definition document has no labels", ErrConfig)
	}

	dict := make(ClassDictionary, len(pairs))
	for _, p := range pairs {
		idText, name := p[0], p[1]
		if idText == "" || name == "" {
			return nil, fmt.Errorf("%w: label entry %q/%q is missing an id or name", ErrConfig, idText, name)
		}
		id, err := strconv.ParseUint(idText, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: label %q has invalid id %q", ErrConfig, name, idText)
		}
		if prev, dup := dict[uint32(id)]; dup {
			return nil, fmt.Errorf("%w: id %d defined twice (%q, %q)", ErrConfig, id, prev, name)
		}
		dict[uint32(id)] = name
	}
	return dict, nil
}
