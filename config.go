package sinklog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// documentFormat is the syntax of a configuration document.
type documentFormat int

const (
	documentJSON documentFormat = iota
	documentYAML
	documentTOML
)

// detectDocumentFormat picks the parser from the file extension; anything
// other than .yaml, .yml or .toml is read as JSON.
func detectDocumentFormat(path string) documentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return documentYAML
	case ".toml":
		return documentTOML
	default:
		return documentJSON
	}
}

// loadDocument reads and parses the configuration document at path.
func loadDocument(path string) (map[string]any, error) {
	const op errors.Op = "sinklog.loadDocument"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(op).Err(wrapConfiguration(err)).Msg(errMsgConfigOpen)
	}

	doc := map[string]any{}
	switch detectDocumentFormat(path) {
	case documentYAML:
		err = yaml.Unmarshal(data, &doc)
	case documentTOML:
		var tree *toml.Tree
		if tree, err = toml.LoadBytes(data); err == nil {
			doc = tree.ToMap()
		}
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.New(op).Err(wrapConfiguration(fmt.Errorf("%s: %w", path, err))).Msg(errMsgConfigParse)
	}
	return doc, nil
}

// lookupSection follows the dotted keyPath from the document root. An empty
// keyPath selects the root.
func lookupSection(doc map[string]any, keyPath string) (map[string]any, error) {
	const op errors.Op = "sinklog.lookupSection"

	section := doc
	if strings.TrimSpace(keyPath) == emptyString {
		return section, nil
	}
	for _, key := range strings.Split(keyPath, ".") {
		value, ok := section[key]
		if !ok {
			return nil, errors.New(op).Err(fmt.Errorf("%w: %q", ErrConfiguration, keyPath)).Msg(errMsgConfigKeyMissing)
		}
		next, ok := asSection(value)
		if !ok {
			return nil, errors.New(op).Err(fmt.Errorf("%w: %q is not an object", ErrConfiguration, key)).Msg(errMsgConfigSection)
		}
		section = next
	}
	return section, nil
}

// asSection accepts the object shapes produced by the supported parsers.
func asSection(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// decodeSinkConfig decodes one severity entry. Unknown keys are rejected and
// a single string is accepted where a list of paths is expected.
func decodeSinkConfig(value any) (*sinkConfig, error) {
	cfg := &sinkConfig{}
	if value == nil {
		return cfg, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(value); err != nil {
		return nil, err
	}
	return cfg, nil
}

// transformWithConfiguration applies the configuration section at keyPath to
// b. "format" is passed to SetFormat, "destination" to SetDestination when
// acceptsDestination is set (and ignored otherwise); every other key must
// name a severity. Nothing is applied unless the whole section is valid.
func transformWithConfiguration(b Builder, docPath, keyPath string, acceptsDestination bool) error {
	const op errors.Op = "sinklog.TransformWithConfiguration"

	doc, err := loadDocument(docPath)
	if err != nil {
		return err
	}
	section, err := lookupSection(doc, keyPath)
	if err != nil {
		return err
	}

	var (
		format, destination       string
		hasFormat, hasDestination bool
		sinks                     = map[Severity]*sinkConfig{}
	)

	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := section[key]
		switch strings.ToLower(key) {
		case configKeyFormat:
			s, ok := value.(string)
			if !ok {
				return errors.New(op).Err(fmt.Errorf("%w: %q must be a string", ErrConfiguration, key)).Msg(errMsgConfigSection)
			}
			format, hasFormat = s, true
		case configKeyDestination:
			s, ok := value.(string)
			if !ok {
				return errors.New(op).Err(fmt.Errorf("%w: %q must be a string", ErrConfiguration, key)).Msg(errMsgConfigSection)
			}
			destination, hasDestination = s, true
		default:
			sev, err := ParseSeverity(key)
			if err != nil {
				return errors.New(op).Err(err).Msg(errMsgConfigSection)
			}
			cfg, err := decodeSinkConfig(value)
			if err != nil {
				return errors.New(op).Err(wrapConfiguration(fmt.Errorf("%s: %w", key, err))).Msg(errMsgConfigSection)
			}
			merged := sinkFor(sinks, sev)
			merged.Console = merged.Console || cfg.Console
			for _, p := range cfg.Paths {
				merged.addPath(p)
			}
		}
	}

	if hasDestination && acceptsDestination {
		if err := b.SetDestination(destination); err != nil {
			return err
		}
	}
	if hasFormat {
		b.SetFormat(format)
	}
	for _, sev := range sortedSeverities(sinks) {
		cfg := sinks[sev]
		if cfg.Console {
			b.AddConsoleStream(sev)
		}
		for _, p := range cfg.Paths {
			b.AddFileStream(p, sev)
		}
	}
	return nil
}
