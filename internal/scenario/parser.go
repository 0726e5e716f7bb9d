package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ops = map[string]bool{
	"new_map":   true,
	"put":       true,
	"get":       true,
	"remove":    true,
	"size":      true,
	"iter":      true,
	"global":    true,
	"drop":      true,
	"frame":     true,
	"parse_int": true,
	"throw":     true,
	"collect":   true,
}

// ParseFile parses a suite from the given file path. A suite without a name
// is named after the file.
func ParseFile(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	suite, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return suite, nil
}

// Parse parses a suite from the given reader and validates its steps.
func Parse(r io.Reader) (*Suite, error) {
	var suite Suite
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario file")
		}
		return nil, err
	}
	for i := range suite.Scenarios {
		sc := &suite.Scenarios[i]
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("scenario %d", i+1)
		}
		if err := validate(sc.Setup); err != nil {
			return nil, fmt.Errorf("%s: setup: %w", sc.Name, err)
		}
		if err := validate(sc.Steps); err != nil {
			return nil, fmt.Errorf("%s: %w", sc.Name, err)
		}
	}
	return &suite, nil
}

func validate(steps []Step) error {
	for i, st := range steps {
		if !ops[st.Op] {
			return fmt.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
		var missing string
		switch st.Op {
		case "new_map":
			if st.As == "" {
				missing = "as"
			}
		case "put", "get", "remove":
			if st.Map == "" {
				missing = "map"
			}
		case "size", "iter", "drop":
			if st.Map == "" {
				missing = "map"
			}
		case "global":
			if st.Map == "" {
				missing = "map"
			} else if st.As == "" {
				missing = "as"
			}
		case "throw":
			if st.Class == "" {
				missing = "class"
			}
		case "frame":
			if err := validate(st.Steps); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if missing != "" {
			return fmt.Errorf("step %d: %s requires %q", i+1, st.Op, missing)
		}
		if st.Want != nil && st.Absent {
			return fmt.Errorf("step %d: want and absent are exclusive", i+1)
		}
	}
	return nil
}
