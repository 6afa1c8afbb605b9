// Package fixture builds string environments from YAML documents of the form
//
//	leaves:
//	  macro: vec
//	repeats:
//	  - name: args
//	    elide: 1
//	    elements:
//	      - leaves: {arg: a}
//	      - leaves: {arg: b}
//	anonymize: [args]
//
// Each element of a repeat is itself a document.
package fixture

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mbe-go/mbe"
	"mbe-go/name"
)

var ErrSyntax = errors.New("invalid fixture")

type document struct {
	Leaves    yaml.Node `yaml:"leaves"`
	Repeats   []repeat  `yaml:"repeats"`
	Anonymize []string  `yaml:"anonymize"`
}

type repeat struct {
	Name     string     `yaml:"name"`
	Elide    *int       `yaml:"elide"`
	Elements []document `yaml:"elements"`
}

func syntaxError(node *yaml.Node, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if node != nil && node.Line > 0 {
		return fmt.Errorf("%w: line %d: %s", ErrSyntax, node.Line, msg)
	}
	return fmt.Errorf("%w: %s", ErrSyntax, msg)
}

// Parse builds the tree described by data, interning names in in (the
// default interner when nil).
func Parse(data []byte, in *name.Interner) (mbe.Env[string], error) {
	if in == nil {
		in = name.Default()
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return mbe.Env[string]{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return build(&doc, in)
}

// Load reads and parses the fixture at path.
func Load(path string, in *name.Interner) (mbe.Env[string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mbe.Env[string]{}, fmt.Errorf("loading '%s': %w", path, err)
	}
	e, err := Parse(data, in)
	if err != nil {
		return mbe.Env[string]{}, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

func build(doc *document, in *name.Interner) (mbe.Env[string], error) {
	res := mbe.New[string]()
	if err := addLeaves(&res, &doc.Leaves, in); err != nil {
		return mbe.Env[string]{}, err
	}

	for i := range doc.Repeats {
		rep := &doc.Repeats[i]
		elts := make([]mbe.Env[string], 0, len(rep.Elements))
		for j := range rep.Elements {
			elt, err := build(&rep.Elements[j], in)
			if err != nil {
				return mbe.Env[string]{}, err
			}
			elts = append(elts, elt)
		}

		elide := mbe.NoElision
		if rep.Elide != nil {
			var err error
			if elide, err = mbe.TryElideAt(*rep.Elide); err != nil {
				return mbe.Env[string]{}, syntaxError(nil, "repeat %d: negative elide %d", i, *rep.Elide)
			}
		}

		if rep.Name == "" {
			res.AddAnonRepeat(elts, elide)
			continue
		}
		n, err := in.TryIntern(rep.Name)
		if err != nil {
			return mbe.Env[string]{}, err
		}
		if err := res.AddNamedRepeat(n, elts, elide); err != nil {
			return mbe.Env[string]{}, fmt.Errorf("repeat '%s': %w", rep.Name, err)
		}
	}

	for _, s := range doc.Anonymize {
		n, ok := in.Lookup(s)
		if !ok {
			continue
		}
		res.Anonymize(n)
	}
	return res, nil
}

func addLeaves(e *mbe.Env[string], node *yaml.Node, in *name.Interner) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return syntaxError(node, "leaves must be a mapping")
	}
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return syntaxError(k, "leaf names must be scalars")
		}
		if v.Kind != yaml.ScalarNode {
			return syntaxError(v, "leaf '%s' must be a scalar", k.Value)
		}
		if seen[k.Value] {
			return syntaxError(k, "leaf '%s' bound twice", k.Value)
		}
		seen[k.Value] = true
		n, err := in.TryIntern(k.Value)
		if err != nil {
			return err
		}
		e.AddLeaf(n, v.Value)
	}
	return nil
}
