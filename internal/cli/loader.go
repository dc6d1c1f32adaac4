package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/roach88/machinist/internal/machine"
)

// LoadSchematic reads a schematic definition from a .cue, .yaml or .yml file.
//
// The loader only shapes the file into the Schematic structure; it performs
// no semantic validation of states or transitions. That is the execution
// engine's concern, not the repository's.
func LoadSchematic(path string) (machine.Schematic, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return machine.Schematic{}, fmt.Errorf("schematic file not found: %s", path)
	}
	if err != nil {
		return machine.Schematic{}, fmt.Errorf("error accessing schematic file: %w", err)
	}
	if info.IsDir() {
		return machine.Schematic{}, fmt.Errorf("not a file: %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUESchematic(path)
	case ".yaml", ".yml":
		return loadYAMLSchematic(path)
	default:
		return machine.Schematic{}, fmt.Errorf("unsupported schematic file type %q (want .cue, .yaml or .yml)", filepath.Ext(path))
	}
}

// loadCUESchematic loads and evaluates a single CUE file, then decodes the
// resulting value into a Schematic.
func loadCUESchematic(path string) (machine.Schematic, error) {
	instances := load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: filepath.Dir(path)})
	if len(instances) == 0 {
		return machine.Schematic{}, fmt.Errorf("no CUE instance loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return machine.Schematic{}, fmt.Errorf("load CUE %s: %w", path, inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return machine.Schematic{}, fmt.Errorf("build CUE %s: %w", path, err)
	}

	var s machine.Schematic
	if err := value.Decode(&s); err != nil {
		return machine.Schematic{}, fmt.Errorf("decode CUE %s: %w", path, err)
	}
	return s, nil
}

// loadYAMLSchematic parses a YAML schematic file.
func loadYAMLSchematic(path string) (machine.Schematic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return machine.Schematic{}, fmt.Errorf("read %s: %w", path, err)
	}

	var s machine.Schematic
	if err := yaml.Unmarshal(data, &s); err != nil {
		return machine.Schematic{}, fmt.Errorf("parse YAML %s: %w", path, err)
	}
	return s, nil
}
