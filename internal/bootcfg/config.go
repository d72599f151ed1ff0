// Package bootcfg loads the memory-map/board configuration the firmware
// would otherwise hand the kernel as an ATAG list. Expressing it as YAML
// (rather than re-parsing raw ATAGs, which lives in boot/ out of this
// core's scope) follows the teacher's own config-loading idiom
// (internal/bundle/bundle.go, cmd/ccapp/site_config.go both decode
// gopkg.in/yaml.v3 documents into plain structs).
package bootcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes the physical memory map handed to the allocator and VM
// manager at boot. Fields mirror exactly what an ATAG MEM entry plus the
// linker-provided __text_end would supply.
type Config struct {
	// RAMEnd is the first byte past the end of installed RAM.
	RAMEnd uint64 `yaml:"ram_end"`
	// KernelImageEnd is the linker's __text_end: where the kernel image
	// (and therefore the heap) begins.
	KernelImageEnd uint64 `yaml:"kernel_image_end"`
	// FSRootPath is the FAT32 root-relative path user programs are
	// loaded from by default (passed straight to the fsimg.Source the
	// caller provides).
	FSRootPath string `yaml:"fs_root_path"`
}

// Default matches the stock Raspberry Pi 3 Model B (1 GiB RAM).
func Default() Config {
	return Config{
		RAMEnd:         1 << 30,
		KernelImageEnd: 0x100000,
		FSRootPath:     "/",
	}
}

// Load reads a Config from a YAML file, falling back to Default for any
// zero-valued field.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("bootcfg: read %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, fmt.Errorf("bootcfg: parse %s: %w", path, err)
	}

	if loaded.RAMEnd != 0 {
		cfg.RAMEnd = loaded.RAMEnd
	}
	if loaded.KernelImageEnd != 0 {
		cfg.KernelImageEnd = loaded.KernelImageEnd
	}
	if loaded.FSRootPath != "" {
		cfg.FSRootPath = loaded.FSRootPath
	}

	return cfg, nil
}
