package arm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/cpus.yaml
var cpuCatalogYAML []byte

// cpuModelSpec is one entry of the embedded CPU model catalog (spec §6.2
// cpu_init(name)).
type cpuModelSpec struct {
	Name            string   `yaml:"name"`
	Midr            uint32   `yaml:"midr"`
	Features        []string `yaml:"features"`
	NumMPURegions   int      `yaml:"num_mpu_regions"`
	AvailableEL2    bool     `yaml:"available_el2"`
	AvailableEL3    bool     `yaml:"available_el3"`
	V7M             bool     `yaml:"v7m"`
}

var featureNameToBit = map[string]Feature{
	"v4t":            FeatureV4T,
	"v5":             FeatureV5,
	"v6":             FeatureV6,
	"v6k":            FeatureV6K,
	"v7":             FeatureV7,
	"v8":             FeatureV8,
	"v7mp":           FeatureV7MP,
	"thumb2":         FeatureThumb2,
	"thumb2ee":       FeatureThumb2EE,
	"thumb_div":      FeatureThumbDiv,
	"arm_div":        FeatureArmDiv,
	"vfp":            FeatureVFP,
	"vfp3":           FeatureVFP3,
	"vfp4":           FeatureVFP4,
	"vfp_fp16":       FeatureVFPFP16,
	"neon":           FeatureNeon,
	"mpu":            FeatureMPU,
	"pmsa":           FeaturePMSA,
	"auxcr":          FeatureAuxCR,
	"xscale":         FeatureXScale,
	"strongarm":      FeatureStrongARM,
	"iwmmxt":         FeatureIWMMXT,
	"vapa":           FeatureVAPA,
	"generic_timer":  FeatureGenericTimer,
	"el2":            FeatureEL2,
	"el3":            FeatureEL3,
	"aarch64":        FeatureAArch64,
	"pmu":            FeaturePMU,
	"cbar_ro":        FeatureCBARRO,
	"omapcp":         FeatureOMAPCP,
}

// ListCPUModels returns the names of every CPU model in the embedded catalog,
// for CLI tooling that wants to present a menu or validate a -cpu flag.
func ListCPUModels() ([]string, error) {
	models, err := loadCPUCatalog()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names, nil
}

func loadCPUCatalog() ([]cpuModelSpec, error) {
	var models []cpuModelSpec
	if err := yaml.Unmarshal(cpuCatalogYAML, &models); err != nil {
		return nil, fmt.Errorf("arm: parsing embedded CPU catalog: %w", err)
	}
	return models, nil
}

// initCPUModel resolves name against the embedded catalog, sets Features,
// CPUModel, NumMPURegions, AvailableEL2/3 and MIDR, applies feature
// implications, and builds this CPU's
// system-register table (spec §6.2).
func (cpu *CPUState) initCPUModel(name string) error {
	models, err := loadCPUCatalog()
	if err != nil {
		return err
	}

	var spec *cpuModelSpec
	for i := range models {
		if models[i].Name == name {
			spec = &models[i]
			break
		}
	}
	if spec == nil {
		return fmt.Errorf("arm: unknown CPU model %q", name)
	}

	var features Feature
	for _, n := range spec.Features {
		bit, ok := featureNameToBit[n]
		if !ok {
			return fmt.Errorf("arm: unknown feature %q for CPU model %q", n, name)
		}
		features |= bit
	}
	features = applyImplications(features)

	cpu.CPUModel = spec.Name
	cpu.Features = features
	cpu.NumMPURegions = spec.NumMPURegions
	cpu.AvailableEL2 = spec.AvailableEL2
	cpu.AvailableEL3 = spec.AvailableEL3
	cpu.v7mProfile = spec.V7M
	cpu.Sys.Midr = spec.Midr

	cpu.buildTTable()
	return nil
}
